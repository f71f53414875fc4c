package orders

import (
	"context"
	"fmt"
	"math"
	"net/mail"
	"strings"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"rumor_backend/internal/models"
)

// Bornes de saisie côté serveur
const (
	MaxNameLen    = 100
	MaxEmailLen   = 255
	MaxPhoneLen   = 32
	MaxAddressLen = 500
	MaxCommentLen = 1000

	MinQuantity = 1
	MaxQuantity = 100
)

// RawOrderInput est le panier tel que soumis par le client — non fiable.
// product_price et product_name sont indicatifs : on les ignore et on reprend
// les valeurs du catalogue.
type RawOrderInput struct {
	CustomerName    string         `json:"customer_name"`
	CustomerEmail   string         `json:"customer_email"`
	CustomerPhone   string         `json:"customer_phone"`
	DeliveryAddress string         `json:"delivery_address"`
	DeliveryMethod  string         `json:"delivery_method"`
	PaymentMethod   string         `json:"payment_method"`
	Comment         string         `json:"comment"`
	Items           []RawOrderItem `json:"items"`
}

type RawOrderItem struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
	Quantity     int     `json:"quantity"`
	Size         string  `json:"size"`
	Color        string  `json:"color"`
}

// ValidatedOrder est le résultat assaini : total et prix unitaires recalculés
// exclusivement depuis le catalogue.
type ValidatedOrder struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	DeliveryAddress string
	DeliveryMethod  string
	PaymentMethod   string
	Comment         string
	TotalPrice      float64
	Items           []ValidatedItem
}

type ValidatedItem struct {
	ProductID    gocql.UUID
	ProductName  string
	ProductPrice float64
	Quantity     int
	Size         string
	Color        string
}

// Codes d'erreur de validation
const (
	ErrCodeInvalidField    = "invalid_field"
	ErrCodeProductNotFound = "product_not_found"
	ErrCodeEmptyCart       = "empty_cart"
)

// ValidationError : entrée refusée, aucun effet de bord.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"error"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalidField(field, msg string) *ValidationError {
	return &ValidationError{Code: ErrCodeInvalidField, Field: field, Message: msg}
}

// PriceInfo est le prix unitaire faisant foi, relu du catalogue.
type PriceInfo struct {
	Name  string
	Price float64
}

// PriceLookup récupère en une passe les prix courants d'un lot de produits.
// Les ids absents du résultat sont considérés introuvables.
type PriceLookup func(ctx context.Context, ids []gocql.UUID) (map[gocql.UUID]PriceInfo, error)

// ValidateAndPrice assainit la commande soumise et recalcule le total depuis
// les prix serveur. Un client ne peut pas payer moins que le prix catalogue en
// modifiant le corps de la requête.
func ValidateAndPrice(ctx context.Context, raw RawOrderInput, lookup PriceLookup) (*ValidatedOrder, error) {
	name, err := sanitizeString(raw.CustomerName, MaxNameLen)
	if err != nil || name == "" {
		return nil, invalidField("customer_name", "Nom client manquant ou invalide")
	}

	email, err := sanitizeString(raw.CustomerEmail, MaxEmailLen)
	if err != nil {
		return nil, invalidField("customer_email", "E-mail invalide")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalidField("customer_email", "E-mail invalide")
	}

	phone, err := normalizePhone(raw.CustomerPhone)
	if err != nil {
		return nil, invalidField("customer_phone", "Téléphone invalide (9 à 15 chiffres attendus)")
	}

	address, err := sanitizeString(raw.DeliveryAddress, MaxAddressLen)
	if err != nil {
		return nil, invalidField("delivery_address", "Adresse invalide")
	}
	if address == "" {
		// L'adresse est précisée plus tard par téléphone pour les commandes rapides
		address = "Уточняется"
	}

	deliveryMethod := raw.DeliveryMethod
	if deliveryMethod == "" {
		deliveryMethod = models.DeliveryMethodDelivery
	}
	if !models.IsValidDeliveryMethod(deliveryMethod) {
		return nil, invalidField("delivery_method", "Mode de livraison inconnu")
	}

	paymentMethod := raw.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodWebPay
	}
	if !models.IsValidPaymentMethod(paymentMethod) {
		return nil, invalidField("payment_method", "Moyen de paiement inconnu")
	}

	comment, err := sanitizeString(raw.Comment, MaxCommentLen)
	if err != nil {
		return nil, invalidField("comment", "Commentaire invalide")
	}

	if len(raw.Items) == 0 {
		return nil, &ValidationError{Code: ErrCodeEmptyCart, Message: "Panier vide"}
	}

	// Parse les ids produits et déduplique pour le batch
	parsedIDs := make([]gocql.UUID, 0, len(raw.Items))
	seen := make(map[gocql.UUID]bool)
	itemIDs := make([]gocql.UUID, len(raw.Items))
	for i, item := range raw.Items {
		pid, err := uuid.Parse(strings.TrimSpace(item.ProductID))
		if err != nil {
			return nil, invalidField("items", "ID produit invalide: "+item.ProductID)
		}
		itemIDs[i] = gocql.UUID(pid)
		if !seen[itemIDs[i]] {
			seen[itemIDs[i]] = true
			parsedIDs = append(parsedIDs, itemIDs[i])
		}
	}

	// ✅ Prix faisant foi : une seule passe catalogue pour tous les produits
	prices, err := lookup(ctx, parsedIDs)
	if err != nil {
		return nil, err
	}

	validated := &ValidatedOrder{
		CustomerName:    name,
		CustomerEmail:   email,
		CustomerPhone:   phone,
		DeliveryAddress: address,
		DeliveryMethod:  deliveryMethod,
		PaymentMethod:   paymentMethod,
		Comment:         comment,
		Items:           make([]ValidatedItem, 0, len(raw.Items)),
	}

	var total float64
	for i, item := range raw.Items {
		info, ok := prices[itemIDs[i]]
		if !ok {
			return nil, &ValidationError{
				Code:    ErrCodeProductNotFound,
				Field:   "items",
				Message: "Produit introuvable: " + item.ProductID,
			}
		}

		qty := clampQuantity(item.Quantity)

		size, err := sanitizeString(item.Size, MaxNameLen)
		if err != nil {
			return nil, invalidField("items", "Taille invalide")
		}
		color, err := sanitizeString(item.Color, MaxNameLen)
		if err != nil {
			return nil, invalidField("items", "Couleur invalide")
		}

		validated.Items = append(validated.Items, ValidatedItem{
			ProductID:    itemIDs[i],
			ProductName:  info.Name,
			ProductPrice: info.Price,
			Quantity:     qty,
			Size:         size,
			Color:        color,
		})
		total += info.Price * float64(qty)
	}

	validated.TotalPrice = Round2(total)
	return validated, nil
}

// Round2 arrondit à 2 décimales, demi vers le haut sur la valeur float64.
// Attention aux demi-centimes : l'arrondi porte sur le double binaire, pas sur
// le littéral décimal — 1.005 est stocké sous 1.0050 et donne donc 1.00, alors
// que 100.005 (stocké au-dessus) donne 100.01. Le catalogue ne porte pas de
// prix sous le centime.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func clampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// sanitizeString : trim, plafonne la longueur, refuse les caractères de contrôle
func sanitizeString(s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("caractère de contrôle interdit")
		}
	}
	if len(s) > max {
		runes := []rune(s)
		if len(runes) > max {
			runes = runes[:max]
		}
		s = strings.TrimSpace(string(runes))
	}
	return s, nil
}

// normalizePhone retire espaces/tirets/parenthèses puis valide
// un numéro de 9 à 15 chiffres avec '+' optionnel.
func normalizePhone(phone string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))

	digits := cleaned
	if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}
	if len(digits) < 9 || len(digits) > 15 {
		return "", fmt.Errorf("longueur invalide")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("caractère non numérique")
		}
	}
	return cleaned, nil
}
