package webpay

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"rumor_backend/internal/config"
	"rumor_backend/internal/models"
	"rumor_backend/internal/orders"
)

// PaymentRequest est le payload signé prêt à partir vers WebPay.
// Objet transitoire : reconstruit à chaque tentative, jamais persisté,
// jamais réutilisé entre deux commandes.
type PaymentRequest struct {
	Action    string            `json:"action"`
	OrderNum  string            `json:"order_num"`
	Seed      string            `json:"seed"`
	Total     string            `json:"total"`
	Signature string            `json:"signature"`
	Fields    map[string]string `json:"fields"`
}

var lastSeed int64

// NewSeed génère un nonce par tentative, dérivé de l'horloge (ms) avec
// garantie de monotonie : deux requêtes signées ne partagent jamais le
// même seed, même dans la même milliseconde.
func NewSeed() string {
	now := time.Now().UnixMilli()
	for {
		last := atomic.LoadInt64(&lastSeed)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastSeed, last, now) {
			return strconv.FormatInt(now, 10)
		}
	}
}

// BuildPaymentRequest construit la requête de paiement signée.
// Le total est recalculé depuis les articles persistés — on ne fait pas
// confiance au total_price en cache de l'en-tête, toute dérive serait signée.
func BuildPaymentRequest(order *models.Order, items []models.OrderItem,
	cfg config.WebPayConfig, scheme SignatureScheme, seed string) (*PaymentRequest, error) {

	if len(items) == 0 {
		return nil, fmt.Errorf("commande %s sans articles", order.ID)
	}

	var total float64
	for _, it := range items {
		total += it.ProductPrice * float64(it.Quantity)
	}
	totalStr := fmt.Sprintf("%.2f", orders.Round2(total))

	orderNum := orders.OrderRef(order.ID)

	test := "0"
	if cfg.TestMode {
		test = "1"
	}

	signature := scheme.SignRequest(RequestFields{
		Seed:       seed,
		StoreID:    cfg.StoreID,
		OrderNum:   orderNum,
		Test:       test,
		CurrencyID: cfg.CurrencyID,
		Total:      totalStr,
	}, cfg.SecretKey)

	fields := map[string]string{
		"wsb_version":           "2",
		"wsb_language_id":       "russian",
		"wsb_storeid":           cfg.StoreID,
		"wsb_store":             cfg.StoreName,
		"wsb_order_num":         orderNum,
		"wsb_test":              test,
		"wsb_currency_id":       cfg.CurrencyID,
		"wsb_seed":              seed,
		"wsb_customer_name":     order.CustomerName,
		"wsb_customer_address":  order.DeliveryAddress,
		"wsb_return_url":        cfg.ReturnURL,
		"wsb_cancel_return_url": cfg.CancelURL,
		"wsb_notify_url":        cfg.NotifyURL,
		"wsb_email":             order.CustomerEmail,
		"wsb_phone":             digitsOnly(order.CustomerPhone),
		"wsb_total":             totalStr,
		"wsb_signature":         signature,
	}

	// Détail des articles, miroir 1:1 des lignes persistées, ordre stable
	for i, it := range items {
		fields[fmt.Sprintf("wsb_invoice_item_name[%d]", i)] = invoiceItemName(it)
		fields[fmt.Sprintf("wsb_invoice_item_quantity[%d]", i)] = strconv.Itoa(it.Quantity)
		fields[fmt.Sprintf("wsb_invoice_item_price[%d]", i)] = fmt.Sprintf("%.2f", it.ProductPrice)
	}

	return &PaymentRequest{
		Action:    cfg.GatewayURL,
		OrderNum:  orderNum,
		Seed:      seed,
		Total:     totalStr,
		Signature: signature,
		Fields:    fields,
	}, nil
}

// invoiceItemName compose le libellé facture : "Nom (taille) - couleur"
func invoiceItemName(it models.OrderItem) string {
	name := it.ProductName
	if it.Size != "" {
		name += " (" + it.Size + ")"
	}
	if it.Color != "" {
		name += " - " + it.Color
	}
	return name
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
