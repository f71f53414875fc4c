package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"rumor_backend/internal/database"
	"rumor_backend/internal/models"
)

var (
	ErrOrderNotFound = errors.New("commande introuvable")
	ErrAmbiguousRef  = errors.New("référence de commande ambiguë")
)

// Référence marchande : "ORDER-" + 8 premiers caractères hex de l'UUID en majuscules.
// C'est elle (et pas l'UUID complet) que WebPay renvoie dans son webhook.
const (
	OrderRefTag    = "ORDER-"
	OrderRefLength = 8
)

// OrderRef dérive la référence marchande d'une commande
func OrderRef(orderID gocql.UUID) string {
	return OrderRefTag + strings.ToUpper(orderID.String()[:OrderRefLength])
}

// NormalizeOrderRef ramène une référence reçue (avec ou sans le tag, casse
// quelconque) à la clé canonique de lookup : 8 caractères hex en majuscules.
func NormalizeOrderRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(strings.ToUpper(ref), OrderRefTag)
	if len(ref) != OrderRefLength {
		return "", fmt.Errorf("référence invalide: %q", ref)
	}
	for _, r := range ref {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
			return "", fmt.Errorf("référence invalide: %q", ref)
		}
	}
	return ref, nil
}

// CreateOrder insère l'en-tête, la ligne de lookup par référence et les
// lignes d'articles. ScyllaDB n'a pas de transaction multi-tables : si une
// insertion d'article échoue, on supprime tout ce qui a déjà été écrit avant
// de rendre l'erreur — aucun en-tête ne survit sans ses articles.
func CreateOrder(ctx context.Context, v *ValidatedOrder) (gocql.UUID, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return gocql.UUID{}, fmt.Errorf("connexion base commandes: %w", err)
	}

	orderID := gocql.TimeUUID()
	ref := OrderRef(orderID)
	refKey := strings.TrimPrefix(ref, OrderRefTag)
	now := time.Now()

	if err := session.Query(database.StmtInsertOrder,
		orderID, v.CustomerName, v.CustomerEmail, v.CustomerPhone,
		v.DeliveryAddress, v.DeliveryMethod, v.PaymentMethod,
		v.TotalPrice, models.OrderStatusPending, v.Comment, now, now,
	).WithContext(ctx).Exec(); err != nil {
		return gocql.UUID{}, fmt.Errorf("insertion commande: %w", err)
	}

	if err := session.Query(database.StmtInsertOrderRef, refKey, orderID).
		WithContext(ctx).Exec(); err != nil {
		rollbackOrder(session, orderID, refKey)
		return gocql.UUID{}, fmt.Errorf("insertion référence: %w", err)
	}

	for _, item := range v.Items {
		if err := session.Query(database.StmtInsertOrderItem,
			orderID, gocql.TimeUUID(), item.ProductID, item.ProductName,
			item.ProductPrice, item.Quantity, item.Size, item.Color,
		).WithContext(ctx).Exec(); err != nil {
			rollbackOrder(session, orderID, refKey)
			return gocql.UUID{}, fmt.Errorf("insertion articles: %w", err)
		}
	}

	log.Printf("✅ Commande %s créée (%s, %.2f)", orderID, ref, v.TotalPrice)
	return orderID, nil
}

// rollbackOrder est la compensation synchrone : on nettoie articles,
// référence puis en-tête avant de retourner l'erreur à l'appelant.
func rollbackOrder(session *gocql.Session, orderID gocql.UUID, refKey string) {
	if err := session.Query(database.StmtDeleteOrderItems, orderID).Exec(); err != nil {
		log.Printf("❌ Rollback articles %s échoué: %v", orderID, err)
	}
	if err := session.Query(database.StmtDeleteOrderRef, refKey, orderID).Exec(); err != nil {
		log.Printf("❌ Rollback référence %s échoué: %v", orderID, err)
	}
	if err := session.Query(database.StmtDeleteOrder, orderID).Exec(); err != nil {
		log.Printf("❌ Rollback en-tête %s échoué: %v", orderID, err)
	}
	log.Printf("🧹 Commande %s annulée (rollback compensatoire)", orderID)
}

// GetOrder lit une commande et ses articles
func GetOrder(ctx context.Context, orderID gocql.UUID) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("connexion base commandes: %w", err)
	}

	var o models.Order
	if err := session.Query(database.StmtGetOrder, orderID).WithContext(ctx).Scan(
		&o.ID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.DeliveryAddress, &o.DeliveryMethod, &o.PaymentMethod,
		&o.TotalPrice, &o.Status, &o.Comment, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lecture commande: %w", err)
	}

	items, err := GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

// GetOrderItems lit les articles d'une commande
func GetOrderItems(ctx context.Context, orderID gocql.UUID) ([]models.OrderItem, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("connexion base commandes: %w", err)
	}

	iter := session.Query(database.StmtGetOrderItems, orderID).WithContext(ctx).Iter()
	var items []models.OrderItem
	var it models.OrderItem
	for iter.Scan(&it.OrderID, &it.ItemID, &it.ProductID, &it.ProductName,
		&it.ProductPrice, &it.Quantity, &it.Size, &it.Color) {
		items = append(items, it)
		it = models.OrderItem{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture articles: %w", err)
	}
	return items, nil
}

// FindOrderByRef résout une référence marchande vers la commande complète.
// Exactement une correspondance attendue : 0 → ErrOrderNotFound,
// plusieurs → ErrAmbiguousRef (collision de préfixe, arbitrage manuel).
func FindOrderByRef(ctx context.Context, ref string) (*models.Order, error) {
	refKey, err := NormalizeOrderRef(ref)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("connexion base commandes: %w", err)
	}

	iter := session.Query(database.StmtGetOrderIDsByRef, refKey).WithContext(ctx).Iter()
	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lookup référence: %w", err)
	}

	switch len(ids) {
	case 0:
		return nil, ErrOrderNotFound
	case 1:
		return GetOrder(ctx, ids[0])
	default:
		log.Printf("🚨 Référence %s ambiguë: %d commandes partagent le même préfixe", refKey, len(ids))
		return nil, ErrAmbiguousRef
	}
}

// TransitionStatus est l'unique mutateur de statut après création.
// Idempotent : réappliquer un statut déjà en place réussit sans dupliquer le
// commentaire d'audit. L'écriture est conditionnelle (CAS sur le statut lu)
// pour que deux livraisons webhook concurrentes convergent proprement.
// Retourne true si cet appel a réellement appliqué le changement, false si le
// statut était déjà en place — une seule des livraisons concurrentes d'un même
// événement voit true, c'est elle qui déclenche les effets de bord.
func TransitionStatus(ctx context.Context, orderID gocql.UUID, newStatus, auditComment string) (bool, error) {
	if !models.IsValidOrderStatus(newStatus) {
		return false, fmt.Errorf("statut inconnu: %q", newStatus)
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		return false, fmt.Errorf("connexion base commandes: %w", err)
	}

	for attempt := 0; attempt < 3; attempt++ {
		var current, comment string
		if err := session.Query(database.StmtGetOrderStatus, orderID).
			WithContext(ctx).Scan(&current, &comment); err != nil {
			if errors.Is(err, gocql.ErrNotFound) {
				return false, ErrOrderNotFound
			}
			return false, fmt.Errorf("lecture statut: %w", err)
		}

		if current == newStatus {
			// Déjà appliqué (relivraison webhook) — no-op
			log.Printf("🔁 Commande %s déjà en statut %s, on ignore", orderID, newStatus)
			return false, nil
		}

		merged := appendAuditComment(comment, auditComment)
		var prevStatus string
		applied, err := session.Query(database.StmtTransitionStatus,
			newStatus, merged, time.Now(), orderID, current,
		).WithContext(ctx).ScanCAS(&prevStatus)
		if err != nil {
			return false, fmt.Errorf("transition statut: %w", err)
		}
		if applied {
			log.Printf("✅ Commande %s: %s → %s", orderID, current, newStatus)
			return true, nil
		}
		// Perdu la course contre une écriture concurrente — on relit
	}

	return false, fmt.Errorf("transition concurrente non résolue pour %s", orderID)
}

// appendAuditComment ajoute une ligne d'audit sans écraser l'historique
// ni dupliquer une ligne identique déjà présente.
func appendAuditComment(existing, audit string) string {
	if audit == "" {
		return existing
	}
	if existing == "" {
		return audit
	}
	if strings.Contains(existing, audit) {
		return existing
	}
	return existing + "\n" + audit
}

// ListOrders retourne toutes les commandes (console admin), les plus
// récentes d'abord.
func ListOrders(ctx context.Context) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("connexion base commandes: %w", err)
	}

	iter := session.Query(`SELECT order_id, customer_name, customer_email, customer_phone, delivery_address, delivery_method, payment_method, total_price, status, comment, created_at, updated_at FROM orders`).
		WithContext(ctx).Iter()

	var list []models.Order
	var o models.Order
	for iter.Scan(&o.ID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.DeliveryAddress, &o.DeliveryMethod, &o.PaymentMethod,
		&o.TotalPrice, &o.Status, &o.Comment, &o.CreatedAt, &o.UpdatedAt) {
		list = append(list, o)
		o = models.Order{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}
