package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts d'une commande. Le passage pending → paid/payment_failed est réservé
// au webhook WebPay ; le reste est administratif.
const (
	OrderStatusPending       = "pending"
	OrderStatusPaid          = "paid"
	OrderStatusPaymentFailed = "payment_failed"
	OrderStatusConfirmed     = "confirmed"
	OrderStatusShipped       = "shipped"
	OrderStatusDelivered     = "delivered"
	OrderStatusCancelled     = "cancelled"
)

// Modes de livraison
const (
	DeliveryMethodDelivery = "delivery"
	DeliveryMethodPickup   = "pickup"
)

// Moyens de paiement
const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodWebPay = "webpay"
)

type Order struct {
	ID              gocql.UUID  `json:"id"`
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone"`
	DeliveryAddress string      `json:"delivery_address"`
	DeliveryMethod  string      `json:"delivery_method"`
	PaymentMethod   string      `json:"payment_method"`
	TotalPrice      float64     `json:"total_price"`
	Status          string      `json:"status"`
	Comment         string      `json:"comment,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Items           []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	OrderID      gocql.UUID `json:"order_id"`
	ItemID       gocql.UUID `json:"item_id"`
	ProductID    gocql.UUID `json:"product_id"`
	ProductName  string     `json:"product_name"`
	ProductPrice float64    `json:"product_price"`
	Quantity     int        `json:"quantity"`
	Size         string     `json:"size,omitempty"`
	Color        string     `json:"color,omitempty"`
}

// IsValidDeliveryMethod vérifie le mode de livraison
func IsValidDeliveryMethod(m string) bool {
	return m == DeliveryMethodDelivery || m == DeliveryMethodPickup
}

// IsValidPaymentMethod vérifie le moyen de paiement
func IsValidPaymentMethod(m string) bool {
	return m == PaymentMethodCash || m == PaymentMethodCard || m == PaymentMethodWebPay
}

// IsValidOrderStatus vérifie qu'un statut fait partie du cycle de vie
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusPaymentFailed,
		OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
