package webpay

import (
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rumor_backend/internal/config"
	"rumor_backend/internal/models"
)

func testWebPayConfig() config.WebPayConfig {
	return config.WebPayConfig{
		StoreID:    "554332557",
		StoreName:  "RUMOR",
		SecretKey:  "1",
		GatewayURL: "https://securesandbox.webpay.by",
		CurrencyID: "BYN",
		TestMode:   true,
		ReturnURL:  "https://rumor.by/order-success",
		CancelURL:  "https://rumor.by/catalog",
		NotifyURL:  "https://api.rumor.by/api/payment/webhook",
	}
}

func testOrder(t *testing.T) (*models.Order, []models.OrderItem) {
	t.Helper()
	id, err := gocql.ParseUUID("1a2b3c4d-0000-1000-8000-00805f9b34fb")
	require.NoError(t, err)

	order := &models.Order{
		ID:              id,
		CustomerName:    "Анна Иванова",
		CustomerEmail:   "anna@example.com",
		CustomerPhone:   "+375 (29) 123-45-67",
		DeliveryAddress: "Минск, пр. Независимости 1",
		TotalPrice:      999.99, // dérive volontaire : le builder doit recalculer
		Status:          models.OrderStatusPending,
	}
	items := []models.OrderItem{
		{OrderID: id, ProductName: "Robe en soie", ProductPrice: 50.00, Quantity: 2, Size: "M", Color: "noir"},
		{OrderID: id, ProductName: "Ceinture", ProductPrice: 25.50, Quantity: 1},
	}
	return order, items
}

func TestBuildPaymentRequestRecomputesTotalFromItems(t *testing.T) {
	order, items := testOrder(t)

	req, err := BuildPaymentRequest(order, items, testWebPayConfig(), SchemeV2{}, "1700000000000")
	require.NoError(t, err)

	// 2×50.00 + 25.50 = 125.50, pas le 999.99 de l'en-tête
	assert.Equal(t, "125.50", req.Total)
	assert.Equal(t, "125.50", req.Fields["wsb_total"])
}

func TestBuildPaymentRequestFields(t *testing.T) {
	order, items := testOrder(t)
	cfg := testWebPayConfig()

	req, err := BuildPaymentRequest(order, items, cfg, SchemeV2{}, "1700000000000")
	require.NoError(t, err)

	assert.Equal(t, "ORDER-1A2B3C4D", req.OrderNum)
	assert.Equal(t, "ORDER-1A2B3C4D", req.Fields["wsb_order_num"])
	assert.Equal(t, "554332557", req.Fields["wsb_storeid"])
	assert.Equal(t, "RUMOR", req.Fields["wsb_store"])
	assert.Equal(t, "1", req.Fields["wsb_test"])
	assert.Equal(t, "BYN", req.Fields["wsb_currency_id"])
	assert.Equal(t, "1700000000000", req.Fields["wsb_seed"])
	assert.Equal(t, cfg.NotifyURL, req.Fields["wsb_notify_url"])

	// Le téléphone part en chiffres uniquement
	assert.Equal(t, "375291234567", req.Fields["wsb_phone"])

	// Détail facture 1:1 avec les lignes persistées, ordre stable
	assert.Equal(t, "Robe en soie (M) - noir", req.Fields["wsb_invoice_item_name[0]"])
	assert.Equal(t, "2", req.Fields["wsb_invoice_item_quantity[0]"])
	assert.Equal(t, "50.00", req.Fields["wsb_invoice_item_price[0]"])
	assert.Equal(t, "Ceinture", req.Fields["wsb_invoice_item_name[1]"])
	assert.Equal(t, "1", req.Fields["wsb_invoice_item_quantity[1]"])
	assert.Equal(t, "25.50", req.Fields["wsb_invoice_item_price[1]"])
}

// La signature embarquée doit être reproductible indépendamment avec le même
// schéma et le même secret (aller-retour exact, octet pour octet).
func TestBuildPaymentRequestSignatureRoundTrip(t *testing.T) {
	order, items := testOrder(t)
	cfg := testWebPayConfig()

	for _, scheme := range []SignatureScheme{SchemeV2{}, SchemeSHA256{}} {
		req, err := BuildPaymentRequest(order, items, cfg, scheme, "1700000000000")
		require.NoError(t, err)

		expected := scheme.SignRequest(RequestFields{
			Seed:       "1700000000000",
			StoreID:    cfg.StoreID,
			OrderNum:   "ORDER-1A2B3C4D",
			Test:       "1",
			CurrencyID: cfg.CurrencyID,
			Total:      "125.50",
		}, cfg.SecretKey)

		assert.Equal(t, expected, req.Signature, scheme.Name())
		assert.Equal(t, expected, req.Fields["wsb_signature"], scheme.Name())
	}
}

func TestBuildPaymentRequestRejectsEmptyItems(t *testing.T) {
	order, _ := testOrder(t)
	_, err := BuildPaymentRequest(order, nil, testWebPayConfig(), SchemeV2{}, "1700000000000")
	assert.Error(t, err)
}

// Deux requêtes signées ne partagent jamais le même seed, même générées
// en rafale depuis plusieurs goroutines.
func TestNewSeedNeverRepeats(t *testing.T) {
	const n = 200
	var mu sync.Mutex
	seen := make(map[string]bool, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seed := NewSeed()
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[seed], "seed %s réutilisé", seed)
			seen[seed] = true
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}
