package webpay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rumor_backend/internal/models"
)

func TestParseWebhookEvent(t *testing.T) {
	body := "batch_timestamp=1700000001&wsb_currency_id=BYN&wsb_amount=100.00" +
		"&wsb_payment_type=1&wsb_order_num=ORDER-1A2B3C4D&site_order_id=" +
		"&wsb_tid=123456789&wsb_rrn=987654321&wsb_rc=00&wsb_rc_text=Successful" +
		"&wsb_approval_code=ABC123&wsb_signature=b0a7ba23859d407f6843c76a67b5b474"

	e := ParseWebhookEvent([]byte(body))

	assert.Equal(t, "ORDER-1A2B3C4D", e.OrderNum)
	assert.Equal(t, "123456789", e.TransactionID)
	assert.Equal(t, "987654321", e.RRN)
	assert.Equal(t, "00", e.ResultCode)
	assert.Equal(t, "Successful", e.ResultText)
	assert.Equal(t, "100.00", e.Amount)
	assert.Equal(t, "BYN", e.CurrencyID)
	assert.Equal(t, "1700000001", e.BatchTimestamp)
	assert.Equal(t, "b0a7ba23859d407f6843c76a67b5b474", e.Signature)
}

// Corps vide ou illisible : événement vide, pas de panique ni d'erreur —
// c'est au handler de décider quoi en faire.
func TestParseWebhookEventDegradedBodies(t *testing.T) {
	for _, body := range []string{"", "pas=du%GGtout&wsb_rc=00", "<xml>surprise</xml>"} {
		e := ParseWebhookEvent([]byte(body))
		assert.Empty(t, e.OrderNum, "body %q", body)
	}

	// Les espaces parasites autour des valeurs sont nettoyés
	e := ParseWebhookEvent([]byte("wsb_order_num=+ORDER-1A2B3C4D+&wsb_rc=00"))
	assert.Equal(t, "ORDER-1A2B3C4D", e.OrderNum)
}

func signedTestEvent() WebhookEvent {
	return WebhookEvent{
		OrderNum:       "ORDER-1A2B3C4D",
		TransactionID:  "123456789",
		PaymentType:    "1",
		ResultCode:     "00",
		ResultText:     "Successful",
		RRN:            "987654321",
		Amount:         "100.00",
		CurrencyID:     "BYN",
		BatchTimestamp: "1700000001",
		Signature:      "b0a7ba23859d407f6843c76a67b5b474",
	}
}

func TestVerifySignature(t *testing.T) {
	e := signedTestEvent()
	assert.True(t, VerifySignature(e, SchemeV2{}, "1"))

	// La casse des hex ne compte pas
	e.Signature = "B0A7BA23859D407F6843C76A67B5B474"
	assert.True(t, VerifySignature(e, SchemeV2{}, "1"))
}

func TestVerifySignatureRejects(t *testing.T) {
	// Montant falsifié après signature
	e := signedTestEvent()
	e.Amount = "1.00"
	assert.False(t, VerifySignature(e, SchemeV2{}, "1"))

	// Mauvais secret
	assert.False(t, VerifySignature(signedTestEvent(), SchemeV2{}, "autre"))

	// Signature absente : toujours refusée, même si le recalcul de la
	// chaîne vide tombait juste
	e = signedTestEvent()
	e.Signature = ""
	assert.False(t, VerifySignature(e, SchemeV2{}, "1"))

	// Signature v2 vérifiée avec le schéma sha256 : refusée
	assert.False(t, VerifySignature(signedTestEvent(), SchemeSHA256{}, "1"))
}

func TestMapOutcome(t *testing.T) {
	assert.Equal(t, OutcomePaid, MapOutcome("00"))
	assert.Equal(t, OutcomeFailed, MapOutcome("05"))
	assert.Equal(t, OutcomeFailed, MapOutcome("declined"))
	assert.Equal(t, OutcomeUnparseable, MapOutcome(""))
}

func TestOutcomeOrderStatus(t *testing.T) {
	assert.Equal(t, models.OrderStatusPaid, OutcomePaid.OrderStatus())
	assert.Equal(t, models.OrderStatusPaymentFailed, OutcomeFailed.OrderStatus())
}

// Le statut ne revient jamais en arrière : seule une commande pending est
// réglable par la passerelle.
func TestSettlementTransition(t *testing.T) {
	// Règlement normal d'une commande en attente
	status, apply := SettlementTransition(models.OrderStatusPending, OutcomePaid)
	assert.True(t, apply)
	assert.Equal(t, models.OrderStatusPaid, status)

	status, apply = SettlementTransition(models.OrderStatusPending, OutcomeFailed)
	assert.True(t, apply)
	assert.Equal(t, models.OrderStatusPaymentFailed, status)

	// Échec tardif d'une seconde session abandonnée : la commande payée
	// ne redescend pas en payment_failed
	_, apply = SettlementTransition(models.OrderStatusPaid, OutcomeFailed)
	assert.False(t, apply)

	// Relivraison de rc=00 après passage administratif : pas de retour à paid
	for _, current := range []string{
		models.OrderStatusConfirmed,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
	} {
		_, apply = SettlementTransition(current, OutcomePaid)
		assert.False(t, apply, "statut %s", current)
	}

	// Relivraison du même règlement : acquittée sans mutation
	_, apply = SettlementTransition(models.OrderStatusPaid, OutcomePaid)
	assert.False(t, apply)

	// Code illisible : jamais de mutation, quel que soit le statut
	_, apply = SettlementTransition(models.OrderStatusPending, OutcomeUnparseable)
	assert.False(t, apply)
}

// Le commentaire d'audit est stable pour une même notification : c'est
// ce qui rend la relivraison du webhook idempotente côté repository.
func TestAuditComment(t *testing.T) {
	e := signedTestEvent()
	expected := "WebPay TID: 123456789, RRN: 987654321, RC: 00 - Successful"
	assert.Equal(t, expected, e.AuditComment())
	assert.Equal(t, expected, e.AuditComment())
}
