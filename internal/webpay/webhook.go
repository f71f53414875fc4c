package webpay

import (
	"fmt"
	"net/url"
	"strings"

	"rumor_backend/internal/models"
)

// WebhookEvent est la notification brute de WebPay, jamais persistée telle
// quelle : seul le couple statut/commentaire d'audit en est distillé.
type WebhookEvent struct {
	OrderNum       string
	SiteOrderID    string
	TransactionID  string
	PaymentType    string
	ResultCode     string
	ResultText     string
	RRN            string
	ApprovalCode   string
	Signature      string
	Amount         string
	CurrencyID     string
	BatchTimestamp string
}

// ParseWebhookEvent lit le corps du callback. WebPay envoie du
// form-encoded, parfois sans Content-Type : on parse le corps brut en
// query-string et on lit les champs par nom, sans rien présumer d'autre.
func ParseWebhookEvent(rawBody []byte) WebhookEvent {
	params, err := url.ParseQuery(string(rawBody))
	if err != nil {
		// Parse au mieux : ParseQuery retourne ce qu'il a pu lire
		params = url.Values{}
	}

	get := func(key string) string {
		return strings.TrimSpace(params.Get(key))
	}

	return WebhookEvent{
		OrderNum:       get("wsb_order_num"),
		SiteOrderID:    get("site_order_id"),
		TransactionID:  get("wsb_tid"),
		PaymentType:    get("wsb_payment_type"),
		ResultCode:     get("wsb_rc"),
		ResultText:     get("wsb_rc_text"),
		RRN:            get("wsb_rrn"),
		ApprovalCode:   get("wsb_approval_code"),
		Signature:      get("wsb_signature"),
		Amount:         get("wsb_amount"),
		CurrencyID:     get("wsb_currency_id"),
		BatchTimestamp: get("batch_timestamp"),
	}
}

// VerifySignature recalcule la signature attendue du callback et la compare
// à celle reçue (comparaison insensible à la casse, les hex varient).
func VerifySignature(e WebhookEvent, scheme SignatureScheme, secretKey string) bool {
	expected := scheme.SignCallback(CallbackFields{
		BatchTimestamp: e.BatchTimestamp,
		CurrencyID:     e.CurrencyID,
		Amount:         e.Amount,
		PaymentType:    e.PaymentType,
		OrderNum:       e.OrderNum,
		SiteOrderID:    e.SiteOrderID,
		TransactionID:  e.TransactionID,
		RRN:            e.RRN,
	}, secretKey)
	return e.Signature != "" && strings.EqualFold(e.Signature, expected)
}

// SettlementOutcome : issue d'un règlement rapporté par le webhook.
type SettlementOutcome int

const (
	// OutcomePaid : code résultat succès ("00")
	OutcomePaid SettlementOutcome = iota
	// OutcomeFailed : code résultat non-succès explicite
	OutcomeFailed
	// OutcomeUnparseable : code absent ou illisible — la commande reste
	// pending, l'événement est loggé pour revue manuelle, jamais traité
	// comme un succès silencieux.
	OutcomeUnparseable
)

// ResultCodeSuccess est le code succès documenté par WebPay
const ResultCodeSuccess = "00"

// MapOutcome traduit le code résultat de la passerelle en issue de règlement
func MapOutcome(resultCode string) SettlementOutcome {
	switch {
	case resultCode == ResultCodeSuccess:
		return OutcomePaid
	case resultCode != "":
		return OutcomeFailed
	default:
		return OutcomeUnparseable
	}
}

// OrderStatus donne le statut de commande correspondant à l'issue.
// Ne pas appeler pour OutcomeUnparseable.
func (o SettlementOutcome) OrderStatus() string {
	if o == OutcomePaid {
		return models.OrderStatusPaid
	}
	return models.OrderStatusPaymentFailed
}

// SettlementTransition décide si le webhook peut muter la commande.
// Seule une commande pending est réglable : le statut ne revient jamais en
// arrière. Un échec tardif d'une seconde session de paiement abandonnée ne
// dégrade pas une commande déjà paid, et une relivraison de rc=00 après un
// passage administratif en confirmed/shipped ne la ramène pas à paid —
// ces événements sont acquittés sans mutation.
func SettlementTransition(currentStatus string, outcome SettlementOutcome) (newStatus string, apply bool) {
	if outcome == OutcomeUnparseable {
		return "", false
	}
	return outcome.OrderStatus(), currentStatus == models.OrderStatusPending
}

// AuditComment est la ligne de traçabilité ajoutée au commentaire de la
// commande — identique pour une même notification, donc dédupliquée par
// l'append idempotent du repository.
func (e WebhookEvent) AuditComment() string {
	return fmt.Sprintf("WebPay TID: %s, RRN: %s, RC: %s - %s",
		e.TransactionID, e.RRN, e.ResultCode, e.ResultText)
}
