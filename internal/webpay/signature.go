package webpay

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// RequestFields : champs signés du paiement sortant, déjà formatés en chaînes
// (la signature est sensible au formatage, notamment le total à 2 décimales).
type RequestFields struct {
	Seed       string
	StoreID    string
	OrderNum   string
	Test       string // "1" en sandbox, "0" en production
	CurrencyID string
	Total      string
}

// CallbackFields : champs signés du webhook entrant.
type CallbackFields struct {
	BatchTimestamp string
	CurrencyID     string
	Amount         string
	PaymentType    string
	OrderNum       string
	SiteOrderID    string
	TransactionID  string
	RRN            string
}

// SignatureScheme est le contrat de signature WebPay, versionné.
// L'algorithme exact (fonction de hachage ET ordre des champs) est imposé par
// la passerelle : chaque version du contrat est une implémentation figée, à
// valider contre l'exemple chiffré de la documentation WebPay, jamais modifiée.
type SignatureScheme interface {
	Name() string
	SignRequest(f RequestFields, secretKey string) string
	SignCallback(f CallbackFields, secretKey string) string
}

// SchemeByName retourne le schéma demandé par la configuration.
func SchemeByName(name string) (SignatureScheme, error) {
	switch name {
	case "", "v2":
		return SchemeV2{}, nil
	case "sha256":
		return SchemeSHA256{}, nil
	}
	return nil, fmt.Errorf("version de signature WebPay inconnue: %q", name)
}

// =============================================
// Contrat v2 : SHA1 sortant / MD5 entrant
// =============================================

// SchemeV2 est le contrat historique :
// sortant  = sha1(seed + storeid + order_num + test + currency + total + secret)
// entrant  = md5(batch_timestamp + currency + amount + payment_type + order_num
//              + site_order_id + tid + rrn + secret)
type SchemeV2 struct{}

func (SchemeV2) Name() string { return "v2" }

func (SchemeV2) SignRequest(f RequestFields, secretKey string) string {
	payload := f.Seed + f.StoreID + f.OrderNum + f.Test + f.CurrencyID + f.Total + secretKey
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func (SchemeV2) SignCallback(f CallbackFields, secretKey string) string {
	payload := f.BatchTimestamp + f.CurrencyID + f.Amount + f.PaymentType +
		f.OrderNum + f.SiteOrderID + f.TransactionID + f.RRN + secretKey
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// =============================================
// Contrat sha256 : jointure des valeurs triées par clé
// =============================================

// SchemeSHA256 : les valeurs sont jointes par ':' dans l'ordre lexicographique
// de leurs clés wsb_*, secret en dernier, le tout passé à SHA-256.
type SchemeSHA256 struct{}

func (SchemeSHA256) Name() string { return "sha256" }

func (SchemeSHA256) SignRequest(f RequestFields, secretKey string) string {
	return sortedJoinSHA256(map[string]string{
		"wsb_currency_id": f.CurrencyID,
		"wsb_order_num":   f.OrderNum,
		"wsb_seed":        f.Seed,
		"wsb_storeid":     f.StoreID,
		"wsb_test":        f.Test,
		"wsb_total":       f.Total,
	}, secretKey)
}

func (SchemeSHA256) SignCallback(f CallbackFields, secretKey string) string {
	return sortedJoinSHA256(map[string]string{
		"batch_timestamp":  f.BatchTimestamp,
		"site_order_id":    f.SiteOrderID,
		"wsb_amount":       f.Amount,
		"wsb_currency_id":  f.CurrencyID,
		"wsb_order_num":    f.OrderNum,
		"wsb_payment_type": f.PaymentType,
		"wsb_rrn":          f.RRN,
		"wsb_tid":          f.TransactionID,
	}, secretKey)
}

func sortedJoinSHA256(fields map[string]string, secretKey string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		values = append(values, fields[k])
	}
	values = append(values, secretKey)

	sum := sha256.Sum256([]byte(strings.Join(values, ":")))
	return hex.EncodeToString(sum[:])
}
