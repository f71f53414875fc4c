package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// WebPayConfig regroupe toute la configuration WebPay.
// Construite une seule fois au démarrage puis injectée — jamais relue depuis l'env.
type WebPayConfig struct {
	StoreID          string
	StoreName        string
	SecretKey        string
	GatewayURL       string
	CurrencyID       string
	TestMode         bool
	SignatureVersion string // "v2" (SHA1/MD5) ou "sha256"

	ReturnURL string
	CancelURL string
	NotifyURL string

	// ⚠️ Bypass de la vérification de signature du webhook.
	// Réservé au sandbox — chaque requête non vérifiée est loggée bruyamment.
	SkipSignatureCheck bool
}

// LoadWebPay construit la configuration WebPay depuis l'environnement.
func LoadWebPay() WebPayConfig {
	cfg := WebPayConfig{
		StoreID:          os.Getenv("WEBPAY_STORE_ID"),
		StoreName:        getEnvOr("WEBPAY_STORE_NAME", "RUMOR"),
		SecretKey:        os.Getenv("WEBPAY_SECRET_KEY"),
		GatewayURL:       getEnvOr("WEBPAY_GATEWAY_URL", "https://securesandbox.webpay.by"),
		CurrencyID:       getEnvOr("WEBPAY_CURRENCY", "BYN"),
		TestMode:         os.Getenv("WEBPAY_TEST_MODE") != "false",
		SignatureVersion: getEnvOr("WEBPAY_SIGNATURE_VERSION", "v2"),

		ReturnURL: getEnvOr("WEBPAY_RETURN_URL", baseURL()+"/order-success"),
		CancelURL: getEnvOr("WEBPAY_CANCEL_URL", baseURL()+"/catalog"),
		NotifyURL: getEnvOr("WEBPAY_NOTIFY_URL", apiURL()+"/api/payment/webhook"),

		SkipSignatureCheck: os.Getenv("WEBPAY_SKIP_SIGNATURE_CHECK") == "true",
	}

	if cfg.StoreID == "" || cfg.SecretKey == "" {
		log.Fatal("❌ WEBPAY_STORE_ID / WEBPAY_SECRET_KEY manquants dans .env")
	}
	if cfg.SkipSignatureCheck {
		log.Println("🚨 WEBPAY_SKIP_SIGNATURE_CHECK=true — vérification de signature webhook DÉSACTIVÉE (sandbox uniquement !)")
	}

	return cfg
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func baseURL() string {
	return getEnvOr("FRONTEND_URL", "http://localhost:3000")
}

func apiURL() string {
	return getEnvOr("BASE_URL", "http://localhost:8080")
}
