package payment

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"rumor_backend/internal/config"
	"rumor_backend/internal/models"
	"rumor_backend/internal/orders"
	"rumor_backend/internal/utils"
	"rumor_backend/internal/webpay"
)

// Configuration WebPay injectée au démarrage — immuable ensuite
var (
	wpCfg    config.WebPayConfig
	wpScheme webpay.SignatureScheme
	wpClient *webpay.Client
)

// Init branche la configuration WebPay sur les handlers de paiement
func Init(cfg config.WebPayConfig) {
	scheme, err := webpay.SchemeByName(cfg.SignatureVersion)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	wpCfg = cfg
	wpScheme = scheme
	wpClient = webpay.NewClient(cfg)
	log.Printf("✅ WebPay initialisé (store %s, signature %s, test=%v)",
		cfg.StoreID, scheme.Name(), cfg.TestMode)
}

// CreatePayment initie le paiement WebPay d'une commande pending et
// retourne l'URL de la page de paiement hébergée.
func CreatePayment(c *gin.Context) {
	var req struct {
		OrderID string `json:"orderId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order ID requis"})
		return
	}

	id, err := uuid.Parse(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order ID invalide"})
		return
	}

	redirectURL, status, errMsg := initiatePayment(c, gocql.UUID(id))
	if errMsg != "" {
		c.JSON(status, gin.H{"error": errMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"redirectUrl": redirectURL})
}

// PaymentQR rend l'URL de paiement sous forme de QR code PNG — la boutique
// l'affiche en caisse ou l'envoie au client en messagerie.
func PaymentQR(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order ID invalide"})
		return
	}

	redirectURL, status, errMsg := initiatePayment(c, gocql.UUID(id))
	if errMsg != "" {
		c.JSON(status, gin.H{"error": errMsg})
		return
	}

	png, err := qrcode.Encode(redirectURL, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération QR"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// initiatePayment : lecture commande + articles, construction de la requête
// signée (seed frais à chaque tentative), appel passerelle.
func initiatePayment(c *gin.Context, orderID gocql.UUID) (redirectURL string, status int, errMsg string) {
	o, err := orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return "", http.StatusNotFound, "Commande introuvable"
		}
		log.Println("❌ Erreur lecture commande:", err)
		return "", http.StatusInternalServerError, "Erreur lecture commande"
	}

	if o.Status != models.OrderStatusPending {
		return "", http.StatusConflict, "Commande déjà réglée (statut " + o.Status + ")"
	}

	req, err := webpay.BuildPaymentRequest(o, o.Items, wpCfg, wpScheme, webpay.NewSeed())
	if err != nil {
		log.Println("❌ Erreur construction requête paiement:", err)
		return "", http.StatusInternalServerError, "Erreur construction requête paiement"
	}

	redirectURL, err = wpClient.Initiate(c.Request.Context(), req)
	if err != nil {
		// La commande reste pending — la tentative peut être rejouée
		var gwErr *webpay.GatewayError
		if errors.As(err, &gwErr) {
			log.Printf("❌ Passerelle indisponible pour %s: %v", req.OrderNum, gwErr)
			return "", http.StatusBadGateway, "Passerelle de paiement indisponible"
		}
		log.Println("❌ Erreur initiation paiement:", err)
		return "", http.StatusInternalServerError, "Erreur initiation paiement"
	}

	return redirectURL, 0, ""
}

// WebPayWebhook traite la notification asynchrone de WebPay.
// Réponse "OK" en texte brut attendue par la passerelle ; les relivraisons
// du même événement sont des no-ops qui répondent aussi 200.
func WebPayWebhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	rawBody, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload webhook échouée:", err)
		c.String(http.StatusBadRequest, "Bad request")
		return
	}

	event := webpay.ParseWebhookEvent(rawBody)
	log.Printf("📥 Notification WebPay reçue: order=%s tid=%s rc=%q amount=%s",
		event.OrderNum, event.TransactionID, event.ResultCode, event.Amount)

	if event.OrderNum == "" {
		c.String(http.StatusBadRequest, "Invalid order number")
		return
	}

	// ✅ Vérification de signature — obligatoire hors sandbox
	if wpCfg.SkipSignatureCheck {
		log.Printf("🚨 Signature webhook NON VÉRIFIÉE pour %s (WEBPAY_SKIP_SIGNATURE_CHECK actif)", event.OrderNum)
	} else if !webpay.VerifySignature(event, wpScheme, wpCfg.SecretKey) {
		log.Printf("🚨 Signature webhook invalide pour %s (tid %s) — incident d'intégrité potentiel",
			event.OrderNum, event.TransactionID)
		c.String(http.StatusForbidden, "Invalid signature")
		return
	}

	o, err := orders.FindOrderByRef(c.Request.Context(), event.OrderNum)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			log.Printf("❌ Commande introuvable pour la référence %s", event.OrderNum)
			c.String(http.StatusNotFound, "Order not found")
			return
		}
		if errors.Is(err, orders.ErrAmbiguousRef) {
			// 200 pour couper la relivraison : une ambiguïté ne se résout
			// pas en rejouant le webhook, elle s'arbitre à la main
			log.Printf("🚨 Référence %s ambiguë — événement loggé, arbitrage manuel requis (tid %s, rc %s)",
				event.OrderNum, event.TransactionID, event.ResultCode)
			c.String(http.StatusOK, "OK")
			return
		}
		log.Println("❌ Erreur lookup commande:", err)
		c.String(http.StatusInternalServerError, "Internal error")
		return
	}

	outcome := webpay.MapOutcome(event.ResultCode)
	if outcome == webpay.OutcomeUnparseable {
		// Jamais traité comme un succès silencieux : la commande reste
		// pending, l'événement part en revue manuelle
		log.Printf("⚠️ Code résultat illisible pour %s (rc=%q rc_text=%q) — commande laissée en pending",
			event.OrderNum, event.ResultCode, event.ResultText)
		c.String(http.StatusOK, "OK")
		return
	}

	// Seule une commande pending est réglable : un échec tardif sur une
	// commande déjà paid ou une relivraison après passage administratif
	// (confirmed, shipped...) est acquitté sans toucher au statut
	newStatus, apply := webpay.SettlementTransition(o.Status, outcome)
	if !apply {
		log.Printf("🔁 Commande %s en statut %s, règlement %s ignoré (tid %s)",
			o.ID, o.Status, newStatus, event.TransactionID)
		c.String(http.StatusOK, "OK")
		return
	}

	applied, err := orders.TransitionStatus(c.Request.Context(), o.ID, newStatus, event.AuditComment())
	if err != nil {
		log.Println("❌ Erreur transition statut:", err)
		c.String(http.StatusInternalServerError, "Failed to update order")
		return
	}

	// E-mail de confirmation — hors du chemin de réponse pour ne pas faire
	// attendre la passerelle (elle relivre sur timeout). Conditionné au CAS :
	// deux livraisons concurrentes du même événement n'envoient qu'un e-mail.
	if outcome == webpay.OutcomePaid && applied {
		orderCopy := *o
		go func() {
			html := utils.GenerateOrderConfirmationHTML(&orderCopy)
			if err := utils.SendConfirmationEmail(orderCopy.CustomerEmail, "Ваш заказ RUMOR оплачен", html); err != nil {
				log.Println("❌ Erreur envoi e-mail confirmation:", err)
			} else {
				log.Println("📧 E-mail de confirmation envoyé à", orderCopy.CustomerEmail)
			}
		}()
	}

	log.Printf("✅ Commande %s réglée: %s", o.ID, newStatus)
	c.String(http.StatusOK, "OK")
}
