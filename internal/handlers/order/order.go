package order

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"rumor_backend/internal/cache"
	"rumor_backend/internal/models"
	"rumor_backend/internal/orders"
)

// CreateOrder valide le panier soumis, reprend les prix catalogue et persiste
// la commande en pending. Le total soumis par le client est ignoré.
func CreateOrder(c *gin.Context) {
	var raw orders.RawOrderInput
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête invalide"})
		return
	}

	validated, err := orders.ValidateAndPrice(c.Request.Context(), raw, cache.FetchPrices)
	if err != nil {
		var vErr *orders.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": vErr.Message,
				"code":  vErr.Code,
				"field": vErr.Field,
			})
			return
		}
		log.Println("❌ Erreur validation commande:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	orderID, err := orders.CreateOrder(c.Request.Context(), validated)
	if err != nil {
		log.Println("❌ Erreur création commande:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId":    orderID.String(),
		"totalPrice": validated.TotalPrice,
	})
}

// GetOrderByID retourne une commande et ses articles (page order-success)
func GetOrderByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	o, err := orders.GetOrder(c.Request.Context(), gocql.UUID(id))
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		log.Println("❌ Erreur lecture commande:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commande"})
		return
	}

	c.JSON(http.StatusOK, o)
}

// ListOrders retourne toutes les commandes (console admin)
func ListOrders(c *gin.Context) {
	list, err := orders.ListOrders(c.Request.Context())
	if err != nil {
		log.Println("❌ Erreur liste commandes:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// UpdateOrderStatus applique une transition administrative
// (confirmed/shipped/delivered/cancelled) via l'unique mutateur de statut.
func UpdateOrderStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	var req struct {
		Status  string `json:"status" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if !models.IsValidOrderStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut inconnu: " + req.Status})
		return
	}

	if _, err := orders.TransitionStatus(c.Request.Context(), gocql.UUID(id), req.Status, req.Comment); err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		log.Println("❌ Erreur transition statut:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour statut"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orderId": id.String(), "status": req.Status})
}
