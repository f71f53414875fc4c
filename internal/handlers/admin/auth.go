package admin

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"golang.org/x/crypto/bcrypt"

	"rumor_backend/internal/database"
	"rumor_backend/internal/models"
	"rumor_backend/internal/utils"
)

// CreateAdmin crée un compte administrateur. Protégé par un token de setup
// (équivalent service-role) passé en header — pas d'inscription publique.
func CreateAdmin(c *gin.Context) {
	setupToken := os.Getenv("ADMIN_SETUP_TOKEN")
	if setupToken == "" || c.GetHeader("X-Setup-Token") != setupToken {
		c.JSON(http.StatusForbidden, gin.H{"error": "Token de setup invalide"})
		return
	}

	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || len(input.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "E-mail requis et mot de passe de 8 caractères minimum"})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Refuse les doublons
	var existing gocql.UUID
	if err := session.Query(`SELECT admin_id FROM admins_by_email WHERE email = ?`, email).Scan(&existing); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Un admin existe déjà avec cet e-mail"})
		return
	}

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)

	adminID := gocql.TimeUUID()
	now := time.Now()

	if err := session.Query(`INSERT INTO admins (admin_id, email, password, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		adminID, email, string(hashedPassword), input.Name, now).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création admin"})
		return
	}
	if err := session.Query(`INSERT INTO admins_by_email (email, admin_id) VALUES (?, ?)`, email, adminID).Exec(); err != nil {
		session.Query(`DELETE FROM admins WHERE admin_id = ?`, adminID).Exec()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création admin"})
		return
	}

	log.Println("✅ Admin créé:", email)
	c.JSON(http.StatusCreated, gin.H{"adminId": adminID.String(), "email": email})
}

// Login authentifie un admin et retourne un JWT
func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var adminID gocql.UUID
	if err := session.Query(`SELECT admin_id FROM admins_by_email WHERE email = ?`, email).Scan(&adminID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	var a models.Admin
	if err := session.Query(`SELECT admin_id, email, password, name, created_at FROM admins WHERE admin_id = ?`, adminID).
		Scan(&a.ID, &a.Email, &a.Password, &a.Name, &a.CreatedAt); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	token, err := utils.GenerateJWT(a)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	log.Println("🔐 Connexion admin:", email)
	c.JSON(http.StatusOK, gin.H{"token": token, "admin": a})
}
