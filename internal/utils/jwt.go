package utils

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rumor_backend/internal/models"
)

func GenerateJWT(admin models.Admin) (string, error) {
	secret := os.Getenv("JWT_SECRET")

	claims := jwt.MapClaims{
		"admin_id": admin.ID.String(),
		"email":    admin.Email,
		"role":     "admin",
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
