package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"rumor_backend/internal/config"
	"rumor_backend/internal/database"
	"rumor_backend/internal/handlers/payment"
	"rumor_backend/internal/routes"
)

func main() {
	config.Load()

	database.ConnectDatabases()

	// ✅ Pré-chauffer le cache Redis
	warmupRedisCache()

	// ✅ Configuration WebPay construite une fois, injectée dans les handlers
	payment.Init(config.LoadWebPay())

	r := gin.Default()

	// CORS — le front est servi depuis un autre domaine
	corsCfg := cors.DefaultConfig()
	if frontURL := os.Getenv("FRONTEND_URL"); frontURL != "" {
		corsCfg.AllowOrigins = []string{frontURL}
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Setup-Token"}
	r.Use(cors.New(corsCfg))

	routes.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur RUMOR lancé sur le port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("❌ Serveur arrêté:", err)
	}
}

// warmupRedisCache pré-chauffe le cache Redis pour éviter la latence du premier appel
func warmupRedisCache() {
	ctx := context.Background()
	if err := database.Redis.Ping(ctx).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
