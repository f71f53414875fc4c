package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rumor_backend/internal/database"
)

const (
	// Limites par endpoint
	OrderMaxRequests  = 10 // créations de commande par IP et par minute
	SearchMaxRequests = 30
	APIMaxRequests    = 100

	APICooldown = 1 * time.Minute
)

// APIRateLimit limite le nombre de requêtes par IP (général)
func APIRateLimit() gin.HandlerFunc {
	return rateLimitByIP("api_requests:", APIMaxRequests)
}

// OrderRateLimit limite les créations de commande (anti-spam sur un
// endpoint public non authentifié)
func OrderRateLimit() gin.HandlerFunc {
	return rateLimitByIP("order_requests:", OrderMaxRequests)
}

// SearchRateLimit limite les recherches (anti-spam)
func SearchRateLimit() gin.HandlerFunc {
	return rateLimitByIP("search_requests:", SearchMaxRequests)
}

func rateLimitByIP(prefix string, max int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		ip := c.ClientIP()
		key := prefix + ip

		requests, _ := database.Redis.Get(ctx, key).Int()
		if requests >= max {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez dans 1 minute",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		pipe := database.Redis.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, APICooldown)
		pipe.Exec(ctx)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max-requests-1))

		c.Next()
	}
}
