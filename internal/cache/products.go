package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"rumor_backend/internal/database"
	"rumor_backend/internal/orders"
)

const (
	ProductCacheTTL = 10 * time.Minute
	ProductListKey  = "products:all"
)

type cachedPrice struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// FetchPrices récupère les prix faisant foi d'un lot de produits :
// Redis d'abord, ScyllaDB pour les absents, remise en cache derrière.
// Les ids introuvables au catalogue sont simplement omis du résultat.
func FetchPrices(ctx context.Context, ids []gocql.UUID) (map[gocql.UUID]orders.PriceInfo, error) {
	result := make(map[gocql.UUID]orders.PriceInfo, len(ids))
	missing := make([]gocql.UUID, 0, len(ids))

	// 1. Essayer le cache Redis
	for _, id := range ids {
		key := "product_price:" + id.String()
		data, err := database.Redis.Get(ctx, key).Result()
		if err == nil {
			var cp cachedPrice
			if json.Unmarshal([]byte(data), &cp) == nil {
				result[id] = orders.PriceInfo{Name: cp.Name, Price: cp.Price}
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return result, nil
	}

	// 2. Récupérer les produits manquants depuis ScyllaDB
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	for _, id := range missing {
		var pid gocql.UUID
		var name string
		var price float64
		err := session.Query(database.StmtGetProductPrice, id).
			WithContext(ctx).Scan(&pid, &name, &price)
		if errors.Is(err, gocql.ErrNotFound) {
			// introuvable : absent du résultat, la validation tranchera
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lecture prix produit %s: %w", id, err)
		}
		result[id] = orders.PriceInfo{Name: name, Price: price}

		// 3. Mettre en cache
		if data, err := json.Marshal(cachedPrice{Name: name, Price: price}); err == nil {
			database.Redis.Set(ctx, "product_price:"+id.String(), data, ProductCacheTTL)
		}
	}

	return result, nil
}

// InvalidateProduct invalide le cache d'un produit après modification admin
func InvalidateProduct(ctx context.Context, id gocql.UUID) {
	database.Redis.Del(ctx, "product_price:"+id.String())
	database.Redis.Del(ctx, ProductListKey)
}
