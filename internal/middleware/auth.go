package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"payhub/internal/domain"
	"payhub/internal/redis"
	"payhub/internal/repository"
)

const (
	apiKeyHeader = "X-API-Key"
	actorKey     = "actor"
)

// MerchantAuth authenticates merchants by API key and stores the
// resolved actor on the request context. Lookups go through the
// merchant cache first; only identity resolution is cached, never
// ledger state.
func MerchantAuth(cache redis.MerchantCacheInterface, merchants repository.MerchantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(apiKeyHeader)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		ctx := c.Request.Context()

		if cache != nil {
			cached, err := cache.GetMerchantByAPIKey(ctx, apiKey)
			if err == nil && cached != nil {
				if !cached.Active {
					c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "merchant is not active"})
					return
				}
				c.Set(actorKey, domain.Actor{ID: cached.ID, Role: domain.ActorRoleMerchant})
				c.Next()
				return
			}
		}

		merchant, err := merchants.GetByAPIKey(ctx, apiKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication unavailable"})
			return
		}
		if merchant == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		if !merchant.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "merchant is not active"})
			return
		}

		if cache != nil {
			_ = cache.SetMerchantByAPIKey(ctx, apiKey, &redis.CachedMerchant{
				ID:         merchant.ID,
				Name:       merchant.Name,
				Email:      merchant.Email,
				WebhookURL: merchant.WebhookURL,
				Active:     merchant.Active,
			})
		}

		c.Set(actorKey, domain.Actor{ID: merchant.ID, Role: domain.ActorRoleMerchant})
		c.Next()
	}
}

// AdminAuth authenticates administrators by a bearer JWT signed with
// the shared secret. The token's subject becomes the admin actor ID;
// the role claim must be "admin".
func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if role, _ := claims["role"].(string); role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(actorKey, domain.Actor{ID: sub, Role: domain.ActorRoleAdmin})
		c.Next()
	}
}

// ActorFromContext returns the actor resolved by the auth middleware.
func ActorFromContext(c *gin.Context) (domain.Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return domain.Actor{}, false
	}

	actor, ok := value.(domain.Actor)
	return actor, ok
}
