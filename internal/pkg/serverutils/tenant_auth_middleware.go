package serverutils

import (
	"os"

	"asksite-be/internal/repository/contract"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const LocalsTenant = "tenant"

// TenantAuthMiddleware authenticates the calling tenant. Two schemes:
// an API key pair (X-Tenant-ID + X-API-Key, checked against the stored
// bcrypt hash) or a Bearer JWT carrying a "tenant" claim. The resolved
// tenant entity lands in ctx.Locals under LocalsTenant.
func TenantAuthMiddleware(tenants contract.TenantRepository) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		slug, err := authenticate(ctx)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}

		tenant, repoErr := tenants.FindBySlug(ctx.Context(), slug)
		if repoErr != nil {
			return repoErr
		}
		if tenant == nil || !tenant.IsActive {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unknown tenant"})
		}

		if apiKey := ctx.Get("X-API-Key"); apiKey != "" {
			if bcrypt.CompareHashAndPassword([]byte(tenant.ApiKeyHash), []byte(apiKey)) != nil {
				return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid API key"})
			}
		}

		ctx.Locals(LocalsTenant, tenant)
		return ctx.Next()
	}
}

func authenticate(ctx *fiber.Ctx) (string, error) {
	if apiKey := ctx.Get("X-API-Key"); apiKey != "" {
		slug := ctx.Get("X-Tenant-ID")
		if slug == "" {
			return "", fiber.NewError(fiber.StatusUnauthorized, "Missing X-Tenant-ID")
		}
		return slug, nil
	}

	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Missing credentials")
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid claims")
	}
	slug, ok := claims["tenant"].(string)
	if !ok || slug == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Missing tenant claim")
	}
	return slug, nil
}
