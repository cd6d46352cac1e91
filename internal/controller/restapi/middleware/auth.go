// Package middleware holds the bearer-token boundary. Token issuance is an
// external service; this side only verifies and extracts the owner.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// OwnerIDKey is the locals key the auth middleware stores the caller's owner
// id under.
const OwnerIDKey = "ownerID"

// Auth verifies an HS256 bearer token and stores the subject claim (the
// owner uuid) in the request locals. Every image route sits behind this.
func Auth(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		header := ctx.Get(fiber.HeaderAuthorization)

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return unauthenticated(ctx)
		}

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			return unauthenticated(ctx)
		}

		subject, err := parsed.Claims.GetSubject()
		if err != nil {
			return unauthenticated(ctx)
		}

		ownerID, err := uuid.Parse(subject)
		if err != nil {
			return unauthenticated(ctx)
		}

		ctx.Locals(OwnerIDKey, ownerID)

		return ctx.Next()
	}
}

// OwnerID reads the owner set by Auth. Must only be called on routes behind
// the middleware.
func OwnerID(ctx *fiber.Ctx) uuid.UUID {
	id, _ := ctx.Locals(OwnerIDKey).(uuid.UUID)
	return id
}

func unauthenticated(ctx *fiber.Ctx) error {
	return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
		"message": "Unauthenticated.",
	})
}
