package middleware

import (
	"errors"
	"strings"

	"skill-radar/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const CtxClaimsKey = "claims"

// AuthMiddleware validates bearer tokens. With a nil service every request passes, which
// is how the service runs when no jwt secret is configured.
type AuthMiddleware struct {
	jwt jwt.Service
}

func NewAuthMiddleware(jwtSvc jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtSvc}
}

func (m *AuthMiddleware) Enabled() bool {
	return m != nil && m.jwt != nil
}

// Middleware authenticates the request. Websocket clients may pass the token in the
// access_token query parameter.
func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !m.Enabled() {
			return c.Next()
		}

		token, ok := bearerTokenFromHeader(c.Get("Authorization"))
		if !ok {
			token = strings.TrimSpace(c.Query("access_token"))
			ok = token != ""
		}
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return NewAppError(fiber.StatusUnauthorized, "Token expired", nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, err)
		}

		c.Locals(CtxClaimsKey, claims)
		return c.Next()
	}
}

// RequireOperator rejects subject-scoped tokens.
func (m *AuthMiddleware) RequireOperator() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !m.Enabled() {
			return c.Next()
		}
		claims, ok := ClaimsFrom(c)
		if !ok || !claims.IsOperator() {
			return NewAppError(fiber.StatusForbidden, "Operator token required", nil, nil)
		}
		return c.Next()
	}
}

// RequireSubject rejects tokens that may not act on the subject named by the route
// parameter param.
func (m *AuthMiddleware) RequireSubject(param string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !m.Enabled() {
			return c.Next()
		}
		id, err := uuid.Parse(c.Params(param))
		if err != nil {
			return NewAppError(fiber.StatusBadRequest, "Invalid subject id", nil, err)
		}
		if err := m.Authorize(c, id); err != nil {
			return err
		}
		return c.Next()
	}
}

// Authorize checks the request's claims against subjectID; uuid.Nil means every subject
// and needs an operator token. It returns nil when access is allowed.
func (m *AuthMiddleware) Authorize(c fiber.Ctx, subjectID uuid.UUID) error {
	if !m.Enabled() {
		return nil
	}
	claims, ok := ClaimsFrom(c)
	if !ok {
		return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	if subjectID == uuid.Nil && !claims.IsOperator() {
		return NewAppError(fiber.StatusForbidden, "Operator token required", nil, nil)
	}
	if subjectID != uuid.Nil && !claims.CanAccess(subjectID) {
		return NewAppError(fiber.StatusForbidden, "Token not valid for this subject", nil, nil)
	}
	return nil
}

func ClaimsFrom(c fiber.Ctx) (jwt.Claims, bool) {
	claims, ok := c.Locals(CtxClaimsKey).(jwt.Claims)
	return claims, ok
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
