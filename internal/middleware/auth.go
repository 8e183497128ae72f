package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	actorIDKey   contextKey = "actor_id"
	actorRoleKey contextKey = "actor_role"
)

// RoleAdmin is the role allowed to mutate the catalog.
const RoleAdmin = "admin"

// Claims is the token payload issued by the identity service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates bearer tokens and stores the acting user in the
// request context.
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				logger.Debug("Missing or malformed authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims := &Claims{}
			if _, err := parser.ParseWithClaims(tokenString, claims, keyFunc); err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			actorID, err := uuid.Parse(claims.UserID)
			if err != nil || claims.Role == "" {
				logger.Warn("Token carries unusable claims",
					zap.String("user_id", claims.UserID),
					zap.String("role", claims.Role),
				)
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			ctx := WithActor(r.Context(), actorID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithActor returns a context carrying the acting user.
func WithActor(ctx context.Context, id uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, id)
	return context.WithValue(ctx, actorRoleKey, role)
}

// GetActorID extracts the acting user id from the request context.
func GetActorID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorIDKey).(uuid.UUID)
	return id, ok
}

// GetActorRole extracts the acting user's role from the request context.
func GetActorRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(actorRoleKey).(string)
	return role, ok
}
