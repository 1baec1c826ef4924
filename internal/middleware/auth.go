package middleware

import (
	"context"
	"net/http"
	"strings"

	"fuelsync-backend/internal/auth"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/pkg/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const TenantHeader = "x-tenant-id"

type contextKey string

const actorKey contextKey = "actor"

// UserLookup reloads the caller so deactivation takes effect immediately.
type UserLookup interface {
	Get(ctx context.Context, tenantID, id string) (*models.User, error)
}

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	users      UserLookup
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, users: users}
}

// WithActor stores the authenticated caller in ctx.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the caller placed by Authenticate.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	return actor, ok
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so those may pass ?token= instead.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.Fields(h)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	if websocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

func tenantHeader(r *http.Request) string {
	if t := r.Header.Get(TenantHeader); t != "" {
		return t
	}
	if websocketUpgrade(r) {
		return r.URL.Query().Get("tenantId")
	}
	return ""
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// Authenticate validates the JWT and the tenant context. Tenant users must
// send x-tenant-id equal to their token's tenant; a superadmin may address
// any tenant or none.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			utils.Error(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			utils.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if claims.Role == "" || claims.UserID == "" {
			utils.Error(w, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		tenantID := tenantHeader(r)
		actor := models.Actor{UserID: claims.UserID, Role: claims.Role}
		if claims.Role == models.RoleSuperAdmin {
			if tenantID != "" {
				if _, err := uuid.Parse(tenantID); err != nil {
					utils.Error(w, http.StatusBadRequest, "Invalid tenant context")
					return
				}
			}
			actor.TenantID = tenantID
		} else {
			if tenantID == "" {
				utils.Error(w, http.StatusBadRequest, "Missing tenant context")
				return
			}
			if tenantID != claims.TenantID {
				log.Warnf("[Auth] User %s sent tenant %s but belongs to %s", claims.UserID, tenantID, claims.TenantID)
				utils.Error(w, http.StatusForbidden, "Tenant mismatch")
				return
			}
			actor.TenantID = claims.TenantID
		}

		// superadmins live outside tenants
		lookupTenant := claims.TenantID
		if claims.Role == models.RoleSuperAdmin {
			lookupTenant = ""
		}
		user, err := m.users.Get(r.Context(), lookupTenant, claims.UserID)
		if err != nil {
			utils.Error(w, http.StatusUnauthorized, "User not found")
			return
		}
		if !user.IsActive {
			utils.Error(w, http.StatusForbidden, "Account suspended. Please contact administrator.")
			return
		}
		actor.Role = user.Role

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole admits only callers holding one of roles. It must run after
// Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				utils.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.Error(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}

// RequireTenant rejects superadmin calls that did not pick a tenant.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok || actor.TenantID == "" {
			utils.Error(w, http.StatusBadRequest, "Missing tenant context")
			return
		}
		next.ServeHTTP(w, r)
	})
}
