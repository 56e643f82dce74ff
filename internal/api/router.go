package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "opssight/internal/api/context"
	"opssight/internal/api/handlers"
	"opssight/internal/api/middleware"
	"opssight/internal/pkg/errors"
	"opssight/internal/platform/auth"
)

type Dependencies struct {
	AuthHandler         *handlers.AuthHandler
	UserHandler         *handlers.UserHandler
	TeamHandler         *handlers.TeamHandler
	NotificationHandler *handlers.NotificationHandler
	WebhookHandler      *handlers.WebhookHandler
	AuditHandler        *handlers.AuditHandler
	HealthHandler       *handlers.HealthHandler
	MetricsHandler      *handlers.MetricsHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimiter         *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	authMid := deps.AuthMiddleware
	rl := deps.RateLimiter

	// Inbound webhooks (authenticated by signature, not JWT)
	router.POST("/api/v1/webhooks/github",
		chain(deps.WebhookHandler.ReceiveGitHub, rl.Limit("webhook")))
	router.GET("/api/v1/webhooks/github/stats",
		chain(deps.WebhookHandler.Stats, authMid.Handle, rl.Limit("api_read")))
	router.GET("/api/v1/webhooks/github/deliveries",
		chain(deps.WebhookHandler.ListDeliveries, authMid.Handle, requireRole("admin", "owner")))

	// Authentication
	router.POST("/api/v1/auth/signup", wrap(deps.AuthHandler.Signup))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))
	router.POST("/api/v1/auth/refresh", wrap(deps.AuthHandler.Refresh))
	router.POST("/api/v1/auth/logout", wrap(deps.AuthHandler.Logout))
	router.GET("/api/v1/auth/github/login", wrap(deps.AuthHandler.GitHubLogin))
	router.GET("/api/v1/auth/github/callback", wrap(deps.AuthHandler.GitHubCallback))

	// SAML SSO
	router.GET("/api/v1/auth/saml/login", wrap(deps.AuthHandler.SAMLLogin))
	router.POST("/api/v1/auth/saml/acs", wrap(deps.AuthHandler.HandleSAMLCallback))
	router.GET("/api/v1/auth/saml/metadata", wrap(deps.AuthHandler.GetSAMLMetadata))

	// User management
	router.GET("/api/v1/users",
		chain(deps.UserHandler.List, authMid.Handle, rl.Limit("api_read")))
	router.GET("/api/v1/users/:user_id",
		chain(deps.UserHandler.Get, authMid.Handle, rl.Limit("api_read")))
	router.PATCH("/api/v1/users/:user_id/role",
		chain(deps.UserHandler.UpdateRole, authMid.Handle, rl.Limit("api_write"), requireRole("admin", "owner")))
	router.DELETE("/api/v1/users/:user_id",
		chain(deps.UserHandler.Delete, authMid.Handle, rl.Limit("api_write"), requireRole("owner")))
	router.POST("/api/v1/users/:user_id/sync",
		chain(deps.UserHandler.Sync, authMid.Handle, rl.Limit("api_write")))

	// Teams
	router.POST("/api/v1/teams",
		chain(deps.TeamHandler.Create, authMid.Handle, rl.Limit("api_write")))
	router.GET("/api/v1/teams",
		chain(deps.TeamHandler.List, authMid.Handle, rl.Limit("api_read")))
	router.GET("/api/v1/teams/:team_id",
		chain(deps.TeamHandler.Get, authMid.Handle, rl.Limit("api_read")))
	router.PATCH("/api/v1/teams/:team_id",
		chain(deps.TeamHandler.Update, authMid.Handle, rl.Limit("api_write")))
	router.DELETE("/api/v1/teams/:team_id",
		chain(deps.TeamHandler.Delete, authMid.Handle, rl.Limit("api_write"), requireRole("admin", "owner")))
	router.GET("/api/v1/teams/:team_id/members",
		chain(deps.TeamHandler.ListMembers, authMid.Handle, rl.Limit("api_read")))
	router.POST("/api/v1/teams/:team_id/members",
		chain(deps.TeamHandler.AddMember, authMid.Handle, rl.Limit("api_write")))
	router.DELETE("/api/v1/teams/:team_id/members/:user_id",
		chain(deps.TeamHandler.RemoveMember, authMid.Handle, rl.Limit("api_write")))
	router.POST("/api/v1/teams/:team_id/invites",
		chain(deps.TeamHandler.CreateInvite, authMid.Handle, rl.Limit("api_write")))
	router.GET("/api/v1/invites/:code/qr", wrap(deps.TeamHandler.InviteQRCode))

	// Notifications
	router.GET("/api/v1/notifications",
		chain(deps.NotificationHandler.List, authMid.Handle, rl.Limit("api_read")))
	router.POST("/api/v1/notifications/:notification_id/read",
		chain(deps.NotificationHandler.MarkRead, authMid.Handle, rl.Limit("api_write")))
	router.POST("/api/v1/notifications/read-all",
		chain(deps.NotificationHandler.MarkAllRead, authMid.Handle, rl.Limit("api_write")))
	router.DELETE("/api/v1/notifications/:notification_id",
		chain(deps.NotificationHandler.Delete, authMid.Handle, rl.Limit("api_write")))

	// Audit
	router.GET("/api/v1/audit",
		chain(deps.AuditHandler.List, authMid.Handle, requireRole("admin", "owner")))

	// Operational
	router.GET("/healthz", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params and the request itself (for audit trail fields)
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		ctx = context.WithValue(ctx, apiContext.Request, r)
		handler(w, r.WithContext(ctx))
	}
}

func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}

			if !allowed {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}

			next(w, r)
		}
	}
}
