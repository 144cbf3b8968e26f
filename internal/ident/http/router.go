// Package http is the transport layer: thin handlers over the services,
// all speaking the uniform {success, message, data} envelope.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/stackworks/ident/internal/ident/service"
	"github.com/stackworks/ident/internal/ident/store"
	"github.com/stackworks/ident/pkg/httpx"
	"github.com/stackworks/ident/pkg/slogx"
)

// Router holds shared dependencies for the HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	sessionsPing func(r *http.Request) error

	AuthService    *service.AuthService
	AccountService *service.AccountService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// SetSessionsPing wires an extra readiness check for an external session
// backend.
func (r *Router) SetSessionsPing(ping func(req *http.Request) error) {
	r.sessionsPing = ping
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccount()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /login - strict limit, credential guessing target
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh - moderate limit, legitimate clients refresh often
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout - moderate limit
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAccount() {
	// POST /register - strict limit, public signup endpoint
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(&RegisterHandler{AccountService: r.AccountService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /verify-email - moderate limit, secrets are single-use anyway
	r.Mux.Handle("POST /v1/auth/verify-email",
		httpx.Chain(&VerifyEmailHandler{AccountService: r.AccountService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /resend-verification - strict limit, sends mail
	r.Mux.Handle("POST /v1/auth/resend-verification",
		httpx.Chain(&ResendVerificationHandler{AccountService: r.AccountService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /forgot-password - strict limit, sends mail and probes accounts
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(&ForgotPasswordHandler{AccountService: r.AccountService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /reset-password - strict limit, secret guessing target
	r.Mux.Handle("POST /v1/auth/reset-password",
		httpx.Chain(&ResetPasswordHandler{AccountService: r.AccountService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.sessionsPing))
}
