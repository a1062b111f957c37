package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"

	_ "github.com/aussiebroadwan/accounts/api/accounts" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// MaxRequestBody caps every JSON request body.
const MaxRequestBody = 1 << 20

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LocalIdentityProvider is the provider-native surface of the built-in
// identity provider, mounted under /idp/v1.
type LocalIdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (string, error)
	RedeemExchangeToken(ctx context.Context, token string) (string, error)
	ConfirmEmail(ctx context.Context, token string) error
	JWKS() jwtx.JWKS
	IDTokenTTL() time.Duration
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	limits       httpx.RateLimits
	clientIP     httpx.KeyExtractor
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Provider            identity.Provider
	RegistrationService *service.RegistrationService
	RecoveryService     *service.RecoveryService
	TFAService          *service.TFAService
	LoginService        *service.LoginService
	ProfileService      *service.ProfileService

	// LocalIDP is nil when an external identity provider is used.
	LocalIDP LocalIdentityProvider

	// ExposeTFASecret includes the raw TOTP secret in JSON enrollment
	// responses. Development only.
	ExposeTFASecret bool

	// Readiness lists the dependencies /readyz pings, by name.
	Readiness map[string]Pinger
}

func NewRouter(limits httpx.RateLimits, buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		limits:       limits,
		clientIP:     limits.ClientIP(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.MaxBodyBytes(MaxRequestBody),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerLogin()
	r.registerTFA()
	r.registerIDP()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Accounts Service API
//	@version		0.1.0
//	@description	Account registration, password recovery and TOTP two-factor authentication.
//	@description
//	@description				Bearer tokens are ID tokens issued by the identity provider. The built-in provider signs them with EdDSA; keys are published at /.well-known/jwks.json.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/accounts
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				ID token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	h := &AccountHandler{
		RegistrationService: r.RegistrationService,
		RecoveryService:     r.RecoveryService,
		ProfileService:      r.ProfileService,
	}

	// Public endpoints that send mail or accept codes are limited per IP and
	// email so one address cannot be hammered.
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.limits.Strict, r.clientIP),
		),
	)
	r.Mux.Handle("POST /auth/password/request",
		httpx.Chain(http.HandlerFunc(h.HandleRequestReset),
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, r.clientIP, "email"),
		),
	)
	r.Mux.Handle("POST /auth/password/reset",
		httpx.Chain(http.HandlerFunc(h.HandleConfirmReset),
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, r.clientIP, "email"),
		),
	)
	r.Mux.Handle("POST /auth/verify-email",
		httpx.Chain(http.HandlerFunc(h.HandleSendVerification),
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, r.clientIP, "email"),
		),
	)

	r.Mux.Handle("GET /auth/verify-token",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyToken),
			httpx.RequireBearer(),
			httpx.RateLimitByBearer(r.limits.Lenient, r.clientIP),
		),
	)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{LoginService: r.LoginService}

	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RequireBearer(),
			httpx.RateLimitByBearer(r.limits.Moderate, r.clientIP),
		),
	)

	// Strict: this is where TOTP codes get guessed.
	r.Mux.Handle("POST /auth/loginTfa",
		httpx.Chain(http.HandlerFunc(h.HandleLoginTFA),
			httpx.RequireBearer(),
			httpx.RateLimitByBearer(r.limits.Strict, r.clientIP),
		),
	)
}

func (r *Router) registerTFA() {
	h := &TFAHandler{
		TFAService:   r.TFAService,
		Provider:     r.Provider,
		ExposeSecret: r.ExposeTFASecret,
	}

	r.Mux.Handle("POST /auth/tfa/generate",
		httpx.Chain(http.HandlerFunc(h.HandleGenerate),
			httpx.RequireBearer(),
			httpx.RateLimitByBearer(r.limits.Moderate, r.clientIP),
		),
	)
	r.Mux.Handle("POST /auth/tfa/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			httpx.RequireBearer(),
			httpx.RateLimitByBearer(r.limits.Strict, r.clientIP),
		),
	)
}

func (r *Router) registerIDP() {
	if r.LocalIDP == nil {
		return
	}
	h := &IDPHandler{IDP: r.LocalIDP}

	r.Mux.Handle("POST /idp/v1/signin",
		httpx.Chain(http.HandlerFunc(h.HandleSignIn),
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, r.clientIP, "email"),
		),
	)
	r.Mux.Handle("POST /idp/v1/exchange",
		httpx.Chain(http.HandlerFunc(h.HandleExchange),
			httpx.RateLimitByIP(r.limits.Strict, r.clientIP),
		),
	)
	r.Mux.Handle("GET /idp/v1/verify-email",
		httpx.Chain(http.HandlerFunc(h.HandleConfirmEmail),
			httpx.RateLimitByIP(r.limits.Moderate, r.clientIP),
		),
	)

	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.LocalIDP),
			httpx.RateLimitByIP(r.limits.Public, r.clientIP),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Lenient, r.clientIP),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.Readiness),
			httpx.RateLimitByIP(r.limits.Lenient, r.clientIP),
		),
	)
}
