package http

import (
	"net/http"
	"time"

	"talks/internal/dto"
	"talks/internal/netutil"
	"talks/internal/observability/middleware"
	"talks/internal/presence"
	"talks/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	CORSOrigins []string
	// AuthRateLimit is requests per minute per client IP on the
	// unauthenticated /api/auth routes. Zero disables the limit.
	AuthRateLimit  int
	SecureCookies  bool
	RequestTimeout time.Duration
}

type handler struct {
	auth     service.AuthService
	messages service.MessageService
	tracker  *presence.Tracker
	opts     Options
	upgrader websocket.Upgrader
}

func NewRouter(auth service.AuthService, messages service.MessageService, tracker *presence.Tracker, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	h := &handler{auth: auth, messages: messages, tracker: tracker, opts: opts}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// The push channel outlives any request timeout.
	r.Get("/ws", h.serveWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout))

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if opts.AuthRateLimit > 0 {
					r.Use(httprate.Limit(opts.AuthRateLimit, time.Minute,
						httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
							return netutil.ClientIP(r), nil
						}),
						httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
							writeJSON(w, http.StatusTooManyRequests, dto.MessageResponse{Message: "Too many requests, please try again later"})
						}),
					))
				}
				r.Post("/signup", h.signup)
				r.Post("/verify-signup-code", h.verifySignup)
				r.Post("/verify-signup-2fa", h.verifySignup)
				r.Post("/resend-signup-code", h.resendSignupCode)
				r.Post("/login", h.login)
				r.Post("/verify-2fa", h.verify2FA)
				r.Post("/resend-2fa-code", h.resend2FACode)
				r.Post("/forgot-password", h.forgotPassword)
				r.Get("/validate-reset-token/{token}", h.validateResetToken)
				r.Post("/reset-password", h.resetPassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(h.requireSession)
				r.Post("/logout", h.logout)
				r.Put("/update-profile", h.updateProfile)
				r.Get("/check", h.check)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)
			r.Get("/users", h.listUsers)
			r.Route("/messages", func(r chi.Router) {
				r.Put("/read/{peerId}", h.markRead)
				r.Get("/{peerId}", h.history)
				r.Post("/{peerId}", h.sendMessage)
			})
		})
	})

	return r
}
