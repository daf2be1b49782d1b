package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/diagnosis/turneja/internal/domain"
	httpmw "github.com/diagnosis/turneja/internal/http/middleware"
	mw "github.com/diagnosis/turneja/pkg/middleware"
)

type RouterConfig struct {
	Gate           *httpmw.Gate
	AllowedOrigins []string
	// Ping backs /healthz.
	Ping func(ctx context.Context) error
	// TokenLimit throttles POST /jwt; nil disables it.
	TokenLimit func(http.Handler) http.Handler
	// Idempotency replays POST /bookings and /create-payment-intent; nil
	// disables it.
	Idempotency func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

func (h *Handlers) Routes(cfg RouterConfig) chi.Router {
	tokenLimit, idempotent := cfg.TokenLimit, cfg.Idempotency
	if tokenLimit == nil {
		tokenLimit = passthrough
	}
	if idempotent == nil {
		idempotent = passthrough
	}
	gate := cfg.Gate

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health(cfg.Ping))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from turneja.."))
	})

	// public
	r.With(tokenLimit).Post("/jwt", h.issueToken)
	r.Get("/logout", h.logout)
	r.Put("/users/{email}", h.saveUser)
	r.Get("/user/{email}", h.getUser)
	r.Get("/rooms", h.listRooms)
	r.Get("/rooms/{id}", h.getRoom)
	r.Patch("/rooms/status/{id}", h.setRoomStatus)

	// authenticated
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAuthenticated)

		r.Post("/rooms", h.createRoom)
		r.With(idempotent).Post("/create-payment-intent", h.createPaymentIntent)
		r.With(idempotent).Post("/bookings", h.createBooking)
		r.Get("/bookings", h.listGuestBookings)

		r.Group(func(r chi.Router) {
			r.Use(gate.RequireRole(domain.RoleHost))
			r.Get("/room/{email}", h.listHostRooms)
			r.Get("/bookings/host", h.listHostBookings)
		})

		r.Group(func(r chi.Router) {
			r.Use(gate.RequireRole(domain.RoleAdmin))
			r.Get("/users", h.listUsers)
			r.Put("/users/update/{email}", h.updateUserRole)
			r.Get("/admin/reconcile", h.reconcile)
		})
	})

	return r
}
