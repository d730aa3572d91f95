package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"quizgen-backend/internal/handlers"
	"quizgen-backend/internal/middleware"
	"quizgen-backend/internal/websocket"
)

func New(
	sessionHandler *handlers.SessionHandler,
	generateLimiter *middleware.RateLimiter,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session Routes ────
		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Put("/topic", sessionHandler.SetTopic)
			r.With(generateLimiter.Middleware).Post("/generate", sessionHandler.Generate)
			r.Post("/answers", sessionHandler.Answer)
			r.Post("/reset", sessionHandler.Reset)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
