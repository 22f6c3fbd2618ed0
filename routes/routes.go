package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"

	"github.com/speechteam/tournament-signup/handlers"
	"github.com/speechteam/tournament-signup/middleware"
)

type Handlers struct {
	Signup     *handlers.SignupHandler
	Partner    *handlers.PartnerHandler
	Tournament *handlers.TournamentHandler
	Results    *handlers.ResultsHandler
	WebSocket  *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/tournaments", func(r chi.Router) {
		// Public browsing routes
		r.Get("/", h.Tournament.List)
		r.Get("/{id}", h.Tournament.GetByID)
		r.Get("/{tournamentID}/form", h.Tournament.FormFields)

		// Competitors report their own placements
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Post("/{tournamentID}/results", h.Results.SubmitPerformance)
		})
	})

	router.Route("/signup", func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Get("/requirements", h.Signup.Requirements)
		r.Post("/validate", h.Signup.Validate)
		r.Post("/review", h.Signup.Review)
		r.Post("/final", h.Signup.FinalWarning)
		r.Post("/commit", h.Signup.Commit)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Get("/partners/search", h.Partner.Search)
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.Subscribe)

	return router
}
