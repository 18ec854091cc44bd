package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/swiss-tournament/handlers"
	"github.com/Dosada05/swiss-tournament/middleware"
	"github.com/Dosada05/swiss-tournament/services"
)

// SetupRoutes mounts the public read routes, the organizer-only mutations and
// the websocket endpoint on router.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.NotFound(handlers.NotFound)

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Post("/auth/token", authHandler.IssueToken)

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.ListHandler)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(jwtSecret))
				r.Use(middleware.Authorize(services.RoleOrganizer))
				r.Post("/", tournamentHandler.CreateHandler)
			})

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", tournamentHandler.GetByIDHandler)
				r.Get("/participants", tournamentHandler.ListParticipantsHandler)
				r.Get("/rankings", tournamentHandler.RankingsHandler)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Authenticate(jwtSecret))
					r.Use(middleware.Authorize(services.RoleOrganizer))
					r.Post("/participants", tournamentHandler.AddParticipantHandler)
					r.Post("/rounds", tournamentHandler.StartRoundHandler)
					r.Post("/rounds/current/results", tournamentHandler.RecordResultsHandler)
				})
			})
		})
	})
}
