package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/padelpoint/tournament-service/handlers"
	"github.com/padelpoint/tournament-service/middleware"
	"github.com/padelpoint/tournament-service/models"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Tournament *handlers.TournamentHandler
	Team       *handlers.TeamHandler
	Draw       *handlers.DrawHandler
	Match      *handlers.MatchHandler
	Court      *handlers.CourtHandler
	WebSocket  *handlers.WebSocketHandler
}

// SetupRoutes mounts the full API surface. Reads are public; every mutating
// endpoint requires an authenticated organizer.
func SetupRoutes(router *chi.Mux, h Handlers, jwtSecret string, corsOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	organizerOnly := func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Use(middleware.Authorize(string(models.RoleOrganizer)))
	}

	router.Post("/auth/signup", h.Auth.SignUpHandler)
	router.Post("/auth/signin", h.Auth.SignInHandler)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.ListHandler)
		r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)
		r.Get("/{tournamentID}/teams", h.Team.ListRosterHandler)
		r.Get("/{tournamentID}/draw", h.Draw.GetHandler)
		r.Get("/{tournamentID}/matches", h.Match.ListByTournamentHandler)

		r.Group(func(r chi.Router) {
			organizerOnly(r)

			r.Post("/", h.Tournament.CreateHandler)
			r.Patch("/{tournamentID}/status", h.Tournament.UpdateStatusHandler)
			r.Post("/{tournamentID}/poster", h.Tournament.UploadPosterHandler)
			r.Post("/{tournamentID}/teams", h.Team.RegisterHandler)
			r.Post("/{tournamentID}/teams/batch", h.Team.RegisterBatchHandler)
			r.Post("/{tournamentID}/draw", h.Draw.CreateHandler)
			r.Get("/{tournamentID}/draw/preview", h.Draw.PreviewHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", h.Match.GetByIDHandler)

		r.Group(func(r chi.Router) {
			organizerOnly(r)

			r.Patch("/{matchID}/schedule", h.Match.ScheduleHandler)
			r.Post("/{matchID}/score", h.Match.SubmitScoreHandler)
			r.Put("/{matchID}/score", h.Match.CorrectScoreHandler)
		})
	})

	router.Route("/courts", func(r chi.Router) {
		r.Get("/", h.Court.ListHandler)

		r.Group(func(r chi.Router) {
			organizerOnly(r)
			r.Post("/", h.Court.CreateHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}
