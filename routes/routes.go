package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/codearena/platform/handlers"
	"github.com/codearena/platform/middleware"
	"github.com/codearena/platform/models"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Team        *handlers.TeamHandler
	Submission  *handlers.SubmissionHandler
	Leaderboard *handlers.LeaderboardHandler
	Playoff     *handlers.PlayoffHandler
	WebSocket   *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/signup", h.Auth.SignUp)
	router.Post("/auth/signin", h.Auth.SignIn)

	router.Get("/leaderboard", h.Leaderboard.Standings)

	router.Route("/playoffs", func(r chi.Router) {
		r.Get("/results", h.Playoff.LatestResults)
		r.Get("/matches", h.Playoff.MatchesByRound)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(string(models.RoleAdmin)))
			r.Post("/run", h.Playoff.Run)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Post("/", h.Team.Create)
		r.Get("/my", h.Team.MyTeam)
		r.Get("/search", h.Team.Search)
		r.Post("/{teamID}/join", h.Team.Join)
	})

	router.Route("/submissions", func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Post("/", h.Submission.Upload)
		r.Get("/mine", h.Submission.ListMine)
		r.Get("/latest", h.Submission.Latest)
		r.Get("/{submissionID}/log", h.Submission.Steps)
	})

	router.Get("/ws/playoffs", h.WebSocket.ServeWs)

	router.Get("/swagger/*", httpSwagger.Handler())

	return router
}
