package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/phrazzld/scry-decks/internal/api"
	apiMiddleware "github.com/phrazzld/scry-decks/internal/api/middleware"
)

const requestTimeout = 30 * time.Second

// setupRouter builds the HTTP handler with middleware and every route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.config.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{apiMiddleware.TraceHeader},
		MaxAge:         300,
	}))
	if limit := app.config.Server.RateLimitPerMinute; limit > 0 {
		r.Use(httprate.LimitByIP(limit, time.Minute))
	}

	authHandler := api.NewAuthHandler(
		app.userService,
		app.jwtService,
		time.Duration(app.config.Auth.TokenLifetimeMinutes)*time.Minute,
		app.logger,
	)
	deckHandler := api.NewDeckHandler(app.deckService, app.logger)
	cardHandler := api.NewCardHandler(app.cardService, app.logger)
	sessionHandler := api.NewSessionHandler(app.sessionService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/decks", func(r chi.Router) {
				r.Get("/", deckHandler.ListDecks)
				r.Post("/", deckHandler.CreateDeck)
				r.Get("/{id}", deckHandler.GetDeck)
				r.Put("/{id}", deckHandler.UpdateDeck)
				r.Delete("/{id}", deckHandler.DeleteDeck)

				r.Post("/{id}/cards", cardHandler.CreateCards)

				r.Post("/{id}/session", sessionHandler.StartSession)
				r.Post("/{id}/session/answer", sessionHandler.SubmitAnswer)
				r.Delete("/{id}/session", sessionHandler.EndSession)
			})

			r.Route("/cards/{id}", func(r chi.Router) {
				r.Get("/", cardHandler.GetCard)
				r.Put("/", cardHandler.UpdateCard)
				r.Delete("/", cardHandler.DeleteCard)
				r.Get("/preview", cardHandler.PreviewCard)
				r.Get("/history", cardHandler.GetCardHistory)
				r.Post("/postpone", cardHandler.PostponeCard)
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
