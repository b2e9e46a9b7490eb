package http

import (
	"context"
	"net/http"

	"github.com/enthub-api/internal/application/functions"
	"github.com/enthub-api/internal/config"
	"github.com/enthub-api/internal/domain"
	"github.com/enthub-api/internal/transport/http/handler"
	appmiddleware "github.com/enthub-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. Background work it
// starts ends when ctx is cancelled.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := func(next http.Handler) http.Handler { return next }
	optionalAuthMw := authMw
	var tokens functions.TokenSigner
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
		optionalAuthMw = appmiddleware.OptionalAuth(deps.JWTProvider)
		tokens = deps.JWTProvider
	}

	// 5 requests/second, burst of 10, applied to the login endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	go func() {
		<-ctx.Done()
		sensitiveRL.Stop()
	}()

	healthH := handler.NewHealthHandler(deps.Hub)
	authH := handler.NewAuthHandler(deps.Auth, tokens)
	fnH := handler.NewFunctionHandler(deps.Hub, deps.JWTProvider != nil)

	r.Route("/v1", func(r chi.Router) {
		// Public
		r.Get("/health-check/{action}", healthH.Ping)
		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit, appmiddleware.NoStore)
			r.Post("/auth/issue-code", authH.IssueCode)
			r.Post("/auth/verify-code", authH.VerifyCode)
		})
		if deps.Media != nil {
			mediaH := handler.NewMediaHandler(deps.Media)
			r.Route("/media", func(r chi.Router) {
				r.Get("/trending", mediaH.Trending)
				r.Get("/search", mediaH.Search)
				r.Get("/collection/{id}", mediaH.Collection)
				r.Get("/person/{id}", mediaH.Person)
				r.Get("/tv/{id}/season/{number}", mediaH.Season)
				r.Get("/{type}/{id}", mediaH.Details)
			})
		}

		// Function surface; a userId argument must match the token when JWT is on.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuthMw, appmiddleware.NoStore)
			r.Post("/functions/{name}", fnH.Call)
			r.Get("/subscribe/{name}", fnH.Subscribe)
		})

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			if deps.Lists != nil {
				listH := handler.NewListHandler(deps.Lists)
				r.Get("/lists/status/{tmdbId}", listH.Status)
				r.Post("/lists/watchlist/toggle", listH.ToggleWatchlist)
				r.Post("/lists/watched", listH.MarkWatched)
				r.Delete("/lists/watched/{tmdbId}", listH.RemoveWatched)
				r.Put("/lists/watched/{tmdbId}/rating", listH.SetRating)
				r.Get("/lists/watchlist", listH.List(domain.ListWatchlist))
				r.Get("/lists/watched", listH.List(domain.ListWatched))
			}

			if deps.Users != nil {
				userH := handler.NewUserHandler(deps.Users)
				r.Get("/users", userH.List)
				r.With(appmiddleware.RequireSelf("id")).Get("/users/{id}", userH.Get)
			}
		})
	})

	return r
}
