package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sharebnb/internal/handler"
	"sharebnb/internal/httputil"
	authmw "sharebnb/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	ListingHandler *handler.ListingHandler
	MessageHandler *handler.MessageHandler
	MediaHandler   *handler.MediaHandler
	TokenParser    authmw.TokenParser
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(authmw.NoStore)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Post("/auth/signup", cfg.AuthHandler.Signup)
	r.Post("/auth/login", cfg.AuthHandler.Login)

	r.Get("/users", cfg.UserHandler.List)
	r.Get("/users/{username}", cfg.UserHandler.GetProfile)
	r.Get("/users/{username}/listings", cfg.UserHandler.GetListings)

	r.Get("/listings", cfg.ListingHandler.Search)
	r.Get("/listings/{id}", cfg.ListingHandler.GetByID)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.TokenParser))

		r.Get("/me", cfg.AuthHandler.Me)
		r.Post("/auth/logout", cfg.AuthHandler.Logout)

		r.Patch("/users/me", cfg.UserHandler.UpdateMe)
		r.Delete("/users/me", cfg.UserHandler.DeleteMe)
		r.Post("/users/me/avatar", cfg.MediaHandler.UploadAvatar)

		r.Post("/listings", cfg.ListingHandler.Create)
		r.Patch("/listings/{id}", cfg.ListingHandler.Update)
		r.Delete("/listings/{id}", cfg.ListingHandler.Delete)
		r.Post("/listings/{id}/photo", cfg.MediaHandler.UploadListingPhoto)

		r.Get("/listings/{id}/messages", cfg.MessageHandler.ListForListing)
		r.Post("/listings/{id}/messages", cfg.MessageHandler.Create)
		r.Get("/messages", cfg.MessageHandler.ListBetween)
		r.Get("/messages/{id}", cfg.MessageHandler.GetByID)
	})

	return r
}
