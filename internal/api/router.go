package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/api/handlers"
	"github.com/dom/watchnest/internal/api/middleware"
	"github.com/dom/watchnest/internal/config"
	"github.com/dom/watchnest/internal/service"
	"github.com/dom/watchnest/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires every route. staticDir, when non-empty, is served at
// /static/ for the disk media backend.
func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config, logger *log.Logger, staticDir string) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	if staticDir != "" {
		r.With(chiMiddleware.SetHeader("X-Content-Type-Options", "nosniff")).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	writeError := handlers.ErrorWriter(logger)
	requireAuth := middleware.Auth(services.Auth, logger, writeError)
	optionalAuth := middleware.OptionalAuth(services.Auth, logger)
	authLimit := middleware.RateLimit(middleware.NewIPRateLimiter(cfg.AuthRateLimitPerMinute), writeError)

	authHandler := handlers.NewAuthHandler(services.Auth, services.User, cfg, logger)
	userHandler := handlers.NewUserHandler(services.User, cfg, logger)
	videoHandler := handlers.NewVideoHandler(services.Video, cfg, logger)
	commentHandler := handlers.NewCommentHandler(services.Comment, logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(services.Subscription, logger)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, cfg.CORSOrigins, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimit)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/refresh-token", authHandler.Refresh)
			})

			r.With(optionalAuth).Get("/c/{username}", userHandler.ChannelProfile)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", authHandler.Logout)
				r.Post("/logout-all", authHandler.LogoutAll)
				r.Get("/sessions", authHandler.Sessions)
				r.Post("/change-password", authHandler.ChangePassword)
				r.Get("/current-user", authHandler.CurrentUser)
				r.Patch("/update-account", userHandler.UpdateAccount)
				r.Patch("/update-avatar", userHandler.UpdateAvatar)
				r.Patch("/update-cover-image", userHandler.UpdateCoverImage)
				r.Get("/watch-history", userHandler.WatchHistory)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", videoHandler.List)
			r.With(requireAuth).Post("/", videoHandler.Publish)
			r.With(requireAuth).Get("/my-videos", videoHandler.MyVideos)

			r.Route("/{videoID}", func(r chi.Router) {
				r.Get("/", videoHandler.Get)
				r.With(optionalAuth).Post("/views", videoHandler.RecordView)

				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					r.Patch("/", videoHandler.Update)
					r.Delete("/", videoHandler.Delete)
					r.Patch("/toggle-publish", videoHandler.TogglePublish)
				})
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/{videoID}", commentHandler.List)
			r.With(requireAuth).Post("/{videoID}", commentHandler.Add)
			r.With(requireAuth).Patch("/c/{commentID}", commentHandler.Update)
			r.With(requireAuth).Delete("/c/{commentID}", commentHandler.Delete)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.With(requireAuth).Patch("/c/{channelID}", subscriptionHandler.Toggle)
			r.Get("/c/{channelID}/subscribers", subscriptionHandler.Subscribers)
			r.Get("/u/{userID}/subscribed", subscriptionHandler.SubscribedChannels)
		})

		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
