package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appMiddleware "github.com/FACorreiaa/flaia-functions/app/middleware"
	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/auth"
	"github.com/FACorreiaa/flaia-functions/internal/api/food"
	"github.com/FACorreiaa/flaia-functions/internal/api/itinerary"
	"github.com/FACorreiaa/flaia-functions/internal/api/notifications"
	"github.com/FACorreiaa/flaia-functions/internal/api/promo"
	"github.com/FACorreiaa/flaia-functions/internal/api/user"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config contains dependencies needed for the router setup
type Config struct {
	App                 *config.Config
	Logger              *slog.Logger
	DB                  Pinger
	ItineraryHandler    *itinerary.Handler
	FoodHandler         *food.Handler
	PromoHandler        *promo.Handler
	UserHandler         *user.HandlerImpl
	NotificationHandler *notifications.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (request id, logger, recoverer) is applied in main.go
// before this router is mounted.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()
	appCfg := cfg.App

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.App.AllowedOrigin,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/healthz", healthz(cfg.DB, cfg.Logger))

	// Scheduled deliveries arrive from the dispatcher, signed as the scheduler.
	r.With(notifications.PostOnly, auth.Authenticate(cfg.Logger, appCfg.JWT, api.WritePlatformError)).
		HandleFunc("/notifications/send", cfg.NotificationHandler.SendScheduled)

	r.Route("/api/v1", func(r chi.Router) {
		// Itinerary endpoints answer with the envelope format and check the
		// caller themselves.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuthenticate(cfg.Logger, appCfg.JWT))
			r.Use(appMiddleware.RateLimitPerMinute(appCfg.App.AIPerMinute, api.WriteEnvelopeError))

			r.Post("/itineraries/initial", cfg.ItineraryHandler.GenerateInitial())
			r.Post("/itineraries/advanced", cfg.ItineraryHandler.GenerateAdvanced())
			r.Post("/itineraries/shuffle", cfg.ItineraryHandler.ShuffleActivities())
			r.Post("/itineraries/edit", cfg.ItineraryHandler.EditActivity())
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuthenticate(cfg.Logger, appCfg.JWT))
			r.Post("/trips", cfg.ItineraryHandler.SaveTrip)
			r.Get("/trips/{tripID}", cfg.ItineraryHandler.GetTripDetails)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(cfg.Logger, appCfg.JWT, api.WritePlatformError))
			r.Use(appMiddleware.RateLimitPerMinute(appCfg.App.AIPerMinute, api.WritePlatformError))

			r.Post("/food/meal-image", cfg.FoodHandler.AnalyzeMealImage())
			r.Post("/food/label-image", cfg.FoodHandler.AnalyzeLabelImage())
			r.Post("/food/meal-text", cfg.FoodHandler.AnalyzeMealText())
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(cfg.Logger, appCfg.JWT, api.WritePlatformError))

			r.Post("/food/meals", cfg.FoodHandler.SaveMealEntry())
			r.Get("/users/me", cfg.UserHandler.GetUserProfile)
			r.Put("/users/me/device", cfg.UserHandler.UpdateDevice)
			r.Post("/notifications/onboarding", cfg.NotificationHandler.ScheduleOnboarding)
		})

		r.With(
			auth.OptionalAuthenticate(cfg.Logger, appCfg.JWT),
			appMiddleware.RateLimitPerMinute(appCfg.Promo.RedeemPerMinute, api.WritePlatformError),
		).Post("/promo/redeem", cfg.PromoHandler.RedeemPromoCode)

		r.Route("/admin/promo-codes", func(r chi.Router) {
			r.Use(auth.Authenticate(cfg.Logger, appCfg.JWT, api.WritePlatformError))
			r.Use(auth.RequireAdmin(cfg.Logger, appCfg.Promo.AdminEmails, api.WritePlatformError))

			r.Post("/", cfg.PromoHandler.GeneratePromoCode)
			r.Get("/", cfg.PromoHandler.ListPromoCodes)
			r.Get("/{code}", cfg.PromoHandler.GetPromoCode)
			r.Post("/{code}/reserve", cfg.PromoHandler.ReservePromoCode)
			r.Post("/{code}/unreserve", cfg.PromoHandler.UnreservePromoCode)
		})
	})

	return r
}

func healthz(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "Health check failed", slog.Any("error", err))
			api.WriteJSONResponse(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
