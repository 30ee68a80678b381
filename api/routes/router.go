package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lucasmerida/storely-backend/api/controllers"
	webhookcontrollers "github.com/lucasmerida/storely-backend/api/controllers/webhooks"
	"github.com/lucasmerida/storely-backend/api/middleware"
	"github.com/lucasmerida/storely-backend/internal/notifications"
	"github.com/lucasmerida/storely-backend/internal/reservations"
	"github.com/lucasmerida/storely-backend/internal/settlement"
	"github.com/lucasmerida/storely-backend/pkg/config"
	"github.com/lucasmerida/storely-backend/pkg/db"
	"github.com/lucasmerida/storely-backend/pkg/logger"
	"github.com/lucasmerida/storely-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	settlementService settlement.Service,
	reservationService reservations.Service,
	notificationService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.RateLimit(redisClient, "webhook", 120, time.Minute, logg))
		r.Post("/gateway", webhookcontrollers.GatewayWebhook(settlementService, cfg, redisClient, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, cfg.Settlement, logg))

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/{orderId}/classification", controllers.ClassifyOrder(settlementService, logg))
			r.Post("/{orderId}/mark-paid", controllers.MarkOrderPaid(settlementService, logg))
			r.Post("/{orderId}/topups/fiat", controllers.ProcessFiatTopUp(settlementService, logg))
			r.Post("/{orderId}/topups/credit", controllers.ProcessCreditTopUp(settlementService, logg))
			r.Post("/{orderId}/rsvp-settlement", controllers.ReservationAfterPayment(reservationService, logg))
		})

		r.Route("/v1/reservations", func(r chi.Router) {
			r.Get("/{rsvpId}", controllers.ReservationDetail(reservationService, logg))
			r.Post("/{rsvpId}/prepaid-payment", controllers.ReservationPrepaidPayment(reservationService, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Use(middleware.RequireStore(logg))
			r.Get("/", controllers.ListNotifications(notificationService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationService, logg))
		})
	})

	return r
}
