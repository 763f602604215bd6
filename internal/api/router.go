package api

import (
	"golang.org/x/time/rate"

	"github.com/gin-gonic/gin"

	"hospital-access-backend/internal/mw"
)

// RouterConfig carries the middleware knobs for the HTTP surface.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	v1 := r.Group("/api/v1")
	v1.Use(rateLimiter)
	{
		// Bed availability changes frequently, so nearby results are
		// cached briefly and invalidated on every bed-count change.
		v1.GET("/hospitals/nearby", h.nearbyCache.Middleware(), h.GetNearbyHospitals)

		v1.POST("/emergency/reservations", h.CreateReservation)
		v1.GET("/emergency/reservations", h.ListReservations)
		v1.GET("/emergency/reservations/active", h.GetActiveReservation)
		v1.GET("/emergency/reservations/:id", h.GetReservation)
		v1.PUT("/emergency/reservations/:id/status", h.UpdateReservationStatus)

		v1.POST("/admissions", h.CreateAdmission)
		v1.GET("/admissions", h.ListAdmissions)
		v1.GET("/admissions/:id", h.GetAdmission)
		v1.PUT("/admissions/:id/schedule", h.ScheduleAdmission)
		v1.PUT("/admissions/:id/checklist", h.UpdateChecklistItem)
		v1.DELETE("/admissions/:id", h.CancelAdmission)

		v1.POST("/triage", h.Triage)

		v1.PUT("/subscriptions", h.PutSubscription)
		v1.DELETE("/subscriptions", h.DeleteSubscription)
		v1.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
