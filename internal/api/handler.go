package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"hospital-access-backend/internal/admission"
	"hospital-access-backend/internal/errs"
	"hospital-access-backend/internal/mw"
	"hospital-access-backend/internal/notification"
	"hospital-access-backend/internal/reservation"
	"hospital-access-backend/internal/scoring"
	"hospital-access-backend/internal/store"
	"hospital-access-backend/internal/triage"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store        store.Store
	reservations *reservation.Manager
	admissions   *admission.Workflow
	scorer       *scoring.Engine
	triage       triage.Classifier
	notifier     *notification.WorkerPool
	nearbyCache  *mw.ResponseCache
	webpush      *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(
	s store.Store,
	reservations *reservation.Manager,
	admissions *admission.Workflow,
	scorer *scoring.Engine,
	classifier triage.Classifier,
	notifier *notification.WorkerPool,
	nearbyCache *mw.ResponseCache,
	webpushOptions *webpush.Options,
) *Handler {
	if s != nil && nearbyCache != nil {
		// Every committed bed-count change, including lazy expiry and the
		// background sweep, evicts cached nearby results.
		s.SetOnBedChange(func() { nearbyCache.Invalidate(nearbyCachePrefix) })
	}
	return &Handler{
		store:        s,
		reservations: reservations,
		admissions:   admissions,
		scorer:       scorer,
		triage:       classifier,
		notifier:     notifier,
		nearbyCache:  nearbyCache,
		webpush:      webpushOptions,
	}
}

// statusFor maps an error kind to its HTTP status code.
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return 400
	case errs.KindNoCapacity, errs.KindAlreadyReserved:
		return 409
	case errs.KindInvalidTransition:
		return 422
	case errs.KindNotFound:
		return 404
	case errs.KindDependencyUnavailable:
		return 503
	default:
		return 500
	}
}

// abortWithError writes the uniform error body: a machine-checkable code
// plus a human-readable message.
func abortWithError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	c.AbortWithStatusJSON(statusFor(kind), gin.H{
		"code":  string(kind),
		"error": err.Error(),
	})
}
