package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"hospital-access-backend/internal/errs"
	"hospital-access-backend/internal/model"
	"hospital-access-backend/internal/notification"
	"hospital-access-backend/internal/reservation"
)

const nearbyCachePrefix = "/api/v1/hospitals/nearby"

type createReservationRequest struct {
	HospitalID              int64  `json:"hospital_id" binding:"required"`
	BedClass                string `json:"bed_class" binding:"required"`
	RequesterID             string `json:"requester_id" binding:"required"`
	EmergencyType           string `json:"emergency_type"`
	PatientCondition        string `json:"patient_condition"`
	ContactPerson           string `json:"contact_person" binding:"required"`
	ContactPhone            string `json:"contact_phone" binding:"required"`
	EstimatedArrivalMinutes int    `json:"estimated_arrival_minutes"`
}

// CreateReservation handles POST /api/v1/emergency/reservations.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errs.Validation("invalid reservation request: %v", err))
		return
	}

	res, err := h.reservations.Reserve(c.Request.Context(), reservation.ReserveRequest{
		HospitalID:              req.HospitalID,
		BedClass:                model.BedClass(req.BedClass),
		RequesterID:             req.RequesterID,
		EmergencyType:           req.EmergencyType,
		PatientCondition:        req.PatientCondition,
		ContactPerson:           req.ContactPerson,
		ContactPhone:            req.ContactPhone,
		EstimatedArrivalMinutes: req.EstimatedArrivalMinutes,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetReservation handles GET /api/v1/emergency/reservations/:id.
// Reading applies lazy expiry, so an overdue hold comes back expired.
func (h *Handler) GetReservation(c *gin.Context) {
	res, err := h.reservations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type updateReservationStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// UpdateReservationStatus handles PUT /api/v1/emergency/reservations/:id/status.
func (h *Handler) UpdateReservationStatus(c *gin.Context) {
	var req updateReservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errs.Validation("invalid status update request: %v", err))
		return
	}

	to := model.ReservationStatus(req.Status)
	res, err := h.reservations.Transition(c.Request.Context(), c.Param("id"), to, req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if h.notifier != nil {
		h.notifier.Dispatch(notification.Event{
			RequesterID:  res.RequesterID,
			Reservation:  res.ID,
			HospitalName: res.Hospital.Name,
			Status:       res.Status,
			Message:      fmt.Sprintf("Your bed reservation at %s is now %s", res.Hospital.Name, res.Status),
		})
	}
	c.JSON(http.StatusOK, res)
}

// GetActiveReservation handles GET /api/v1/emergency/reservations/active.
func (h *Handler) GetActiveReservation(c *gin.Context) {
	requesterID := c.Query("requester_id")
	if requesterID == "" {
		abortWithError(c, errs.Validation("requester_id is required"))
		return
	}
	res, err := h.reservations.Active(c.Request.Context(), requesterID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListReservations handles GET /api/v1/emergency/reservations.
func (h *Handler) ListReservations(c *gin.Context) {
	requesterID := c.Query("requester_id")
	if requesterID == "" {
		abortWithError(c, errs.Validation("requester_id is required"))
		return
	}
	reservations, err := h.reservations.History(c.Request.Context(), requesterID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}
