// Package reservation implements the bed reservation lifecycle: exclusive
// time-bounded holds on scarce bed inventory, explicit forward transitions,
// and TTL-based expiry.
package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hospital-access-backend/internal/errs"
	"hospital-access-backend/internal/model"
	"hospital-access-backend/internal/store"
)

// Manager owns bed reservations. All capacity mutations go through the
// store's transactional operations; the manager adds validation and TTL
// policy on top.
type Manager struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a manager with the given reservation TTL.
func NewManager(s store.Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Manager{store: s, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// ReserveRequest carries everything needed to place a bed hold.
type ReserveRequest struct {
	HospitalID              int64
	BedClass                model.BedClass
	RequesterID             string
	EmergencyType           string
	PatientCondition        string
	ContactPerson           string
	ContactPhone            string
	EstimatedArrivalMinutes int
}

// Reserve places an exclusive hold on one bed. The hold starts in reserved
// and expires after the TTL; a caller-supplied ETA can stretch the window
// to 1.5x the travel estimate when that exceeds the TTL.
func (m *Manager) Reserve(ctx context.Context, req ReserveRequest) (model.BedReservation, error) {
	if req.HospitalID <= 0 {
		return model.BedReservation{}, errs.Validation("hospital_id is required")
	}
	if req.RequesterID == "" {
		return model.BedReservation{}, errs.Validation("requester_id is required")
	}
	if !req.BedClass.Valid() {
		return model.BedReservation{}, errs.Validation("unknown bed class %q", req.BedClass)
	}

	now := m.now()
	window := m.ttl
	if eta := time.Duration(req.EstimatedArrivalMinutes) * time.Minute; eta > 0 {
		if stretched := eta * 3 / 2; stretched > window {
			window = stretched
		}
	}

	res := model.BedReservation{
		ID:                      uuid.NewString(),
		HospitalID:              req.HospitalID,
		RequesterID:             req.RequesterID,
		BedClass:                req.BedClass,
		Status:                  model.ReservationReserved,
		EmergencyType:           req.EmergencyType,
		PatientCondition:        req.PatientCondition,
		ContactPerson:           req.ContactPerson,
		ContactPhone:            req.ContactPhone,
		EstimatedArrivalMinutes: req.EstimatedArrivalMinutes,
		ExpiresAt:               now.Add(window),
	}

	if err := m.store.CreateReservation(ctx, &res, now); err != nil {
		return model.BedReservation{}, err
	}
	return res, nil
}

// Transition applies one explicit status change. Terminal transitions
// release the held bed exactly once.
func (m *Manager) Transition(ctx context.Context, id string, to model.ReservationStatus, reason string) (model.BedReservation, error) {
	if id == "" {
		return model.BedReservation{}, errs.Validation("reservation id is required")
	}
	switch to {
	case model.ReservationPatientOnWay, model.ReservationArrived,
		model.ReservationAdmitted, model.ReservationDischarged,
		model.ReservationCancelled:
	default:
		return model.BedReservation{}, errs.Validation("unknown target status %q", to)
	}
	return m.store.TransitionReservation(ctx, id, to, reason, m.now())
}

// Get returns one reservation, applying lazy expiry first.
func (m *Manager) Get(ctx context.Context, id string) (model.BedReservation, error) {
	if id == "" {
		return model.BedReservation{}, errs.Validation("reservation id is required")
	}
	return m.store.GetReservation(ctx, id, m.now())
}

// Active returns the requester's current open reservation, if any.
func (m *Manager) Active(ctx context.Context, requesterID string) (model.BedReservation, error) {
	if requesterID == "" {
		return model.BedReservation{}, errs.Validation("requester_id is required")
	}
	return m.store.ActiveReservation(ctx, requesterID, m.now())
}

// History returns all of the requester's reservations, newest first.
func (m *Manager) History(ctx context.Context, requesterID string) ([]model.BedReservation, error) {
	if requesterID == "" {
		return nil, errs.Validation("requester_id is required")
	}
	return m.store.ListReservations(ctx, requesterID)
}
