package model

import "time"

// ReservationStatus enumerates the bed reservation lifecycle.
type ReservationStatus string

const (
	ReservationReserved     ReservationStatus = "reserved"
	ReservationPatientOnWay ReservationStatus = "patient_on_way"
	ReservationArrived      ReservationStatus = "arrived"
	ReservationAdmitted     ReservationStatus = "admitted"
	ReservationDischarged   ReservationStatus = "discharged"
	ReservationCancelled    ReservationStatus = "cancelled"
	ReservationExpired      ReservationStatus = "expired"
)

// reservationOrder is the forward path of the state machine.
var reservationOrder = map[ReservationStatus]ReservationStatus{
	ReservationReserved:     ReservationPatientOnWay,
	ReservationPatientOnWay: ReservationArrived,
	ReservationArrived:      ReservationAdmitted,
	ReservationAdmitted:     ReservationDischarged,
}

// Terminal reports whether the status ends the lifecycle.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationDischarged, ReservationCancelled, ReservationExpired:
		return true
	}
	return false
}

// Open reports whether the reservation still holds a bed.
func (s ReservationStatus) Open() bool {
	return !s.Terminal() && s != ""
}

// CanTransition reports whether from -> to is a legal explicit transition.
// Only the next forward step or cancellation from an open state is allowed;
// expiry is never an explicit client transition.
func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	if to == ReservationCancelled {
		return s.Open()
	}
	return reservationOrder[s] == to
}

// OpenReservationStatuses lists every status that still holds a bed.
func OpenReservationStatuses() []ReservationStatus {
	return []ReservationStatus{
		ReservationReserved,
		ReservationPatientOnWay,
		ReservationArrived,
		ReservationAdmitted,
	}
}

// BedReservation represents a time-bounded exclusive hold on one bed.
// The partial unique index enforces one open hold per requester at the
// database level, backstopping the transactional check under concurrency.
type BedReservation struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	HospitalID  int64             `gorm:"index;not null" json:"hospital_id"`
	RequesterID string            `gorm:"index;size:64;not null;index:idx_bed_reservations_open_requester,unique,where:status = 'reserved' OR status = 'patient_on_way' OR status = 'arrived' OR status = 'admitted'" json:"requester_id"`
	BedClass    BedClass          `gorm:"size:10;not null" json:"bed_class"`
	Status      ReservationStatus `gorm:"size:20;not null;index" json:"status"`

	EmergencyType           string `gorm:"size:200" json:"emergency_type"`
	PatientCondition        string `json:"patient_condition"`
	ContactPerson           string `gorm:"size:200" json:"contact_person"`
	ContactPhone            string `gorm:"size:32" json:"contact_phone"`
	EstimatedArrivalMinutes int    `gorm:"not null;default:0" json:"estimated_arrival_minutes"`

	ExpiresAt          time.Time  `gorm:"not null;index" json:"expires_at"`
	ArrivalTime        *time.Time `json:"arrival_time,omitempty"`
	AdmissionTime      *time.Time `json:"admission_time,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Hospital Hospital `gorm:"constraint:OnDelete:CASCADE" json:"hospital,omitempty"`
}
