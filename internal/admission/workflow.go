// Package admission orchestrates the multi-step planned-admission process:
// procedure selection, hospital choice, scheduling, and the checklist-gated
// progression to ready.
package admission

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hospital-access-backend/internal/errs"
	"hospital-access-backend/internal/model"
	"hospital-access-backend/internal/store"
)

// Workflow owns planned admission records and their state machine.
type Workflow struct {
	store store.Store
}

// NewWorkflow creates a workflow over the given store.
func NewWorkflow(s store.Store) *Workflow {
	return &Workflow{store: s}
}

// ProcedureInfo captures the procedure chosen when the draft is created.
type ProcedureInfo struct {
	AdmissionType     string
	ProcedureCategory string
	ProcedureName     string
	Symptoms          string
	PatientNotes      string
}

// ScheduleRequest carries the hospital choice and date preferences.
type ScheduleRequest struct {
	HospitalID    int64
	PreferredDate time.Time
	AlternateDate *time.Time
	FlexibleDates bool
}

// CreateDraft starts a new admission in draft with the chosen procedure.
func (w *Workflow) CreateDraft(ctx context.Context, requesterID string, info ProcedureInfo) (model.PlannedAdmission, error) {
	if requesterID == "" {
		return model.PlannedAdmission{}, errs.Validation("requester_id is required")
	}
	if info.AdmissionType == "" {
		return model.PlannedAdmission{}, errs.Validation("admission_type is required")
	}

	adm := model.PlannedAdmission{
		ID:                uuid.NewString(),
		RequesterID:       requesterID,
		Status:            model.AdmissionDraft,
		AdmissionType:     info.AdmissionType,
		ProcedureCategory: info.ProcedureCategory,
		ProcedureName:     info.ProcedureName,
		Symptoms:          info.Symptoms,
		PatientNotes:      info.PatientNotes,
	}
	if err := w.store.CreateAdmission(ctx, &adm); err != nil {
		return model.PlannedAdmission{}, err
	}
	return adm, nil
}

// ScheduleAt books the admission at a hospital and seeds the checklist.
// A hospital without available general beds is only accepted when the
// dates are flexible, since a negotiable date defers the capacity check.
func (w *Workflow) ScheduleAt(ctx context.Context, admissionID string, req ScheduleRequest) (model.PlannedAdmission, error) {
	if req.HospitalID <= 0 {
		return model.PlannedAdmission{}, errs.Validation("hospital_id is required")
	}
	if req.PreferredDate.IsZero() {
		return model.PlannedAdmission{}, errs.Validation("preferred_date is required")
	}

	adm, err := w.store.GetAdmission(ctx, admissionID)
	if err != nil {
		return model.PlannedAdmission{}, err
	}
	if adm.Status != model.AdmissionDraft {
		return model.PlannedAdmission{}, errs.InvalidTransition("admission %s is %s, only drafts can be scheduled", admissionID, adm.Status)
	}

	hospital, err := w.store.GetHospital(ctx, req.HospitalID)
	if err != nil {
		return model.PlannedAdmission{}, err
	}
	if !req.FlexibleDates && hospital.AvailableGeneralBeds <= 0 {
		return model.PlannedAdmission{}, errs.NoCapacity("hospital %d has no general beds available; choose flexible dates or another hospital", req.HospitalID)
	}

	hospitalID := hospital.ID
	adm.HospitalID = &hospitalID
	adm.Hospital = &hospital
	adm.PreferredDate = &req.PreferredDate
	adm.AlternateDate = req.AlternateDate
	adm.FlexibleDates = req.FlexibleDates
	adm.Status = model.AdmissionScheduled
	adm.Checklist = DefaultChecklist()

	if err := w.store.SaveAdmission(ctx, &adm); err != nil {
		return model.PlannedAdmission{}, err
	}
	return adm, nil
}

// UpdateChecklistItem flips one item's completed flag and recomputes
// progress. The first completed item moves the admission to
// checklist_in_progress; full completion moves it to ready.
func (w *Workflow) UpdateChecklistItem(ctx context.Context, admissionID string, category model.ChecklistCategory, itemIndex int, completed bool) (model.PlannedAdmission, error) {
	adm, err := w.store.GetAdmission(ctx, admissionID)
	if err != nil {
		return model.PlannedAdmission{}, err
	}

	switch adm.Status {
	case model.AdmissionScheduled, model.AdmissionChecklistInProgress, model.AdmissionReady:
	default:
		return model.PlannedAdmission{}, errs.InvalidTransition("admission %s is %s, checklist is not open", admissionID, adm.Status)
	}

	if !adm.Checklist.SetItem(category, itemIndex, completed) {
		return model.PlannedAdmission{}, errs.Validation("unknown checklist category %q or item index %d out of range", category, itemIndex)
	}

	// Post-scheduling status is derived from checklist progress, so an
	// unchecked item moves the admission backward as well.
	switch completion := adm.Checklist.Completion(); {
	case completion >= 100:
		adm.Status = model.AdmissionReady
	case completion > 0:
		adm.Status = model.AdmissionChecklistInProgress
	default:
		adm.Status = model.AdmissionScheduled
	}

	if err := w.store.SaveAdmission(ctx, &adm); err != nil {
		return model.PlannedAdmission{}, err
	}
	return adm, nil
}

// Cancel ends the admission from any non-terminal state, recording the
// reason. It deliberately does not touch any bed reservation; releasing a
// related hold is a separate explicit call against the reservation manager.
func (w *Workflow) Cancel(ctx context.Context, admissionID, reason string) (model.PlannedAdmission, error) {
	adm, err := w.store.GetAdmission(ctx, admissionID)
	if err != nil {
		return model.PlannedAdmission{}, err
	}
	if adm.Status == model.AdmissionCancelled {
		return model.PlannedAdmission{}, errs.InvalidTransition("admission %s is already cancelled", admissionID)
	}
	if adm.Status == model.AdmissionReady {
		return model.PlannedAdmission{}, errs.InvalidTransition("admission %s is ready and can no longer be cancelled here", admissionID)
	}

	adm.Status = model.AdmissionCancelled
	adm.CancellationReason = reason
	if err := w.store.SaveAdmission(ctx, &adm); err != nil {
		return model.PlannedAdmission{}, err
	}
	return adm, nil
}

// Get returns one admission.
func (w *Workflow) Get(ctx context.Context, admissionID string) (model.PlannedAdmission, error) {
	if admissionID == "" {
		return model.PlannedAdmission{}, errs.Validation("admission id is required")
	}
	return w.store.GetAdmission(ctx, admissionID)
}

// List returns the requester's admissions, optionally only open ones.
func (w *Workflow) List(ctx context.Context, requesterID string, activeOnly bool) ([]model.PlannedAdmission, error) {
	if requesterID == "" {
		return nil, errs.Validation("requester_id is required")
	}
	return w.store.ListAdmissions(ctx, requesterID, activeOnly)
}
