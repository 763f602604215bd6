package model

import (
	"math"
	"time"
)

// AdmissionStatus enumerates the planned admission lifecycle.
type AdmissionStatus string

const (
	AdmissionDraft               AdmissionStatus = "draft"
	AdmissionScheduled           AdmissionStatus = "scheduled"
	AdmissionChecklistInProgress AdmissionStatus = "checklist_in_progress"
	AdmissionReady               AdmissionStatus = "ready"
	AdmissionCancelled           AdmissionStatus = "cancelled"
)

// Terminal reports whether the admission can no longer change state.
func (s AdmissionStatus) Terminal() bool {
	return s == AdmissionReady || s == AdmissionCancelled
}

// ChecklistCategory names one of the four fixed preparation groups.
type ChecklistCategory string

const (
	CategoryMedicalTests ChecklistCategory = "medical_tests"
	CategoryDocuments    ChecklistCategory = "documents"
	CategoryMedications  ChecklistCategory = "medications"
	CategoryInstructions ChecklistCategory = "instructions"
)

// ChecklistItem is a single named preparation step. The item set is fixed
// at scheduling time; only Completed is user-editable.
type ChecklistItem struct {
	Name        string `json:"name"`
	Completed   bool   `json:"completed"`
	Instruction string `json:"instruction,omitempty"`
}

// Checklist groups items under the four fixed categories.
type Checklist struct {
	MedicalTests []ChecklistItem `json:"medical_tests"`
	Documents    []ChecklistItem `json:"documents"`
	Medications  []ChecklistItem `json:"medications"`
	Instructions []ChecklistItem `json:"instructions"`
}

// Category returns the item slice for a category, or nil for an unknown one.
func (c *Checklist) Category(cat ChecklistCategory) []ChecklistItem {
	switch cat {
	case CategoryMedicalTests:
		return c.MedicalTests
	case CategoryDocuments:
		return c.Documents
	case CategoryMedications:
		return c.Medications
	case CategoryInstructions:
		return c.Instructions
	}
	return nil
}

// SetItem flips the completed flag of one item. Returns false when the
// category or index is out of range.
func (c *Checklist) SetItem(cat ChecklistCategory, index int, completed bool) bool {
	items := c.Category(cat)
	if items == nil || index < 0 || index >= len(items) {
		return false
	}
	items[index].Completed = completed
	return true
}

// Completion returns round(100*completed/total) across all four categories.
// An empty checklist is 0 percent, never a division by zero.
func (c *Checklist) Completion() int {
	var total, completed int
	for _, items := range [][]ChecklistItem{c.MedicalTests, c.Documents, c.Medications, c.Instructions} {
		for _, item := range items {
			total++
			if item.Completed {
				completed++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// PlannedAdmission represents a multi-step planned hospital admission.
type PlannedAdmission struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	RequesterID string          `gorm:"index;size:64;not null" json:"requester_id"`
	HospitalID  *int64          `gorm:"index" json:"hospital_id,omitempty"`
	Status      AdmissionStatus `gorm:"size:30;not null;index" json:"status"`

	AdmissionType     string `gorm:"size:30" json:"admission_type"`
	ProcedureCategory string `gorm:"size:100" json:"procedure_category"`
	ProcedureName     string `gorm:"size:300" json:"procedure_name"`
	Symptoms          string `json:"symptoms,omitempty"`

	PreferredDate *time.Time `json:"preferred_date,omitempty"`
	AlternateDate *time.Time `json:"alternate_date,omitempty"`
	FlexibleDates bool       `gorm:"not null;default:false" json:"flexible_dates"`

	Checklist Checklist `gorm:"serializer:json" json:"checklist"`

	PatientNotes       string `json:"patient_notes,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Hospital *Hospital `gorm:"constraint:OnDelete:SET NULL" json:"hospital,omitempty"`
}
