package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hospital-access-backend/internal/admission"
	"hospital-access-backend/internal/errs"
	"hospital-access-backend/internal/model"
)

// admissionResponse flattens an admission with its derived completion.
type admissionResponse struct {
	model.PlannedAdmission
	ChecklistCompletion int `json:"checklist_completion"`
}

func toAdmissionResponse(adm model.PlannedAdmission) admissionResponse {
	return admissionResponse{
		PlannedAdmission:    adm,
		ChecklistCompletion: adm.Checklist.Completion(),
	}
}

type createAdmissionRequest struct {
	RequesterID       string `json:"requester_id" binding:"required"`
	AdmissionType     string `json:"admission_type" binding:"required"`
	ProcedureCategory string `json:"procedure_category"`
	ProcedureName     string `json:"procedure_name"`
	Symptoms          string `json:"symptoms"`
	PatientNotes      string `json:"patient_notes"`
}

// CreateAdmission handles POST /api/v1/admissions.
func (h *Handler) CreateAdmission(c *gin.Context) {
	var req createAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errs.Validation("invalid admission request: %v", err))
		return
	}

	adm, err := h.admissions.CreateDraft(c.Request.Context(), req.RequesterID, admission.ProcedureInfo{
		AdmissionType:     req.AdmissionType,
		ProcedureCategory: req.ProcedureCategory,
		ProcedureName:     req.ProcedureName,
		Symptoms:          req.Symptoms,
		PatientNotes:      req.PatientNotes,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAdmissionResponse(adm))
}

// GetAdmission handles GET /api/v1/admissions/:id.
func (h *Handler) GetAdmission(c *gin.Context) {
	adm, err := h.admissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdmissionResponse(adm))
}

// ListAdmissions handles GET /api/v1/admissions.
func (h *Handler) ListAdmissions(c *gin.Context) {
	requesterID := c.Query("requester_id")
	if requesterID == "" {
		abortWithError(c, errs.Validation("requester_id is required"))
		return
	}
	activeOnly := c.Query("active") == "true"

	admissions, err := h.admissions.List(c.Request.Context(), requesterID, activeOnly)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response := make([]admissionResponse, 0, len(admissions))
	for _, adm := range admissions {
		response = append(response, toAdmissionResponse(adm))
	}
	c.JSON(http.StatusOK, response)
}

type scheduleAdmissionRequest struct {
	HospitalID    int64  `json:"hospital_id" binding:"required"`
	PreferredDate string `json:"preferred_date" binding:"required"`
	AlternateDate string `json:"alternate_date"`
	FlexibleDates bool   `json:"flexible_dates"`
}

// ScheduleAdmission handles PUT /api/v1/admissions/:id/schedule.
func (h *Handler) ScheduleAdmission(c *gin.Context) {
	var req scheduleAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errs.Validation("invalid schedule request: %v", err))
		return
	}

	preferred, err := time.Parse("2006-01-02", req.PreferredDate)
	if err != nil {
		abortWithError(c, errs.Validation("preferred_date must be YYYY-MM-DD"))
		return
	}
	var alternate *time.Time
	if req.AlternateDate != "" {
		parsed, err := time.Parse("2006-01-02", req.AlternateDate)
		if err != nil {
			abortWithError(c, errs.Validation("alternate_date must be YYYY-MM-DD"))
			return
		}
		alternate = &parsed
	}

	adm, err := h.admissions.ScheduleAt(c.Request.Context(), c.Param("id"), admission.ScheduleRequest{
		HospitalID:    req.HospitalID,
		PreferredDate: preferred,
		AlternateDate: alternate,
		FlexibleDates: req.FlexibleDates,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdmissionResponse(adm))
}

type updateChecklistRequest struct {
	Category  string `json:"category" binding:"required"`
	ItemIndex *int   `json:"item_index" binding:"required"`
	Completed bool   `json:"completed"`
}

// UpdateChecklistItem handles PUT /api/v1/admissions/:id/checklist.
func (h *Handler) UpdateChecklistItem(c *gin.Context) {
	var req updateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errs.Validation("invalid checklist update: %v", err))
		return
	}

	adm, err := h.admissions.UpdateChecklistItem(
		c.Request.Context(),
		c.Param("id"),
		model.ChecklistCategory(req.Category),
		*req.ItemIndex,
		req.Completed,
	)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdmissionResponse(adm))
}

type cancelAdmissionRequest struct {
	Reason string `json:"reason"`
}

// CancelAdmission handles DELETE /api/v1/admissions/:id. Cancelling an
// admission never cascades to a bed reservation; callers release a related
// hold through the reservation endpoints.
func (h *Handler) CancelAdmission(c *gin.Context) {
	var req cancelAdmissionRequest
	// The body is optional; a missing reason is fine.
	_ = c.ShouldBindJSON(&req)

	adm, err := h.admissions.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdmissionResponse(adm))
}
