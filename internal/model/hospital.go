package model

import (
	"strings"
	"time"
)

// BedClass identifies an independently tracked capacity pool.
type BedClass string

const (
	BedClassGeneral BedClass = "general"
	BedClassICU     BedClass = "icu"
)

// Valid reports whether the bed class is one of the known pools.
func (c BedClass) Valid() bool {
	return c == BedClassGeneral || c == BedClassICU
}

// AvailabilityColumn returns the hospital column holding the available
// count for this bed class.
func (c BedClass) AvailabilityColumn() string {
	if c == BedClassICU {
		return "available_icu_beds"
	}
	return "available_general_beds"
}

// Hospital represents a hospital with live bed capacity.
// Invariant: 0 <= available <= total for each bed class.
type Hospital struct {
	ID        int64   `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"size:300;not null;index" json:"name"`
	Address   string  `json:"address"`
	City      string  `gorm:"size:100;index" json:"city"`
	State     string  `gorm:"size:100" json:"state"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`

	TotalGeneralBeds     int `gorm:"not null;default:0" json:"total_general_beds"`
	AvailableGeneralBeds int `gorm:"not null;default:0;index" json:"available_general_beds"`
	TotalICUBeds         int `gorm:"column:total_icu_beds;not null;default:0" json:"total_icu_beds"`
	AvailableICUBeds     int `gorm:"column:available_icu_beds;not null;default:0;index" json:"available_icu_beds"`

	AcceptsInsurance bool `gorm:"not null;default:false" json:"accepts_insurance"`
	// Comma-separated provider codes accepted by this hospital.
	InsuranceProviders     string  `json:"insurance_providers"`
	EstimatedEmergencyCost float64 `gorm:"not null;default:0" json:"estimated_emergency_cost"`
	EstimatedAdmissionCost float64 `gorm:"not null;default:0" json:"estimated_admission_cost"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Available returns the available bed count for the given class.
func (h *Hospital) Available(class BedClass) int {
	if class == BedClassICU {
		return h.AvailableICUBeds
	}
	return h.AvailableGeneralBeds
}

// ProviderCodes splits the accepted provider list into trimmed codes.
func (h *Hospital) ProviderCodes() []string {
	if h.InsuranceProviders == "" {
		return nil
	}
	parts := strings.Split(h.InsuranceProviders, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if code := strings.TrimSpace(p); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// AcceptsProvider reports whether any of the requester's provider codes is
// accepted here. Matching is case-insensitive.
func (h *Hospital) AcceptsProvider(requesterCodes []string) bool {
	if !h.AcceptsInsurance {
		return false
	}
	for _, accepted := range h.ProviderCodes() {
		for _, held := range requesterCodes {
			if strings.EqualFold(accepted, held) {
				return true
			}
		}
	}
	return false
}
