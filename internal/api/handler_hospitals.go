package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hospital-access-backend/internal/errs"
	"hospital-access-backend/internal/geo"
	"hospital-access-backend/internal/model"
	"hospital-access-backend/internal/scoring"
)

// nearbyHospitalResponse is the flattened structure for a ranked candidate.
type nearbyHospitalResponse struct {
	model.Hospital
	DistanceKm       float64  `json:"distance_km"`
	Score            float64  `json:"score"`
	Reasons          []string `json:"reasons"`
	TravelTimeMin    int      `json:"travel_time_min"`
	InsuranceMatched bool     `json:"insurance_matched"`
}

// GetNearbyHospitals handles GET /api/v1/hospitals/nearby.
// Query params: latitude, longitude (required), radius_km (default 10),
// bed_class (general|icu|all, default all), insurance (comma-separated
// provider codes held by the requester).
func (h *Handler) GetNearbyHospitals(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		abortWithError(c, errs.Validation("latitude is required and must be a number"))
		return
	}
	lon, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		abortWithError(c, errs.Validation("longitude is required and must be a number"))
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		abortWithError(c, errs.Validation("coordinates out of range"))
		return
	}

	radius := 10.0
	if raw := c.Query("radius_km"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			abortWithError(c, errs.Validation("radius_km must be a number"))
			return
		}
	}
	if err := geo.ValidateRadius(radius); err != nil {
		abortWithError(c, err)
		return
	}

	bedClass := c.DefaultQuery("bed_class", "all")
	switch bedClass {
	case "all", string(model.BedClassGeneral), string(model.BedClassICU):
	default:
		abortWithError(c, errs.Validation("bed_class must be general, icu or all"))
		return
	}

	var providerCodes []string
	if raw := c.Query("insurance"); raw != "" {
		for _, code := range strings.Split(raw, ",") {
			if code = strings.TrimSpace(code); code != "" {
				providerCodes = append(providerCodes, code)
			}
		}
	}

	hospitals, err := h.store.ListHospitalsWithCoordinates(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	hospitals = filterByBedClass(hospitals, bedClass)

	candidates := geo.FindNearby(hospitals, geo.Point{Latitude: lat, Longitude: lon}, radius)
	ranked := h.scorer.Rank(candidates, scoring.Profile{InsuranceProviderCodes: providerCodes})

	response := make([]nearbyHospitalResponse, 0, len(ranked))
	for _, s := range ranked {
		response = append(response, nearbyHospitalResponse{
			Hospital:         s.Hospital,
			DistanceKm:       s.DistanceKm,
			Score:            s.Score,
			Reasons:          s.Reasons,
			TravelTimeMin:    s.TravelTimeMin,
			InsuranceMatched: s.InsuranceMatched,
		})
	}
	c.JSON(http.StatusOK, response)
}

// filterByBedClass keeps hospitals with availability in the requested pool;
// "all" means either pool has a free bed.
func filterByBedClass(hospitals []model.Hospital, bedClass string) []model.Hospital {
	filtered := hospitals[:0]
	for _, hospital := range hospitals {
		switch bedClass {
		case string(model.BedClassGeneral):
			if hospital.AvailableGeneralBeds > 0 {
				filtered = append(filtered, hospital)
			}
		case string(model.BedClassICU):
			if hospital.AvailableICUBeds > 0 {
				filtered = append(filtered, hospital)
			}
		default:
			if hospital.AvailableGeneralBeds > 0 || hospital.AvailableICUBeds > 0 {
				filtered = append(filtered, hospital)
			}
		}
	}
	return filtered
}
