package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hospital-access-backend/internal/admission"
	"hospital-access-backend/internal/api"
	"hospital-access-backend/internal/db"
	"hospital-access-backend/internal/model"
	"hospital-access-backend/internal/mw"
	"hospital-access-backend/internal/reservation"
	"hospital-access-backend/internal/scoring"
	"hospital-access-backend/internal/store"
	"hospital-access-backend/internal/triage"
)

type testStack struct {
	router *gin.Engine
	store  store.Store
}

func newTestStack(t *testing.T) testStack {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(testDB))

	s := store.NewGormStore(testDB)
	handler := api.NewHandler(
		s,
		reservation.NewManager(s, 15*time.Minute),
		admission.NewWorkflow(s),
		scoring.NewEngine(0, 0),
		triage.NewHTTPClassifier("", time.Second),
		nil,
		mw.NewResponseCache(30*time.Second),
		&webpush.Options{VAPIDPublicKey: "pk"},
	)
	router := api.NewRouter(handler, api.RouterConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000})
	return testStack{router: router, store: s}
}

func (ts testStack) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// TestEmergencyReservationLifecycle walks the full emergency flow over HTTP:
// find a hospital, hold its last bed, move the patient through arrival and
// admission, and verify the bed returns to the pool on discharge.
func TestEmergencyReservationLifecycle(t *testing.T) {
	ts := newTestStack(t)

	hospital := model.Hospital{
		ID: 1, Name: "City General", Latitude: 28.6353, Longitude: 77.2250,
		TotalGeneralBeds: 1, AvailableGeneralBeds: 1,
	}
	require.NoError(t, ts.store.DB().Create(&hospital).Error)

	// Step 1: the hospital is discoverable while it has a bed.
	w := ts.request(t, http.MethodGet,
		"/api/v1/hospitals/nearby?latitude=28.6315&longitude=77.2167&radius_km=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var nearby []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nearby))
	require.Len(t, nearby, 1)

	// Step 2: hold the last bed.
	w = ts.request(t, http.MethodPost, "/api/v1/emergency/reservations", map[string]any{
		"hospital_id":               1,
		"bed_class":                 "general",
		"requester_id":              "family-1",
		"emergency_type":            "cardiac",
		"contact_person":            "Ravi",
		"contact_phone":             "9876543210",
		"estimated_arrival_minutes": 12,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	id := res["id"].(string)

	// Step 3: with zero beds left the hospital drops out of the search.
	w = ts.request(t, http.MethodGet,
		"/api/v1/hospitals/nearby?latitude=28.6315&longitude=77.2167&radius_km=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nearby))
	assert.Empty(t, nearby)

	// Step 4: walk the lifecycle forward.
	for _, status := range []string{"patient_on_way", "arrived", "admitted"} {
		w = ts.request(t, http.MethodPut, "/api/v1/emergency/reservations/"+id+"/status",
			map[string]any{"status": status})
		require.Equal(t, http.StatusOK, w.Code, "transition to %s: %s", status, w.Body.String())
	}

	w = ts.request(t, http.MethodGet, "/api/v1/emergency/reservations/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "admitted", res["status"])
	assert.NotNil(t, res["arrival_time"])
	assert.NotNil(t, res["admission_time"])

	// Step 5: discharge returns the bed and the hospital is findable again.
	w = ts.request(t, http.MethodPut, "/api/v1/emergency/reservations/"+id+"/status",
		map[string]any{"status": "discharged"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodGet,
		"/api/v1/hospitals/nearby?latitude=28.6315&longitude=77.2167&radius_km=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nearby))
	require.Len(t, nearby, 1)
	assert.Equal(t, float64(1), nearby[0]["available_general_beds"])
}

// TestReservationExpiryEndToEnd verifies the sweep path: an overdue hold is
// expired exactly once, its bed is released, and reads agree afterwards.
func TestReservationExpiryEndToEnd(t *testing.T) {
	ts := newTestStack(t)

	hospital := model.Hospital{
		ID: 1, Name: "City General", Latitude: 28.6, Longitude: 77.2,
		TotalGeneralBeds: 1, AvailableGeneralBeds: 1,
	}
	require.NoError(t, ts.store.DB().Create(&hospital).Error)

	// Place a hold that is already overdue.
	overdue := model.BedReservation{
		ID:          uuid.NewString(),
		HospitalID:  1,
		RequesterID: "family-1",
		BedClass:    model.BedClassGeneral,
		Status:      model.ReservationReserved,
		ExpiresAt:   time.Now().UTC().Add(-5 * time.Minute),
	}
	require.NoError(t, ts.store.CreateReservation(context.Background(), &overdue, time.Now().UTC().Add(-20*time.Minute)))

	var h model.Hospital
	require.NoError(t, ts.store.DB().First(&h, 1).Error)
	require.Equal(t, 0, h.AvailableGeneralBeds)

	// With no beds left the hospital is invisible, and the empty result is
	// now sitting in the response cache.
	w := ts.request(t, http.MethodGet,
		"/api/v1/hospitals/nearby?latitude=28.6&longitude=77.2&radius_km=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var nearby []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nearby))
	require.Empty(t, nearby)

	var notified []model.BedReservation
	sweeper := reservation.NewSweeper(ts.store, time.Minute, zerolog.Nop(), func(res model.BedReservation) {
		notified = append(notified, res)
	})

	assert.Equal(t, 1, sweeper.SweepOnce(context.Background()))
	require.Len(t, notified, 1)
	assert.Equal(t, overdue.ID, notified[0].ID)

	// The bed is back and the reservation reads as expired over HTTP.
	require.NoError(t, ts.store.DB().First(&h, 1).Error)
	assert.Equal(t, 1, h.AvailableGeneralBeds)

	// The sweep evicted the cached empty result, so the hospital is
	// discoverable again right away.
	w = ts.request(t, http.MethodGet,
		"/api/v1/hospitals/nearby?latitude=28.6&longitude=77.2&radius_km=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nearby))
	require.Len(t, nearby, 1)
	assert.Equal(t, float64(1), nearby[0]["available_general_beds"])

	w = ts.request(t, http.MethodGet, "/api/v1/emergency/reservations/"+overdue.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "expired", res["status"])

	// Sweeping again is a no-op: the bed is never released twice.
	assert.Equal(t, 0, sweeper.SweepOnce(context.Background()))
	require.NoError(t, ts.store.DB().First(&h, 1).Error)
	assert.Equal(t, 1, h.AvailableGeneralBeds)

	// The requester can immediately place a fresh hold.
	w = ts.request(t, http.MethodPost, "/api/v1/emergency/reservations", map[string]any{
		"hospital_id":    1,
		"bed_class":      "general",
		"requester_id":   "family-1",
		"contact_person": "Ravi",
		"contact_phone":  "9876543210",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
