package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-access-backend/internal/model"
)

func TestSweepOnceExpiresDueHolds(t *testing.T) {
	s := newTestStore(t)
	hospital := seedHospital(t, s, model.Hospital{
		ID: 1, TotalGeneralBeds: 2, AvailableGeneralBeds: 2,
	})

	manager := NewManager(s, 15*time.Minute)
	// Backdate the clock so the hold is created already overdue.
	manager.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }

	overdue, err := manager.Reserve(context.Background(), ReserveRequest{
		HospitalID: hospital.ID, BedClass: model.BedClassGeneral, RequesterID: "r1",
	})
	require.NoError(t, err)

	// A second hold with a fresh clock stays untouched by the sweep.
	manager.now = func() time.Time { return time.Now().UTC() }
	fresh, err := manager.Reserve(context.Background(), ReserveRequest{
		HospitalID: hospital.ID, BedClass: model.BedClassGeneral, RequesterID: "r2",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, hospitalAvailability(t, s, hospital.ID, model.BedClassGeneral))

	var notified []model.BedReservation
	sweeper := NewSweeper(s, time.Minute, zerolog.Nop(), func(res model.BedReservation) {
		notified = append(notified, res)
	})

	count := sweeper.SweepOnce(context.Background())
	assert.Equal(t, 1, count)
	require.Len(t, notified, 1)
	assert.Equal(t, overdue.ID, notified[0].ID)
	assert.Equal(t, model.ReservationExpired, notified[0].Status)

	// Only the overdue bed came back.
	assert.Equal(t, 1, hospitalAvailability(t, s, hospital.ID, model.BedClassGeneral))

	got, err := manager.Get(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationReserved, got.Status)

	// A second sweep finds nothing and never double-releases.
	assert.Equal(t, 0, sweeper.SweepOnce(context.Background()))
	assert.Equal(t, 1, hospitalAvailability(t, s, hospital.ID, model.BedClassGeneral))
}
