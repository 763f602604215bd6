package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-access-backend/internal/errs"
	"hospital-access-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// SetOnBedChange registers a hook invoked after every committed change
	// to a hospital's bed availability, whichever path caused it (reserve,
	// terminal transition, lazy expiry, sweep).
	SetOnBedChange(fn func())

	// Hospitals
	GetHospital(ctx context.Context, id int64) (model.Hospital, error)
	ListHospitalsWithCoordinates(ctx context.Context) ([]model.Hospital, error)

	// Bed reservations
	CreateReservation(ctx context.Context, res *model.BedReservation, now time.Time) error
	GetReservation(ctx context.Context, id string, now time.Time) (model.BedReservation, error)
	TransitionReservation(ctx context.Context, id string, to model.ReservationStatus, reason string, now time.Time) (model.BedReservation, error)
	ActiveReservation(ctx context.Context, requesterID string, now time.Time) (model.BedReservation, error)
	ListReservations(ctx context.Context, requesterID string) ([]model.BedReservation, error)
	ExpireDueReservations(ctx context.Context, now time.Time) ([]model.BedReservation, error)

	// Planned admissions
	CreateAdmission(ctx context.Context, adm *model.PlannedAdmission) error
	GetAdmission(ctx context.Context, id string) (model.PlannedAdmission, error)
	SaveAdmission(ctx context.Context, adm *model.PlannedAdmission) error
	ListAdmissions(ctx context.Context, requesterID string, activeOnly bool) ([]model.PlannedAdmission, error)

	// Push subscriptions
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForRequester(ctx context.Context, requesterID string) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db          *gorm.DB
	onBedChange func()
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) SetOnBedChange(fn func()) { s.onBedChange = fn }

func (s *gormStore) notifyBedChange() {
	if s.onBedChange != nil {
		s.onBedChange()
	}
}

func (s *gormStore) GetHospital(ctx context.Context, id int64) (model.Hospital, error) {
	var hospital model.Hospital
	err := s.db.WithContext(ctx).First(&hospital, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Hospital{}, errs.NotFound("hospital %d not found", id)
	}
	if err != nil {
		return model.Hospital{}, errs.Storage("failed to load hospital", err)
	}
	return hospital, nil
}

func (s *gormStore) ListHospitalsWithCoordinates(ctx context.Context) ([]model.Hospital, error) {
	var hospitals []model.Hospital
	err := s.db.WithContext(ctx).
		Where("latitude != 0 OR longitude != 0").
		Find(&hospitals).Error
	if err != nil {
		return nil, errs.Storage("failed to list hospitals", err)
	}
	return hospitals, nil
}

// CreateReservation atomically reserves one bed: the availability decrement
// is guarded by "available > 0" in the same transaction that inserts the
// reservation row, so concurrent reserves against the last bed cannot both
// succeed. A requester's own overdue hold is expired inside the same
// transaction instead of blocking the new one; any other open hold is a
// conflict. The partial unique index on open holds catches the race the
// check itself cannot see under READ COMMITTED.
func (s *gormStore) CreateReservation(ctx context.Context, res *model.BedReservation, now time.Time) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open []model.BedReservation
		err := tx.
			Where("requester_id = ?", res.RequesterID).
			Where("status IN ?", openStatusStrings()).
			Find(&open).Error
		if err != nil {
			return errs.Storage("failed to check active reservations", err)
		}
		for i := range open {
			if open[i].Status == model.ReservationReserved && !open[i].ExpiresAt.After(now) {
				if _, err := expireOne(tx, &open[i]); err != nil {
					return err
				}
				continue
			}
			return errs.AlreadyReserved("requester %s already holds an active reservation", res.RequesterID)
		}

		column := res.BedClass.AvailabilityColumn()
		result := tx.Model(&model.Hospital{}).
			Where("id = ? AND "+column+" > 0", res.HospitalID).
			UpdateColumn(column, gorm.Expr(column+" - 1"))
		if result.Error != nil {
			return errs.Storage("failed to decrement bed availability", result.Error)
		}
		if result.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&model.Hospital{}).Where("id = ?", res.HospitalID).Count(&exists).Error; err != nil {
				return errs.Storage("failed to check hospital", err)
			}
			if exists == 0 {
				return errs.NotFound("hospital %d not found", res.HospitalID)
			}
			return errs.NoCapacity("no %s beds available at hospital %d", res.BedClass, res.HospitalID)
		}

		if err := tx.Create(res).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errs.AlreadyReserved("requester %s already holds an active reservation", res.RequesterID)
			}
			return errs.Storage("failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifyBedChange()
	return nil
}

// GetReservation loads a reservation, lazily expiring it first when its TTL
// has elapsed while still reserved.
func (s *gormStore) GetReservation(ctx context.Context, id string, now time.Time) (model.BedReservation, error) {
	var res model.BedReservation
	err := s.db.WithContext(ctx).Preload("Hospital").First(&res, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.BedReservation{}, errs.NotFound("reservation %s not found", id)
	}
	if err != nil {
		return model.BedReservation{}, errs.Storage("failed to load reservation", err)
	}

	if res.Status == model.ReservationReserved && !res.ExpiresAt.After(now) {
		var won bool
		if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var txErr error
			won, txErr = expireOne(tx, &res)
			return txErr
		}); err != nil {
			return model.BedReservation{}, err
		}
		if won {
			s.notifyBedChange()
		}
		// Reload so the caller sees the authoritative state even when the
		// sweep won the expiry race.
		if err := s.db.WithContext(ctx).Preload("Hospital").First(&res, "id = ?", id).Error; err != nil {
			return model.BedReservation{}, errs.Storage("failed to reload reservation", err)
		}
	}
	return res, nil
}

// TransitionReservation applies one explicit state change. Status updates
// use a compare-and-swap on the previous status, so a concurrent transition
// (including the expiry sweep) makes this attempt fail instead of releasing
// the same bed twice.
func (s *gormStore) TransitionReservation(ctx context.Context, id string, to model.ReservationStatus, reason string, now time.Time) (model.BedReservation, error) {
	if to == model.ReservationExpired {
		return model.BedReservation{}, errs.InvalidTransition("expired is not a client-set status")
	}

	var current model.BedReservation
	err := s.db.WithContext(ctx).First(&current, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.BedReservation{}, errs.NotFound("reservation %s not found", id)
	}
	if err != nil {
		return model.BedReservation{}, errs.Storage("failed to load reservation", err)
	}

	// Expire an overdue hold in its own committed transaction before
	// rejecting the transition, so the release survives the rejection.
	if current.Status == model.ReservationReserved && !current.ExpiresAt.After(now) {
		var won bool
		if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var txErr error
			won, txErr = expireOne(tx, &current)
			return txErr
		}); err != nil {
			return model.BedReservation{}, err
		}
		if won {
			s.notifyBedChange()
		}
		return model.BedReservation{}, errs.InvalidTransition("reservation %s has expired", id)
	}

	var updated model.BedReservation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res model.BedReservation
		err := tx.First(&res, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("reservation %s not found", id)
		}
		if err != nil {
			return errs.Storage("failed to load reservation", err)
		}

		if !res.Status.CanTransition(to) {
			return errs.InvalidTransition("cannot transition reservation from %s to %s", res.Status, to)
		}

		changes := map[string]any{"status": to, "updated_at": now}
		switch to {
		case model.ReservationArrived:
			changes["arrival_time"] = now
		case model.ReservationAdmitted:
			changes["admission_time"] = now
		case model.ReservationCancelled:
			changes["cancellation_reason"] = reason
		}

		result := tx.Model(&model.BedReservation{}).
			Where("id = ? AND status = ?", id, res.Status).
			Updates(changes)
		if result.Error != nil {
			return errs.Storage("failed to update reservation status", result.Error)
		}
		if result.RowsAffected == 0 {
			return errs.InvalidTransition("reservation %s changed concurrently", id)
		}

		if releasesBed(to) {
			if err := releaseBed(tx, res.HospitalID, res.BedClass); err != nil {
				return err
			}
		}

		if err := tx.Preload("Hospital").First(&updated, "id = ?", id).Error; err != nil {
			return errs.Storage("failed to reload reservation", err)
		}
		return nil
	})
	if err != nil {
		return model.BedReservation{}, err
	}
	if releasesBed(to) {
		s.notifyBedChange()
	}
	return updated, nil
}

func (s *gormStore) ActiveReservation(ctx context.Context, requesterID string, now time.Time) (model.BedReservation, error) {
	var res model.BedReservation
	err := s.db.WithContext(ctx).Preload("Hospital").
		Where("requester_id = ?", requesterID).
		Where("status IN ?", openStatusStrings()).
		Order("created_at DESC").
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.BedReservation{}, errs.NotFound("no active reservation for requester %s", requesterID)
	}
	if err != nil {
		return model.BedReservation{}, errs.Storage("failed to load active reservation", err)
	}

	if res.Status == model.ReservationReserved && !res.ExpiresAt.After(now) {
		var won bool
		if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var txErr error
			won, txErr = expireOne(tx, &res)
			return txErr
		}); err != nil {
			return model.BedReservation{}, err
		}
		if won {
			s.notifyBedChange()
		}
		return model.BedReservation{}, errs.NotFound("no active reservation for requester %s", requesterID)
	}
	return res, nil
}

func (s *gormStore) ListReservations(ctx context.Context, requesterID string) ([]model.BedReservation, error) {
	var reservations []model.BedReservation
	err := s.db.WithContext(ctx).Preload("Hospital").
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&reservations).Error
	if err != nil {
		return nil, errs.Storage("failed to list reservations", err)
	}
	return reservations, nil
}

// ExpireDueReservations moves every overdue reserved hold to expired and
// releases its bed. Each reservation is handled in its own transaction so
// one failure does not roll back the rest of the sweep.
func (s *gormStore) ExpireDueReservations(ctx context.Context, now time.Time) ([]model.BedReservation, error) {
	var due []model.BedReservation
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", model.ReservationReserved, now).
		Find(&due).Error
	if err != nil {
		return nil, errs.Storage("failed to find due reservations", err)
	}

	var expired []model.BedReservation
	for i := range due {
		res := due[i]
		var won bool
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var txErr error
			won, txErr = expireOne(tx, &res)
			return txErr
		})
		if err != nil {
			if len(expired) > 0 {
				s.notifyBedChange()
			}
			return expired, err
		}
		if won {
			res.Status = model.ReservationExpired
			expired = append(expired, res)
		}
	}
	if len(expired) > 0 {
		s.notifyBedChange()
	}
	return expired, nil
}

// expireOne is the single expiry path shared by the lazy readers and the
// background sweep. The CAS on status guarantees the bed is released
// exactly once no matter how many paths observe the elapsed TTL.
func expireOne(tx *gorm.DB, res *model.BedReservation) (bool, error) {
	result := tx.Model(&model.BedReservation{}).
		Where("id = ? AND status = ?", res.ID, model.ReservationReserved).
		Update("status", model.ReservationExpired)
	if result.Error != nil {
		return false, errs.Storage("failed to expire reservation", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	if err := releaseBed(tx, res.HospitalID, res.BedClass); err != nil {
		return false, err
	}
	return true, nil
}

// releaseBed returns one bed to the pool, clamped so available never
// exceeds total.
func releaseBed(tx *gorm.DB, hospitalID int64, class model.BedClass) error {
	column := class.AvailabilityColumn()
	total := "total_general_beds"
	if class == model.BedClassICU {
		total = "total_icu_beds"
	}
	err := tx.Model(&model.Hospital{}).
		Where("id = ? AND "+column+" < "+total, hospitalID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		return errs.Storage("failed to release bed", err)
	}
	return nil
}

func releasesBed(to model.ReservationStatus) bool {
	return to == model.ReservationCancelled || to == model.ReservationDischarged || to == model.ReservationExpired
}

func openStatusStrings() []string {
	open := model.OpenReservationStatuses()
	out := make([]string, len(open))
	for i, s := range open {
		out[i] = string(s)
	}
	return out
}

func (s *gormStore) CreateAdmission(ctx context.Context, adm *model.PlannedAdmission) error {
	if err := s.db.WithContext(ctx).Create(adm).Error; err != nil {
		return errs.Storage("failed to create admission", err)
	}
	return nil
}

func (s *gormStore) GetAdmission(ctx context.Context, id string) (model.PlannedAdmission, error) {
	var adm model.PlannedAdmission
	err := s.db.WithContext(ctx).Preload("Hospital").First(&adm, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PlannedAdmission{}, errs.NotFound("admission %s not found", id)
	}
	if err != nil {
		return model.PlannedAdmission{}, errs.Storage("failed to load admission", err)
	}
	return adm, nil
}

func (s *gormStore) SaveAdmission(ctx context.Context, adm *model.PlannedAdmission) error {
	if err := s.db.WithContext(ctx).Save(adm).Error; err != nil {
		return errs.Storage("failed to save admission", err)
	}
	return nil
}

func (s *gormStore) ListAdmissions(ctx context.Context, requesterID string, activeOnly bool) ([]model.PlannedAdmission, error) {
	q := s.db.WithContext(ctx).Preload("Hospital").Where("requester_id = ?", requesterID)
	if activeOnly {
		q = q.Where("status NOT IN ?", []string{
			string(model.AdmissionReady), string(model.AdmissionCancelled),
		})
	}
	var admissions []model.PlannedAdmission
	if err := q.Order("created_at DESC").Find(&admissions).Error; err != nil {
		return nil, errs.Storage("failed to list admissions", err)
	}
	return admissions, nil
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"requester_id", "p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return errs.Storage("failed to upsert subscription", err)
	}
	return nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	err := s.db.WithContext(ctx).Delete(&model.PushSubscription{}, "endpoint = ?", endpoint).Error
	if err != nil {
		return errs.Storage("failed to delete subscription", err)
	}
	return nil
}

func (s *gormStore) SubscriptionsForRequester(ctx context.Context, requesterID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for %s: %w", requesterID, err)
	}
	return subs, nil
}
