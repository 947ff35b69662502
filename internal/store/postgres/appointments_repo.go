package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"nirog/backend/internal/domain"
	"nirog/backend/internal/store"
)

var (
	_ store.AppointmentRepository = (*AppointmentRepo)(nil)
	_ store.SlotReservations      = (*AppointmentRepo)(nil)
)

const uniqueViolation = "23505"

type AppointmentRepo struct {
	db bun.IDB
}

func NewAppointmentRepo(db bun.IDB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type slotReservation struct {
	bun.BaseModel `bun:"table:slot_reservations"`

	DoctorID        string    `bun:"doctor_id,pk"`
	SlotID          string    `bun:"slot_id,pk"`
	AppointmentDate string    `bun:"appointment_date,pk"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
}

func (r *AppointmentRepo) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r *AppointmentRepo) ListByEmail(ctx context.Context, email string) ([]domain.Appointment, error) {
	rows := make([]domain.Appointment, 0)
	err := r.db.NewSelect().
		Model(&rows).
		Where("patient_email = ?", email).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) Reserve(ctx context.Context, key store.SlotKey) error {
	m := slotReservation{
		DoctorID:        key.DoctorID,
		SlotID:          key.SlotID,
		AppointmentDate: key.AppointmentDate,
		CreatedAt:       time.Now().UTC(),
	}
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	return mapReserveError(err)
}

func (r *AppointmentRepo) Release(ctx context.Context, key store.SlotKey) error {
	_, err := r.db.NewDelete().
		Model((*slotReservation)(nil)).
		Where("doctor_id = ?", key.DoctorID).
		Where("slot_id = ?", key.SlotID).
		Where("appointment_date = ?", key.AppointmentDate).
		Exec(ctx)
	return err
}

func mapReserveError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrSlotTaken
	}
	return err
}
