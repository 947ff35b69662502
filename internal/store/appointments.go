package store

import (
	"context"

	"nirog/backend/internal/domain"
)

// AppointmentRepository is the booking ledger, partitioned by patient email.
type AppointmentRepository interface {
	Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Appointment, error)
}

// SlotKey identifies one bookable occurrence of a doctor's slot.
type SlotKey struct {
	DoctorID        string
	SlotID          string
	AppointmentDate string
}

// SlotReservations records consumed slots. Reserve returns ErrSlotTaken when
// the key is already held.
type SlotReservations interface {
	Reserve(ctx context.Context, key SlotKey) error
	Release(ctx context.Context, key SlotKey) error
}
