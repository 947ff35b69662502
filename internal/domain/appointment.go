package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment copies the doctor's name and specialization at booking time; it
// does not reference the live Doctor record.
type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID                   string            `bun:"id,pk"`
	PatientEmail         string            `bun:"patient_email,notnull"`
	PatientName          string            `bun:"patient_name,notnull"`
	Phone                string            `bun:"phone,notnull"`
	DoctorID             string            `bun:"doctor_id,notnull"`
	DoctorName           string            `bun:"doctor_name,notnull"`
	DoctorSpecialization string            `bun:"doctor_specialization,notnull"`
	SlotID               string            `bun:"slot_id,notnull"`
	AppointmentDate      string            `bun:"appointment_date,notnull"`
	StartTime            string            `bun:"start_time,notnull"`
	EndTime              string            `bun:"end_time,notnull"`
	Status               AppointmentStatus `bun:"status,notnull"`
	CreatedAt            time.Time         `bun:"created_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if a.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		a.ID = id.String()
	}
	if a.Status == "" {
		a.Status = AppointmentStatusScheduled
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}
