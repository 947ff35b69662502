// Package memory holds process-local implementations of the store interfaces,
// used by default and in tests.
package memory

import (
	"context"
	"sync"

	"nirog/backend/internal/domain"
	"nirog/backend/internal/store"
)

var (
	_ store.SessionCache          = (*SessionCache)(nil)
	_ store.AppointmentRepository = (*AppointmentRepo)(nil)
	_ store.SlotReservations      = (*SlotReservations)(nil)
)

type SessionCache struct {
	mu    sync.Mutex
	email string
}

func NewSessionCache(email string) *SessionCache {
	return &SessionCache{email: email}
}

func (c *SessionCache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.email, nil
}

func (c *SessionCache) Set(ctx context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.email = email
	return nil
}

func (c *SessionCache) Delete(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.email = ""
	return nil
}

type AppointmentRepo struct {
	mu      sync.Mutex
	byEmail map[string][]domain.Appointment
}

func NewAppointmentRepo() *AppointmentRepo {
	return &AppointmentRepo{byEmail: make(map[string][]domain.Appointment)}
}

func (r *AppointmentRepo) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byEmail[appt.PatientEmail] = append(r.byEmail[appt.PatientEmail], appt)
	return appt, nil
}

func (r *AppointmentRepo) ListByEmail(ctx context.Context, email string) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.byEmail[email]
	out := make([]domain.Appointment, len(rows))
	copy(out, rows)
	return out, nil
}

type SlotReservations struct {
	mu   sync.Mutex
	held map[store.SlotKey]struct{}
}

func NewSlotReservations() *SlotReservations {
	return &SlotReservations{held: make(map[store.SlotKey]struct{})}
}

func (s *SlotReservations) Reserve(ctx context.Context, key store.SlotKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.held[key]; ok {
		return store.ErrSlotTaken
	}
	s.held[key] = struct{}{}
	return nil
}

func (s *SlotReservations) Release(ctx context.Context, key store.SlotKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, key)
	return nil
}
