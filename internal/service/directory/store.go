// Package directory implements the doctor directory and booking store: the
// single owner of directory, search, loading/error, session and booking state.
// Views read it through State and change it only through its operations.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nirog/backend/internal/domain"
	"nirog/backend/internal/store"
	"nirog/backend/internal/store/memory"
)

var ErrLoadFailed = errors.New("directory load failed")

// AppointmentSource selects what Appointments reads for the current session.
type AppointmentSource string

const (
	// SourceMock serves domain.MockAppointments to any session and never
	// reflects bookings.
	SourceMock AppointmentSource = "mock"
	// SourceLedger appends every booking to the ledger and reads the session's
	// own appointments back from it.
	SourceLedger AppointmentSource = "ledger"
)

// SlotPolicy decides whether a booking consumes its slot.
type SlotPolicy string

const (
	SlotPolicyReuse   SlotPolicy = "reuse"
	SlotPolicyConsume SlotPolicy = "consume"
)

// Ordering decides how overlapping operations of the same kind resolve.
type Ordering string

const (
	// OrderingLastWriteWins applies every completion in arrival order.
	OrderingLastWriteWins Ordering = "last_write_wins"
	// OrderingLatestRequest drops state writes from a completion that has been
	// superseded by a newer request of the same kind.
	OrderingLatestRequest Ordering = "latest_request"
)

func ParseAppointmentSource(v string) (AppointmentSource, error) {
	switch s := AppointmentSource(strings.ToLower(strings.TrimSpace(v))); s {
	case "":
		return SourceMock, nil
	case SourceMock, SourceLedger:
		return s, nil
	default:
		return "", fmt.Errorf("unknown appointment source %q", v)
	}
}

func ParseSlotPolicy(v string) (SlotPolicy, error) {
	switch p := SlotPolicy(strings.ToLower(strings.TrimSpace(v))); p {
	case "":
		return SlotPolicyReuse, nil
	case SlotPolicyReuse, SlotPolicyConsume:
		return p, nil
	default:
		return "", fmt.Errorf("unknown slot policy %q", v)
	}
}

func ParseOrdering(v string) (Ordering, error) {
	switch o := Ordering(strings.ToLower(strings.TrimSpace(v))); o {
	case "":
		return OrderingLastWriteWins, nil
	case OrderingLastWriteWins, OrderingLatestRequest:
		return o, nil
	default:
		return "", fmt.Errorf("unknown ordering %q", v)
	}
}

// Latency is the simulated backend delay of each suspending operation.
type Latency struct {
	Load   time.Duration
	Search time.Duration
	Book   time.Duration
}

func DefaultLatency() Latency {
	return Latency{
		Load:   time.Second,
		Search: 500 * time.Millisecond,
		Book:   1500 * time.Millisecond,
	}
}

// Loader fetches the directory for LoadDirectory.
type Loader func(ctx context.Context) ([]domain.Doctor, error)

type Options struct {
	// Seed is the static directory used by Search and DoctorByID. Defaults to
	// domain.SeedDoctors.
	Seed []domain.Doctor
	// Loader defaults to returning Seed.
	Loader  Loader
	Latency Latency

	Session store.SessionCache
	Ledger  store.AppointmentRepository
	Slots   store.SlotReservations

	Source     AppointmentSource
	SlotPolicy SlotPolicy
	Ordering   Ordering

	// After defaults to time.After. It is called synchronously when an
	// operation starts.
	After func(time.Duration) <-chan time.Time
	Now   func() time.Time
	Log   *slog.Logger
}

type opKind int

const (
	opLoad opKind = iota
	opSearch
	opBook
	opKinds
)

type Store struct {
	log     *slog.Logger
	seed    []domain.Doctor
	loader  Loader
	latency Latency
	after   func(time.Duration) <-chan time.Time
	now     func() time.Time

	session store.SessionCache
	ledger  store.AppointmentRepository
	slots   store.SlotReservations

	source     AppointmentSource
	slotPolicy SlotPolicy
	ordering   Ordering

	mu         sync.Mutex
	doctors    []domain.Doctor
	filtered   []domain.Doctor
	searchTerm string
	loading    bool
	inflight   int
	errMsg     string
	userEmail  string
	seq        [opKinds]uint64
}

// New builds a store and reads the durable session cache once.
func New(ctx context.Context, opts Options) (*Store, error) {
	s := &Store{
		log:        opts.Log,
		seed:       opts.Seed,
		loader:     opts.Loader,
		latency:    opts.Latency,
		after:      opts.After,
		now:        opts.Now,
		session:    opts.Session,
		ledger:     opts.Ledger,
		slots:      opts.Slots,
		source:     opts.Source,
		slotPolicy: opts.SlotPolicy,
		ordering:   opts.Ordering,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With(slog.String("component", "directory"))
	if s.seed == nil {
		s.seed = domain.SeedDoctors()
	} else {
		s.seed = domain.CloneDoctors(s.seed)
	}
	if s.loader == nil {
		seed := s.seed
		s.loader = func(ctx context.Context) ([]domain.Doctor, error) {
			return domain.CloneDoctors(seed), nil
		}
	}
	if s.after == nil {
		s.after = time.After
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.session == nil {
		s.session = memory.NewSessionCache("")
	}
	if s.source == "" {
		s.source = SourceMock
	}
	if s.slotPolicy == "" {
		s.slotPolicy = SlotPolicyReuse
	}
	if s.ordering == "" {
		s.ordering = OrderingLastWriteWins
	}

	if _, err := ParseAppointmentSource(string(s.source)); err != nil {
		return nil, err
	}
	if _, err := ParseSlotPolicy(string(s.slotPolicy)); err != nil {
		return nil, err
	}
	if _, err := ParseOrdering(string(s.ordering)); err != nil {
		return nil, err
	}
	if s.source == SourceLedger && s.ledger == nil {
		return nil, errors.New("ledger appointment source requires an appointment repository")
	}
	if s.slotPolicy == SlotPolicyConsume && s.slots == nil {
		s.slots = memory.NewSlotReservations()
	}

	email, err := s.session.Get(ctx)
	if err != nil {
		s.log.Warn("session cache read failed", slog.Any("err", err))
		email = ""
	}
	s.userEmail = email

	s.log.Debug(
		"store initialized",
		slog.String("appointment_source", string(s.source)),
		slog.String("slot_policy", string(s.slotPolicy)),
		slog.String("ordering", string(s.ordering)),
		slog.Bool("session", email != ""),
	)
	return s, nil
}

// State returns a copy of everything a view may read.
func (s *Store) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.State{
		Doctors:         domain.CloneDoctors(s.doctors),
		FilteredDoctors: domain.CloneDoctors(s.filtered),
		SearchTerm:      s.searchTerm,
		Loading:         s.loading,
		Error:           s.errMsg,
		UserEmail:       s.userEmail,
	}
}

func (s *Store) UserEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userEmail
}

// LoadDirectory populates the directory after the load latency. Overlapping
// calls are not de-duplicated.
func (s *Store) LoadDirectory() *Task[[]domain.Doctor] {
	task := newTask[[]domain.Doctor]()
	seq := s.begin(opLoad, true)
	wake := s.after(s.latency.Load)

	go func() {
		if !task.suspend(wake) {
			s.abandon(opLoad)
			task.finish(nil, context.Canceled)
			return
		}

		doctors, err := s.loader(task.ctx)
		if task.ctx.Err() != nil {
			s.abandon(opLoad)
			task.finish(nil, context.Canceled)
			return
		}

		s.mu.Lock()
		current := s.current(opLoad, seq)
		if err != nil {
			if current {
				s.errMsg = domain.ErrorLoadFailed
			}
			s.settle()
			s.mu.Unlock()

			s.log.Warn("directory load failed", slog.Any("err", err), slog.Bool("stale", !current))
			task.finish(nil, fmt.Errorf("%w: %w", ErrLoadFailed, err))
			return
		}
		if current {
			s.doctors = domain.CloneDoctors(doctors)
		}
		s.settle()
		s.mu.Unlock()

		s.log.Debug("directory loaded", slog.Int("count", len(doctors)), slog.Bool("stale", !current))
		task.finish(domain.CloneDoctors(doctors), nil)
	}()

	return task
}

// Search records query as the search term. An empty query clears the results
// and resolves at once; otherwise the seed directory is filtered after the
// search latency.
func (s *Store) Search(query string) *Task[[]domain.Doctor] {
	if query == "" {
		s.mu.Lock()
		s.searchTerm = ""
		s.filtered = nil
		s.seq[opSearch]++
		s.mu.Unlock()
		return resolvedTask([]domain.Doctor{})
	}

	task := newTask[[]domain.Doctor]()
	s.mu.Lock()
	s.searchTerm = query
	s.mu.Unlock()
	seq := s.begin(opSearch, false)
	wake := s.after(s.latency.Search)

	go func() {
		if !task.suspend(wake) {
			s.abandon(opSearch)
			task.finish(nil, context.Canceled)
			return
		}

		matches := filterDoctors(s.seed, query)

		s.mu.Lock()
		current := s.current(opSearch, seq)
		if current {
			s.filtered = domain.CloneDoctors(matches)
		}
		s.settle()
		s.mu.Unlock()

		s.log.Debug("search finished", slog.String("query", query), slog.Int("count", len(matches)), slog.Bool("stale", !current))
		task.finish(matches, nil)
	}()

	return task
}

func filterDoctors(doctors []domain.Doctor, query string) []domain.Doctor {
	q := strings.ToLower(query)
	out := make([]domain.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.Specialization), q) {
			out = append(out, d.Clone())
		}
	}
	return out
}

// DoctorByID looks id up in the seed directory. It never suspends and does not
// touch the loading flag.
func (s *Store) DoctorByID(id string) (domain.Doctor, bool) {
	if id == "" {
		return domain.Doctor{}, false
	}
	for _, d := range s.seed {
		if d.ID == id {
			return d.Clone(), true
		}
	}
	return domain.Doctor{}, false
}

// BookAppointment commits req after the booking latency. The doctor/slot pair
// is not checked against the directory.
func (s *Store) BookAppointment(req domain.BookingRequest) *Task[domain.BookingResult] {
	task := newTask[domain.BookingResult]()
	seq := s.begin(opBook, true)
	wake := s.after(s.latency.Book)

	go func() {
		if !task.suspend(wake) {
			s.abandon(opBook)
			task.finish(domain.BookingResult{}, context.Canceled)
			return
		}

		err := s.commit(task.ctx, req)
		if err != nil && task.ctx.Err() != nil {
			s.abandon(opBook)
			task.finish(domain.BookingResult{}, context.Canceled)
			return
		}

		ctx := context.WithoutCancel(task.ctx)
		log := s.log.With(slog.String("doctor_id", req.DoctorID), slog.String("slot_id", req.SlotID))

		s.mu.Lock()
		current := s.current(opBook, seq)
		if err != nil {
			if current {
				s.errMsg = domain.ErrorBookingFailed
			}
			s.settle()
			s.mu.Unlock()

			msg := domain.MessageBookingFailed
			if errors.Is(err, store.ErrSlotTaken) {
				msg = domain.MessageSlotTaken
				log.Info("booking rejected", slog.String("reason", "slot_taken"))
			} else {
				log.Error("booking failed", slog.Any("err", err))
			}
			task.finish(domain.BookingResult{Success: false, Message: msg}, nil)
			return
		}

		persist := req.PatientEmail != "" && current
		if persist {
			s.userEmail = req.PatientEmail
		}
		s.settle()
		s.mu.Unlock()

		if persist {
			if err := s.session.Set(ctx, req.PatientEmail); err != nil {
				log.Warn("session cache write failed", slog.Any("err", err))
			}
		}

		log.Info("appointment booked", slog.String("appointment_date", req.AppointmentDate), slog.Bool("stale", !current))
		task.finish(domain.BookingResult{Success: true, Message: domain.MessageBooked}, nil)
	}()

	return task
}

func (s *Store) commit(ctx context.Context, req domain.BookingRequest) error {
	key := slotKey(req)
	reserved := false
	if s.slotPolicy == SlotPolicyConsume {
		if err := s.slots.Reserve(ctx, key); err != nil {
			return err
		}
		reserved = true
	}

	if s.source != SourceLedger {
		return nil
	}

	appt, err := s.appointmentFor(req)
	if err == nil {
		_, err = s.ledger.Create(ctx, appt)
	}
	if err != nil && reserved {
		if rerr := s.slots.Release(context.WithoutCancel(ctx), key); rerr != nil {
			s.log.Warn("slot release failed", slog.Any("err", rerr), slog.String("doctor_id", key.DoctorID))
		}
	}
	return err
}

func (s *Store) appointmentFor(req domain.BookingRequest) (domain.Appointment, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Appointment{}, err
	}
	doctor, _ := s.DoctorByID(req.DoctorID)
	return domain.Appointment{
		ID:                   id.String(),
		PatientEmail:         req.PatientEmail,
		PatientName:          req.PatientName,
		Phone:                req.Phone,
		DoctorID:             req.DoctorID,
		DoctorName:           doctor.Name,
		DoctorSpecialization: doctor.Specialization,
		SlotID:               req.SlotID,
		AppointmentDate:      req.AppointmentDate,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		Status:               domain.AppointmentStatusScheduled,
		CreatedAt:            s.now().UTC(),
	}, nil
}

// slotKey falls back to the time labels when the payload carries no slot id.
func slotKey(req domain.BookingRequest) store.SlotKey {
	slotID := req.SlotID
	if slotID == "" {
		slotID = req.StartTime + "-" + req.EndTime
	}
	return store.SlotKey{
		DoctorID:        req.DoctorID,
		SlotID:          slotID,
		AppointmentDate: req.AppointmentDate,
	}
}

// Appointments returns the current session's appointments, or an empty slice
// when there is no session.
func (s *Store) Appointments(ctx context.Context) ([]domain.Appointment, error) {
	email := s.UserEmail()
	if email == "" {
		return []domain.Appointment{}, nil
	}
	if s.source == SourceLedger {
		return s.ledger.ListByEmail(ctx, email)
	}
	return domain.MockAppointments(), nil
}

// ClearSession forgets the session email in memory and in the durable cache.
// It is idempotent.
func (s *Store) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	s.userEmail = ""
	s.mu.Unlock()

	if err := s.session.Delete(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.log.Debug("session cleared")
	return nil
}

func (s *Store) begin(kind opKind, clearErr bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[kind]++
	s.inflight++
	s.loading = true
	if clearErr {
		s.errMsg = ""
	}
	return s.seq[kind]
}

// current must be called with mu held.
func (s *Store) current(kind opKind, seq uint64) bool {
	return s.ordering == OrderingLastWriteWins || s.seq[kind] == seq
}

// settle must be called with mu held.
func (s *Store) settle() {
	s.inflight--
	if s.ordering == OrderingLastWriteWins {
		s.loading = false
		return
	}
	s.loading = s.inflight > 0
}

func (s *Store) abandon(kind opKind) {
	s.mu.Lock()
	s.settle()
	s.mu.Unlock()
	s.log.Debug("operation cancelled", slog.Int("op", int(kind)))
}
