package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"nirog/backend/internal/domain"
	"nirog/backend/internal/service/directory"
)

var _ DirectoryServiceServer = (*DirectoryServer)(nil)

type DirectoryServer struct {
	store directoryStore
	log   *slog.Logger
	now   func() time.Time
}

type directoryStore interface {
	LoadDirectory() *directory.Task[[]domain.Doctor]
	Search(query string) *directory.Task[[]domain.Doctor]
	DoctorByID(id string) (domain.Doctor, bool)
	BookAppointment(req domain.BookingRequest) *directory.Task[domain.BookingResult]
	Appointments(ctx context.Context) ([]domain.Appointment, error)
	ClearSession(ctx context.Context) error
	State() domain.State
}

func NewDirectoryServer(store directoryStore, log *slog.Logger) *DirectoryServer {
	if log == nil {
		log = slog.Default()
	}
	return &DirectoryServer{
		store: store,
		log:   log.With(slog.String("component", "grpc.directory")),
		now:   time.Now,
	}
}

func (s *DirectoryServer) LoadDirectory(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	log := s.log.With(slog.String("rpc", "LoadDirectory"))

	doctors, err := s.store.LoadDirectory().Wait(ctx)
	if err != nil {
		if errors.Is(err, directory.ErrLoadFailed) {
			log.Warn("directory load failed", slog.Any("err", err))
			return nil, status.Error(codes.Unavailable, domain.ErrorLoadFailed)
		}
		return nil, waitError(log, err)
	}

	log.Debug("directory loaded", slog.Int("count", len(doctors)))
	return doctorList(doctors), nil
}

func (s *DirectoryServer) Search(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	log := s.log.With(slog.String("rpc", "Search"))

	query := req.GetValue()
	doctors, err := s.store.Search(query).Wait(ctx)
	if err != nil {
		return nil, waitError(log, err)
	}

	log.Debug("search finished", slog.String("query", query), slog.Int("count", len(doctors)))
	return doctorList(doctors), nil
}

func (s *DirectoryServer) GetDoctor(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "GetDoctor"))

	d, ok := s.store.DoctorByID(req.GetValue())
	if !ok {
		log.Info("doctor not found", slog.String("doctor_id", req.GetValue()))
		return nil, status.Error(codes.NotFound, domain.MessageDoctorNotFound)
	}
	return doctorStruct(d), nil
}

// BookAppointment resolves the doctor and slot, validates the patient form and
// fills the slot times and date before handing the payload to the store. A
// rejected booking is reported in the response, not as an rpc error.
func (s *DirectoryServer) BookAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "BookAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in, err := bookingRequestFromStruct(req)
	if err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	log = log.With(slog.String("doctor_id", in.DoctorID), slog.String("slot_id", in.SlotID))

	doctor, ok := s.store.DoctorByID(in.DoctorID)
	if !ok {
		log.Info("doctor not found")
		return nil, status.Error(codes.NotFound, domain.MessageDoctorNotFound)
	}
	slot, ok := doctor.Slot(in.SlotID)
	if !ok {
		log.Info("slot not found")
		return nil, status.Error(codes.NotFound, domain.MessageSlotNotFound)
	}

	if err := in.Validate(); err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err))
			return nil, validationStatus(vErr).Err()
		}
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	in.StartTime = slot.StartTime
	in.EndTime = slot.EndTime
	// Without a client date, book the slot's next occurrence, today included.
	if in.AppointmentDate == "" {
		date, err := domain.NextSlotDate(slot, s.now().UTC())
		if err != nil {
			log.Error("slot date resolve failed", slog.Any("err", err), slog.String("day", slot.Day))
			return nil, status.Error(codes.Internal, "internal error")
		}
		in.AppointmentDate = date
	} else if _, err := time.Parse(domain.DateLayout, in.AppointmentDate); err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_date"), slog.String("appointment_date", in.AppointmentDate))
		return nil, status.Error(codes.InvalidArgument, "appointmentDate must be formatted YYYY-MM-DD")
	}

	res, err := s.store.BookAppointment(in).Wait(ctx)
	if err != nil {
		return nil, waitError(log, err)
	}

	log.Info(
		"booking finished",
		slog.Bool("success", res.Success),
		slog.String("appointment_date", in.AppointmentDate),
	)
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"success": structpb.NewBoolValue(res.Success),
		"message": structpb.NewStringValue(res.Message),
	}}, nil
}

func (s *DirectoryServer) ListMyAppointments(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	log := s.log.With(slog.String("rpc", "ListMyAppointments"))

	appts, err := s.store.Appointments(ctx)
	if err != nil {
		log.Error("appointments list failed", slog.Any("err", err))
		return nil, status.Error(codes.Internal, "internal error")
	}

	out := make([]*structpb.Value, 0, len(appts))
	for _, a := range appts {
		out = append(out, structpb.NewStructValue(appointmentStruct(a)))
	}

	log.Debug("appointments listed", slog.Int("count", len(out)))
	return &structpb.ListValue{Values: out}, nil
}

func (s *DirectoryServer) ClearSession(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	log := s.log.With(slog.String("rpc", "ClearSession"))

	if err := s.store.ClearSession(ctx); err != nil {
		log.Error("session clear failed", slog.Any("err", err))
		return nil, status.Error(codes.Internal, "internal error")
	}

	log.Info("session cleared")
	return &emptypb.Empty{}, nil
}

func (s *DirectoryServer) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.store.State()

	errValue := structpb.NewNullValue()
	if st.Error != "" {
		errValue = structpb.NewStringValue(st.Error)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"doctors":         structpb.NewListValue(doctorList(st.Doctors)),
		"filteredDoctors": structpb.NewListValue(doctorList(st.FilteredDoctors)),
		"searchTerm":      structpb.NewStringValue(st.SearchTerm),
		"loading":         structpb.NewBoolValue(st.Loading),
		"error":           errValue,
		"userEmail":       structpb.NewStringValue(st.UserEmail),
	}}, nil
}

// waitError maps a caller-side wait failure. The store operation keeps running
// when the rpc deadline passes.
func waitError(log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("rpc deadline exceeded before operation finished")
		return status.Error(codes.DeadlineExceeded, "operation did not finish before the deadline")
	case errors.Is(err, context.Canceled):
		log.Info("operation cancelled")
		return status.Error(codes.Canceled, "operation cancelled")
	default:
		log.Error("operation failed", slog.Any("err", err))
		return status.Error(codes.Internal, "internal error")
	}
}

func validationStatus(vErr *domain.ValidationError) *status.Status {
	st := status.New(codes.InvalidArgument, vErr.Error())

	fields := make([]string, 0, len(vErr.Fields))
	for f := range vErr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	br := &errdetails.BadRequest{}
	for _, f := range fields {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       f,
			Description: vErr.Fields[f],
		})
	}
	if withDetails, err := st.WithDetails(br); err == nil {
		return withDetails
	}
	return st
}

var bookingFields = []string{"doctorId", "slotId", "patientName", "patientEmail", "phone", "appointmentDate"}

func bookingRequestFromStruct(s *structpb.Struct) (domain.BookingRequest, error) {
	values := make(map[string]string, len(bookingFields))
	for _, name := range bookingFields {
		v, ok := s.GetFields()[name]
		if !ok {
			continue
		}
		switch k := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			values[name] = k.StringValue
		case *structpb.Value_NullValue:
		default:
			return domain.BookingRequest{}, fmt.Errorf("%s must be a string", name)
		}
	}

	return domain.BookingRequest{
		DoctorID:        strings.TrimSpace(values["doctorId"]),
		SlotID:          strings.TrimSpace(values["slotId"]),
		PatientName:     values["patientName"],
		PatientEmail:    values["patientEmail"],
		Phone:           values["phone"],
		AppointmentDate: strings.TrimSpace(values["appointmentDate"]),
	}, nil
}

func doctorList(doctors []domain.Doctor) *structpb.ListValue {
	out := make([]*structpb.Value, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, structpb.NewStructValue(doctorStruct(d)))
	}
	return &structpb.ListValue{Values: out}
}

func doctorStruct(d domain.Doctor) *structpb.Struct {
	slots := make([]*structpb.Value, 0, len(d.AvailableSlots))
	for _, sl := range d.AvailableSlots {
		slots = append(slots, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"id":        structpb.NewStringValue(sl.ID),
			"day":       structpb.NewStringValue(sl.Day),
			"startTime": structpb.NewStringValue(sl.StartTime),
			"endTime":   structpb.NewStringValue(sl.EndTime),
		}}))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":             structpb.NewStringValue(d.ID),
		"name":           structpb.NewStringValue(d.Name),
		"specialization": structpb.NewStringValue(d.Specialization),
		"profileImage":   structpb.NewStringValue(d.ProfileImage),
		"isAvailable":    structpb.NewBoolValue(d.IsAvailable),
		"bio":            structpb.NewStringValue(d.Bio),
		"availableSlots": structpb.NewListValue(&structpb.ListValue{Values: slots}),
	}}
}

func appointmentStruct(a domain.Appointment) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"id":                   structpb.NewStringValue(a.ID),
		"doctorName":           structpb.NewStringValue(a.DoctorName),
		"doctorSpecialization": structpb.NewStringValue(a.DoctorSpecialization),
		"appointmentDate":      structpb.NewStringValue(a.AppointmentDate),
		"startTime":            structpb.NewStringValue(a.StartTime),
		"endTime":              structpb.NewStringValue(a.EndTime),
		"status":               structpb.NewStringValue(string(a.Status)),
	}
	if a.DoctorID != "" {
		fields["doctorId"] = structpb.NewStringValue(a.DoctorID)
	}
	if a.PatientEmail != "" {
		fields["patientEmail"] = structpb.NewStringValue(a.PatientEmail)
	}
	if !a.CreatedAt.IsZero() {
		fields["createdAt"] = structpb.NewStringValue(a.CreatedAt.UTC().Format(time.RFC3339))
	}
	return &structpb.Struct{Fields: fields}
}
