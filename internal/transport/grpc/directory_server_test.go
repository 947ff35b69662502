package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	ggrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"nirog/backend/internal/domain"
	"nirog/backend/internal/service/directory"
	"nirog/backend/internal/store/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts directory.Options) (*DirectoryServer, *directory.Store) {
	t.Helper()
	opts.Log = discardLogger()
	st, err := directory.New(context.Background(), opts)
	if err != nil {
		t.Fatalf("directory.New error: %v", err)
	}
	srv := NewDirectoryServer(st, discardLogger())
	// Sunday; the next Monday is 2026-01-12.
	srv.now = func() time.Time { return time.Date(2026, 1, 11, 15, 0, 0, 0, time.UTC) }
	return srv, st
}

func bookingStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("NewStruct error: %v", err)
	}
	return s
}

func validBookingFields() map[string]any {
	return map[string]any{
		"doctorId":     "1",
		"slotId":       "slot1",
		"patientName":  "Jane Doe",
		"patientEmail": "jane@example.com",
		"phone":        "555-0100",
	}
}

func TestGetDoctor_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, directory.Options{})

	_, err := srv.GetDoctor(context.Background(), wrapperspb.String("42"))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.NotFound)
	}
	if msg := status.Convert(err).Message(); msg != domain.MessageDoctorNotFound {
		t.Fatalf("message = %q, want %q", msg, domain.MessageDoctorNotFound)
	}

	got, err := srv.GetDoctor(context.Background(), wrapperspb.String("2"))
	if err != nil {
		t.Fatalf("GetDoctor error: %v", err)
	}
	if name := got.GetFields()["name"].GetStringValue(); name != "Dr. Michael Chen" {
		t.Fatalf("name = %q, want %q", name, "Dr. Michael Chen")
	}
	if slots := got.GetFields()["availableSlots"].GetListValue().GetValues(); len(slots) != 2 {
		t.Fatalf("len(availableSlots) = %d, want 2", len(slots))
	}
}

func TestBookAppointment_ResolvesDoctorAndSlot(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		wantMsg string
	}{
		{
			name:    "unknown doctor",
			mutate:  func(f map[string]any) { f["doctorId"] = "99" },
			wantMsg: domain.MessageDoctorNotFound,
		},
		{
			name:    "slot of another doctor",
			mutate:  func(f map[string]any) { f["slotId"] = "slot4" },
			wantMsg: domain.MessageSlotNotFound,
		},
		{
			name:    "missing slot",
			mutate:  func(f map[string]any) { delete(f, "slotId") },
			wantMsg: domain.MessageSlotNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, st := newTestServer(t, directory.Options{})

			fields := validBookingFields()
			tt.mutate(fields)
			_, err := srv.BookAppointment(context.Background(), bookingStruct(t, fields))
			if status.Code(err) != codes.NotFound {
				t.Fatalf("code = %v, want %v", status.Code(err), codes.NotFound)
			}
			if msg := status.Convert(err).Message(); msg != tt.wantMsg {
				t.Fatalf("message = %q, want %q", msg, tt.wantMsg)
			}
			if st.UserEmail() != "" {
				t.Fatalf("rejected booking reached the store")
			}
		})
	}
}

func TestBookAppointment_ValidationDetails(t *testing.T) {
	srv, _ := newTestServer(t, directory.Options{})

	fields := validBookingFields()
	fields["patientName"] = "  "
	fields["patientEmail"] = "jane@example"
	delete(fields, "phone")

	_, err := srv.BookAppointment(context.Background(), bookingStruct(t, fields))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}

	var br *errdetails.BadRequest
	for _, d := range status.Convert(err).Details() {
		if v, ok := d.(*errdetails.BadRequest); ok {
			br = v
		}
	}
	if br == nil {
		t.Fatalf("missing BadRequest details")
	}

	want := map[string]string{
		"patientEmail": "Email is invalid",
		"patientName":  "Name is required",
		"phone":        "Phone number is required",
	}
	if len(br.FieldViolations) != len(want) {
		t.Fatalf("len(violations) = %d, want %d", len(br.FieldViolations), len(want))
	}
	for _, v := range br.FieldViolations {
		if want[v.Field] != v.Description {
			t.Fatalf("violation %q = %q, want %q", v.Field, v.Description, want[v.Field])
		}
	}
}

func TestBookAppointment_RejectsMalformedFields(t *testing.T) {
	srv, _ := newTestServer(t, directory.Options{})

	fields := validBookingFields()
	fields["phone"] = 5550100
	if _, err := srv.BookAppointment(context.Background(), bookingStruct(t, fields)); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("numeric phone code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}

	fields = validBookingFields()
	fields["appointmentDate"] = "12/01/2026"
	if _, err := srv.BookAppointment(context.Background(), bookingStruct(t, fields)); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("bad date code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}

	if _, err := srv.BookAppointment(context.Background(), nil); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("nil request code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
}

func TestBookAppointment_FillsSlotTimesAndDate(t *testing.T) {
	ledger := memory.NewAppointmentRepo()
	srv, st := newTestServer(t, directory.Options{Source: directory.SourceLedger, Ledger: ledger})

	resp, err := srv.BookAppointment(context.Background(), bookingStruct(t, validBookingFields()))
	if err != nil {
		t.Fatalf("BookAppointment error: %v", err)
	}
	if !resp.GetFields()["success"].GetBoolValue() {
		t.Fatalf("success = false, response %v", resp)
	}
	if msg := resp.GetFields()["message"].GetStringValue(); msg != domain.MessageBooked {
		t.Fatalf("message = %q, want %q", msg, domain.MessageBooked)
	}
	if st.UserEmail() != "jane@example.com" {
		t.Fatalf("user email = %q, want jane@example.com", st.UserEmail())
	}

	appts, err := ledger.ListByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("ListByEmail error: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("len(appointments) = %d, want 1", len(appts))
	}
	a := appts[0]
	if a.AppointmentDate != "2026-01-12" || a.StartTime != "10:00 AM" || a.EndTime != "10:30 AM" {
		t.Fatalf("appointment date/time = %s %s-%s, want 2026-01-12 10:00 AM-10:30 AM", a.AppointmentDate, a.StartTime, a.EndTime)
	}

	list, err := srv.ListMyAppointments(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("ListMyAppointments error: %v", err)
	}
	if n := len(list.GetValues()); n != 1 {
		t.Fatalf("len(list) = %d, want 1", n)
	}
	if email := list.GetValues()[0].GetStructValue().GetFields()["patientEmail"].GetStringValue(); email != "jane@example.com" {
		t.Fatalf("patientEmail = %q", email)
	}
}

func TestBookAppointment_SlotTakenIsAResultNotAnError(t *testing.T) {
	srv, _ := newTestServer(t, directory.Options{SlotPolicy: directory.SlotPolicyConsume})

	fields := validBookingFields()
	fields["appointmentDate"] = "2026-01-19"
	if _, err := srv.BookAppointment(context.Background(), bookingStruct(t, fields)); err != nil {
		t.Fatalf("first booking error: %v", err)
	}

	resp, err := srv.BookAppointment(context.Background(), bookingStruct(t, fields))
	if err != nil {
		t.Fatalf("second booking error: %v", err)
	}
	if resp.GetFields()["success"].GetBoolValue() {
		t.Fatalf("second booking succeeded")
	}
	if msg := resp.GetFields()["message"].GetStringValue(); msg != domain.MessageSlotTaken {
		t.Fatalf("message = %q, want %q", msg, domain.MessageSlotTaken)
	}
}

func TestLoadDirectory_FailureIsUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, directory.Options{
		Loader: func(ctx context.Context) ([]domain.Doctor, error) {
			return nil, errors.New("backend down")
		},
	})

	_, err := srv.LoadDirectory(context.Background(), &emptypb.Empty{})
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.Unavailable)
	}

	state, err := srv.GetState(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("GetState error: %v", err)
	}
	if got := state.GetFields()["error"].GetStringValue(); got != domain.ErrorLoadFailed {
		t.Fatalf("state error = %q, want %q", got, domain.ErrorLoadFailed)
	}
}

func TestLoadDirectory_DeadlineLeavesOperationRunning(t *testing.T) {
	wake := make(chan time.Time, 1)
	srv, st := newTestServer(t, directory.Options{
		After: func(time.Duration) <-chan time.Time { return wake },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := srv.LoadDirectory(ctx, &emptypb.Empty{})
	if status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.DeadlineExceeded)
	}
	if !st.State().Loading {
		t.Fatalf("loading = false; the load should still be pending")
	}

	wake <- time.Time{}
	deadline := time.Now().Add(2 * time.Second)
	for st.State().Loading {
		if time.Now().After(deadline) {
			t.Fatalf("load never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n := len(st.State().Doctors); n != 5 {
		t.Fatalf("len(doctors) = %d, want 5", n)
	}
}

func TestGetState_NullErrorAndClearSession(t *testing.T) {
	srv, _ := newTestServer(t, directory.Options{Session: memory.NewSessionCache("jane@example.com")})

	state, err := srv.GetState(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("GetState error: %v", err)
	}
	if _, ok := state.GetFields()["error"].GetKind().(*structpb.Value_NullValue); !ok {
		t.Fatalf("error = %v, want null", state.GetFields()["error"])
	}
	if got := state.GetFields()["userEmail"].GetStringValue(); got != "jane@example.com" {
		t.Fatalf("userEmail = %q", got)
	}

	list, err := srv.ListMyAppointments(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("ListMyAppointments error: %v", err)
	}
	if n := len(list.GetValues()); n != 2 {
		t.Fatalf("len(mock appointments) = %d, want 2", n)
	}

	if _, err := srv.ClearSession(context.Background(), &emptypb.Empty{}); err != nil {
		t.Fatalf("ClearSession error: %v", err)
	}
	list, _ = srv.ListMyAppointments(context.Background(), &emptypb.Empty{})
	if n := len(list.GetValues()); n != 0 {
		t.Fatalf("len(appointments) after clear = %d, want 0", n)
	}
}

func TestDirectoryService_RoundTripOverBufconn(t *testing.T) {
	srv, _ := newTestServer(t, directory.Options{})

	lis := bufconn.Listen(1 << 20)
	gs := ggrpc.NewServer()
	RegisterDirectoryServiceServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := ggrpc.NewClient(
		"passthrough:///bufnet",
		ggrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		ggrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	client := NewDirectoryServiceClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doctors, err := client.LoadDirectory(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("LoadDirectory error: %v", err)
	}
	if n := len(doctors.GetValues()); n != 5 {
		t.Fatalf("len(doctors) = %d, want 5", n)
	}

	found, err := client.Search(ctx, wrapperspb.String("derma"))
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if n := len(found.GetValues()); n != 1 {
		t.Fatalf("len(search) = %d, want 1", n)
	}

	_, err = client.GetDoctor(ctx, wrapperspb.String(""))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("GetDoctor(\"\") code = %v, want %v", status.Code(err), codes.NotFound)
	}

	state, err := client.GetState(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("GetState error: %v", err)
	}
	if term := state.GetFields()["searchTerm"].GetStringValue(); term != "derma" {
		t.Fatalf("searchTerm = %q, want %q", term, "derma")
	}
	if state.GetFields()["loading"].GetBoolValue() {
		t.Fatalf("loading = true after all rpcs returned")
	}
}

func TestBookAppointment_KeepsEmailAsTyped(t *testing.T) {
	srv, st := newTestServer(t, directory.Options{})

	fields := validBookingFields()
	fields["patientEmail"] = " Jane@Example.com "
	resp, err := srv.BookAppointment(context.Background(), bookingStruct(t, fields))
	if err != nil {
		t.Fatalf("BookAppointment error: %v", err)
	}
	if !resp.GetFields()["success"].GetBoolValue() {
		t.Fatalf("success = false, response %v", resp)
	}
	if got := st.UserEmail(); got != " Jane@Example.com " {
		t.Fatalf("user email = %q, want the submitted value unchanged", got)
	}
}

func TestBookAppointment_DefaultDateFollowsSlotWeekday(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		slot string
		want string
	}{
		{name: "sunday to monday slot", now: time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC), slot: "slot1", want: "2026-01-12"},
		{name: "monday keeps today", now: time.Date(2026, 1, 12, 23, 0, 0, 0, time.UTC), slot: "slot1", want: "2026-01-12"},
		{name: "monday to tuesday slot", now: time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC), slot: "slot3", want: "2026-01-13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := memory.NewAppointmentRepo()
			srv, _ := newTestServer(t, directory.Options{Source: directory.SourceLedger, Ledger: ledger})
			srv.now = func() time.Time { return tt.now }

			fields := validBookingFields()
			fields["slotId"] = tt.slot
			if _, err := srv.BookAppointment(context.Background(), bookingStruct(t, fields)); err != nil {
				t.Fatalf("BookAppointment error: %v", err)
			}

			appts, _ := ledger.ListByEmail(context.Background(), "jane@example.com")
			if len(appts) != 1 || appts[0].AppointmentDate != tt.want {
				t.Fatalf("appointments = %+v, want one on %s", appts, tt.want)
			}
		})
	}
}
