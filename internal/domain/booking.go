package domain

import (
	"regexp"
	"sort"
	"strings"
)

const (
	MessageBooked        = "Appointment booked successfully!"
	MessageBookingFailed = "Failed to book appointment."
	MessageSlotTaken     = "That slot is no longer available."

	ErrorLoadFailed    = "Failed to load doctors. Please try again later."
	ErrorBookingFailed = "Failed to book appointment. Please try again."

	MessageDoctorNotFound = "Doctor not found"
	MessageSlotNotFound   = "The selected appointment slot was not found"
)

// BookingRequest is the payload of a booking. AppointmentDate, StartTime and
// EndTime are filled by the caller from the chosen slot.
type BookingRequest struct {
	DoctorID        string
	SlotID          string
	PatientName     string
	PatientEmail    string
	Phone           string
	AppointmentDate string
	StartTime       string
	EndTime         string
}

// BookingResult keeps the success/failure shape even where failure is not
// reachable with the current backend.
type BookingResult struct {
	Success bool
	Message string
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Validate applies the booking form rules: name, email and phone are required
// and the email must look like an address.
func (r BookingRequest) Validate() error {
	fields := map[string]string{}

	if strings.TrimSpace(r.PatientName) == "" {
		fields["patientName"] = "Name is required"
	}
	email := strings.TrimSpace(r.PatientEmail)
	switch {
	case email == "":
		fields["patientEmail"] = "Email is required"
	case !emailPattern.MatchString(email):
		fields["patientEmail"] = "Email is invalid"
	}
	if strings.TrimSpace(r.Phone) == "" {
		fields["phone"] = "Phone number is required"
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
