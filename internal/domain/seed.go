package domain

// SeedDoctors returns a fresh copy of the fixed directory used in place of a
// real backend.
func SeedDoctors() []Doctor {
	return []Doctor{
		{
			ID:             "1",
			Name:           "Dr. Sarah Johnson",
			Specialization: "Cardiologist",
			ProfileImage:   "doctor1.jpg",
			Bio:            "Dr. Sarah Johnson is a board-certified cardiologist with over 10 years of experience in treating heart conditions. She specializes in preventive cardiology and heart failure management.",
			IsAvailable:    true,
			AvailableSlots: []Slot{
				{ID: "slot1", Day: "Monday", StartTime: "10:00 AM", EndTime: "10:30 AM"},
				{ID: "slot2", Day: "Monday", StartTime: "11:00 AM", EndTime: "11:30 AM"},
				{ID: "slot3", Day: "Tuesday", StartTime: "2:00 PM", EndTime: "2:30 PM"},
			},
		},
		{
			ID:             "2",
			Name:           "Dr. Michael Chen",
			Specialization: "Dermatologist",
			ProfileImage:   "doctor2.jpg",
			Bio:            "Dr. Michael Chen is a dermatologist specializing in both medical and cosmetic dermatology. He has expertise in treating skin conditions such as acne, eczema, and psoriasis.",
			IsAvailable:    true,
			AvailableSlots: []Slot{
				{ID: "slot4", Day: "Wednesday", StartTime: "9:00 AM", EndTime: "9:30 AM"},
				{ID: "slot5", Day: "Thursday", StartTime: "1:00 PM", EndTime: "1:30 PM"},
			},
		},
		{
			ID:             "3",
			Name:           "Dr. Emily Rodriguez",
			Specialization: "Pediatrician",
			ProfileImage:   "doctor3.jpg",
			Bio:            "Dr. Emily Rodriguez is a compassionate pediatrician dedicated to providing comprehensive care for children from birth through adolescence. She believes in a holistic approach to child health.",
			IsAvailable:    false,
			AvailableSlots: []Slot{},
		},
		{
			ID:             "4",
			Name:           "Dr. James Wilson",
			Specialization: "Orthopedic Surgeon",
			ProfileImage:   "doctor4.jpg",
			Bio:            "Dr. James Wilson is an orthopedic surgeon with a focus on sports medicine and joint replacement. He has worked with several professional sports teams throughout his career.",
			IsAvailable:    true,
			AvailableSlots: []Slot{
				{ID: "slot6", Day: "Monday", StartTime: "3:00 PM", EndTime: "3:30 PM"},
				{ID: "slot7", Day: "Friday", StartTime: "10:00 AM", EndTime: "10:30 AM"},
			},
		},
		{
			ID:             "5",
			Name:           "Dr. Priya Patel",
			Specialization: "Neurologist",
			ProfileImage:   "doctor5.jpg",
			Bio:            "Dr. Priya Patel is a neurologist with expertise in headache medicine, stroke treatment, and neurodegenerative disorders. She combines traditional approaches with the latest research.",
			IsAvailable:    true,
			AvailableSlots: []Slot{
				{ID: "slot8", Day: "Tuesday", StartTime: "11:00 AM", EndTime: "11:30 AM"},
				{ID: "slot9", Day: "Thursday", StartTime: "4:00 PM", EndTime: "4:30 PM"},
			},
		},
	}
}

// MockAppointments is the placeholder list served to any session while
// appointments are not read back from a ledger. It does not reflect bookings.
func MockAppointments() []Appointment {
	return []Appointment{
		{
			ID:                   "appt-1",
			DoctorName:           "Dr. Sarah Johnson",
			DoctorSpecialization: "Cardiologist",
			AppointmentDate:      "2025-08-15",
			StartTime:            "09:00",
			EndTime:              "10:00",
			Status:               AppointmentStatusScheduled,
		},
		{
			ID:                   "appt-2",
			DoctorName:           "Dr. Priya Patel",
			DoctorSpecialization: "Dermatologist",
			AppointmentDate:      "2025-08-20",
			StartTime:            "11:00",
			EndTime:              "12:00",
			Status:               AppointmentStatusScheduled,
		},
	}
}
