package domain

// Slot is a fixed, named appointment window owned by one doctor. Slot ids are
// unique within their doctor only.
type Slot struct {
	ID        string
	Day       string
	StartTime string
	EndTime   string
}

type Doctor struct {
	ID             string
	Name           string
	Specialization string
	ProfileImage   string
	IsAvailable    bool
	Bio            string
	AvailableSlots []Slot
}

// Slot scans the doctor's available slots for id.
func (d Doctor) Slot(id string) (Slot, bool) {
	for _, s := range d.AvailableSlots {
		if s.ID == id {
			return s, true
		}
	}
	return Slot{}, false
}

// Clone returns a copy that shares no slot storage with d.
func (d Doctor) Clone() Doctor {
	out := d
	if d.AvailableSlots != nil {
		out.AvailableSlots = make([]Slot, len(d.AvailableSlots))
		copy(out.AvailableSlots, d.AvailableSlots)
	}
	return out
}

func CloneDoctors(in []Doctor) []Doctor {
	if in == nil {
		return nil
	}
	out := make([]Doctor, 0, len(in))
	for _, d := range in {
		out = append(out, d.Clone())
	}
	return out
}
