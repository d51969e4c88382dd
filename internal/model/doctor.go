package model

const (
	VisitClinic = "clinic"
	VisitOnline = "online"
	VisitBoth   = "both"
)

// Doctor is a bookable practitioner. Admin-created doctors have no UserID.
type Doctor struct {
	Base
	UserID         *int64     `json:"user_id,omitempty" db:"user_id"`
	Name           string     `json:"name" db:"name"`
	Degree         string     `json:"degree" db:"degree"`
	Specialization string     `json:"specialization" db:"specialization"`
	Bio            string     `json:"bio" db:"bio"`
	Availability   string     `json:"availability" db:"availability"`
	Fees           float64    `json:"fees" db:"fees"`
	Rating         float64    `json:"rating" db:"rating"`
	Location       string     `json:"location" db:"location"`
	ContactInfo    string     `json:"contact_info" db:"contact_info"`
	Verified       bool       `json:"verified" db:"verified"`
	VisitTypes     StringList `json:"visit_types" db:"visit_types"`
}

// VisitTypesFor expands a form choice into the stored list.
func VisitTypesFor(choice string) StringList {
	switch choice {
	case VisitBoth:
		return StringList{VisitClinic, VisitOnline}
	case VisitOnline:
		return StringList{VisitOnline}
	default:
		return StringList{VisitClinic}
	}
}

// DoctorFilter holds the search criteria. Zero values mean no constraint.
type DoctorFilter struct {
	Specialization string
	City           string
	// MaxFees comes from the min_fees form field, which has always acted as
	// an upper bound.
	MaxFees   float64
	MinRating float64
}

// Feedback is a patient review shown on the doctor profile.
type Feedback struct {
	Base
	UserID   int64  `json:"user_id" db:"user_id"`
	DoctorID int64  `json:"doctor_id" db:"doctor_id"`
	Rating   int    `json:"rating" db:"rating"`
	Comment  string `json:"comment" db:"comment"`
	Username string `json:"username" db:"username"`
}
