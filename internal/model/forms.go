package model

import "strings"

// Form payloads bound from POST bodies. Field errors are reported under the
// form tag name.

type RegisterRequest struct {
	Username        string `form:"username" binding:"required,min=3,max=30"`
	Email           string `form:"email" binding:"required,email"`
	Contact         string `form:"contact" binding:"required,min=10,max=15"`
	Role            string `form:"role" binding:"omitempty,oneof=patient doctor"`
	Password        string `form:"password" binding:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" binding:"required,eqfield=Password"`
}

// DoctorProfileRequest is shared by doctor self-registration and the admin
// add-doctor form.
type DoctorProfileRequest struct {
	Name           string  `form:"name" binding:"required"`
	Degree         string  `form:"degree" binding:"required"`
	Specialization string  `form:"specialization" binding:"required"`
	Bio            string  `form:"bio" binding:"required,max=500"`
	Fees           float64 `form:"fees" binding:"gte=0"`
	Location       string  `form:"location"`
	ContactInfo    string  `form:"contact_info"`
	VisitTypes     string  `form:"visit_types" binding:"omitempty,oneof=clinic online both"`
}

// Doctor builds an unsaved, unverified profile from the form.
func (r DoctorProfileRequest) Doctor() *Doctor {
	return &Doctor{
		Name:           strings.TrimSpace(r.Name),
		Degree:         strings.TrimSpace(r.Degree),
		Specialization: strings.TrimSpace(r.Specialization),
		Bio:            r.Bio,
		Fees:           r.Fees,
		Location:       strings.TrimSpace(r.Location),
		ContactInfo:    r.ContactInfo,
		VisitTypes:     VisitTypesFor(r.VisitTypes),
	}
}

type DoctorRegisterRequest struct {
	DoctorProfileRequest
	Username        string `form:"username" binding:"required,min=3,max=30"`
	Email           string `form:"email" binding:"required,email"`
	Contact         string `form:"contact" binding:"required,min=10,max=15"`
	Password        string `form:"password" binding:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" binding:"required,eqfield=Password"`
}

type LoginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type ProfileRequest struct {
	Address string `form:"address"`
	City    string `form:"city"`
	DOB     string `form:"dob" binding:"omitempty,isodate"`
}

type SearchRequest struct {
	Specialization string  `form:"specialization"`
	City           string  `form:"city"`
	MinFees        float64 `form:"min_fees" binding:"gte=0"`
	MinRating      float64 `form:"min_rating" binding:"gte=0,lte=5"`
}

// Filter converts the form into repository criteria.
func (r SearchRequest) Filter() DoctorFilter {
	return DoctorFilter{
		Specialization: r.Specialization,
		City:           r.City,
		MaxFees:        r.MinFees,
		MinRating:      r.MinRating,
	}
}

type AppointmentRequest struct {
	Date      string `form:"date" binding:"required,isodate"`
	Time      string `form:"time" binding:"required,clocktime"`
	VisitType string `form:"visit_type" binding:"omitempty,visittype"`
	Notes     string `form:"notes" binding:"max=200"`
}

type RescheduleRequest struct {
	Date  string `form:"date" binding:"required,isodate"`
	Time  string `form:"time" binding:"required,clocktime"`
	Notes string `form:"notes" binding:"max=200"`
}

type InquiryRequest struct {
	Message string `form:"message" binding:"required,max=500"`
}
