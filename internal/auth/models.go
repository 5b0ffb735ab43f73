package auth

import (
	"clinic-booking/internal/apierrors"

	"github.com/google/uuid"
)

// Role is the job of a staff user inside the clinic.
type Role string

const (
	AdminRole        Role = "ADMIN"
	ReceptionistRole Role = "RECEPTIONIST"
	DoctorRole       Role = "DOCTOR"
)

type Credentials struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Validate validates if the credentials given are valid.
func (c Credentials) Validate() error {
	if c.Email == "" {
		return apierrors.NewValidationError("email", "required")
	}
	if c.Password == "" {
		return apierrors.NewValidationError("password", "required")
	}
	return nil
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	GrantType    string `json:"grant_type,omitempty"`
}

// Validate validates a refresh request.
func (c Tokens) Validate() error {
	if c.RefreshToken == "" {
		return apierrors.NewValidationError("refresh_token", "required")
	}
	if c.GrantType != "refresh_token" {
		return apierrors.NewValidationError("grant_type", "must be refresh_token")
	}
	return nil
}

// User is a staff account allowed to operate the booking engine.
type User struct {
	ID          int64     `json:"id" dbfield:"id"`
	UUID        uuid.UUID `json:"uuid" dbfield:"uuid"`
	Email       string    `json:"email" dbfield:"email"`
	Role        Role      `json:"role" dbfield:"role"`
	CompanyCode string    `json:"company_code" dbfield:"company_code"`
}
