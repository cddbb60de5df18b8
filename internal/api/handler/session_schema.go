package handler

import (
	"fmt"
	"time"

	"github.com/storefront/sessions-api/internal/core/domain"
	"github.com/storefront/sessions-api/internal/core/ports"
)

const dateOfBirthLayout = "2006-01-02"

// Envelope status values, matching what the browser scripts check.
const (
	statusError   = 0
	statusSuccess = 1
)

// registerRequest is the registration form. Missing email or password is
// reported by the register strategy, not by validation.
type registerRequest struct {
	FirstName   string `json:"firstName"   form:"firstName"   validate:"omitempty,max=100"`
	LastName    string `json:"lastName"    form:"lastName"    validate:"omitempty,max=100"`
	Email       string `json:"email"       form:"email"       validate:"omitempty,email"`
	Password    string `json:"password"    form:"password"`
	DateOfBirth string `json:"dateOfBirth" form:"dateOfBirth" validate:"omitempty,datetime=2006-01-02" example:"1990-05-17"`
}

func (r registerRequest) toInput() (ports.RegisterInput, error) {
	in := ports.RegisterInput{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
	if r.DateOfBirth != "" {
		dob, err := time.ParseInLocation(dateOfBirthLayout, r.DateOfBirth, time.UTC)
		if err != nil {
			return ports.RegisterInput{}, fmt.Errorf("dateOfBirth must be a YYYY-MM-DD date")
		}
		in.DateOfBirth = &dob
	}
	return in, nil
}

type loginRequest struct {
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"       form:"email"`
	NewPassword string `json:"newPassword" form:"newPassword"`
}

// sessionResponse is the envelope every session endpoint answers with.
type sessionResponse struct {
	Status  int              `json:"status"`
	Message string           `json:"message,omitempty"`
	User    *domain.UserView `json:"user,omitempty"`
}

func success(message string, user *domain.User) sessionResponse {
	return sessionResponse{Status: statusSuccess, Message: message, User: user.View()}
}

func failure(message string) sessionResponse {
	return sessionResponse{Status: statusError, Message: message}
}
