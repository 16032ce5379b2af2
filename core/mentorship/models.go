package mentorship

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Assignment links a mentor to a venture. Jury assignments also allow the
// mentor to file panel evaluations for it.
type Assignment struct {
	ID        string    `json:"id"`
	MentorID  string    `json:"mentor_id"`
	VentureID string    `json:"venture_id"`
	IsJury    bool      `json:"is_jury"`
	CreatedAt time.Time `json:"created_at"`
}

type NewAssignment struct {
	MentorID  string `json:"mentor_id" validate:"required"`
	VentureID string `json:"venture_id" validate:"required"`
	IsJury    bool   `json:"is_jury"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.MentorID = strings.TrimSpace(na.MentorID)
	na.VentureID = strings.TrimSpace(na.VentureID)
	return validate.Struct(na)
}

type SessionState string

const (
	SessionBooked    SessionState = "reservada"
	SessionCancelled SessionState = "cancelada"
)

// Session is an advisory meeting booked by a beneficiary with a mentor.
type Session struct {
	ID            string       `json:"id"`
	MentorID      string       `json:"mentor_id"`
	BeneficiaryID string       `json:"beneficiary_id"`
	ProfileID     string       `json:"profile_id"`
	Title         string       `json:"title"`
	StartsAt      time.Time    `json:"starts_at"`
	EndsAt        time.Time    `json:"ends_at"`
	State         SessionState `json:"state"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (s Session) overlaps(other Session) bool {
	return s.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(s.EndsAt)
}

type NewSession struct {
	MentorID string    `json:"mentor_id" validate:"required"`
	Title    string    `json:"title" validate:"required,notblank"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.MentorID = strings.TrimSpace(ns.MentorID)
	ns.Title = strings.TrimSpace(ns.Title)
	ns.StartsAt = ns.StartsAt.UTC()
	ns.EndsAt = ns.EndsAt.UTC()
	return validate.Struct(ns)
}

type SessionFilter struct {
	MentorID      string
	BeneficiaryID string
	State         SessionState
}

func (sf SessionFilter) Match(s Session) bool {
	if sf.MentorID != "" && s.MentorID != sf.MentorID {
		return false
	}
	if sf.BeneficiaryID != "" && s.BeneficiaryID != sf.BeneficiaryID {
		return false
	}
	if sf.State != "" && s.State != sf.State {
		return false
	}
	return true
}

// Action tells the automation endpoint what happened to a session.
type Action string

const (
	ActionBook   Action = "reservar"
	ActionCancel Action = "cancelar"
)

// BookingEvent is pushed to the automation webhook after a booking change.
type BookingEvent struct {
	Action  Action
	Session Session
}
