package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/incubaapp/incuba/core"
)

// Roles
const (
	// Admin
	RoleAdmin      = "admin:"
	RoleAdminOwner = "admin:owner"

	// Mentor (also acts as juror when assigned with es_jurado)
	RoleMentor = "mentor:"

	// Entrepreneur
	RoleEntrepreneur = "emprendedor:"
	RoleBeneficiary  = "emprendedor:beneficiario"
	RoleCandidate    = "emprendedor:candidato"
)

var (
	AdminRoles        = []string{RoleAdmin, RoleAdminOwner}
	MentorRoles       = []string{RoleMentor}
	EntrepreneurRoles = []string{RoleBeneficiary, RoleCandidate}
	AllRoles          = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner: 30,
		RoleAdmin:      21,

		// Mentors: 20 - 11
		RoleMentor: 11,

		// Entrepreneurs: 10 - 1
		RoleBeneficiary: 2,
		RoleCandidate:   1,
	}

	Roles = []Role{
		{Name: "Candidato", Value: RoleCandidate},
		{Name: "Beneficiario", Value: RoleBeneficiary},
		{Name: "Mentor", Value: RoleMentor},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, MentorRoles...)
	all = append(all, EntrepreneurRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is the local profile of an account owned by the hosted auth provider.
// ID is the provider's subject.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	Roles     []string  `json:"roles" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool        { return u.RoleStartsWith(RoleAdmin) }
func (u *User) IsMentor() bool       { return u.RoleStartsWith(RoleMentor) }
func (u *User) IsEntrepreneur() bool { return u.RoleStartsWith(RoleEntrepreneur) }
func (u *User) IsBeneficiary() bool  { return u.HasRole(RoleBeneficiary) }

// IsStaff is true for users that may see every venture (admins and mentors).
func (u *User) IsStaff() bool { return u.IsAdmin() || u.IsMentor() }

// NewUser contains information needed to create a new User.
type NewUser struct {
	ID    string   `json:"id" validate:"omitempty,uuid"`
	Name  string   `json:"name" validate:"required,notblank"`
	Email string   `json:"email" validate:"required,email"`
	Roles []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name     string   `json:"name"`
	Email    string   `json:"email" validate:"omitempty,email"`
	IsActive *bool    `json:"is_active"`
	Roles    []string `json:"roles" validate:"omitempty,allroles"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.Email == origUsr.Email {
		return nil
	}
	return svc.checkUniqueness(uu.Email, origUsr)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Match applies the filter in memory; used by repositories without a query engine.
func (qf *QueryFilter) Match(u User) bool {
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !strings.Contains(strings.ToLower(u.Name), s) && !strings.Contains(strings.ToLower(u.Email), s) {
			return false
		}
	}
	if len(qf.Roles) > 0 {
		var any bool
		for _, r := range qf.Roles {
			if u.RoleStartsWith(r) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	if qf.IsActive != nil && u.IsActive != *qf.IsActive {
		return false
	}
	if !qf.CreatedFrom.IsZero() && u.CreatedAt.Before(qf.CreatedFrom.UTC()) {
		return false
	}
	if !qf.CreatedTo.IsZero() && u.CreatedAt.After(qf.CreatedTo.UTC()) {
		return false
	}
	return true
}
