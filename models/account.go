package models

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleStudent            Role = "student"
	RoleEmployer           Role = "employer"
	RoleSchoolOrganization Role = "school_organization"
	RoleAdmin              Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleEmployer, RoleSchoolOrganization, RoleAdmin:
		return true
	}
	return false
}

const (
	AuthProviderEmail  = "email"
	AuthProviderGoogle = "google"
)

// Profile is the role-specific part of an Account. Exactly one implementation
// exists per Role.
type Profile interface {
	Role() Role
}

type StudentProfile struct {
	UserID     string `json:"user_id"`
	FullName   string `json:"full_name"`
	University string `json:"university"`
	Graduation string `json:"graduation"`
}

func (StudentProfile) Role() Role { return RoleStudent }

type EmployerProfile struct {
	CompanyID    string `json:"company_id"`
	CompanyName  string `json:"company_name"`
	Industry     string `json:"industry"`
	Description  string `json:"description"`
	Headquarters string `json:"headquarters"`
	Website      string `json:"website"`
}

func (EmployerProfile) Role() Role { return RoleEmployer }

type OrganizationProfile struct {
	OrganizationID          string `json:"organization_id"`
	OrganizationName        string `json:"organization_name"`
	University              string `json:"university"`
	OrganizationDescription string `json:"organization_description"`
}

func (OrganizationProfile) Role() Role { return RoleSchoolOrganization }

type AdminProfile struct {
	FullName string `json:"full_name"`
}

func (AdminProfile) Role() Role { return RoleAdmin }

// Account is the profile record of one authenticated identity.
type Account struct {
	AccountID    string
	Email        string
	Role         Role
	AuthProvider string
	CreatedAt    time.Time
	Profile      Profile
}

// NewAccount builds an Account, rejecting a profile whose variant does not
// match role.
func NewAccount(accountID, email string, role Role, profile Profile) (Account, error) {
	if !role.Valid() {
		return Account{}, fmt.Errorf("unknown role %q", role)
	}
	if profile == nil || profile.Role() != role {
		return Account{}, fmt.Errorf("profile does not match role %q", role)
	}
	return Account{
		AccountID:    accountID,
		Email:        email,
		Role:         role,
		AuthProvider: AuthProviderEmail,
		CreatedAt:    time.Now().UTC(),
		Profile:      profile,
	}, nil
}

func (a Account) Student() (StudentProfile, bool) {
	p, ok := a.Profile.(StudentProfile)
	return p, ok
}

func (a Account) Employer() (EmployerProfile, bool) {
	p, ok := a.Profile.(EmployerProfile)
	return p, ok
}

func (a Account) Organization() (OrganizationProfile, bool) {
	p, ok := a.Profile.(OrganizationProfile)
	return p, ok
}

// CompanyDetails are the employer fields copied onto a job listing.
type CompanyDetails struct {
	CompanyName  string `json:"company_name"`
	Description  string `json:"description"`
	Headquarters string `json:"headquarters"`
	Industry     string `json:"industry"`
	Website      string `json:"website"`
}

func (p EmployerProfile) Details() CompanyDetails {
	return CompanyDetails{
		CompanyName:  p.CompanyName,
		Description:  p.Description,
		Headquarters: p.Headquarters,
		Industry:     p.Industry,
		Website:      p.Website,
	}
}
