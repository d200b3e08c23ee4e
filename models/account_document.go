package models

import (
	"fmt"
	"time"
)

// AccountDocument is the stored shape of an Account in the users collection.
// Field names are shared with the admin review tooling and must not change.
type AccountDocument struct {
	ID           string    `bson:"_id" json:"-"`
	AccountID    string    `bson:"account_id" json:"account_id"`
	Email        string    `bson:"email" json:"email"`
	Role         Role      `bson:"role" json:"role"`
	PasswordHash *string   `bson:"password_hash,omitempty" json:"-"`
	AuthProvider string    `bson:"auth_provider" json:"auth_provider"`
	GoogleID     *string   `bson:"google_id,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`

	// student
	UserID     string `bson:"user_id,omitempty" json:"user_id,omitempty"`
	FullName   string `bson:"full_name,omitempty" json:"full_name,omitempty"`
	University string `bson:"university,omitempty" json:"university,omitempty"`
	Graduation string `bson:"graduation,omitempty" json:"graduation,omitempty"`

	// employer
	CompanyID    string `bson:"company_id,omitempty" json:"company_id,omitempty"`
	CompanyName  string `bson:"company_name,omitempty" json:"company_name,omitempty"`
	Industry     string `bson:"industry,omitempty" json:"industry,omitempty"`
	Description  string `bson:"description,omitempty" json:"description,omitempty"`
	Headquarters string `bson:"headquarters,omitempty" json:"headquarters,omitempty"`
	Website      string `bson:"website,omitempty" json:"website,omitempty"`

	// school organization
	OrganizationID          string `bson:"organization_id,omitempty" json:"organization_id,omitempty"`
	OrganizationName        string `bson:"organization_name,omitempty" json:"organization_name,omitempty"`
	OrganizationDescription string `bson:"organization_description,omitempty" json:"organization_description,omitempty"`
}

func NewAccountDocument(a Account) AccountDocument {
	doc := AccountDocument{
		ID:           a.AccountID,
		AccountID:    a.AccountID,
		Email:        a.Email,
		Role:         a.Role,
		AuthProvider: a.AuthProvider,
		CreatedAt:    a.CreatedAt,
	}

	switch p := a.Profile.(type) {
	case StudentProfile:
		doc.UserID = p.UserID
		doc.FullName = p.FullName
		doc.University = p.University
		doc.Graduation = p.Graduation
	case EmployerProfile:
		doc.CompanyID = p.CompanyID
		doc.CompanyName = p.CompanyName
		doc.Industry = p.Industry
		doc.Description = p.Description
		doc.Headquarters = p.Headquarters
		doc.Website = p.Website
	case OrganizationProfile:
		doc.OrganizationID = p.OrganizationID
		doc.OrganizationName = p.OrganizationName
		doc.University = p.University
		doc.OrganizationDescription = p.OrganizationDescription
	case AdminProfile:
		doc.FullName = p.FullName
	}
	return doc
}

// Account selects the profile variant from the stored role.
func (d AccountDocument) Account() (Account, error) {
	var profile Profile
	switch d.Role {
	case RoleStudent:
		profile = StudentProfile{
			UserID:     d.UserID,
			FullName:   d.FullName,
			University: d.University,
			Graduation: d.Graduation,
		}
	case RoleEmployer:
		profile = EmployerProfile{
			CompanyID:    d.CompanyID,
			CompanyName:  d.CompanyName,
			Industry:     d.Industry,
			Description:  d.Description,
			Headquarters: d.Headquarters,
			Website:      d.Website,
		}
	case RoleSchoolOrganization:
		profile = OrganizationProfile{
			OrganizationID:          d.OrganizationID,
			OrganizationName:        d.OrganizationName,
			University:              d.University,
			OrganizationDescription: d.OrganizationDescription,
		}
	case RoleAdmin:
		profile = AdminProfile{FullName: d.FullName}
	default:
		return Account{}, fmt.Errorf("account %s has unknown role %q", d.AccountID, d.Role)
	}

	id := d.AccountID
	if id == "" {
		id = d.ID
	}
	return Account{
		AccountID:    id,
		Email:        d.Email,
		Role:         d.Role,
		AuthProvider: d.AuthProvider,
		CreatedAt:    d.CreatedAt,
		Profile:      profile,
	}, nil
}
