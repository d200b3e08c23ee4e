package accounts

import (
	"context"
	"sort"
	"strings"

	"jobboard/apperr"
	"jobboard/models"
	"jobboard/session"

	"go.uber.org/zap"
)

// ProfileUpdate carries profile edits. Empty values are ignored and only the
// fields of the caller's role may be set.
type ProfileUpdate struct {
	FullName   string `json:"full_name"`
	University string `json:"university"`
	Graduation string `json:"graduation"`

	CompanyName  string `json:"company_name"`
	Industry     string `json:"industry"`
	Description  string `json:"description"`
	Headquarters string `json:"headquarters"`
	Website      string `json:"website"`

	OrganizationName        string `json:"organization_name"`
	OrganizationDescription string `json:"organization_description"`
}

var roleFields = map[models.Role][]string{
	models.RoleStudent:            {"full_name", "university", "graduation"},
	models.RoleEmployer:           {"company_name", "industry", "description", "headquarters", "website"},
	models.RoleSchoolOrganization: {"organization_name", "university", "organization_description"},
	models.RoleAdmin:              {"full_name"},
}

func (u ProfileUpdate) fields() map[string]string {
	all := map[string]string{
		"full_name":                u.FullName,
		"university":               u.University,
		"graduation":               u.Graduation,
		"company_name":             u.CompanyName,
		"industry":                 u.Industry,
		"description":              u.Description,
		"headquarters":             u.Headquarters,
		"website":                  u.Website,
		"organization_name":        u.OrganizationName,
		"organization_description": u.OrganizationDescription,
	}
	for k, v := range all {
		if v = strings.TrimSpace(v); v == "" {
			delete(all, k)
		} else {
			all[k] = v
		}
	}
	return all
}

func (s *Service) UpdateProfile(ctx context.Context, sess *session.Session, u ProfileUpdate) (models.AccountDocument, error) {
	current, err := s.Get(ctx, sess)
	if err != nil {
		return models.AccountDocument{}, err
	}

	allowed := make(map[string]bool)
	for _, f := range roleFields[current.Role] {
		allowed[f] = true
	}

	changes := u.fields()
	var rejected []string
	update := make(map[string]interface{}, len(changes))
	for k, v := range changes {
		if !allowed[k] {
			rejected = append(rejected, k)
			continue
		}
		update[k] = v
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return models.AccountDocument{}, apperr.InvalidInput("Fields not allowed for role "+string(current.Role)+": "+strings.Join(rejected, ", "), nil)
	}
	if len(update) == 0 {
		return models.AccountDocument{}, apperr.InvalidInput("No changes to update", nil)
	}

	if _, err := s.store.UpdateAccount(ctx, current.ID, update); err != nil {
		return models.AccountDocument{}, apperr.Internal("Failed to update profile", err)
	}
	if current.Role == models.RoleEmployer && s.companies != nil {
		s.companies.Invalidate(ctx, current.CompanyID)
	}

	s.logger.Debug("profile updated", zap.String("account_id", current.ID), zap.Int("fields", len(update)))
	return s.Get(ctx, sess)
}
