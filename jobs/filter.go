package jobs

import (
	"strings"

	"jobboard/models"
)

// Filter narrows the public board. Blank fields match every posting.
// Query is a case-insensitive substring match over title, company name and
// description. Industry and Experience match whole values, Location and
// Salary match substrings, all ignoring case.
type Filter struct {
	Query      string `form:"q"`
	Industry   string `form:"industry"`
	Location   string `form:"location"`
	Salary     string `form:"salary"`
	Experience string `form:"experience"`
}

func (f Filter) normalized() Filter {
	return Filter{
		Query:      strings.ToLower(strings.TrimSpace(f.Query)),
		Industry:   strings.TrimSpace(f.Industry),
		Location:   strings.ToLower(strings.TrimSpace(f.Location)),
		Salary:     strings.ToLower(strings.TrimSpace(f.Salary)),
		Experience: strings.TrimSpace(f.Experience),
	}
}

func (f Filter) empty() bool {
	return f == Filter{}
}

// match expects a normalized filter.
func (f Filter) match(l models.JobListing) bool {
	if f.Query != "" &&
		!containsFold(l.Title, f.Query) &&
		!containsFold(l.Company.CompanyName, f.Query) &&
		!containsFold(l.JobDescription, f.Query) {
		return false
	}
	if f.Industry != "" && !strings.EqualFold(l.Industry, f.Industry) {
		return false
	}
	if f.Location != "" && !containsFold(l.Location, f.Location) {
		return false
	}
	if f.Salary != "" && !containsFold(l.SalaryRange, f.Salary) {
		return false
	}
	if f.Experience != "" && !strings.EqualFold(l.ExperienceLevel, f.Experience) {
		return false
	}
	return true
}

// containsFold reports whether lowered needle occurs in s, ignoring case.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}
