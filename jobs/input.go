package jobs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SkillList accepts either a comma-joined string or a JSON list and stores
// the comma-joined form.
type SkillList string

func (s *SkillList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		var kept []string
		for _, v := range list {
			if v = strings.TrimSpace(v); v != "" {
				kept = append(kept, v)
			}
		}
		*s = SkillList(strings.Join(kept, ", "))
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = SkillList(strings.TrimSpace(str))
	return nil
}

// Date accepts RFC 3339 timestamps or plain YYYY-MM-DD dates. A plain date
// means the last millisecond of that day in UTC.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseDate(str)
	if err != nil {
		return err
	}
	d.Time = parsed
	return nil
}

func ParseDate(str string) (time.Time, error) {
	str = strings.TrimSpace(str)
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", str); err == nil {
		return t.Add(24*time.Hour - time.Millisecond).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", str)
}

type CreateInput struct {
	Title           string    `json:"title" binding:"required"`
	JobDescription  string    `json:"job_description" binding:"required"`
	Location        string    `json:"location" binding:"required"`
	SalaryRange     string    `json:"salary_range"`
	ExperienceLevel string    `json:"experience_level"`
	SkillsRequired  SkillList `json:"skills_required"`
	JobDeadline     *Date     `json:"job_deadline"`
	Industry        string    `json:"industry"`
}

// EditInput changes only non-empty fields. ClearDeadline removes the deadline.
type EditInput struct {
	Title           string     `json:"title"`
	JobDescription  string     `json:"job_description"`
	Location        string     `json:"location"`
	SalaryRange     string     `json:"salary_range"`
	ExperienceLevel string     `json:"experience_level"`
	SkillsRequired  *SkillList `json:"skills_required"`
	JobDeadline     *Date      `json:"job_deadline"`
	ClearDeadline   bool       `json:"clear_deadline"`
	Industry        string     `json:"industry"`
}

func (in CreateInput) missing() []string {
	var out []string
	if strings.TrimSpace(in.Title) == "" {
		out = append(out, "title")
	}
	if strings.TrimSpace(in.JobDescription) == "" {
		out = append(out, "job_description")
	}
	if strings.TrimSpace(in.Location) == "" {
		out = append(out, "location")
	}
	return out
}

func (in EditInput) empty() bool {
	return in.Title == "" && in.JobDescription == "" && in.Location == "" &&
		in.SalaryRange == "" && in.ExperienceLevel == "" && in.SkillsRequired == nil &&
		in.JobDeadline == nil && !in.ClearDeadline && in.Industry == ""
}
