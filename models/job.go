package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusApproved JobStatus = "approved"
)

// JobPosting lives in exactly one of the pending or approved collections.
// DocID is per-collection; JobID survives every move.
type JobPosting struct {
	DocID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	JobID           string             `bson:"job_id" json:"job_id"`
	CompanyID       string             `bson:"company_id" json:"company_id"`
	Title           string             `bson:"title" json:"title"`
	JobDescription  string             `bson:"job_description" json:"job_description"`
	Location        string             `bson:"location" json:"location"`
	SalaryRange     string             `bson:"salary_range" json:"salary_range"`
	ExperienceLevel string             `bson:"experience_level" json:"experience_level"`
	SkillsRequired  string             `bson:"skills_required" json:"skills_required"`
	PostingDate     time.Time          `bson:"posting_date" json:"posting_date"`
	JobDeadline     *time.Time         `bson:"job_deadline,omitempty" json:"job_deadline,omitempty"`
	Industry        string             `bson:"industry" json:"industry"`
	LastModified    *time.Time         `bson:"last_modified,omitempty" json:"last_modified,omitempty"`
	ApprovedDate    *time.Time         `bson:"approved_date,omitempty" json:"approved_date,omitempty"`
	ApprovedBy      string             `bson:"approved_by,omitempty" json:"approved_by,omitempty"`
}

// NewJobID returns JOB_<suffix>_<unix millis>, where suffix is the part of
// companyID after its last underscore.
func NewJobID(companyID string, at time.Time) string {
	suffix := companyID
	if i := strings.LastIndex(companyID, "_"); i >= 0 {
		suffix = companyID[i+1:]
	}
	return fmt.Sprintf("JOB_%s_%d", suffix, at.UnixMilli())
}

// Skills splits the comma-joined skills_required field.
func (j JobPosting) Skills() []string {
	var out []string
	for _, s := range strings.Split(j.SkillsRequired, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ActiveAt reports whether the posting is still open at now. A posting
// without a deadline never expires.
func (j JobPosting) ActiveAt(now time.Time) bool {
	return j.JobDeadline == nil || !j.JobDeadline.Before(now)
}

// AsApproved returns the copy written to the approved collection.
func (j JobPosting) AsApproved(by string, at time.Time) JobPosting {
	out := j
	out.DocID = primitive.NilObjectID
	out.ApprovedDate = &at
	out.ApprovedBy = by
	return out
}

// AsPending returns the copy written back to the pending collection, without
// approval fields.
func (j JobPosting) AsPending() JobPosting {
	out := j
	out.DocID = primitive.NilObjectID
	out.ApprovedDate = nil
	out.ApprovedBy = ""
	return out
}

// JobListing is a posting enriched with its employer's public fields.
type JobListing struct {
	JobPosting `bson:",inline"`
	Skills     []string       `json:"skills"`
	Company    CompanyDetails `json:"company"`
}
