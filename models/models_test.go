package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewAccountRejectsMismatchedProfile(t *testing.T) {
	_, err := NewAccount("a1", "hr@startup.io", RoleEmployer, StudentProfile{UserID: "USR_1"})
	assert.Error(t, err)

	_, err = NewAccount("a1", "hr@startup.io", Role("recruiter"), EmployerProfile{})
	assert.Error(t, err)

	acc, err := NewAccount("a1", "hr@startup.io", RoleEmployer, EmployerProfile{CompanyID: "CMP_ab12cd"})
	require.NoError(t, err)
	emp, ok := acc.Employer()
	require.True(t, ok)
	assert.Equal(t, "CMP_ab12cd", emp.CompanyID)
}

func TestAccountDocumentKeepsOnlyVariantFields(t *testing.T) {
	acc, err := NewAccount("a2", "org@uni.edu", RoleSchoolOrganization, OrganizationProfile{
		OrganizationID:          "ORG_0f0f0f",
		OrganizationName:        "Robotics Club",
		University:              "State U",
		OrganizationDescription: "We build robots",
	})
	require.NoError(t, err)

	doc := NewAccountDocument(acc)
	assert.Equal(t, "a2", doc.ID)
	assert.Equal(t, "ORG_0f0f0f", doc.OrganizationID)
	assert.Empty(t, doc.CompanyID)
	assert.Empty(t, doc.UserID)

	back, err := doc.Account()
	require.NoError(t, err)
	assert.Equal(t, acc.Profile, back.Profile)
}

func TestAccountDocumentUnknownRole(t *testing.T) {
	_, err := AccountDocument{AccountID: "x", Role: "ghost"}.Account()
	assert.Error(t, err)
}

func TestNewJobID(t *testing.T) {
	at := time.UnixMilli(1760600000123)
	assert.Equal(t, "JOB_ab12cd_1760600000123", NewJobID("CMP_ab12cd", at))
	assert.Equal(t, "JOB_acme_1760600000123", NewJobID("acme", at))
}

func TestSkills(t *testing.T) {
	j := JobPosting{SkillsRequired: "Go, MongoDB ,, Docker "}
	assert.Equal(t, []string{"Go", "MongoDB", "Docker"}, j.Skills())
	assert.Nil(t, JobPosting{}.Skills())
}

func TestActiveAt(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	assert.True(t, JobPosting{}.ActiveAt(now))
	assert.True(t, JobPosting{JobDeadline: &future}.ActiveAt(now))
	assert.True(t, JobPosting{JobDeadline: &now}.ActiveAt(now))
	assert.False(t, JobPosting{JobDeadline: &past}.ActiveAt(now))
}

func TestApprovalCopies(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	pending := JobPosting{DocID: primitive.NewObjectID(), JobID: "JOB_x_1"}

	approved := pending.AsApproved("admin@jobboard.io", at)
	assert.True(t, approved.DocID.IsZero())
	assert.Equal(t, "admin@jobboard.io", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedDate)
	assert.Equal(t, at, *approved.ApprovedDate)

	approved.DocID = primitive.NewObjectID()
	back := approved.AsPending()
	assert.True(t, back.DocID.IsZero())
	assert.Nil(t, back.ApprovedDate)
	assert.Empty(t, back.ApprovedBy)
	assert.Equal(t, "JOB_x_1", back.JobID)
}

func TestNewResumeID(t *testing.T) {
	assert.Equal(t, "RESUME_USR_1a2b3c_42", NewResumeID("USR_1a2b3c", time.UnixMilli(42)))
}
