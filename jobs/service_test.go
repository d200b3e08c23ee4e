package jobs

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"jobboard/apperr"
	"jobboard/cache"
	"jobboard/database"
	"jobboard/database/memstore"
	"jobboard/events"
	"jobboard/models"
	"jobboard/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var baseTime = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memstore.Store
	svc      *Service
	sink     *recordSink
	now      time.Time
	employer *session.Session
	admin    *session.Session
	student  *session.Session
}

type recordSink struct {
	events []events.Event
}

func (r *recordSink) Publish(_ context.Context, ev events.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *recordSink) types() []events.Type {
	var out []events.Type
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func newFixture(t *testing.T, opts ...memstore.Option) *fixture {
	t.Helper()
	f := &fixture{store: memstore.New(opts...), sink: &recordSink{}, now: baseTime}

	f.employer = addAccount(t, f.store, "acc-employer", "hr@startup.io", models.RoleEmployer, models.EmployerProfile{
		CompanyID:    "CMP_ab12cd",
		CompanyName:  "Acme Robotics",
		Industry:     "Robotics",
		Description:  "We build robots",
		Headquarters: "Austin, TX",
		Website:      "https://acme.example",
	})
	f.admin = addAccount(t, f.store, "acc-admin", "admin@jobboard.io", models.RoleAdmin, models.AdminProfile{FullName: "Ada"})
	f.student = addAccount(t, f.store, "acc-student", "kim@uni.edu", models.RoleStudent, models.StudentProfile{UserID: "USR_00aa11"})

	f.svc = NewService(f.store, f.store, f.sink, zap.NewNop(), WithClock(func() time.Time { return f.now }))
	return f
}

func addAccount(t *testing.T, store *memstore.Store, id, email string, role models.Role, p models.Profile) *session.Session {
	t.Helper()
	acc, err := models.NewAccount(id, email, role, p)
	require.NoError(t, err)
	require.NoError(t, store.CreateAccount(context.Background(), models.NewAccountDocument(acc)))
	return &session.Session{AccountID: id, Email: email, Role: role}
}

func (f *fixture) create(t *testing.T, title string, deadline *time.Time) models.JobPosting {
	t.Helper()
	in := CreateInput{
		Title:          title,
		JobDescription: "Build things",
		Location:       "Remote",
		SkillsRequired: "Go, MongoDB",
	}
	if deadline != nil {
		in.JobDeadline = &Date{Time: *deadline}
	}
	job, err := f.svc.Create(context.Background(), f.employer, in)
	require.NoError(t, err)
	f.now = f.now.Add(time.Millisecond)
	return job
}

func jobIDs(jobs []models.JobPosting) []string {
	var out []string
	for _, j := range jobs {
		out = append(out, j.JobID)
	}
	return out
}

func TestCreateStoresPendingPosting(t *testing.T) {
	f := newFixture(t)
	job := f.create(t, "Intern", nil)

	assert.Equal(t, "JOB_ab12cd_"+strconv.FormatInt(baseTime.UnixMilli(), 10), job.JobID)
	assert.Equal(t, "CMP_ab12cd", job.CompanyID)
	assert.True(t, baseTime.Equal(job.PostingDate))
	assert.Equal(t, "Robotics", job.Industry)
	assert.False(t, job.DocID.IsZero())

	assert.Equal(t, 1, f.store.Count(database.CollectionPendingJobs, "job_id", job.JobID))
	assert.Equal(t, 0, f.store.Count(database.CollectionApprovedJobs, "", nil))
	assert.Equal(t, []events.Type{events.JobCreated}, f.sink.types())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.employer, CreateInput{Title: "Intern"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = f.svc.Create(ctx, f.student, CreateInput{Title: "x", JobDescription: "y", Location: "z"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Create(ctx, nil, CreateInput{})
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	assert.Equal(t, 0, f.store.Count(database.CollectionPendingJobs, "", nil))
}

func TestApproveMovesPostingToApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.create(t, "Intern", nil)

	approved, err := f.svc.Approve(ctx, f.admin, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, job.JobID, approved.JobID)
	assert.NotEqual(t, job.DocID, approved.DocID)

	queue, err := f.svc.ListForReview(ctx, f.admin)
	require.NoError(t, err)
	assert.NotContains(t, jobIDs(queue.Pending), job.JobID)
	require.Contains(t, jobIDs(queue.Approved), job.JobID)

	got := queue.Approved[0]
	require.NotNil(t, got.ApprovedDate)
	assert.WithinDuration(t, f.now, *got.ApprovedDate, time.Millisecond)
	assert.Equal(t, "admin@jobboard.io", got.ApprovedBy)
	assert.Contains(t, f.sink.types(), events.JobApproved)
}

func TestApproveRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	job := f.create(t, "Intern", nil)

	_, err := f.svc.Approve(context.Background(), f.employer, job.JobID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Approve(context.Background(), f.admin, "JOB_missing_1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestApproveByIDTwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.create(t, "Intern", nil)

	_, err := f.svc.Approve(ctx, f.admin, job.JobID)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin, job.JobID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 1, f.store.Count(database.CollectionApprovedJobs, "job_id", job.JobID))
}

func TestUnapproveRoundTripKeepsJobID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.create(t, "Intern", nil)

	_, err := f.svc.Approve(ctx, f.admin, job.JobID)
	require.NoError(t, err)
	back, err := f.svc.Unapprove(ctx, f.admin, job.JobID)
	require.NoError(t, err)

	assert.Equal(t, job.JobID, back.JobID)
	assert.Nil(t, back.ApprovedDate)
	assert.Empty(t, back.ApprovedBy)

	stored, err := f.svc.Repository().Find(ctx, models.JobStatusPending, job.JobID)
	require.NoError(t, err)
	assert.Nil(t, stored.ApprovedDate)
	assert.Empty(t, stored.ApprovedBy)
	assert.Equal(t, 0, f.store.Count(database.CollectionApprovedJobs, "job_id", job.JobID))
}

func TestUnapproveUnknownJob(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Unapprove(context.Background(), f.admin, "JOB_nope_1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// Approving the same fetched posting twice (a retried request) is not
// idempotent: the second call writes another approved document.
func TestApprovingStalePostingTwiceLeavesDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.create(t, "Intern", nil)

	queue, err := f.svc.ListForReview(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, queue.Pending, 1)
	row := queue.Pending[0]

	_, err = f.svc.ApprovePosting(ctx, f.admin, row)
	require.NoError(t, err)
	_, err = f.svc.ApprovePosting(ctx, f.admin, row)
	require.NoError(t, err)

	assert.Equal(t, 2, f.store.Count(database.CollectionApprovedJobs, "job_id", job.JobID))
	assert.Equal(t, 0, f.store.Count(database.CollectionPendingJobs, "job_id", job.JobID))
}

func TestFailedMoveRollsBackInTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.create(t, "Intern", nil)

	f.store.FailNext("DeleteJobs:"+database.CollectionPendingJobs, errors.New("network timeout"))
	_, err := f.svc.Approve(ctx, f.admin, job.JobID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPartialFailure))

	assert.Equal(t, 1, f.store.Count(database.CollectionPendingJobs, "job_id", job.JobID))
	assert.Equal(t, 0, f.store.Count(database.CollectionApprovedJobs, "job_id", job.JobID))
	assert.NotContains(t, f.sink.types(), events.JobApproved)
}

func TestFailedMoveWithoutTransactionsLeavesDuplicate(t *testing.T) {
	f := newFixture(t, memstore.WithoutTransactions())
	ctx := context.Background()
	job := f.create(t, "Intern", nil)

	f.store.FailNext("DeleteJobs:"+database.CollectionPendingJobs, errors.New("network timeout"))
	_, err := f.svc.Approve(ctx, f.admin, job.JobID)
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.Count(database.CollectionPendingJobs, "job_id", job.JobID))
	assert.Equal(t, 1, f.store.Count(database.CollectionApprovedJobs, "job_id", job.JobID))

	// the employer dashboard hides the stale pending copy
	dash, err := f.svc.ListForEmployer(ctx, f.employer)
	require.NoError(t, err)
	assert.Empty(t, dash.Pending)
	assert.Equal(t, []string{job.JobID}, jobIDs(dash.Approved))
}

func TestFailedInsertChangesNothing(t *testing.T) {
	f := newFixture(t, memstore.WithoutTransactions())
	ctx := context.Background()
	job := f.create(t, "Intern", nil)

	f.store.FailNext("InsertJob:"+database.CollectionApprovedJobs, errors.New("write conflict"))
	_, err := f.svc.Approve(ctx, f.admin, job.JobID)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Equal(t, 1, f.store.Count(database.CollectionPendingJobs, "job_id", job.JobID))
}

func TestPublicListingFiltersExpiredAndJoinsCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := baseTime.Add(-time.Hour)
	future := baseTime.Add(48 * time.Hour)
	expired := f.create(t, "Expired", &past)
	open := f.create(t, "Open", &future)
	forever := f.create(t, "No deadline", nil)

	for _, j := range []models.JobPosting{expired, open, forever} {
		_, err := f.svc.Approve(ctx, f.admin, j.JobID)
		require.NoError(t, err)
	}

	board, err := f.svc.ListPublic(ctx, Filter{})
	require.NoError(t, err)

	var ids []string
	for _, l := range board {
		ids = append(ids, l.JobID)
		assert.Equal(t, "Acme Robotics", l.Company.CompanyName)
		assert.Equal(t, "Austin, TX", l.Company.Headquarters)
		assert.Equal(t, []string{"Go", "MongoDB"}, l.Skills)
	}
	assert.ElementsMatch(t, []string{open.JobID, forever.JobID}, ids)

	_, err = f.svc.GetPublic(ctx, expired.JobID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestInternPostingAppearsOnlyAfterApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.create(t, "Intern", nil)

	board, err := f.svc.ListPublic(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, board)

	_, err = f.svc.Approve(ctx, f.admin, job.JobID)
	require.NoError(t, err)

	board, err = f.svc.ListPublic(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "CMP_ab12cd", board[0].CompanyID)
	assert.Equal(t, "Intern", board[0].Title)
}

func TestPublicBoardFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	post := func(in CreateInput) string {
		job, err := f.svc.Create(ctx, f.employer, in)
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, f.admin, job.JobID)
		require.NoError(t, err)
		f.now = f.now.Add(time.Millisecond)
		return job.JobID
	}
	backend := post(CreateInput{
		Title: "Backend Engineer", JobDescription: "Go services", Location: "Berlin, DE",
		SalaryRange: "$90k-$110k", ExperienceLevel: "Senior",
	})
	intern := post(CreateInput{
		Title: "Design Intern", JobDescription: "Figma and research", Location: "Remote",
		SalaryRange: "$20/hr", ExperienceLevel: "Entry", Industry: "Design",
	})
	past := baseTime.Add(-time.Hour)
	expired := f.create(t, "Expired Backend", &past)
	_, err := f.svc.Approve(ctx, f.admin, expired.JobID)
	require.NoError(t, err)

	all, err := f.svc.ListPublic(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	blank, err := f.svc.ListPublic(ctx, Filter{Query: "  "})
	require.NoError(t, err)
	assert.Equal(t, all, blank)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"title", Filter{Query: "backend"}, []string{backend}},
		{"description", Filter{Query: "FIGMA"}, []string{intern}},
		{"company name", Filter{Query: "acme"}, []string{backend, intern}},
		{"industry", Filter{Industry: "robotics"}, []string{backend}},
		{"location", Filter{Location: "berlin"}, []string{backend}},
		{"salary", Filter{Salary: "/hr"}, []string{intern}},
		{"experience", Filter{Experience: "senior"}, []string{backend}},
		{"combined", Filter{Query: "intern", Location: "berlin"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			board, err := f.svc.ListPublic(ctx, tc.filter)
			require.NoError(t, err)
			var ids []string
			for _, l := range board {
				ids = append(ids, l.JobID)
			}
			assert.ElementsMatch(t, tc.want, ids)
		})
	}
}

func TestJoinDegradesForUnknownCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orphan := models.JobPosting{JobID: "JOB_zz_1", CompanyID: "CMP_zzzzzz", Title: "Ghost"}
	_, err := f.store.InsertJob(ctx, models.JobStatusApproved, orphan)
	require.NoError(t, err)

	board, err := f.svc.ListPublic(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "Unknown Company", board[0].Company.CompanyName)
	assert.Empty(t, board[0].Company.Website)
}

func TestJoinUsesCacheAndInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := cache.NewMemory()
	joiner := NewCompanyJoiner(f.store, c, time.Minute, zap.NewNop())

	assert.Equal(t, "Acme Robotics", joiner.Details(ctx, "CMP_ab12cd").CompanyName)

	_, err := f.store.UpdateAccount(ctx, "acc-employer", map[string]interface{}{"company_name": "Acme AI"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Robotics", joiner.Details(ctx, "CMP_ab12cd").CompanyName)

	joiner.Invalidate(ctx, "CMP_ab12cd")
	assert.Equal(t, "Acme AI", joiner.Details(ctx, "CMP_ab12cd").CompanyName)
}

func TestEditPendingUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.create(t, "Intern", nil)

	skills := SkillList("Rust")
	edited, err := f.svc.Edit(ctx, f.employer, job.JobID, EditInput{Title: "Senior Intern", SkillsRequired: &skills})
	require.NoError(t, err)
	assert.Equal(t, "Senior Intern", edited.Title)
	require.NotNil(t, edited.LastModified)

	stored, err := f.svc.Repository().Find(ctx, models.JobStatusPending, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Intern", stored.Title)
	assert.Equal(t, "Rust", stored.SkillsRequired)
	assert.Equal(t, "Remote", stored.Location)
	assert.NotNil(t, stored.LastModified)
	assert.Equal(t, job.DocID, stored.DocID)
}

func TestEditApprovedForcesReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.create(t, "Intern", nil)
	_, err := f.svc.Approve(ctx, f.admin, job.JobID)
	require.NoError(t, err)

	deadline := baseTime.Add(24 * time.Hour)
	edited, err := f.svc.Edit(ctx, f.employer, job.JobID, EditInput{Location: "Berlin", JobDeadline: &Date{Time: deadline}})
	require.NoError(t, err)
	assert.Nil(t, edited.ApprovedDate)

	assert.Equal(t, 0, f.store.Count(database.CollectionApprovedJobs, "job_id", job.JobID))
	stored, err := f.svc.Repository().Find(ctx, models.JobStatusPending, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "Berlin", stored.Location)
	require.NotNil(t, stored.JobDeadline)
	assert.True(t, deadline.Equal(*stored.JobDeadline))

	board, err := f.svc.ListPublic(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, board)
}

func TestEditRejectsOtherCompaniesAndEmptyChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.create(t, "Intern", nil)

	rival := addAccount(t, f.store, "acc-rival", "hr@rival.io", models.RoleEmployer, models.EmployerProfile{CompanyID: "CMP_ffffff"})
	_, err := f.svc.Edit(ctx, rival, job.JobID, EditInput{Title: "Mine now"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Edit(ctx, f.employer, job.JobID, EditInput{})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = f.svc.Edit(ctx, f.admin, job.JobID, EditInput{Title: "Fixed typo"})
	assert.NoError(t, err)
}

func TestListForEmployerScopesByCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.create(t, "Intern", nil)
	approvedJob := f.create(t, "Engineer", nil)
	_, err := f.svc.Approve(ctx, f.admin, approvedJob.JobID)
	require.NoError(t, err)

	_, err = f.store.InsertJob(ctx, models.JobStatusPending, models.JobPosting{JobID: "JOB_other_1", CompanyID: "CMP_other"})
	require.NoError(t, err)

	dash, err := f.svc.ListForEmployer(ctx, f.employer)
	require.NoError(t, err)
	assert.Equal(t, []string{mine.JobID}, jobIDs(dash.Pending))
	assert.Equal(t, []string{approvedJob.JobID}, jobIDs(dash.Approved))
}
