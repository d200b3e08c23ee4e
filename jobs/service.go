package jobs

import (
	"context"
	"strings"
	"time"

	"jobboard/apperr"
	"jobboard/events"
	"jobboard/models"
	"jobboard/session"
	"jobboard/telemetry"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobboard/jobs")

// Service implements the posting lifecycle:
//
//	pending --approve--> approved
//	approved --unapprove--> pending
//	pending --edit--> pending
//	approved --edit--> pending (edits force re-review)
//
// Expiry is not a state; expired postings are filtered from the public board.
type Service struct {
	repo     *Repository
	joiner   *CompanyJoiner
	accounts Accounts
	events   events.Sink
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now for stamping and deadline checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.repo.now = now
	}
}

func WithJoiner(j *CompanyJoiner) Option {
	return func(s *Service) { s.joiner = j }
}

func NewService(store Store, accounts Accounts, sink events.Sink, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     NewRepository(store, logger),
		accounts: accounts,
		events:   sink,
		logger:   logger,
		now:      time.Now,
	}
	s.joiner = NewCompanyJoiner(accounts, nil, 0, logger)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Repository() *Repository {
	return s.repo
}

func (s *Service) Joiner() *CompanyJoiner {
	return s.joiner
}

// EmployerJobs is the employer dashboard: pending postings exclude any job_id
// that is already approved.
type EmployerJobs struct {
	Pending  []models.JobPosting `json:"pending"`
	Approved []models.JobPosting `json:"approved"`
}

// ReviewQueue is the admin dashboard.
type ReviewQueue struct {
	Pending  []models.JobPosting `json:"pending"`
	Approved []models.JobPosting `json:"approved"`
}

func (s *Service) Create(ctx context.Context, sess *session.Session, in CreateInput) (models.JobPosting, error) {
	ctx, span := tracer.Start(ctx, "jobs.Create")
	defer span.End()

	emp, err := s.employerOf(ctx, sess)
	if err != nil {
		return models.JobPosting{}, err
	}
	if missing := in.missing(); len(missing) > 0 {
		return models.JobPosting{}, apperr.InvalidInput("Missing required fields: "+strings.Join(missing, ", "), nil)
	}

	now := s.now().UTC()
	job := models.JobPosting{
		JobID:           models.NewJobID(emp.CompanyID, now),
		CompanyID:       emp.CompanyID,
		Title:           strings.TrimSpace(in.Title),
		JobDescription:  in.JobDescription,
		Location:        in.Location,
		SalaryRange:     in.SalaryRange,
		ExperienceLevel: in.ExperienceLevel,
		SkillsRequired:  string(in.SkillsRequired),
		PostingDate:     now,
		Industry:        in.Industry,
	}
	if in.JobDeadline != nil {
		d := in.JobDeadline.Time
		job.JobDeadline = &d
	}
	if job.Industry == "" {
		job.Industry = emp.Industry
	}

	created, err := s.repo.Create(ctx, job)
	if err != nil {
		fail(span, err)
		return models.JobPosting{}, err
	}

	s.logger.Info("job created", zap.String("job_id", created.JobID), zap.String("company_id", created.CompanyID))
	s.emit(ctx, events.JobCreated, created, sess.Email)
	return created, nil
}

// Approve moves the pending posting jobID to the approved collection.
func (s *Service) Approve(ctx context.Context, sess *session.Session, jobID string) (models.JobPosting, error) {
	if err := requireAdmin(sess); err != nil {
		return models.JobPosting{}, err
	}
	job, ok, err := s.repo.store.FindJob(ctx, models.JobStatusPending, jobID)
	if err != nil {
		return models.JobPosting{}, apperr.Internal("Failed to fetch job", err)
	}
	if !ok {
		if _, found, _ := s.repo.store.FindJob(ctx, models.JobStatusApproved, jobID); found {
			return models.JobPosting{}, apperr.Conflict("Job is already approved", nil)
		}
		return models.JobPosting{}, apperr.NotFound("Job not found", nil)
	}
	return s.ApprovePosting(ctx, sess, job)
}

// ApprovePosting approves a posting the admin already holds, e.g. a row of the
// review list. It does not check that the posting is still pending: approving
// the same row twice leaves two approved documents with one job_id.
func (s *Service) ApprovePosting(ctx context.Context, sess *session.Session, job models.JobPosting) (models.JobPosting, error) {
	ctx, span := tracer.Start(ctx, "jobs.Approve", trace.WithAttributes(telemetry.String("job_id", job.JobID)))
	defer span.End()

	if err := requireAdmin(sess); err != nil {
		return models.JobPosting{}, err
	}

	approved, err := s.repo.MoveToApproved(ctx, job, sess.Email)
	if err != nil {
		fail(span, err)
		return models.JobPosting{}, err
	}

	s.logger.Info("job approved", zap.String("job_id", job.JobID), zap.String("approved_by", sess.Email))
	s.emit(ctx, events.JobApproved, approved, sess.Email)
	return approved, nil
}

func (s *Service) Unapprove(ctx context.Context, sess *session.Session, jobID string) (models.JobPosting, error) {
	ctx, span := tracer.Start(ctx, "jobs.Unapprove", trace.WithAttributes(telemetry.String("job_id", jobID)))
	defer span.End()

	if err := requireAdmin(sess); err != nil {
		return models.JobPosting{}, err
	}
	job, err := s.repo.Find(ctx, models.JobStatusApproved, jobID)
	if err != nil {
		return models.JobPosting{}, err
	}

	pending, err := s.repo.MoveToPending(ctx, job)
	if err != nil {
		fail(span, err)
		return models.JobPosting{}, err
	}

	s.logger.Info("job unapproved", zap.String("job_id", jobID), zap.String("by", sess.Email))
	s.emit(ctx, events.JobUnapproved, pending, sess.Email)
	return pending, nil
}

// Edit changes a posting in either collection. Editing an approved posting
// sends it back to pending for another review.
func (s *Service) Edit(ctx context.Context, sess *session.Session, jobID string, in EditInput) (models.JobPosting, error) {
	ctx, span := tracer.Start(ctx, "jobs.Edit", trace.WithAttributes(telemetry.String("job_id", jobID)))
	defer span.End()

	if sess == nil {
		return models.JobPosting{}, apperr.Auth("Authentication required", nil)
	}
	if in.empty() {
		return models.JobPosting{}, apperr.InvalidInput("No changes to update", nil)
	}

	job, status, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return models.JobPosting{}, err
	}
	if err := s.canModify(ctx, sess, job); err != nil {
		return models.JobPosting{}, err
	}

	edited, fields := in.apply(job, s.now().UTC())

	if status == models.JobStatusPending {
		if err := s.repo.UpdatePending(ctx, jobID, fields); err != nil {
			fail(span, err)
			return models.JobPosting{}, err
		}
	} else {
		edited, err = s.repo.MoveToPending(ctx, edited)
		if err != nil {
			fail(span, err)
			return models.JobPosting{}, err
		}
		s.logger.Info("approved job edited, back to review", zap.String("job_id", jobID))
	}

	s.emit(ctx, events.JobEdited, edited, sess.Email)
	return edited, nil
}

func (s *Service) ListForEmployer(ctx context.Context, sess *session.Session) (EmployerJobs, error) {
	emp, err := s.employerOf(ctx, sess)
	if err != nil {
		return EmployerJobs{}, err
	}

	approved, err := s.repo.ListApprovedByCompany(ctx, emp.CompanyID)
	if err != nil {
		return EmployerJobs{}, err
	}
	pending, err := s.repo.ListPendingByCompany(ctx, emp.CompanyID)
	if err != nil {
		return EmployerJobs{}, err
	}

	approvedIDs := make(map[string]struct{}, len(approved))
	for _, j := range approved {
		approvedIDs[j.JobID] = struct{}{}
	}
	visible := make([]models.JobPosting, 0, len(pending))
	for _, j := range pending {
		if _, dup := approvedIDs[j.JobID]; dup {
			continue
		}
		visible = append(visible, j)
	}

	return EmployerJobs{Pending: visible, Approved: approved}, nil
}

func (s *Service) ListForReview(ctx context.Context, sess *session.Session) (ReviewQueue, error) {
	if err := requireAdmin(sess); err != nil {
		return ReviewQueue{}, err
	}
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return ReviewQueue{}, err
	}
	approved, err := s.repo.ListApproved(ctx)
	if err != nil {
		return ReviewQueue{}, err
	}
	return ReviewQueue{Pending: pending, Approved: approved}, nil
}

// ListPublic returns approved, unexpired postings with company details that
// match filter.
func (s *Service) ListPublic(ctx context.Context, filter Filter) ([]models.JobListing, error) {
	ctx, span := tracer.Start(ctx, "jobs.ListPublic")
	defer span.End()

	approved, err := s.repo.ListApproved(ctx)
	if err != nil {
		fail(span, err)
		return nil, err
	}

	now := s.now()
	filter = filter.normalized()
	out := make([]models.JobListing, 0, len(approved))
	for _, job := range approved {
		if !job.ActiveAt(now) {
			continue
		}
		listing := s.joiner.Join(ctx, job)
		if !filter.empty() && !filter.match(listing) {
			continue
		}
		out = append(out, listing)
	}
	span.SetAttributes(telemetry.Int("jobs.count", len(out)))
	return out, nil
}

func (s *Service) GetPublic(ctx context.Context, jobID string) (models.JobListing, error) {
	job, err := s.repo.Find(ctx, models.JobStatusApproved, jobID)
	if err != nil {
		return models.JobListing{}, err
	}
	if !job.ActiveAt(s.now()) {
		return models.JobListing{}, apperr.NotFound("Job not found", nil)
	}
	return s.joiner.Join(ctx, job), nil
}

// OwnedBy returns the posting jobID when sess may manage it.
func (s *Service) OwnedBy(ctx context.Context, sess *session.Session, jobID string) (models.JobPosting, error) {
	job, _, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return models.JobPosting{}, err
	}
	if err := s.canModify(ctx, sess, job); err != nil {
		return models.JobPosting{}, err
	}
	return job, nil
}

func (s *Service) employerOf(ctx context.Context, sess *session.Session) (models.EmployerProfile, error) {
	if sess == nil {
		return models.EmployerProfile{}, apperr.Auth("Authentication required", nil)
	}
	if !sess.Is(models.RoleEmployer) {
		return models.EmployerProfile{}, apperr.Forbidden("Only employers can manage job postings", nil)
	}
	acc, ok, err := s.accounts.GetAccount(ctx, sess.AccountID)
	if err != nil {
		return models.EmployerProfile{}, apperr.Internal("Failed to fetch profile", err)
	}
	if !ok {
		return models.EmployerProfile{}, apperr.NotFound("Profile not found", nil)
	}
	emp, ok := acc.Employer()
	if !ok || emp.CompanyID == "" {
		return models.EmployerProfile{}, apperr.Forbidden("Account has no company", nil)
	}
	return emp, nil
}

func (s *Service) canModify(ctx context.Context, sess *session.Session, job models.JobPosting) error {
	if sess.Is(models.RoleAdmin) {
		return nil
	}
	emp, err := s.employerOf(ctx, sess)
	if err != nil {
		return err
	}
	if emp.CompanyID != job.CompanyID {
		return apperr.Forbidden("Job belongs to another company", nil)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, t events.Type, job models.JobPosting, actor string) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, events.Event{
		Type:      t,
		JobID:     job.JobID,
		CompanyID: job.CompanyID,
		Title:     job.Title,
		Actor:     actor,
		At:        s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("job event not delivered", zap.String("type", string(t)), zap.String("job_id", job.JobID), zap.Error(err))
	}
}

func requireAdmin(sess *session.Session) error {
	if sess == nil {
		return apperr.Auth("Authentication required", nil)
	}
	if !sess.Is(models.RoleAdmin) {
		return apperr.Forbidden("Admin access required", nil)
	}
	return nil
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (in EditInput) apply(job models.JobPosting, now time.Time) (models.JobPosting, map[string]interface{}) {
	fields := map[string]interface{}{}
	set := func(name string, dst *string, v string) {
		if v == "" {
			return
		}
		*dst = v
		fields[name] = v
	}
	set("title", &job.Title, strings.TrimSpace(in.Title))
	set("job_description", &job.JobDescription, in.JobDescription)
	set("location", &job.Location, in.Location)
	set("salary_range", &job.SalaryRange, in.SalaryRange)
	set("experience_level", &job.ExperienceLevel, in.ExperienceLevel)
	set("industry", &job.Industry, in.Industry)
	if in.SkillsRequired != nil {
		job.SkillsRequired = string(*in.SkillsRequired)
		fields["skills_required"] = job.SkillsRequired
	}
	switch {
	case in.ClearDeadline:
		job.JobDeadline = nil
		fields["job_deadline"] = nil
	case in.JobDeadline != nil:
		d := in.JobDeadline.Time
		job.JobDeadline = &d
		fields["job_deadline"] = d
	}
	job.LastModified = &now
	fields["last_modified"] = now
	return job, fields
}
