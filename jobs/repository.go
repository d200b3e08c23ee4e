package jobs

import (
	"context"
	"time"

	"jobboard/apperr"
	"jobboard/models"

	"go.uber.org/zap"
)

// Repository is the single access path to postings for the admin, employer
// and public views. Moves between collections always write the destination
// copy before removing the source copy.
type Repository struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewRepository(store Store, logger *zap.Logger) *Repository {
	return &Repository{store: store, logger: logger, now: time.Now}
}

func (r *Repository) ListPending(ctx context.Context) ([]models.JobPosting, error) {
	return r.list(ctx, models.JobStatusPending, "")
}

func (r *Repository) ListApproved(ctx context.Context) ([]models.JobPosting, error) {
	return r.list(ctx, models.JobStatusApproved, "")
}

func (r *Repository) ListPendingByCompany(ctx context.Context, companyID string) ([]models.JobPosting, error) {
	return r.list(ctx, models.JobStatusPending, companyID)
}

func (r *Repository) ListApprovedByCompany(ctx context.Context, companyID string) ([]models.JobPosting, error) {
	return r.list(ctx, models.JobStatusApproved, companyID)
}

func (r *Repository) list(ctx context.Context, status models.JobStatus, companyID string) ([]models.JobPosting, error) {
	jobs, err := r.store.ListJobs(ctx, status, companyID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch jobs", err)
	}
	if jobs == nil {
		jobs = []models.JobPosting{}
	}
	return jobs, nil
}

// GetByID finds a posting by job_id. When a duplicate exists in both
// collections the approved copy wins.
func (r *Repository) GetByID(ctx context.Context, jobID string) (models.JobPosting, models.JobStatus, error) {
	for _, status := range []models.JobStatus{models.JobStatusApproved, models.JobStatusPending} {
		job, ok, err := r.store.FindJob(ctx, status, jobID)
		if err != nil {
			return models.JobPosting{}, "", apperr.Internal("Failed to fetch job", err)
		}
		if ok {
			return job, status, nil
		}
	}
	return models.JobPosting{}, "", apperr.NotFound("Job not found", nil)
}

func (r *Repository) Find(ctx context.Context, status models.JobStatus, jobID string) (models.JobPosting, error) {
	job, ok, err := r.store.FindJob(ctx, status, jobID)
	if err != nil {
		return models.JobPosting{}, apperr.Internal("Failed to fetch job", err)
	}
	if !ok {
		return models.JobPosting{}, apperr.NotFound("Job not found", nil)
	}
	return job, nil
}

func (r *Repository) Create(ctx context.Context, job models.JobPosting) (models.JobPosting, error) {
	created, err := r.store.InsertJob(ctx, models.JobStatusPending, job)
	if err != nil {
		return models.JobPosting{}, apperr.Internal("Failed to create job", err)
	}
	return created, nil
}

func (r *Repository) UpdatePending(ctx context.Context, jobID string, fields map[string]interface{}) error {
	n, err := r.store.UpdateJob(ctx, models.JobStatusPending, jobID, fields)
	if err != nil {
		return apperr.Internal("Failed to update job", err)
	}
	if n == 0 {
		return apperr.NotFound("Job not found", nil)
	}
	return nil
}

// MoveToApproved writes the approved copy of job and removes every pending
// copy with the same job_id. Approving a posting whose pending copy is
// already gone still writes a new approved copy.
func (r *Repository) MoveToApproved(ctx context.Context, job models.JobPosting, approvedBy string) (models.JobPosting, error) {
	approved := job.AsApproved(approvedBy, r.now().UTC())
	return r.move(ctx, approved, models.JobStatusPending, models.JobStatusApproved)
}

// MoveToPending writes job back to the pending collection without approval
// fields and removes every approved copy with the same job_id.
func (r *Repository) MoveToPending(ctx context.Context, job models.JobPosting) (models.JobPosting, error) {
	return r.move(ctx, job.AsPending(), models.JobStatusApproved, models.JobStatusPending)
}

func (r *Repository) move(ctx context.Context, job models.JobPosting, from, to models.JobStatus) (models.JobPosting, error) {
	log := r.logger.With(
		zap.String("job_id", job.JobID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	var written models.JobPosting
	err := r.store.RunInTransaction(ctx, func(ctx context.Context) error {
		if to == models.JobStatusPending {
			// stale pending duplicates left by earlier partial moves
			if _, err := r.store.DeleteJobs(ctx, models.JobStatusPending, job.JobID); err != nil {
				return apperr.Internal("Failed to move job", err)
			}
		}

		var err error
		written, err = r.store.InsertJob(ctx, to, job)
		if err != nil {
			return apperr.Internal("Failed to move job", err)
		}

		removed, err := r.store.DeleteJobs(ctx, from, job.JobID)
		if err != nil {
			return apperr.PartialFailure("Job copied but the old copy could not be removed", err)
		}
		if removed == 0 {
			log.Warn("no source copy to remove; destination now holds a duplicate")
		}
		return nil
	})

	if err == nil {
		return written, nil
	}
	if apperr.Is(err, apperr.KindPartialFailure) && !r.store.Transactional() {
		log.Error("partial move left a duplicate", zap.Error(err))
		return written, nil
	}
	return models.JobPosting{}, err
}
