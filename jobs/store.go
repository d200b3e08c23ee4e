package jobs

import (
	"context"

	"jobboard/models"
)

// Store is the persistence contract for postings. Every method takes the
// collection (pending or approved) the posting lives in.
type Store interface {
	ListJobs(ctx context.Context, status models.JobStatus, companyID string) ([]models.JobPosting, error)
	FindJob(ctx context.Context, status models.JobStatus, jobID string) (models.JobPosting, bool, error)
	InsertJob(ctx context.Context, status models.JobStatus, job models.JobPosting) (models.JobPosting, error)
	DeleteJobs(ctx context.Context, status models.JobStatus, jobID string) (int64, error)
	UpdateJob(ctx context.Context, status models.JobStatus, jobID string, fields map[string]interface{}) (int64, error)

	// RunInTransaction runs fn atomically when Transactional reports true;
	// otherwise fn's writes land one by one.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Transactional() bool
}

// Accounts resolves employer accounts for postings.
type Accounts interface {
	GetAccount(ctx context.Context, accountID string) (models.Account, bool, error)
	FindByCompanyID(ctx context.Context, companyID string) (models.Account, bool, error)
}
