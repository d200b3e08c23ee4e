package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"jobboard/cache"
	"jobboard/models"

	"go.uber.org/zap"
)

const unknownCompany = "Unknown Company"

// CompanyJoiner copies employer profile fields onto postings at read time.
// A missing employer degrades to placeholder values, never to an error.
type CompanyJoiner struct {
	accounts Accounts
	cache    cache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewCompanyJoiner returns a joiner that issues one lookup per posting. A
// non-nil cache with ttl > 0 turns it into a read-through lookup.
func NewCompanyJoiner(accounts Accounts, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CompanyJoiner {
	if ttl <= 0 {
		c = nil
	}
	return &CompanyJoiner{accounts: accounts, cache: c, ttl: ttl, logger: logger}
}

func placeholderCompany() models.CompanyDetails {
	return models.CompanyDetails{CompanyName: unknownCompany}
}

func (j *CompanyJoiner) Details(ctx context.Context, companyID string) models.CompanyDetails {
	if companyID == "" {
		return placeholderCompany()
	}

	if j.cache != nil {
		raw, err := j.cache.Get(ctx, cacheKey(companyID))
		if err == nil {
			var d models.CompanyDetails
			if json.Unmarshal(raw, &d) == nil {
				return d
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			j.logger.Warn("company cache read failed", zap.String("company_id", companyID), zap.Error(err))
		}
	}

	acc, ok, err := j.accounts.FindByCompanyID(ctx, companyID)
	if err != nil {
		j.logger.Warn("company lookup failed", zap.String("company_id", companyID), zap.Error(err))
		return placeholderCompany()
	}
	if !ok {
		j.logger.Debug("no employer for company", zap.String("company_id", companyID))
		return placeholderCompany()
	}
	emp, ok := acc.Employer()
	if !ok {
		return placeholderCompany()
	}

	d := emp.Details()
	if d.CompanyName == "" {
		d.CompanyName = unknownCompany
	}
	if j.cache != nil {
		if raw, err := json.Marshal(d); err == nil {
			if err := j.cache.Set(ctx, cacheKey(companyID), raw, j.ttl); err != nil {
				j.logger.Warn("company cache write failed", zap.String("company_id", companyID), zap.Error(err))
			}
		}
	}
	return d
}

func (j *CompanyJoiner) Join(ctx context.Context, job models.JobPosting) models.JobListing {
	skills := job.Skills()
	if skills == nil {
		skills = []string{}
	}
	return models.JobListing{
		JobPosting: job,
		Skills:     skills,
		Company:    j.Details(ctx, job.CompanyID),
	}
}

// Invalidate drops the cached details of companyID after a profile edit.
func (j *CompanyJoiner) Invalidate(ctx context.Context, companyID string) {
	if j.cache == nil || companyID == "" {
		return
	}
	if err := j.cache.Delete(ctx, cacheKey(companyID)); err != nil {
		j.logger.Warn("company cache invalidation failed", zap.String("company_id", companyID), zap.Error(err))
	}
}

func cacheKey(companyID string) string {
	return "company:" + companyID
}
