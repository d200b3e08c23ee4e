package memstore

import (
	"context"

	"jobboard/database"
	"jobboard/models"
)

func (s *Store) ListJobs(_ context.Context, status models.JobStatus, companyID string) ([]models.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := database.JobCollection(status)
	if err := s.fail("ListJobs", coll); err != nil {
		return nil, err
	}

	field := ""
	if companyID != "" {
		field = "company_id"
	}
	var out []models.JobPosting
	for _, d := range s.match(coll, field, companyID) {
		var job models.JobPosting
		if err := fromDoc(d, &job); err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

func (s *Store) FindJob(_ context.Context, status models.JobStatus, jobID string) (models.JobPosting, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := database.JobCollection(status)
	if err := s.fail("FindJob", coll); err != nil {
		return models.JobPosting{}, false, err
	}

	docs := s.match(coll, "job_id", jobID)
	if len(docs) == 0 {
		return models.JobPosting{}, false, nil
	}
	var job models.JobPosting
	if err := fromDoc(docs[0], &job); err != nil {
		return models.JobPosting{}, false, err
	}
	return job, true, nil
}

func (s *Store) InsertJob(ctx context.Context, status models.JobStatus, job models.JobPosting) (models.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := database.JobCollection(status)
	if err := s.fail("InsertJob", coll); err != nil {
		return models.JobPosting{}, err
	}

	doc, err := s.insert(ctx, coll, job)
	if err != nil {
		return models.JobPosting{}, err
	}
	var out models.JobPosting
	if err := fromDoc(doc, &out); err != nil {
		return models.JobPosting{}, err
	}
	return out, nil
}

func (s *Store) DeleteJobs(ctx context.Context, status models.JobStatus, jobID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := database.JobCollection(status)
	if err := s.fail("DeleteJobs", coll); err != nil {
		return 0, err
	}
	return s.remove(ctx, coll, "job_id", jobID), nil
}

func (s *Store) UpdateJob(ctx context.Context, status models.JobStatus, jobID string, fields map[string]interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := database.JobCollection(status)
	if err := s.fail("UpdateJob", coll); err != nil {
		return 0, err
	}
	return s.update(ctx, coll, "job_id", jobID, fields)
}
