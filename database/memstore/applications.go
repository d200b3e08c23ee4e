package memstore

import (
	"context"

	"jobboard/database"
	"jobboard/models"
)

func (s *Store) InsertApplication(ctx context.Context, app models.Application) (models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("InsertApplication", database.CollectionApplications); err != nil {
		return models.Application{}, err
	}
	doc, err := s.insert(ctx, database.CollectionApplications, app)
	if err != nil {
		return models.Application{}, err
	}
	var out models.Application
	err = fromDoc(doc, &out)
	return out, err
}

func (s *Store) ListApplicationsByUser(_ context.Context, userID string) ([]models.Application, error) {
	return s.listApplications("user_id", userID)
}

func (s *Store) ListApplicationsByJob(_ context.Context, jobID string) ([]models.Application, error) {
	return s.listApplications("job_id", jobID)
}

func (s *Store) listApplications(field, value string) ([]models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("ListApplications", database.CollectionApplications); err != nil {
		return nil, err
	}
	var out []models.Application
	for _, d := range s.match(database.CollectionApplications, field, value) {
		var app models.Application
		if err := fromDoc(d, &app); err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, nil
}
