package database

import (
	"context"

	"jobboard/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ApplicationStore struct {
	*DB
}

func NewApplicationStore(db *DB) *ApplicationStore {
	return &ApplicationStore{DB: db}
}

func (s *ApplicationStore) InsertApplication(ctx context.Context, app models.Application) (models.Application, error) {
	app.DocID = primitive.NewObjectID()
	if _, err := s.Collection(CollectionApplications).InsertOne(ctx, app); err != nil {
		return models.Application{}, err
	}
	return app, nil
}

func (s *ApplicationStore) ListApplicationsByUser(ctx context.Context, userID string) ([]models.Application, error) {
	return s.list(ctx, bson.M{"user_id": userID})
}

func (s *ApplicationStore) ListApplicationsByJob(ctx context.Context, jobID string) ([]models.Application, error) {
	return s.list(ctx, bson.M{"job_id": jobID})
}

func (s *ApplicationStore) list(ctx context.Context, filter bson.M) ([]models.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "application_date", Value: -1}})
	cursor, err := s.Collection(CollectionApplications).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var apps []models.Application
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}
