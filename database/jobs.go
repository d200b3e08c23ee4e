package database

import (
	"context"

	"jobboard/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JobStore keeps postings in the pending_jobs and approved_jobs collections.
type JobStore struct {
	*DB
}

func NewJobStore(db *DB) *JobStore {
	return &JobStore{DB: db}
}

func (s *JobStore) ListJobs(ctx context.Context, status models.JobStatus, companyID string) ([]models.JobPosting, error) {
	filter := bson.M{}
	if companyID != "" {
		filter["company_id"] = companyID
	}

	opts := options.Find().SetSort(bson.D{{Key: "posting_date", Value: -1}})
	cursor, err := s.Collection(JobCollection(status)).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var jobs []models.JobPosting
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *JobStore) FindJob(ctx context.Context, status models.JobStatus, jobID string) (models.JobPosting, bool, error) {
	var job models.JobPosting
	err := s.Collection(JobCollection(status)).FindOne(ctx, bson.M{"job_id": jobID}).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return models.JobPosting{}, false, nil
	}
	if err != nil {
		return models.JobPosting{}, false, err
	}
	return job, true, nil
}

func (s *JobStore) InsertJob(ctx context.Context, status models.JobStatus, job models.JobPosting) (models.JobPosting, error) {
	job.DocID = primitive.NewObjectID()
	if _, err := s.Collection(JobCollection(status)).InsertOne(ctx, job); err != nil {
		return models.JobPosting{}, err
	}
	return job, nil
}

func (s *JobStore) DeleteJobs(ctx context.Context, status models.JobStatus, jobID string) (int64, error) {
	res, err := s.Collection(JobCollection(status)).DeleteMany(ctx, bson.M{"job_id": jobID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *JobStore) UpdateJob(ctx context.Context, status models.JobStatus, jobID string, fields map[string]interface{}) (int64, error) {
	set := bson.M{}
	unset := bson.M{}
	for k, v := range fields {
		if v == nil {
			unset[k] = ""
			continue
		}
		set[k] = v
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.Collection(JobCollection(status)).UpdateMany(ctx, bson.M{"job_id": jobID}, update)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}
