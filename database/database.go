package database

import (
	"context"
	"time"

	"jobboard/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	CollectionUsers         = "users"
	CollectionPendingJobs   = "pending_jobs"
	CollectionApprovedJobs  = "approved_jobs"
	CollectionApplications  = "applications"
	CollectionSubscriptions = "subscriptions"
)

// JobCollection maps a posting's approval state to the collection holding it.
func JobCollection(status models.JobStatus) string {
	if status == models.JobStatusApproved {
		return CollectionApprovedJobs
	}
	return CollectionPendingJobs
}

type DB struct {
	Client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger

	// transactions require a replica set; standalone servers run multi-step
	// writes one by one.
	transactions bool
}

type Options struct {
	URI          string
	Database     string
	Transactions bool
}

// Connect dials MongoDB with up to three attempts and verifies the
// connection with a ping.
func Connect(ctx context.Context, opts Options, logger *zap.Logger) (*DB, error) {
	var (
		client *mongo.Client
		err    error
	)
	for attempt := 1; attempt <= 3; attempt++ {
		client, err = connectOnce(ctx, opts.URI)
		if err == nil {
			break
		}
		logger.Warn("MongoDB connection attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, err
	}

	d := &DB{
		Client:       client,
		db:           client.Database(opts.Database),
		logger:       logger,
		transactions: opts.Transactions,
	}
	if err := d.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	logger.Info("Connected to MongoDB", zap.String("database", opts.Database), zap.Bool("transactions", opts.Transactions))
	return d, nil
}

func connectOnce(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func (d *DB) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	_, err := d.db.Collection(CollectionUsers).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "company_id", Value: 1}}, Options: options.Index().SetSparse(true).SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return err
	}
	for _, coll := range []string{CollectionPendingJobs, CollectionApprovedJobs} {
		_, err := d.db.Collection(coll).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "job_id", Value: 1}}},
			{Keys: bson.D{{Key: "company_id", Value: 1}}},
		})
		if err != nil {
			return err
		}
	}
	_, err = d.db.Collection(CollectionApplications).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "job_id", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = d.db.Collection(CollectionSubscriptions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "account_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (d *DB) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

func (d *DB) Transactional() bool {
	return d.transactions
}

// RunInTransaction runs fn inside a multi-document transaction. The ctx
// passed to fn carries the session; store calls made with it join the
// transaction.
func (d *DB) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !d.transactions {
		return fn(ctx)
	}

	sess, err := d.Client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (d *DB) Disconnect() error {
	if d.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.Client.Disconnect(ctx); err != nil {
		return err
	}

	d.logger.Info("Disconnected from MongoDB")
	return nil
}
