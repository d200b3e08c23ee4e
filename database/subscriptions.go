package database

import (
	"context"

	"jobboard/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SubscriptionStore struct {
	*DB
}

func NewSubscriptionStore(db *DB) *SubscriptionStore {
	return &SubscriptionStore{DB: db}
}

// SaveSubscription upserts the account's single push endpoint.
func (s *SubscriptionStore) SaveSubscription(ctx context.Context, sub models.PushSubscription) error {
	_, err := s.Collection(CollectionSubscriptions).UpdateOne(
		ctx,
		bson.M{"account_id": sub.AccountID},
		bson.M{"$set": bson.M{"account_id": sub.AccountID, "sub": sub.Sub}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *SubscriptionStore) FindSubscription(ctx context.Context, accountID string) (models.PushSubscription, bool, error) {
	var sub models.PushSubscription
	err := s.Collection(CollectionSubscriptions).FindOne(ctx, bson.M{"account_id": accountID}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return models.PushSubscription{}, false, nil
	}
	if err != nil {
		return models.PushSubscription{}, false, err
	}
	return sub, true, nil
}

func (s *SubscriptionStore) DeleteSubscription(ctx context.Context, accountID string) error {
	_, err := s.Collection(CollectionSubscriptions).DeleteOne(ctx, bson.M{"account_id": accountID})
	return err
}
