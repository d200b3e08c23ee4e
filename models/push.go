package models

import (
	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscription is one browser push endpoint per account.
type PushSubscription struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	AccountID string               `bson:"account_id"`
	Sub       webpush.Subscription `bson:"sub"`
}
