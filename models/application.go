package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Application struct {
	DocID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ApplicationDate time.Time          `bson:"application_date" json:"application_date"`
	JobID           string             `bson:"job_id" json:"job_id"`
	UserID          string             `bson:"user_id" json:"user_id"`
	ResumeID        string             `bson:"resume_id" json:"resume_id"`
	ResumeURL       string             `bson:"resume_url,omitempty" json:"resume_url,omitempty"`
	AccountID       string             `bson:"account_id" json:"-"`
}

func NewResumeID(userID string, at time.Time) string {
	return fmt.Sprintf("RESUME_%s_%d", userID, at.UnixMilli())
}
