package database

import (
	"context"
	"regexp"
	"strings"

	"jobboard/apperr"
	"jobboard/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AccountStore struct {
	*DB
}

func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{DB: db}
}

func (s *AccountStore) CreateAccount(ctx context.Context, doc models.AccountDocument) error {
	_, err := s.Collection(CollectionUsers).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), "company_id") {
			return apperr.Conflict("Company id already taken", err)
		}
		return apperr.Auth("Email already in use", err)
	}
	return err
}

// ListAccounts returns every account, newest first.
func (s *AccountStore) ListAccounts(ctx context.Context) ([]models.AccountDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.Collection(CollectionUsers).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []models.AccountDocument{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *AccountStore) GetAccountDocument(ctx context.Context, accountID string) (models.AccountDocument, bool, error) {
	return s.findOne(ctx, bson.M{"_id": accountID})
}

func (s *AccountStore) FindAccountByEmail(ctx context.Context, email string) (models.AccountDocument, bool, error) {
	pattern := "^" + regexp.QuoteMeta(email) + "$"
	return s.findOne(ctx, bson.M{"email": primitive.Regex{Pattern: pattern, Options: "i"}})
}

func (s *AccountStore) GetAccount(ctx context.Context, accountID string) (models.Account, bool, error) {
	return s.account(s.GetAccountDocument(ctx, accountID))
}

func (s *AccountStore) FindByCompanyID(ctx context.Context, companyID string) (models.Account, bool, error) {
	return s.account(s.findOne(ctx, bson.M{"company_id": companyID}))
}

func (s *AccountStore) UpdateAccount(ctx context.Context, accountID string, fields map[string]interface{}) (int64, error) {
	res, err := s.Collection(CollectionUsers).UpdateOne(ctx, bson.M{"_id": accountID}, bson.M{"$set": fields})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *AccountStore) findOne(ctx context.Context, filter bson.M) (models.AccountDocument, bool, error) {
	var doc models.AccountDocument
	err := s.Collection(CollectionUsers).FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return models.AccountDocument{}, false, nil
	}
	if err != nil {
		return models.AccountDocument{}, false, err
	}
	return doc, true, nil
}

func (s *AccountStore) account(doc models.AccountDocument, ok bool, err error) (models.Account, bool, error) {
	if err != nil || !ok {
		return models.Account{}, ok, err
	}
	acc, err := doc.Account()
	if err != nil {
		return models.Account{}, false, err
	}
	return acc, true, nil
}
