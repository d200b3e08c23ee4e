package memstore

import (
	"context"
	"sort"

	"jobboard/apperr"
	"jobboard/database"
	"jobboard/models"
)

func (s *Store) CreateAccount(ctx context.Context, doc models.AccountDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("CreateAccount", database.CollectionUsers); err != nil {
		return err
	}
	for _, d := range s.collections[database.CollectionUsers] {
		if equalFold(d["email"], doc.Email) {
			return apperr.Auth("Email already in use", nil)
		}
		if equal(d["_id"], doc.ID) {
			return apperr.Conflict("Account already exists", nil)
		}
		if doc.CompanyID != "" && equal(d["company_id"], doc.CompanyID) {
			return apperr.Conflict("Company id already taken", nil)
		}
	}
	_, err := s.insert(ctx, database.CollectionUsers, doc)
	return err
}

// ListAccounts returns every account, newest first.
func (s *Store) ListAccounts(_ context.Context) ([]models.AccountDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("ListAccounts", database.CollectionUsers); err != nil {
		return nil, err
	}
	out := []models.AccountDocument{}
	for _, d := range s.collections[database.CollectionUsers] {
		var doc models.AccountDocument
		if err := fromDoc(d, &doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetAccountDocument(_ context.Context, accountID string) (models.AccountDocument, bool, error) {
	return s.findAccount("_id", accountID)
}

func (s *Store) FindAccountByEmail(_ context.Context, email string) (models.AccountDocument, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.collections[database.CollectionUsers] {
		if equalFold(d["email"], email) {
			var doc models.AccountDocument
			if err := fromDoc(d, &doc); err != nil {
				return models.AccountDocument{}, false, err
			}
			return doc, true, nil
		}
	}
	return models.AccountDocument{}, false, nil
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (models.Account, bool, error) {
	doc, ok, err := s.GetAccountDocument(ctx, accountID)
	if err != nil || !ok {
		return models.Account{}, ok, err
	}
	acc, err := doc.Account()
	return acc, err == nil, err
}

func (s *Store) FindByCompanyID(_ context.Context, companyID string) (models.Account, bool, error) {
	doc, ok, err := s.findAccount("company_id", companyID)
	if err != nil || !ok {
		return models.Account{}, ok, err
	}
	acc, err := doc.Account()
	return acc, err == nil, err
}

func (s *Store) UpdateAccount(ctx context.Context, accountID string, fields map[string]interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("UpdateAccount", database.CollectionUsers); err != nil {
		return 0, err
	}
	return s.update(ctx, database.CollectionUsers, "_id", accountID, fields)
}

func (s *Store) findAccount(field, value string) (models.AccountDocument, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("FindAccount", database.CollectionUsers); err != nil {
		return models.AccountDocument{}, false, err
	}
	docs := s.match(database.CollectionUsers, field, value)
	if len(docs) == 0 {
		return models.AccountDocument{}, false, nil
	}
	var doc models.AccountDocument
	if err := fromDoc(docs[0], &doc); err != nil {
		return models.AccountDocument{}, false, err
	}
	return doc, true, nil
}
