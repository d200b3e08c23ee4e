package memstore

import (
	"context"

	"jobboard/database"
	"jobboard/models"
)

func (s *Store) SaveSubscription(ctx context.Context, sub models.PushSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("SaveSubscription", database.CollectionSubscriptions); err != nil {
		return err
	}
	s.remove(ctx, database.CollectionSubscriptions, "account_id", sub.AccountID)
	_, err := s.insert(ctx, database.CollectionSubscriptions, sub)
	return err
}

func (s *Store) FindSubscription(_ context.Context, accountID string) (models.PushSubscription, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.match(database.CollectionSubscriptions, "account_id", accountID)
	if len(docs) == 0 {
		return models.PushSubscription{}, false, nil
	}
	var sub models.PushSubscription
	if err := fromDoc(docs[0], &sub); err != nil {
		return models.PushSubscription{}, false, err
	}
	return sub, true, nil
}

func (s *Store) DeleteSubscription(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(ctx, database.CollectionSubscriptions, "account_id", accountID)
	return nil
}
