// Package memstore is an in-process document store implementing every store
// interface of the service. Documents round-trip through BSON so field names
// and omitempty rules match the MongoDB stores. It backs STORE=memory and the
// package tests.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu            sync.Mutex
	txMu          sync.Mutex
	collections   map[string][]bson.M
	transactional bool
	failures      map[string]error
}

type Option func(*Store)

// WithoutTransactions makes RunInTransaction apply writes one by one, like a
// standalone mongod.
func WithoutTransactions() Option {
	return func(s *Store) { s.transactional = false }
}

func New(opts ...Option) *Store {
	s := &Store{
		collections:   make(map[string][]bson.M),
		transactional: true,
		failures:      make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailNext makes the next call of op fail with err. op is a method name,
// optionally suffixed with the collection, e.g. "DeleteJobs:pending_jobs".
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Count returns the number of documents in collection matching field=value
// (all documents when field is empty).
func (s *Store) Count(collection, field string, value interface{}) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.match(collection, field, value))
}

func (s *Store) Transactional() bool {
	return s.transactional
}

type txKey struct{}

// tx holds the pre-transaction state of each collection the transaction
// wrote to.
type tx struct {
	saved map[string][]bson.M
}

// RunInTransaction restores the collections fn wrote to when fn fails.
// Only writes made with the context passed to fn belong to the transaction.
// Transactions are serialized.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactional {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	t := &tx{saved: make(map[string][]bson.M)}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		s.mu.Lock()
		for name, docs := range t.saved {
			s.collections[name] = docs
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// touch saves collection's current state the first time a transaction
// writes to it. Callers hold s.mu.
func (s *Store) touch(ctx context.Context, collection string) {
	t, ok := ctx.Value(txKey{}).(*tx)
	if !ok {
		return
	}
	if _, saved := t.saved[collection]; saved {
		return
	}
	docs := s.collections[collection]
	copied := make([]bson.M, len(docs))
	for i, d := range docs {
		copied[i] = cloneDoc(d)
	}
	t.saved[collection] = copied
}

// fail consumes an injected failure for op. Callers hold s.mu.
func (s *Store) fail(op, collection string) error {
	for _, key := range []string{op + ":" + collection, op} {
		if err, ok := s.failures[key]; ok {
			delete(s.failures, key)
			return err
		}
	}
	return nil
}

func (s *Store) insert(ctx context.Context, collection string, v interface{}) (bson.M, error) {
	doc, err := toDoc(v)
	if err != nil {
		return nil, err
	}
	s.touch(ctx, collection)
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID()
	}
	s.collections[collection] = append(s.collections[collection], doc)
	return cloneDoc(doc), nil
}

func (s *Store) match(collection, field string, value interface{}) []bson.M {
	var out []bson.M
	for _, d := range s.collections[collection] {
		if field == "" || equal(d[field], value) {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) remove(ctx context.Context, collection, field string, value interface{}) int64 {
	s.touch(ctx, collection)
	docs := s.collections[collection]
	kept := docs[:0]
	var removed int64
	for _, d := range docs {
		if equal(d[field], value) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	s.collections[collection] = kept
	return removed
}

func (s *Store) update(ctx context.Context, collection, field string, value interface{}, fields map[string]interface{}) (int64, error) {
	set, err := toDoc(fields)
	if err != nil {
		return 0, err
	}
	s.touch(ctx, collection)
	var n int64
	for _, d := range s.collections[collection] {
		if !equal(d[field], value) {
			continue
		}
		for k, v := range set {
			d[k] = v
		}
		n++
	}
	return n, nil
}

func toDoc(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("memstore: encode: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("memstore: decode: %w", err)
	}
	return doc, nil
}

func fromDoc(doc bson.M, out interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func cloneDoc(d bson.M) bson.M {
	out := make(bson.M, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// equal compares string fields; every lookup key in the service is a string.
func equal(a, b interface{}) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	return aok && bok && as == bs
}

func equalFold(a interface{}, b string) bool {
	as, ok := a.(string)
	return ok && strings.EqualFold(as, b)
}
