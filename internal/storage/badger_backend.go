package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/Benny93/socialgraph-go/internal/graph"
)

// Key prefixes for different data types
const (
	prefixUser   = "u:" // u:<id> -> UserRecord JSON
	prefixFollow = "f:" // f:<follower>:<followee> -> empty
	prefixSearch = "s:" // s:<token>:<id> -> term frequency
)

// BadgerBackend is a BadgerDB-backed storage implementation.
type BadgerBackend struct {
	db          *badger.DB
	initialized bool
	mu          sync.RWMutex
	userCount   int
	edgeCount   int
}

// NewBadgerBackend creates a new BadgerDB backend.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(5).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true

	return b.db.View(func(txn *badger.Txn) error {
		b.userCount = countPrefix(txn, prefixUser)
		b.edgeCount = countPrefix(txn, prefixFollow)
		return nil
	})
}

// Close releases all resources held by the backend.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

type kv struct {
	key, value []byte
}

// BulkLoad replaces the entire store with the contents of the graph.
//
// Every entry is encoded before the old snapshot is dropped, so encoding
// errors and cancellation leave the stored snapshot untouched. An I/O error
// while writing the new entries leaves it incomplete until the next
// successful BulkLoad.
func (b *BadgerBackend) BulkLoad(ctx context.Context, g *graph.SocialGraph) error {
	users, edges, err := Snapshot(g)
	if err != nil {
		return err
	}

	entries := make([]kv, 0, len(users)+len(edges))
	for _, rec := range users {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling user: %w", err)
		}
		entries = append(entries, kv{userKey(rec.ID), data})
		for token, freq := range termFrequencies(rec) {
			entries = append(entries, kv{searchKey(token, rec.ID), []byte(strconv.Itoa(freq))})
		}
	}
	for _, e := range edges {
		entries = append(entries, kv{followKey(e.Follower, e.Followee), []byte{}})
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return fmt.Errorf("badger backend not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.db.DropPrefix([]byte(prefixUser), []byte(prefixFollow), []byte(prefixSearch)); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, e := range entries {
		if err := wb.Set(e.key, e.value); err != nil {
			return fmt.Errorf("writing %s: %w", e.key, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}

	b.userCount = len(users)
	b.edgeCount = len(edges)
	return nil
}

// LoadGraph rebuilds a graph from the stored snapshot.
func (b *BadgerBackend) LoadGraph(ctx context.Context) (*graph.SocialGraph, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.db == nil {
		return nil, fmt.Errorf("badger backend not initialized")
	}

	var users []UserRecord
	var edges []EdgeRecord

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixUser)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec UserRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("unmarshaling user %s: %w", it.Item().Key(), err)
			}
			users = append(users, rec)
		}

		edgeOpts := badger.DefaultIteratorOptions
		edgeOpts.Prefix = []byte(prefixFollow)
		edgeOpts.PrefetchValues = false
		edgeIt := txn.NewIterator(edgeOpts)
		defer edgeIt.Close()

		for edgeIt.Rewind(); edgeIt.Valid(); edgeIt.Next() {
			e, err := parseFollowKey(edgeIt.Item().KeyCopy(nil))
			if err != nil {
				return err
			}
			edges = append(edges, e)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return Restore(users, edges)
}

// Search ranks users by the summed frequency of the query's words in their
// name and posts, using the token index written by BulkLoad.
func (b *BadgerBackend) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	tokens := queryTokens(query)
	results := []SearchResult{}
	if len(tokens) == 0 {
		return results, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.db == nil {
		return nil, fmt.Errorf("badger backend not initialized")
	}

	err := b.db.View(func(txn *badger.Txn) error {
		scores := make(map[uuid.UUID]int)
		for _, token := range tokens {
			prefix := prefixSearch + token + ":"
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefix)
			it := txn.NewIterator(opts)

			for it.Rewind(); it.Valid(); it.Next() {
				item := it.Item()
				id, err := uuid.Parse(strings.TrimPrefix(string(item.Key()), prefix))
				if err != nil {
					continue
				}

				var freq int
				if err := item.Value(func(val []byte) error {
					var err error
					freq, err = strconv.Atoi(string(val))
					return err
				}); err != nil {
					it.Close()
					return fmt.Errorf("reading term frequency %s: %w", item.Key(), err)
				}
				scores[id] += freq
			}
			it.Close()
		}

		for id, score := range scores {
			item, err := txn.Get(userKey(id))
			if err != nil {
				continue // User record not found
			}

			var rec UserRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("unmarshaling user %s: %w", id, err)
			}

			results = append(results, SearchResult{
				UserID:  id,
				Name:    rec.Name,
				Score:   float64(score),
				Snippet: snippet(rec, tokens),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rankResults(results, limit), nil
}

// UserCount returns the number of stored users.
func (b *BadgerBackend) UserCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.userCount
}

// EdgeCount returns the number of stored follow edges.
func (b *BadgerBackend) EdgeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.edgeCount
}

func userKey(id uuid.UUID) []byte {
	return []byte(prefixUser + id.String())
}

func searchKey(token string, id uuid.UUID) []byte {
	return []byte(prefixSearch + token + ":" + id.String())
}

func followKey(follower, followee uuid.UUID) []byte {
	return []byte(prefixFollow + follower.String() + ":" + followee.String())
}

// parseFollowKey splits f:<follower>:<followee> back into an edge.
func parseFollowKey(key []byte) (EdgeRecord, error) {
	rest := strings.TrimPrefix(string(key), prefixFollow)
	follower, followee, ok := strings.Cut(rest, ":")
	if !ok {
		return EdgeRecord{}, fmt.Errorf("malformed follow key %q", key)
	}

	from, err := uuid.Parse(follower)
	if err != nil {
		return EdgeRecord{}, fmt.Errorf("parsing follower in %q: %w", key, err)
	}
	to, err := uuid.Parse(followee)
	if err != nil {
		return EdgeRecord{}, fmt.Errorf("parsing followee in %q: %w", key, err)
	}

	return EdgeRecord{Follower: from, Followee: to}, nil
}

// countPrefix counts keys under prefix without reading values.
func countPrefix(txn *badger.Txn, prefix string) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n
}
