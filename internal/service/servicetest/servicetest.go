// Package servicetest provides in-memory collaborators for exercising the
// notification service without PostgreSQL, Redis or a broker.
package servicetest

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/postgres"

	"github.com/google/uuid"
)

// Store implements the notification and sales note repositories on maps.
// Its clock advances one second per write so timestamps are strictly ordered.
type Store struct {
	mu         sync.Mutex
	records    map[uuid.UUID]entity.Notification
	salesNotes map[int64]entity.SalesNote
	errs       map[string]error
	clock      time.Time
}

func NewStore() *Store {
	return &Store{
		records:    make(map[uuid.UUID]entity.Notification),
		salesNotes: make(map[int64]entity.SalesNote),
		errs:       make(map[string]error),
		clock:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FailOn makes every later call of method return err; a nil err clears it.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, method)
		return
	}
	s.errs[method] = err
}

func (s *Store) AddSalesNote(note entity.SalesNote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.salesNotes[note.ID] = note
}

// Snapshot returns the stored record without going through the service.
func (s *Store) Snapshot(id uuid.UUID) (entity.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.records[id]
	return clone(n), ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) Create(_ context.Context, _ postgres.QueryExecuter, n entity.Notification) (*entity.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.errs["Create"]; err != nil {
		return nil, err
	}

	if n.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		n.ID = id
	}
	if _, exists := s.records[n.ID]; exists {
		return nil, entity.ErrConflictingData
	}

	now := s.tick()
	n.CreatedAt = now
	n.UpdatedAt = now
	s.records[n.ID] = clone(n)

	out := clone(n)
	return &out, nil
}

func (s *Store) GetByID(_ context.Context, _ postgres.QueryExecuter, id uuid.UUID) (*entity.Notification, error) {
	return s.get("GetByID", id)
}

func (s *Store) GetForUpdate(_ context.Context, _ postgres.QueryExecuter, id uuid.UUID) (*entity.Notification, error) {
	return s.get("GetForUpdate", id)
}

func (s *Store) get(method string, id uuid.UUID) (*entity.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.errs[method]; err != nil {
		return nil, err
	}

	n, ok := s.records[id]
	if !ok {
		return nil, entity.ErrDataNotFound
	}
	out := clone(n)
	return &out, nil
}

func (s *Store) List(_ context.Context, _ postgres.QueryExecuter, filter entity.ListFilter) ([]entity.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.errs["List"]; err != nil {
		return nil, err
	}

	all := make([]entity.Notification, 0, len(s.records))
	for _, n := range s.records {
		if filter.ResourceID != nil && (n.ResourceID == nil || *n.ResourceID != *filter.ResourceID) {
			continue
		}
		all = append(all, clone(n))
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return bytes.Compare(all[i].ID[:], all[j].ID[:]) > 0
	})

	if filter.Page.Skip >= uint64(len(all)) {
		return []entity.Notification{}, nil
	}
	all = all[filter.Page.Skip:]
	if filter.Page.Limit < uint64(len(all)) {
		all = all[:filter.Page.Limit]
	}
	return all, nil
}

func (s *Store) Update(_ context.Context, _ postgres.QueryExecuter, id uuid.UUID, patch entity.NotificationPatch) (*entity.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.errs["Update"]; err != nil {
		return nil, err
	}

	n, ok := s.records[id]
	if !ok {
		return nil, entity.ErrDataNotFound
	}
	n = patch.Apply(n)
	n.UpdatedAt = s.tick()
	s.records[id] = clone(n)

	out := clone(n)
	return &out, nil
}

func (s *Store) MarkSent(_ context.Context, _ postgres.QueryExecuter, id uuid.UUID, sentAt time.Time) (*entity.Notification, error) {
	return s.mark("MarkSent", id, func(n *entity.Notification) {
		n.Status = entity.StatusSent
		n.SentAt = &sentAt
		n.ErrorMessage = nil
	})
}

func (s *Store) MarkFailed(_ context.Context, _ postgres.QueryExecuter, id uuid.UUID, reason string) (*entity.Notification, error) {
	return s.mark("MarkFailed", id, func(n *entity.Notification) {
		n.Status = entity.StatusFailed
		n.ErrorMessage = &reason
		n.SentAt = nil
	})
}

func (s *Store) mark(method string, id uuid.UUID, apply func(n *entity.Notification)) (*entity.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.errs[method]; err != nil {
		return nil, err
	}

	n, ok := s.records[id]
	if !ok || n.Status == entity.StatusSent {
		return nil, entity.ErrNotificationAlreadySent
	}
	apply(&n)
	n.UpdatedAt = s.tick()
	s.records[id] = clone(n)

	out := clone(n)
	return &out, nil
}

func (s *Store) Delete(_ context.Context, _ postgres.QueryExecuter, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.errs["Delete"]; err != nil {
		return err
	}

	if _, ok := s.records[id]; !ok {
		return entity.ErrDataNotFound
	}
	delete(s.records, id)
	return nil
}

// SalesNotes adapts the store to the sales note lookup, whose GetByID takes an int64.
func (s *Store) SalesNotes() *SalesNotes {
	return &SalesNotes{store: s}
}

type SalesNotes struct {
	store *Store
}

func (r *SalesNotes) GetByID(_ context.Context, _ postgres.QueryExecuter, id int64) (*entity.SalesNote, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.errs["SalesNotes.GetByID"]; err != nil {
		return nil, err
	}

	note, ok := r.store.salesNotes[id]
	if !ok {
		return nil, entity.ErrDataNotFound
	}
	return &note, nil
}

// TxManager runs transaction bodies one at a time, which is the strongest form
// of the row lock the service relies on.
type TxManager struct {
	mu    sync.Mutex
	calls atomic.Int64
}

func (m *TxManager) ExecuteInTransaction(_ context.Context, _ string, fn func(tx postgres.QueryExecuter) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Add(1)
	return fn(nil)
}

func (m *TxManager) Calls() int64 {
	return m.calls.Load()
}

// Gateway records what it was asked to publish and answers with MessageID or Err.
type Gateway struct {
	mu        sync.Mutex
	MessageID string
	Err       error
	Delay     time.Duration
	published []entity.Message
}

func (g *Gateway) Publish(ctx context.Context, msg entity.Message) (string, error) {
	if g.Delay > 0 {
		select {
		case <-time.After(g.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.published = append(g.published, msg)
	if g.Err != nil {
		return "", g.Err
	}
	return g.MessageID, nil
}

func (g *Gateway) Published() []entity.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]entity.Message(nil), g.published...)
}

func (g *Gateway) Set(messageID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.MessageID = messageID
	g.Err = err
}

// Cache is a map-backed notification cache with the same versioning rules as
// the Redis one: entries only move forward in UpdatedAt and tombstones win.
type Cache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]cacheEntry
}

type cacheEntry struct {
	notification entity.Notification
	deleted      bool
}

func NewCache() *Cache {
	return &Cache{entries: make(map[uuid.UUID]cacheEntry)}
}

func (c *Cache) Get(_ context.Context, id uuid.UUID) (*entity.Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || e.deleted {
		return nil, entity.ErrDataNotFound
	}
	out := clone(e.notification)
	return &out, nil
}

func (c *Cache) Set(_ context.Context, n *entity.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[n.ID]; ok && (e.deleted || !n.UpdatedAt.After(e.notification.UpdatedAt)) {
		return nil
	}
	c.entries[n.ID] = cacheEntry{notification: clone(*n)}
	return nil
}

func (c *Cache) Tombstone(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = cacheEntry{deleted: true}
	return nil
}

// Peek returns the live cached record, if any.
func (c *Cache) Peek(id uuid.UUID) (entity.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || e.deleted {
		return entity.Notification{}, false
	}
	return clone(e.notification), true
}

func (c *Cache) Has(id uuid.UUID) bool {
	_, ok := c.Peek(id)
	return ok
}

func clone(n entity.Notification) entity.Notification {
	if n.ResourceID != nil {
		v := *n.ResourceID
		n.ResourceID = &v
	}
	if n.ErrorMessage != nil {
		v := *n.ErrorMessage
		n.ErrorMessage = &v
	}
	if n.SentAt != nil {
		v := *n.SentAt
		n.SentAt = &v
	}
	return n
}
