package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sandeepkv93/medremind/internal/model"
	"github.com/sandeepkv93/medremind/internal/storage"
)

// Repository is the durable side of the store.
type Repository interface {
	CreateReminder(ctx context.Context, in storage.Reminder) error
	UpdateReminderStatus(ctx context.Context, id, status string) error
	DeleteReminder(ctx context.Context, id string) error
	ListReminders(ctx context.Context, filter storage.ReminderListFilter) ([]storage.Reminder, error)
}

// Store is the authoritative ordered collection of reminders. When a
// repository is attached every mutation is written through before the
// in-memory view changes.
type Store struct {
	repo Repository

	mu    sync.RWMutex
	items []model.Reminder
	index map[string]int
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo, index: make(map[string]int)}
}

// Insert appends r. It is validated as of its creation time, so a reminder
// can never be stored due before it was created.
func (s *Store) Insert(ctx context.Context, r model.Reminder) error {
	if err := r.Validate(r.CreatedAt); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[r.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
	}
	if s.repo != nil {
		if err := s.repo.CreateReminder(ctx, toEntity(r)); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
			}
			return fmt.Errorf("persist reminder %s: %w", r.ID, err)
		}
	}
	s.appendLocked(r)
	return nil
}

// Remove deletes id and returns the removed reminder. A pending reminder
// comes back as cancelled. Removing an unknown id reports false.
func (s *Store) Remove(ctx context.Context, id string) (model.Reminder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return model.Reminder{}, false, nil
	}
	if s.repo != nil {
		if err := s.repo.DeleteReminder(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return model.Reminder{}, false, fmt.Errorf("delete reminder %s: %w", id, err)
		}
	}
	removed := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindexLocked()
	if removed.Status == model.StatusPending {
		removed.Status = model.StatusCancelled
	}
	return removed, true, nil
}

// MarkFired records that the notification for id was delivered. It reports
// false when id is unknown or no longer pending.
func (s *Store) MarkFired(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok || s.items[i].Status != model.StatusPending {
		return false, nil
	}
	next, err := s.items[i].Transition(model.StatusFired)
	if err != nil {
		return false, err
	}
	if s.repo != nil {
		if err := s.repo.UpdateReminderStatus(ctx, id, string(next.Status)); err != nil {
			return false, fmt.Errorf("mark reminder %s fired: %w", id, err)
		}
	}
	s.items[i] = next
	return true, nil
}

// List returns a copy in insertion order.
func (s *Store) List() []model.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Reminder, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Get(id string) (model.Reminder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Reminder{}, false
	}
	return s.items[i], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Load reads persisted reminders without touching the in-memory view.
func (s *Store) Load(ctx context.Context) ([]model.Reminder, error) {
	if s.repo == nil {
		return nil, nil
	}
	rows, err := s.repo.ListReminders(ctx, storage.ReminderListFilter{})
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	out := make([]model.Reminder, 0, len(rows))
	for _, row := range rows {
		r, err := fromEntity(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// adopt appends a reminder that is already persisted.
func (s *Store) adopt(r model.Reminder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[r.ID]; ok {
		return false
	}
	s.appendLocked(r)
	return true
}

// purge deletes a persisted reminder that never entered the in-memory view.
func (s *Store) purge(ctx context.Context, id string) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.DeleteReminder(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("purge reminder %s: %w", id, err)
	}
	return nil
}

func (s *Store) appendLocked(r model.Reminder) {
	s.index[r.ID] = len(s.items)
	s.items = append(s.items, r)
}

func (s *Store) reindexLocked() {
	clear(s.index)
	for i, r := range s.items {
		s.index[r.ID] = i
	}
}

func toEntity(r model.Reminder) storage.Reminder {
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return storage.Reminder{
		ID:        r.ID,
		Text:      r.Text,
		DueAt:     r.DueAt,
		Status:    string(r.Status),
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func fromEntity(row storage.Reminder) (model.Reminder, error) {
	status, err := model.ParseStatus(row.Status)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("reminder %s: %w", row.ID, err)
	}
	return model.Reminder{
		ID:        row.ID,
		Text:      row.Text,
		DueAt:     row.DueAt,
		Status:    status,
		CreatedAt: row.CreatedAt,
	}, nil
}
