package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"geoevents.io/geoevents/internal/domain"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
	"geoevents.io/geoevents/internal/pkg/worker"
)

// memEventStore mirrors the SQL filter semantics of the repository.
type memEventStore struct {
	mu      sync.Mutex
	nextID  int64
	events  map[int64]*domain.Event
	now     time.Time
	failErr error
}

func newMemEventStore() *memEventStore {
	return &memEventStore{
		events: make(map[int64]*domain.Event),
		now:    time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memEventStore) Create(_ context.Context, e *domain.Event) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	m.nextID++
	stored := *e
	stored.ID = m.nextID
	stored.CreatedAt, stored.UpdatedAt = m.now, m.now
	if stored.Subcategories == nil {
		stored.Subcategories = []string{}
	}
	if stored.Tags == nil {
		stored.Tags = []string{}
	}
	m.events[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memEventStore) Get(_ context.Context, id int64) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFoundf(id)
	}
	out := *e
	return &out, nil
}

func (m *memEventStore) List(_ context.Context, f domain.EventFilter) ([]*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	cutoff, hasCutoff := f.TimePeriod.Cutoff(m.now)

	var out []*domain.Event
	for _, e := range m.events {
		if len(f.Categories) > 0 && !contains(f.Categories, e.Category) {
			continue
		}
		if len(f.Boroughs) > 0 && (e.Borough == nil || !contains(f.Boroughs, *e.Borough)) {
			continue
		}
		if hasCutoff && e.EventDate.Before(cutoff) {
			continue
		}
		if f.StartDate != nil && e.EventDate.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && e.EventDate.After(*f.EndDate) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.After(out[j].EventDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memEventStore) Categories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	for _, e := range m.events {
		seen[e.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memEventStore) Update(_ context.Context, id int64, p *domain.EventPatch) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFoundf(id)
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Tags != nil {
		e.Tags = *p.Tags
	}
	if p.Borough != nil {
		if *p.Borough == "" {
			e.Borough = nil
		} else {
			b := *p.Borough
			e.Borough = &b
		}
	}
	if p.IsVerified != nil {
		e.IsVerified = *p.IsVerified
	}
	e.UpdatedAt = m.now.Add(time.Minute)
	out := *e
	return &out, nil
}

func (m *memEventStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return apperrors.ErrEventNotFoundf(id)
	}
	delete(m.events, id)
	return nil
}

func (m *memEventStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// seqRunner runs rows one after another.
type seqRunner struct{}

func (seqRunner) ForEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		errs[i] = fn(ctx, i)
	}
	return errs
}

type memUserStore struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*domain.User
	touched chan int64
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		byID:    make(map[int64]*domain.User),
		touched: make(chan int64, 8),
	}
}

func (m *memUserStore) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return nil, apperrors.Conflict(apperrors.CodeUserExists, "user already exists")
		}
	}
	m.nextID++
	stored := *u
	stored.ID = m.nextID
	m.byID[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
	}
	out := *u
	return &out, nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
}

func (m *memUserStore) TouchLastSignedIn(_ context.Context, id int64) error {
	m.touched <- id
	return nil
}

// inlineRunner runs detached tasks synchronously.
type inlineRunner struct{}

func (inlineRunner) SubmitDetached(task worker.Task) error {
	task(context.Background())
	return nil
}

type memObjectStore struct {
	puts    map[string][]byte
	types   map[string]string
	failErr error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{puts: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memObjectStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if m.failErr != nil {
		return "", m.failErr
	}
	m.puts[key] = data
	m.types[key] = contentType
	return "https://cdn.example.com/bucket/" + key, nil
}

var errStoreDown = errors.New("connection refused")

func strPtr(s string) *string { return &s }
