// Package repository provides PostgreSQL persistence for events and users.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"geoevents.io/geoevents/internal/domain"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EventRepository stores events.
type EventRepository struct {
	db  DBTX
	now func() time.Time
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db, now: time.Now}
}

// Create inserts e and returns the stored record with id and timestamps set.
func (r *EventRepository) Create(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	stored := *e
	now := r.now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	stored.EventDate = stored.EventDate.UTC()

	q, args, err := buildInsertQuery(&stored)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	if err := r.db.QueryRow(ctx, q, args...).Scan(&stored.ID); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	stored.Subcategories = nonNil(stored.Subcategories)
	stored.Tags = nonNil(stored.Tags)
	return &stored, nil
}

// Get returns the event with id or EVENT_NOT_FOUND.
func (r *EventRepository) Get(ctx context.Context, id int64) (*domain.Event, error) {
	q, args := buildGetQuery(id)
	e, err := scanEvent(r.db.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrEventNotFoundf(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return e, nil
}

// List returns events matching the relational part of f, newest first.
func (r *EventRepository) List(ctx context.Context, f domain.EventFilter) ([]*domain.Event, error) {
	q, args := buildListQuery(f, r.now())
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Categories returns the distinct stored categories in ascending order.
func (r *EventRepository) Categories(ctx context.Context) ([]string, error) {
	q, args := buildCategoriesQuery()
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return categories, nil
}

// Update applies p to the event with id and returns the updated record.
func (r *EventRepository) Update(ctx context.Context, id int64, p *domain.EventPatch) (*domain.Event, error) {
	q, args, err := buildUpdateQuery(id, p, r.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("encode event patch: %w", err)
	}
	tag, err := r.db.Exec(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("update event %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.ErrEventNotFoundf(id)
	}
	return r.Get(ctx, id)
}

// Delete removes the event with id; a missing id is EVENT_NOT_FOUND.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	q, args := buildDeleteQuery(id)
	tag, err := r.db.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEventNotFoundf(id)
	}
	return nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		e          domain.Event
		subs, tags *string
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Category, &subs, &tags,
		&e.EventDate, &e.Latitude, &e.Longitude, &e.LocationName, &e.Borough,
		&e.VideoURL, &e.ThumbnailURL, &e.SourceURL, &e.PeopleInvolved,
		&e.BackgroundInfo, &e.Details, &e.IsCrime, &e.IsVerified, &e.CreatedBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.Subcategories, err = decodeList(subs); err != nil {
		return nil, fmt.Errorf("decode subcategories of event %d: %w", e.ID, err)
	}
	if e.Tags, err = decodeList(tags); err != nil {
		return nil, fmt.Errorf("decode tags of event %d: %w", e.ID, err)
	}
	e.EventDate = e.EventDate.UTC()
	return &e, nil
}

// encodeList serializes a list column; empty lists become NULL.
func encodeList(in []string) (*string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// decodeList reads a list column; NULL and blank values decode to an empty list.
func decodeList(s *string) ([]string, error) {
	if s == nil || *s == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(*s), &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
