package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoevents.io/geoevents/internal/domain"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
	"geoevents.io/geoevents/internal/testutil"
)

func strptr(s string) *string { return &s }

func seedEvent(t *testing.T, repo *EventRepository, category, borough string, at time.Time) *domain.Event {
	t.Helper()
	e := &domain.Event{
		Title:        category + " in " + borough,
		Description:  "seeded",
		Category:     category,
		EventDate:    at,
		Latitude:     "51.5",
		Longitude:    "-0.12",
		LocationName: borough,
		CreatedBy:    1,
	}
	if borough != "" {
		e.Borough = strptr(borough)
	}
	created, err := repo.Create(context.Background(), e)
	require.NoError(t, err)
	return created
}

func TestEventRepository_CRUD(t *testing.T) {
	pool := testutil.OpenMigratedPool(t, "event-crud")
	repo := NewEventRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Event{
		Title:         "Brawl",
		Description:   "Outside a pub",
		Category:      "crime",
		Subcategories: []string{"a", "b"},
		EventDate:     time.Date(2024, 1, 15, 22, 0, 0, 0, time.UTC),
		Latitude:      "51.5390",
		Longitude:     "-0.1426",
		LocationName:  "Camden Town",
		Borough:       strptr("Camden"),
		CreatedBy:     42,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Subcategories)
	assert.Equal(t, []string{}, got.Tags)
	assert.Equal(t, "51.5390", got.Latitude)
	assert.Equal(t, int64(42), got.CreatedBy)

	title := "Mass brawl"
	empty := ""
	updated, err := repo.Update(ctx, created.ID, &domain.EventPatch{Title: &title, Borough: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Mass brawl", updated.Title)
	assert.Nil(t, updated.Borough)
	assert.Equal(t, "Outside a pub", updated.Description)
	assert.False(t, updated.UpdatedAt.Before(got.UpdatedAt))

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), apperrors.ErrNotFound)
	_, err = repo.Update(ctx, created.ID, &domain.EventPatch{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEventRepository_ListFilters(t *testing.T) {
	pool := testutil.OpenMigratedPool(t, "event-list")
	repo := NewEventRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	seedEvent(t, repo, "crime", "Camden", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	seedEvent(t, repo, "fire", "Hackney", now.AddDate(0, 0, -3))
	seedEvent(t, repo, "crime", "Hackney", now.AddDate(-2, 0, 0))
	seedEvent(t, repo, "weather", "", now.AddDate(0, -2, 0))

	all, err := repo.List(ctx, domain.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].EventDate.After(all[i-1].EventDate), "events must be newest first")
	}

	allPeriod, err := repo.List(ctx, domain.EventFilter{TimePeriod: domain.TimePeriodAll})
	require.NoError(t, err)
	assert.Len(t, allPeriod, len(all))

	scenario, err := repo.List(ctx, domain.EventFilter{
		Categories: []string{"crime"},
		Boroughs:   []string{"Camden"},
		TimePeriod: domain.TimePeriodAll,
	})
	require.NoError(t, err)
	require.Len(t, scenario, 1)
	assert.Equal(t, "crime", scenario[0].Category)

	accidents, err := repo.List(ctx, domain.EventFilter{Categories: []string{"accident"}})
	require.NoError(t, err)
	assert.Empty(t, accidents)

	month, err := repo.List(ctx, domain.EventFilter{TimePeriod: domain.TimePeriodMonth})
	require.NoError(t, err)
	require.Len(t, month, 1)
	assert.Equal(t, "fire", month[0].Category)

	boroughs, err := repo.List(ctx, domain.EventFilter{Boroughs: []string{"Camden", "Hackney"}})
	require.NoError(t, err)
	assert.Len(t, boroughs, 3)

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"crime", "fire", "weather"}, categories)
}

func TestUserRepository(t *testing.T) {
	pool := testutil.OpenMigratedPool(t, "users")
	repo := NewUserRepository(pool)
	ctx := context.Background()

	u, err := repo.Create(ctx, &domain.User{
		OpenID:       "local:ada@example.com",
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "hash",
		LoginMethod:  "password",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	_, err = repo.Create(ctx, &domain.User{OpenID: "other", Email: "ada@example.com"})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeUserExists, appErr.Code)

	require.NoError(t, repo.TouchLastSignedIn(ctx, u.ID))

	_, err = repo.GetByID(ctx, u.ID+100)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
