package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoevents.io/geoevents/internal/domain"
)

func event(category, borough string, at time.Time) *domain.Event {
	e := &domain.Event{Category: category, EventDate: at}
	if borough != "" {
		e.Borough = &borough
	}
	return e
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)

	stats := Aggregate([]*domain.Event{
		event("crime", "Camden", jan),
		event("crime", "Hackney", feb),
		event("fire", "Camden", feb),
		event("weather", "", jan),
	})

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, []domain.NameCount{
		{Name: "crime", Count: 2},
		{Name: "fire", Count: 1},
		{Name: "weather", Count: 1},
	}, stats.ByCategory)
	assert.Equal(t, []domain.NameCount{
		{Name: "Camden", Count: 2},
		{Name: "Hackney", Count: 1},
	}, stats.ByBorough)
	assert.Equal(t, []domain.MonthCount{
		{Month: "2024-01", Count: 2},
		{Month: "2024-02", Count: 2},
	}, stats.ByMonth)
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	stats := Aggregate(nil)
	assert.Zero(t, stats.Total)
	assert.NotNil(t, stats.ByCategory)
	assert.NotNil(t, stats.ByBorough)
	assert.NotNil(t, stats.ByMonth)
}

func TestAggregate_TopTenBoroughs(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var events []*domain.Event
	for i, b := range domain.Boroughs[:12] {
		for n := 0; n <= i; n++ {
			events = append(events, event("crime", b, at))
		}
	}

	stats := Aggregate(events)
	require.Len(t, stats.ByBorough, 10)
	assert.Equal(t, domain.Boroughs[11], stats.ByBorough[0].Name)
	assert.Equal(t, 12, stats.ByBorough[0].Count)
	for i := 1; i < len(stats.ByBorough); i++ {
		assert.GreaterOrEqual(t, stats.ByBorough[i-1].Count, stats.ByBorough[i].Count)
	}
	assert.Equal(t, len(events), stats.Total)
}

func TestAggregate_MonthUsesUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)
	// 2024-03-01 01:00 at +02:00 is still February in UTC.
	stats := Aggregate([]*domain.Event{event("fire", "", time.Date(2024, 3, 1, 1, 0, 0, 0, loc))})
	require.Len(t, stats.ByMonth, 1)
	assert.Equal(t, "2024-02", stats.ByMonth[0].Month)
}

func TestStatisticsService_GetStats(t *testing.T) {
	t.Parallel()

	store := newMemEventStore()
	events := NewEventService(store)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := events.Create(ctx, 1, validInput(fmt.Sprintf("E%d", i), "transport", store.now))
		require.NoError(t, err)
	}

	stats, err := NewStatisticsService(store).GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, []domain.NameCount{{Name: "transport", Count: 3}}, stats.ByCategory)
	assert.Empty(t, stats.ByBorough)
}

func TestStatisticsService_GetStats_StoreError(t *testing.T) {
	t.Parallel()

	store := newMemEventStore()
	store.failErr = errStoreDown

	_, err := NewStatisticsService(store).GetStats(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}
