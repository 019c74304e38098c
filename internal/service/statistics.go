package service

import (
	"context"
	"sort"

	"geoevents.io/geoevents/internal/domain"
)

// maxBoroughBuckets caps the borough breakdown.
const maxBoroughBuckets = 10

// StatisticsService aggregates over every stored event.
type StatisticsService struct {
	store EventStore
}

// NewStatisticsService creates a new StatisticsService.
func NewStatisticsService(store EventStore) *StatisticsService {
	return &StatisticsService{store: store}
}

// GetStats scans all events and groups them in memory.
func (s *StatisticsService) GetStats(ctx context.Context) (*domain.Statistics, error) {
	events, err := s.store.List(ctx, domain.EventFilter{})
	if err != nil {
		return nil, err
	}
	return Aggregate(events), nil
}

// Aggregate computes the category, borough and month breakdowns.
//
// Total always equals the sum of the category counts. Boroughs are sorted by
// count descending and truncated to the top ten; months are UTC YYYY-MM keys
// in ascending order. Equal counts are ordered by name.
func Aggregate(events []*domain.Event) *domain.Statistics {
	byCategory := make(map[string]int)
	byBorough := make(map[string]int)
	byMonth := make(map[string]int)

	for _, e := range events {
		byCategory[e.Category]++
		if e.Borough != nil && *e.Borough != "" {
			byBorough[*e.Borough]++
		}
		byMonth[e.EventDate.UTC().Format("2006-01")]++
	}

	stats := &domain.Statistics{
		ByCategory: sortedCounts(byCategory),
		ByBorough:  sortedCounts(byBorough),
		ByMonth:    make([]domain.MonthCount, 0, len(byMonth)),
	}
	if len(stats.ByBorough) > maxBoroughBuckets {
		stats.ByBorough = stats.ByBorough[:maxBoroughBuckets]
	}

	for month, n := range byMonth {
		stats.ByMonth = append(stats.ByMonth, domain.MonthCount{Month: month, Count: n})
	}
	sort.Slice(stats.ByMonth, func(i, j int) bool {
		return stats.ByMonth[i].Month < stats.ByMonth[j].Month
	})

	for _, c := range stats.ByCategory {
		stats.Total += c.Count
	}
	return stats
}

func sortedCounts(m map[string]int) []domain.NameCount {
	out := make([]domain.NameCount, 0, len(m))
	for name, n := range m {
		out = append(out, domain.NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
