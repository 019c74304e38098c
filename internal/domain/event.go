// Package domain provides the domain models for the geo-events service.
//
// Repositories and services exchange these types; HTTP handlers render them
// directly as JSON.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Event is a geo-located incident record.
//
// Latitude and Longitude are kept as decimal strings so values round-trip
// without float formatting drift.
type Event struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Subcategories  []string  `json:"subcategories"`
	Tags           []string  `json:"tags"`
	EventDate      time.Time `json:"eventDate"`
	Latitude       string    `json:"latitude"`
	Longitude      string    `json:"longitude"`
	LocationName   string    `json:"locationName"`
	Borough        *string   `json:"borough"`
	VideoURL       *string   `json:"videoUrl"`
	ThumbnailURL   *string   `json:"thumbnailUrl"`
	SourceURL      *string   `json:"sourceUrl"`
	PeopleInvolved *string   `json:"peopleInvolved"`
	BackgroundInfo *string   `json:"backgroundInfo"`
	Details        *string   `json:"details"`
	IsCrime        bool      `json:"isCrime"`
	IsVerified     bool      `json:"isVerified"`
	CreatedBy      int64     `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// HasSubcategory reports whether any of the event's subcategories is in want.
func (e *Event) HasSubcategory(want []string) bool {
	for _, have := range e.Subcategories {
		for _, w := range want {
			if have == w {
				return true
			}
		}
	}
	return false
}

// EventInput is the payload for creating an event.
type EventInput struct {
	Title          string    `json:"title" validate:"required,max=255"`
	Description    string    `json:"description" validate:"required"`
	Category       string    `json:"category" validate:"required,category"`
	Subcategories  []string  `json:"subcategories,omitempty" validate:"omitempty,dive,required,max=100"`
	Tags           []string  `json:"tags,omitempty" validate:"omitempty,dive,required,max=100"`
	EventDate      time.Time `json:"eventDate" validate:"required"`
	Latitude       string    `json:"latitude" validate:"required,latitude"`
	Longitude      string    `json:"longitude" validate:"required,longitude"`
	LocationName   string    `json:"locationName" validate:"required,max=255"`
	Borough        *string   `json:"borough,omitempty" validate:"omitempty,borough"`
	VideoURL       *string   `json:"videoUrl,omitempty" validate:"omitempty,url"`
	ThumbnailURL   *string   `json:"thumbnailUrl,omitempty" validate:"omitempty,url"`
	SourceURL      *string   `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	PeopleInvolved *string   `json:"peopleInvolved,omitempty"`
	BackgroundInfo *string   `json:"backgroundInfo,omitempty"`
	Details        *string   `json:"details,omitempty"`
	IsCrime        bool      `json:"isCrime"`
	IsVerified     bool      `json:"isVerified"`
}

// Normalize trims text fields and turns blank optional strings into nil.
func (in *EventInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Latitude = strings.TrimSpace(in.Latitude)
	in.Longitude = strings.TrimSpace(in.Longitude)
	in.LocationName = strings.TrimSpace(in.LocationName)
	for _, p := range []**string{
		&in.Borough, &in.VideoURL, &in.ThumbnailURL, &in.SourceURL,
		&in.PeopleInvolved, &in.BackgroundInfo, &in.Details,
	} {
		*p = blankToNil(*p)
	}
	in.Subcategories = compactStrings(in.Subcategories)
	in.Tags = compactStrings(in.Tags)
}

// EventPatch carries the fields supplied to an update; nil means unchanged.
// An empty Borough clears the stored borough.
type EventPatch struct {
	Title          *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description    *string    `json:"description,omitempty" validate:"omitempty,min=1"`
	Category       *string    `json:"category,omitempty" validate:"omitempty,category"`
	Subcategories  *[]string  `json:"subcategories,omitempty"`
	Tags           *[]string  `json:"tags,omitempty"`
	EventDate      *time.Time `json:"eventDate,omitempty"`
	Latitude       *string    `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *string    `json:"longitude,omitempty" validate:"omitempty,longitude"`
	LocationName   *string    `json:"locationName,omitempty" validate:"omitempty,min=1,max=255"`
	Borough        *string    `json:"borough,omitempty" validate:"omitempty,borough"`
	VideoURL       *string    `json:"videoUrl,omitempty" validate:"omitempty,url"`
	ThumbnailURL   *string    `json:"thumbnailUrl,omitempty" validate:"omitempty,url"`
	SourceURL      *string    `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	PeopleInvolved *string    `json:"peopleInvolved,omitempty"`
	BackgroundInfo *string    `json:"backgroundInfo,omitempty"`
	Details        *string    `json:"details,omitempty"`
	IsCrime        *bool      `json:"isCrime,omitempty"`
	IsVerified     *bool      `json:"isVerified,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Subcategories == nil && p.Tags == nil && p.EventDate == nil &&
		p.Latitude == nil && p.Longitude == nil && p.LocationName == nil &&
		p.Borough == nil && p.VideoURL == nil && p.ThumbnailURL == nil &&
		p.SourceURL == nil && p.PeopleInvolved == nil && p.BackgroundInfo == nil &&
		p.Details == nil && p.IsCrime == nil && p.IsVerified == nil
}

// TimePeriod is a relative look-back window for event listing.
type TimePeriod string

// Supported time periods.
const (
	TimePeriodMonth     TimePeriod = "month"
	TimePeriodSixMonths TimePeriod = "6months"
	TimePeriodYear      TimePeriod = "year"
	TimePeriodFiveYears TimePeriod = "5years"
	TimePeriodTenYears  TimePeriod = "10years"
	TimePeriodAll       TimePeriod = "all"
)

// ParseTimePeriod validates s. The empty string is treated as "all".
func ParseTimePeriod(s string) (TimePeriod, error) {
	switch p := TimePeriod(strings.TrimSpace(s)); p {
	case "":
		return TimePeriodAll, nil
	case TimePeriodMonth, TimePeriodSixMonths, TimePeriodYear,
		TimePeriodFiveYears, TimePeriodTenYears, TimePeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("unknown time period %q", s)
	}
}

// Cutoff returns the earliest eventDate included by the period relative to
// now. ok is false when the period imposes no constraint.
func (p TimePeriod) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	switch p {
	case TimePeriodMonth:
		return now.AddDate(0, -1, 0), true
	case TimePeriodSixMonths:
		return now.AddDate(0, -6, 0), true
	case TimePeriodYear:
		return now.AddDate(-1, 0, 0), true
	case TimePeriodFiveYears:
		return now.AddDate(-5, 0, 0), true
	case TimePeriodTenYears:
		return now.AddDate(-10, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// EventFilter selects events for listing. Zero values impose no constraint.
type EventFilter struct {
	Categories    []string
	Subcategories []string
	TimePeriod    TimePeriod
	StartDate     *time.Time
	EndDate       *time.Time
	Boroughs      []string
}

// BulkRowError records one failed row of a bulk import. Row is 1-based.
type BulkRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BulkResult summarizes a bulk import. Success+Errors always equals Total.
type BulkResult struct {
	Success      int            `json:"success"`
	Errors       int            `json:"errors"`
	Total        int            `json:"total"`
	ErrorDetails []BulkRowError `json:"errorDetails"`
}

// UploadResult is the location of a stored object.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func compactStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := strings.TrimSpace(s); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
