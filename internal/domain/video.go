package domain

import (
	"net/url"
	"strings"
)

// Platform is a social-media source for video submissions.
type Platform string

// Supported platforms.
const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformTwitter   Platform = "twitter"
)

// ParsePlatform validates an explicit platform name.
func ParsePlatform(s string) (Platform, bool) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformInstagram, PlatformTikTok, PlatformTwitter:
		return p, true
	case "x":
		return PlatformTwitter, true
	default:
		return "", false
	}
}

// DetectPlatform infers the platform from the URL hostname.
func DetectPlatform(raw string) (Platform, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "instagram"):
		return PlatformInstagram, true
	case strings.Contains(host, "tiktok"):
		return PlatformTikTok, true
	case strings.Contains(host, "twitter"), host == "x.com", strings.HasSuffix(host, ".x.com"):
		return PlatformTwitter, true
	default:
		return "", false
	}
}

// VideoMetadata is what a platform reports about a post.
type VideoMetadata struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Author       string   `json:"author,omitempty"`
	Hashtags     []string `json:"hashtags,omitempty"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	VideoURL     string   `json:"videoUrl,omitempty"`
	// PostedAt is a unix timestamp in seconds; zero when unknown.
	PostedAt int64 `json:"postedAt,omitempty"`
	// Stub is set when the platform lookup failed and placeholders were used.
	Stub bool `json:"stub"`
}

// ExtractedEvent is the structured interpretation of a video post.
type ExtractedEvent struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Subcategories  []string `json:"subcategories"`
	Tags           []string `json:"tags"`
	Location       string   `json:"location"` // free-text place guess for the geocoder
	LocationName   string   `json:"locationName"`
	Borough        string   `json:"borough"`
	EventDate      string   `json:"eventDate"`
	PeopleInvolved string   `json:"peopleInvolved"`
	BackgroundInfo string   `json:"backgroundInfo"`
	Details        string   `json:"details"`
	IsCrime        bool     `json:"isCrime"`
	Credibility    float64  `json:"credibilityScore"`
}

// Coordinates is a geocoded point formatted as decimal strings.
type Coordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// VideoSubmission asks the ingestion pipeline to create an event from a URL.
type VideoSubmission struct {
	URL      string   `json:"url" validate:"required,url"`
	Platform Platform `json:"platform,omitempty"`
}

// IngestResult is returned once an ingested event is persisted.
type IngestResult struct {
	Success bool   `json:"success"`
	EventID int64  `json:"eventId"`
	Title   string `json:"title"`
	Status  string `json:"status"`
}

// IngestStatusPending marks ingested events awaiting verification.
const IngestStatusPending = "pending"

// Confidence grades a borough match.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// BoroughMatch is the result of reverse-geocoding a point to a borough.
type BoroughMatch struct {
	Borough    *string    `json:"borough"`
	Confidence Confidence `json:"confidence"`
}
