package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"geoevents.io/geoevents/internal/config"
	"geoevents.io/geoevents/internal/domain"
)

// Extractor interprets post metadata as a structured event.
type Extractor interface {
	Extract(ctx context.Context, meta *domain.VideoMetadata) (*domain.ExtractedEvent, error)
}

// ErrExtractorDisabled is returned when no LLM endpoint is configured.
var ErrExtractorDisabled = errors.New("llm endpoint not configured")

const systemPrompt = "You are an intelligence analyst extracting structured event data " +
	"from social media posts. Always respond with valid JSON."

// LLMExtractor calls an OpenAI-compatible chat completions endpoint with a
// strict JSON schema response format.
type LLMExtractor struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	cb       *gobreaker.CircuitBreaker[[]byte]
}

// NewLLMExtractor creates an extractor for cfg.
func NewLLMExtractor(cfg config.LLMConfig) *LLMExtractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LLMExtractor{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     &http.Client{Timeout: timeout},
		cb:       newBreaker("llm", time.Minute),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract sends meta to the model and returns the normalized result.
func (x *LLMExtractor) Extract(ctx context.Context, meta *domain.VideoMetadata) (*domain.ExtractedEvent, error) {
	if x.endpoint == "" {
		return nil, ErrExtractorDisabled
	}

	payload, err := json.Marshal(chatRequest{
		Model: x.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(meta)},
		},
		ResponseFormat: map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "event_extraction",
				"strict": true,
				"schema": extractionSchema,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode llm request: %w", err)
	}

	body, err := execute(x.cb, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.endpoint+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if x.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+x.apiKey)
		}
		return doJSON(x.http, req)
	})
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, errors.New("no response from AI")
	}
	return ParseExtraction(resp.Choices[0].Message.Content, meta)
}

// ParseExtraction decodes model output and normalizes it against the
// catalogues. The output is untrusted: missing required fields are errors,
// an unknown category becomes "strange", an unknown borough is dropped and
// an unparseable eventDate falls back to the post time.
func ParseExtraction(content string, meta *domain.VideoMetadata) (*domain.ExtractedEvent, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var ev domain.ExtractedEvent
	if err := json.Unmarshal([]byte(content), &ev); err != nil {
		return nil, fmt.Errorf("llm returned invalid JSON: %w", err)
	}

	ev.Title = strings.TrimSpace(ev.Title)
	ev.Description = strings.TrimSpace(ev.Description)
	ev.LocationName = strings.TrimSpace(firstNonEmpty(ev.LocationName, ev.Location))
	ev.Location = strings.TrimSpace(firstNonEmpty(ev.Location, ev.LocationName))

	var missing []string
	if ev.Title == "" {
		missing = append(missing, "title")
	}
	if ev.Description == "" {
		missing = append(missing, "description")
	}
	if ev.LocationName == "" {
		missing = append(missing, "locationName")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("llm output missing %s", strings.Join(missing, ", "))
	}

	ev.Title = truncate(ev.Title, 255)
	ev.LocationName = truncate(ev.LocationName, 255)
	ev.Category = domain.NormalizeCategory(ev.Category)
	ev.Subcategories = domain.NormalizeSubcategories(ev.Category, ev.Subcategories)
	if b, ok := domain.CanonicalBorough(ev.Borough); ok {
		ev.Borough = b
	} else {
		ev.Borough = ""
	}

	if _, err := parseLooseDate(ev.EventDate); err != nil {
		posted := time.Now().UTC()
		if meta != nil && meta.PostedAt > 0 {
			posted = time.Unix(meta.PostedAt, 0).UTC()
		}
		ev.EventDate = posted.Format(time.RFC3339)
	}
	return &ev, nil
}

var looseDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseLooseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range looseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func buildPrompt(meta *domain.VideoMetadata) string {
	cats := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		cats[i] = c.ID
	}

	var b strings.Builder
	b.WriteString("Analyze this social media post and extract event information for a London geo-events map.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", meta.Title)
	fmt.Fprintf(&b, "Description: %s\n", meta.Description)
	if meta.Author != "" {
		fmt.Fprintf(&b, "Author: %s\n", meta.Author)
	}
	fmt.Fprintf(&b, "Hashtags: %s\n", strings.Join(meta.Hashtags, ", "))
	if meta.PostedAt > 0 {
		fmt.Fprintf(&b, "Posted: %s\n", time.Unix(meta.PostedAt, 0).UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "\nCategory must be one of: %s.\n", strings.Join(cats, ", "))
	b.WriteString("eventDate must be an ISO 8601 timestamp. borough must be a London borough name or null. ")
	b.WriteString("Use null for anything not stated. Default to London for ambiguous UK locations.")
	return b.String()
}

var (
	nullableString = map[string]any{"type": []string{"string", "null"}}
	stringList     = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
)

var extractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":            map[string]any{"type": "string"},
		"description":      map[string]any{"type": "string"},
		"category":         map[string]any{"type": "string"},
		"subcategories":    stringList,
		"tags":             stringList,
		"eventDate":        map[string]any{"type": "string"},
		"location":         map[string]any{"type": "string"},
		"locationName":     map[string]any{"type": "string"},
		"borough":          nullableString,
		"peopleInvolved":   nullableString,
		"backgroundInfo":   nullableString,
		"details":          nullableString,
		"isCrime":          map[string]any{"type": "boolean"},
		"credibilityScore": map[string]any{"type": []string{"number", "null"}},
	},
	"required": []string{
		"title", "description", "category", "subcategories", "tags",
		"eventDate", "location", "locationName", "isCrime",
	},
	"additionalProperties": true,
}
