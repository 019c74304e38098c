package ingest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoevents.io/geoevents/internal/config"
	"geoevents.io/geoevents/internal/domain"
)

func chatCompletion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func TestLLMExtractor_Extract(t *testing.T) {
	t.Parallel()

	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletion(`{"title":"Bus fire on Oxford Street","description":"A bus caught fire",
			"category":"Transport","subcategories":["Bus Fire","nonsense"],"tags":["bus"],
			"eventDate":"2025-02-28T18:00:00Z","location":"Oxford Street","locationName":"Oxford Street, Westminster",
			"borough":"westminster","isCrime":false,"credibilityScore":70}`))
	}))
	defer srv.Close()

	x := NewLLMExtractor(config.LLMConfig{Endpoint: srv.URL + "/v1/", APIKey: "sk-test", Model: "gpt-4o-mini", Timeout: 5 * time.Second})
	ev, err := x.Extract(context.Background(), &domain.VideoMetadata{Title: "TikTok Video", Hashtags: []string{"london"}})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, systemPrompt, got.Messages[0].Content)
	assert.Contains(t, got.Messages[1].Content, "Hashtags: london")
	assert.Equal(t, "json_schema", got.ResponseFormat["type"])

	assert.Equal(t, "transport", ev.Category)
	assert.Equal(t, []string{"bus_fire"}, ev.Subcategories)
	assert.Equal(t, "Westminster", ev.Borough)
	assert.Equal(t, "2025-02-28T18:00:00Z", ev.EventDate)
	assert.Equal(t, float64(70), ev.Credibility)
}

func TestLLMExtractor_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"upstream error", http.StatusBadGateway, `{"error":"down"}`, "unexpected status 502"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no response from AI"},
		{"not json content", http.StatusOK, chatCompletion("sorry, I can't"), "invalid JSON"},
		{"missing fields", http.StatusOK, chatCompletion(`{"title":"","description":"x","locationName":"y"}`), "missing title"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			x := NewLLMExtractor(config.LLMConfig{Endpoint: srv.URL})
			_, err := x.Extract(context.Background(), &domain.VideoMetadata{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLLMExtractor_Disabled(t *testing.T) {
	t.Parallel()

	_, err := NewLLMExtractor(config.LLMConfig{}).Extract(context.Background(), &domain.VideoMetadata{})
	assert.ErrorIs(t, err, ErrExtractorDisabled)
}

func TestParseExtraction(t *testing.T) {
	t.Parallel()

	posted := time.Date(2025, 1, 5, 7, 0, 0, 0, time.UTC)
	meta := &domain.VideoMetadata{PostedAt: posted.Unix()}

	ev, err := ParseExtraction("```json\n"+`{"title":" Strange lights ","description":"Lights over the river",
		"category":"ufo","subcategories":["ufo"],"eventDate":"last night","location":"Thames",
		"locationName":"","borough":"Gotham","isCrime":false}`+"\n```", meta)
	require.NoError(t, err)

	assert.Equal(t, "Strange lights", ev.Title)
	assert.Equal(t, domain.CategoryStrange, ev.Category)
	assert.Equal(t, "Thames", ev.LocationName)
	assert.Empty(t, ev.Borough)
	assert.Equal(t, posted.Format(time.RFC3339), ev.EventDate)
}
