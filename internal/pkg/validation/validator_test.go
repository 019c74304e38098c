package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoevents.io/geoevents/internal/domain"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
)

func strptr(s string) *string { return &s }

func validInput() domain.EventInput {
	return domain.EventInput{
		Title:        "Fight outside station",
		Description:  "Two groups clashed",
		Category:     "crime",
		EventDate:    time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC),
		Latitude:     "51.5390",
		Longitude:    "-0.1426",
		LocationName: "Camden Town",
		Borough:      strptr("Camden"),
	}
}

func fieldCodes(t *testing.T, err error) map[string]string {
	t.Helper()
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok, "want AppError, got %T", err)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
	assert.Equal(t, apperrors.KindBadRequest, appErr.Kind())

	out := make(map[string]string, len(appErr.FieldErrors))
	for _, fe := range appErr.FieldErrors {
		out[fe.Field] = fe.Code
	}
	return out
}

func TestStruct_ValidEventInput(t *testing.T) {
	in := validInput()
	assert.NoError(t, Struct(&in))
}

func TestStruct_EventInputFailures(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*domain.EventInput)
		wantField string
		wantCode  string
	}{
		{"missing title", func(in *domain.EventInput) { in.Title = "" }, "title", "required"},
		{"unknown category", func(in *domain.EventInput) { in.Category = "aliens" }, "category", "category"},
		{"latitude out of range", func(in *domain.EventInput) { in.Latitude = "91.2" }, "latitude", "latitude"},
		{"longitude not numeric", func(in *domain.EventInput) { in.Longitude = "west" }, "longitude", "longitude"},
		{"unknown borough", func(in *domain.EventInput) { in.Borough = strptr("Gotham") }, "borough", "borough"},
		{"bad source url", func(in *domain.EventInput) { in.SourceURL = strptr("not a url") }, "sourceUrl", "url"},
		{"missing date", func(in *domain.EventInput) { in.EventDate = time.Time{} }, "eventDate", "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			codes := fieldCodes(t, Struct(&in))
			assert.Equal(t, tt.wantCode, codes[tt.wantField], "field errors: %v", codes)
		})
	}
}

func TestStruct_EventPatch(t *testing.T) {
	assert.NoError(t, Struct(&domain.EventPatch{}))

	empty := ""
	assert.NoError(t, Struct(&domain.EventPatch{Borough: &empty}), "empty borough clears the field")

	bad := "nope"
	codes := fieldCodes(t, Struct(&domain.EventPatch{Category: &bad}))
	assert.Equal(t, "category", codes["category"])
}
