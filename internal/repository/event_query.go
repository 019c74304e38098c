package repository

import (
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"geoevents.io/geoevents/internal/domain"
)

const eventsTable = "events"

// Event columns in scan order.
const (
	colID             = "id"
	colTitle          = "title"
	colDescription    = "description"
	colCategory       = "category"
	colSubcategories  = "subcategories"
	colTags           = "tags"
	colEventDate      = "event_date"
	colLatitude       = "latitude"
	colLongitude      = "longitude"
	colLocationName   = "location_name"
	colBorough        = "borough"
	colVideoURL       = "video_url"
	colThumbnailURL   = "thumbnail_url"
	colSourceURL      = "source_url"
	colPeopleInvolved = "people_involved"
	colBackgroundInfo = "background_info"
	colDetails        = "details"
	colIsCrime        = "is_crime"
	colIsVerified     = "is_verified"
	colCreatedBy      = "created_by"
	colCreatedAt      = "created_at"
	colUpdatedAt      = "updated_at"
)

var eventColumns = []string{
	colID, colTitle, colDescription, colCategory, colSubcategories, colTags,
	colEventDate, colLatitude, colLongitude, colLocationName, colBorough,
	colVideoURL, colThumbnailURL, colSourceURL, colPeopleInvolved,
	colBackgroundInfo, colDetails, colIsCrime, colIsVerified, colCreatedBy,
	colCreatedAt, colUpdatedAt,
}

func postgres() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

// selectEvents starts a SELECT over every event column.
func selectEvents() *entsql.Selector {
	return postgres().Select(eventColumns...).From(entsql.Table(eventsTable))
}

// buildListQuery translates the relational part of f into SQL.
//
// Categories and boroughs are IN lists, the time period becomes a lower bound
// on event_date computed from now, and start/end dates are inclusive bounds.
// Every active constraint is AND-ed. Subcategories are not handled here; they
// live in a serialized column and are matched after the query runs.
func buildListQuery(f domain.EventFilter, now time.Time) (string, []any) {
	s := selectEvents()

	var preds []*entsql.Predicate
	if len(f.Categories) > 0 {
		preds = append(preds, entsql.In(s.C(colCategory), stringArgs(f.Categories)...))
	}
	if len(f.Boroughs) > 0 {
		preds = append(preds, entsql.In(s.C(colBorough), stringArgs(f.Boroughs)...))
	}
	if cutoff, ok := f.TimePeriod.Cutoff(now); ok {
		preds = append(preds, entsql.GTE(s.C(colEventDate), cutoff))
	}
	if f.StartDate != nil {
		preds = append(preds, entsql.GTE(s.C(colEventDate), *f.StartDate))
	}
	if f.EndDate != nil {
		preds = append(preds, entsql.LTE(s.C(colEventDate), *f.EndDate))
	}

	switch len(preds) {
	case 0:
	case 1:
		s.Where(preds[0])
	default:
		s.Where(entsql.And(preds...))
	}

	s.OrderBy(entsql.Desc(s.C(colEventDate)), entsql.Desc(s.C(colID)))
	return s.Query()
}

func buildGetQuery(id int64) (string, []any) {
	s := selectEvents()
	s.Where(entsql.EQ(s.C(colID), id))
	return s.Query()
}

func buildCategoriesQuery() (string, []any) {
	s := postgres().Select(colCategory).From(entsql.Table(eventsTable)).Distinct()
	s.OrderBy(colCategory)
	return s.Query()
}

func buildInsertQuery(e *domain.Event) (string, []any, error) {
	subs, err := encodeList(e.Subcategories)
	if err != nil {
		return "", nil, err
	}
	tags, err := encodeList(e.Tags)
	if err != nil {
		return "", nil, err
	}

	q, args := postgres().Insert(eventsTable).
		Columns(
			colTitle, colDescription, colCategory, colSubcategories, colTags,
			colEventDate, colLatitude, colLongitude, colLocationName, colBorough,
			colVideoURL, colThumbnailURL, colSourceURL, colPeopleInvolved,
			colBackgroundInfo, colDetails, colIsCrime, colIsVerified, colCreatedBy,
			colCreatedAt, colUpdatedAt,
		).
		Values(
			e.Title, e.Description, e.Category, subs, tags,
			e.EventDate, e.Latitude, e.Longitude, e.LocationName, e.Borough,
			e.VideoURL, e.ThumbnailURL, e.SourceURL, e.PeopleInvolved,
			e.BackgroundInfo, e.Details, e.IsCrime, e.IsVerified, e.CreatedBy,
			e.CreatedAt, e.UpdatedAt,
		).
		Returning(colID).
		Query()
	return q, args, nil
}

// buildUpdateQuery sets only the fields present in p. A non-nil but blank
// optional text field is stored as NULL.
func buildUpdateQuery(id int64, p *domain.EventPatch, now time.Time) (string, []any, error) {
	u := postgres().Update(eventsTable)

	setString := func(col string, v *string) {
		if v != nil {
			u.Set(col, *v)
		}
	}
	setNullable := func(col string, v *string) {
		switch {
		case v == nil:
		case *v == "":
			u.SetNull(col)
		default:
			u.Set(col, *v)
		}
	}
	setList := func(col string, v *[]string) error {
		if v == nil {
			return nil
		}
		encoded, err := encodeList(*v)
		if err != nil {
			return err
		}
		if encoded == nil {
			u.SetNull(col)
		} else {
			u.Set(col, *encoded)
		}
		return nil
	}

	setString(colTitle, p.Title)
	setString(colDescription, p.Description)
	setString(colCategory, p.Category)
	if err := setList(colSubcategories, p.Subcategories); err != nil {
		return "", nil, err
	}
	if err := setList(colTags, p.Tags); err != nil {
		return "", nil, err
	}
	if p.EventDate != nil {
		u.Set(colEventDate, *p.EventDate)
	}
	setString(colLatitude, p.Latitude)
	setString(colLongitude, p.Longitude)
	setString(colLocationName, p.LocationName)
	setNullable(colBorough, p.Borough)
	setNullable(colVideoURL, p.VideoURL)
	setNullable(colThumbnailURL, p.ThumbnailURL)
	setNullable(colSourceURL, p.SourceURL)
	setNullable(colPeopleInvolved, p.PeopleInvolved)
	setNullable(colBackgroundInfo, p.BackgroundInfo)
	setNullable(colDetails, p.Details)
	if p.IsCrime != nil {
		u.Set(colIsCrime, *p.IsCrime)
	}
	if p.IsVerified != nil {
		u.Set(colIsVerified, *p.IsVerified)
	}
	u.Set(colUpdatedAt, now)

	q, args := u.Where(entsql.EQ(colID, id)).Query()
	return q, args, nil
}

func buildDeleteQuery(id int64) (string, []any) {
	return postgres().Delete(eventsTable).Where(entsql.EQ(colID, id)).Query()
}

func stringArgs(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
