package report

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Row is a reports table row as stored
type Row struct {
	ID          uuid.UUID      `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Location    []byte         `db:"location"`
	Images      pq.StringArray `db:"images"`
	Status      string         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
	UserID      uuid.NullUUID  `db:"user_id"`
}

// Normalize converts a stored row into a Report. A malformed location is dropped
// rather than failing the row; an unknown status fails it.
func Normalize(row Row) (Report, error) {
	status := Status(row.Status)
	if !status.IsValid() {
		return Report{}, &DecodeError{Field: "status", Reason: strconv.Quote(row.Status) + " is not a known status"}
	}

	loc, err := ParseLocation(row.Location)
	if err != nil {
		log.Debug().Err(err).Str("report_id", row.ID.String()).Msg("Dropping malformed report location")
		loc = nil
	}

	images := make([]string, 0, len(row.Images))
	images = append(images, row.Images...)

	r := Report{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Location:    loc,
		Images:      images,
		Status:      status,
		CreatedAt:   row.CreatedAt,
	}
	if row.UpdatedAt.Valid {
		t := row.UpdatedAt.Time
		r.UpdatedAt = &t
	}
	if row.UserID.Valid {
		id := row.UserID.UUID
		r.UserID = &id
	}
	return r, nil
}

// ParseLocation decodes a stored location. An empty or null value means no location.
// Latitude and longitude may be JSON numbers or numeric strings; name must be a string.
func ParseLocation(raw []byte) (*Location, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, &DecodeError{Field: "location", Reason: "not a JSON object"}
	}

	lat, err := parseCoordinate(fields, "latitude")
	if err != nil {
		return nil, err
	}
	lng, err := parseCoordinate(fields, "longitude")
	if err != nil {
		return nil, err
	}

	nameRaw, ok := fields["name"]
	if !ok {
		return nil, &DecodeError{Field: "location.name", Reason: "missing"}
	}
	var name string
	if isNull(nameRaw) || json.Unmarshal(nameRaw, &name) != nil {
		return nil, &DecodeError{Field: "location.name", Reason: "not a string"}
	}

	return &Location{Latitude: lat, Longitude: lng, Name: name}, nil
}

func parseCoordinate(fields map[string]json.RawMessage, key string) (float64, error) {
	field := "location." + key

	raw, ok := fields[key]
	if !ok {
		return 0, &DecodeError{Field: field, Reason: "missing"}
	}
	if isNull(raw) {
		return 0, &DecodeError{Field: field, Reason: "null"}
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, &DecodeError{Field: field, Reason: "not a number"}
		}
		v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, &DecodeError{Field: field, Reason: "not a numeric string"}
		}
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &DecodeError{Field: field, Reason: "not finite"}
	}
	return v, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
