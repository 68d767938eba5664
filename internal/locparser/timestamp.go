package locparser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Frank-Junran-Yang/portfolio/internal/model"
)

// Policy decides which timestamp wins when a row carries both a raw
// datetime and separate date/time/timezone columns.
type Policy string

const (
	// PreferDatetime uses the raw datetime column when it parses.
	PreferDatetime Policy = "prefer-datetime"
	// PreferParts uses the instant rebuilt from date, time and timezone when it parses.
	PreferParts Policy = "prefer-reconstructed"
	// Strict rejects rows whose two timestamps disagree.
	Strict Policy = "strict"
)

// ParsePolicy validates a policy name. An empty name means PreferDatetime.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PreferDatetime, nil
	case PreferDatetime, PreferParts, Strict:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown timestamp policy %q", s)
	}
}

var errTimestampMismatch = errors.New("datetime disagrees with date/time/timezone")

// offsetRe matches +HH:MM, -HHMM, +H and similar numeric UTC offsets.
var offsetRe = regexp.MustCompile(`^([+-])(\d{1,2}):?(\d{2})?$`)

// Layouts for the raw datetime column. Every layout carries a zone:
// a datetime without one cannot be placed on the timeline by itself.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02T15:04Z07:00",
}

var dateLayouts = []string{"2006-01-02", "01/02/2006"}

var timeLayouts = []string{"15:04:05.999999999", "15:04:05", "15:04"}

// parseOffset turns a timezone column into a fixed zone.
// The zone name is the column text so it round-trips on export.
func parseOffset(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	switch strings.ToUpper(tz) {
	case "":
		return nil, errors.New("empty timezone")
	case "Z", "UTC", "GMT":
		return time.UTC, nil
	}

	m := offsetRe.FindStringSubmatch(tz)
	if m == nil {
		return nil, fmt.Errorf("invalid timezone offset %q", tz)
	}
	hours, _ := strconv.Atoi(m[2])
	minutes := 0
	if m[3] != "" {
		minutes, _ = strconv.Atoi(m[3])
	}
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("timezone offset out of range %q", tz)
	}
	secs := hours*3600 + minutes*60
	if m[1] == "-" {
		secs = -secs
	}
	return time.FixedZone(tz, secs), nil
}

// reconstruct combines date, time-of-day and the row's own offset.
func reconstruct(date, clock, tz string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, errors.New("empty date")
	}
	if clock == "" {
		clock = "00:00:00"
	}

	loc, err := parseOffset(tz)
	if err != nil {
		return time.Time{}, err
	}

	for _, dl := range dateLayouts {
		for _, tl := range timeLayouts {
			if t, err := time.ParseInLocation(dl+" "+tl, date+" "+clock, loc); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q time %q", date, clock)
}

// parseDatetime parses the raw datetime column.
func parseDatetime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty datetime")
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse datetime %q", raw)
}

// resolveTimestamp applies the policy to one row. mismatch is true whenever both
// sources parsed and named different instants, whichever one was kept.
func resolveTimestamp(row int, r *model.LineRecord, policy Policy) (ts time.Time, src model.TimestampSource, mismatch bool, err error) {
	fromParts, partsErr := reconstruct(r.Date, r.Time, r.Timezone)
	fromRaw, rawErr := parseDatetime(r.Datetime)

	switch {
	case partsErr == nil && rawErr == nil:
		mismatch = !fromParts.Equal(fromRaw)
		if mismatch && policy == Strict {
			return time.Time{}, "", true, &MalformedRecordError{
				Row: row, Field: "datetime", Value: r.Datetime, Err: errTimestampMismatch,
			}
		}
		if policy == PreferParts {
			return fromParts, model.FromParts, mismatch, nil
		}
		return fromRaw, model.FromDatetime, mismatch, nil
	case rawErr == nil:
		return fromRaw, model.FromDatetime, false, nil
	case partsErr == nil:
		return fromParts, model.FromParts, false, nil
	}

	field, value, cause := "date", r.Date, partsErr
	if strings.TrimSpace(r.Date) == "" && strings.TrimSpace(r.Datetime) != "" {
		field, value, cause = "datetime", r.Datetime, rawErr
	}
	return time.Time{}, "", false, &MalformedRecordError{Row: row, Field: field, Value: value, Err: cause}
}
