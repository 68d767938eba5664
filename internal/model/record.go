package model

import "time"

// Fields is the ordered list of column names in the line_records table.
// Used for query building, field validation, and index management.
var Fields = []string{
	"seq", "commit_id", "file", "type", "line", "depth", "length",
	"author", "date", "time", "timezone", "datetime", "ts", "ts_unix", "ts_source",
}

// Columns is the ordered list of columns in a loc CSV export.
// It is also the header written by locparser.WriteRecords.
var Columns = []string{
	"file", "line", "type", "commit", "author", "date", "time",
	"timezone", "datetime", "depth", "length",
}

// TimestampSource records which input produced LineRecord.Timestamp.
type TimestampSource string

const (
	// FromDatetime means the raw datetime column was used.
	FromDatetime TimestampSource = "datetime"
	// FromParts means the instant was rebuilt from date, time and timezone.
	FromParts TimestampSource = "parts"
)

// LineRecord is one row of a loc dataset: a single changed line in a single commit.
// Values are never modified after the loader returns them.
type LineRecord struct {
	Seq      int64  `json:"seq" db:"seq"`
	Commit   string `json:"commit" db:"commit_id"`
	File     string `json:"file" db:"file"`
	Type     string `json:"type" db:"type"`
	Line     int    `json:"line" db:"line"`
	Depth    int    `json:"depth" db:"depth"`
	Length   int    `json:"length" db:"length"`
	Author   string `json:"author" db:"author"`
	Date     string `json:"date" db:"date"`
	Time     string `json:"time" db:"time"`
	Timezone string `json:"timezone" db:"timezone"`
	// Datetime is the raw datetime column, kept verbatim.
	Datetime        string          `json:"datetime" db:"datetime"`
	Timestamp       time.Time       `json:"timestamp" db:"ts"`
	TimestampSource TimestampSource `json:"timestampSource" db:"ts_source"`
}
