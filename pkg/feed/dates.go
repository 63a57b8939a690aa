package feed

import (
	"strings"

	"github.com/araddon/dateparse"
	dps "github.com/markusmobius/go-dateparser"
)

// dateLayout is the date format google news accepts in after: and before: qualifiers
const dateLayout = "2006-01-02"

// normalizeDate converts a human date string to YYYY-MM-DD.
// Well-formed dates are handled by dateparse, natural language ones ("January 1 2024",
// "3 days ago") by go-dateparser.
func normalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", &DateParseError{Value: value}
	}

	if t, err := dateparse.ParseAny(value); err == nil {
		return t.Format(dateLayout), nil
	}

	dt, err := dps.Parse(nil, value)
	if err != nil {
		return "", &DateParseError{Value: value, Err: err}
	}
	if dt.Time.IsZero() {
		return "", &DateParseError{Value: value}
	}
	return dt.Time.Format(dateLayout), nil
}
