package exerciselog

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"github.com/patric-chuzhbe/exercisetracker/internal/faults"
	"github.com/patric-chuzhbe/exercisetracker/internal/models"
)

// ErrInvalidDate is returned when a caller supplied date cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

var dateParser = &now.Config{
	WeekStartDay: time.Monday,
	TimeLocation: time.UTC,
	TimeFormats:  now.TimeFormats,
}

// CanonicalDate parses a loosely formatted date and returns its YYYY-MM-DD
// form. The time of day and any offset are dropped, not converted.
func CanonicalDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidDate
	}

	if t, err := time.Parse(models.DateLayout, raw); err == nil {
		return t.Format(models.DateLayout), nil
	}

	t, err := dateParser.Parse(raw)
	if err != nil {
		return "", ErrInvalidDate
	}

	return t.Format(models.DateLayout), nil
}

// FormatDate returns the canonical form of t in its own location.
func FormatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

// Normalize turns a submitted exercise into the form that is stored.
// A missing date becomes the calendar day of at.
func Normalize(raw models.RawExercise, at time.Time) (models.Exercise, error) {
	date := FormatDate(at)
	if strings.TrimSpace(raw.Date) != "" {
		var err error
		date, err = CanonicalDate(raw.Date)
		if err != nil {
			return models.Exercise{}, faults.Validation(faults.FieldError{
				Field:   "date",
				Message: "Cast to date failed for value \"" + raw.Date + "\" at path `date`",
			})
		}
	}

	return models.Exercise{
		Description: raw.Description,
		Duration:    models.Duration(CoerceNumber(raw.Duration)),
		Date:        date,
	}, nil
}

// CoerceNumber converts a decoded request value into a number the way a
// loosely typed client expects: empty string is 0, booleans are 0 or 1,
// anything unreadable is NaN.
func CoerceNumber(value any) float64 {
	switch v := value.(type) {
	case nil:
		return math.NaN()
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		return coerceString(v.String())
	case string:
		return coerceString(v)
	default:
		return math.NaN()
	}
}

func coerceString(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			n, err := strconv.ParseUint(s, 0, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}

	// strconv accepts spellings such as "inf", "nan" and hex floats that a
	// plain decimal reader does not.
	for _, r := range s {
		if !strings.ContainsRune("0123456789+-.eE", r) {
			return math.NaN()
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}

	return f
}
