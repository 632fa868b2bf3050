package models

import (
	"encoding/json"
	"errors"
	"math"
)

// DateLayout is the canonical form of every stored exercise date.
const DateLayout = "2006-01-02"

const (
	StorageTypeUnknown = iota
	StorageTypeMongo
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// ErrDuplicateKey is returned by the storages when a user name is already taken.
var ErrDuplicateKey = errors.New("duplicate key")

// Duration is the numeric length of an exercise. It may hold NaN when the
// caller submitted something that is not a number; NaN is encoded as JSON null.
type Duration float64

func (d Duration) MarshalJSON() ([]byte, error) {
	return marshalFinite(float64(d))
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	f, err := unmarshalFinite(data)
	if err != nil {
		return err
	}
	*d = Duration(f)
	return nil
}

// Limit is the limit echoed back by a log query. Like Duration it may be
// NaN or infinite, both encoded as JSON null.
type Limit float64

func (l Limit) MarshalJSON() ([]byte, error) {
	return marshalFinite(float64(l))
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	f, err := unmarshalFinite(data)
	if err != nil {
		return err
	}
	*l = Limit(f)
	return nil
}

func marshalFinite(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func unmarshalFinite(data []byte) (float64, error) {
	if string(data) == "null" {
		return math.NaN(), nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// Exercise is a single normalized log entry as it is stored.
type Exercise struct {
	Description string   `json:"description" bson:"description" validate:"required"`
	Duration    Duration `json:"duration" bson:"duration"`
	Date        string   `json:"date" bson:"date"`
}

// RawExercise is an exercise as submitted by a client, before normalization.
// Duration keeps whatever the transport decoded: nil, string, json.Number,
// float64 or bool.
type RawExercise struct {
	UserID      string
	Description string
	Duration    any
	Date        string
}

// UserSummary is the projection of a user without its log.
type UserSummary struct {
	ID       string `json:"_id" bson:"_id"`
	UserName string `json:"userName" bson:"userName"`
}

// AddExerciseResponse merges the updated user projection with the appended entry.
type AddExerciseResponse struct {
	ID          string   `json:"_id"`
	UserName    string   `json:"userName"`
	Description string   `json:"description"`
	Duration    Duration `json:"duration"`
	Date        string   `json:"date"`
}

// LogQuery holds the parameters of a log request as they were received.
type LogQuery struct {
	UserID string
	From   string
	To     string
	Limit  string
}

// UserLog is the filtered, sorted and truncated view of a user's log.
// From, To and Limit echo back the parameters that were supplied.
type UserLog struct {
	ID       string     `json:"_id"`
	UserName string     `json:"userName"`
	Log      []Exercise `json:"log"`
	Count    int        `json:"count"`
	From     string     `json:"from,omitempty"`
	To       string     `json:"to,omitempty"`
	Limit    *Limit     `json:"limit,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
