package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationJSON(t *testing.T) {
	data, err := json.Marshal(Exercise{Description: "run", Duration: Duration(math.NaN()), Date: "2024-01-05"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"description":"run","duration":null,"date":"2024-01-05"}`, string(data))

	data, err = json.Marshal(Exercise{Description: "run", Duration: 12.5, Date: "2024-01-05"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"description":"run","duration":12.5,"date":"2024-01-05"}`, string(data))

	var entry Exercise
	require.NoError(t, json.Unmarshal([]byte(`{"description":"swim","duration":null,"date":"2024-01-06"}`), &entry))
	assert.True(t, math.IsNaN(float64(entry.Duration)))
}

func TestUserLogOmitsAbsentParameters(t *testing.T) {
	data, err := json.Marshal(UserLog{ID: "u1", UserName: "alice", Log: []Exercise{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"u1","userName":"alice","log":[],"count":0}`, string(data))

	limit := Limit(2)
	data, err = json.Marshal(UserLog{ID: "u1", UserName: "alice", Log: []Exercise{}, From: "2024-01-01", Limit: &limit})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"u1","userName":"alice","log":[],"count":0,"from":"2024-01-01","limit":2}`, string(data))
}

func TestLimitJSON(t *testing.T) {
	for _, limit := range []Limit{Limit(math.Inf(1)), Limit(math.Inf(-1)), Limit(math.NaN())} {
		data, err := json.Marshal(UserLog{ID: "u1", UserName: "alice", Log: []Exercise{}, Limit: &limit})
		require.NoError(t, err)
		assert.JSONEq(t, `{"_id":"u1","userName":"alice","log":[],"count":0,"limit":null}`, string(data))
	}
}
