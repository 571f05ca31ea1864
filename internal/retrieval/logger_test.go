package retrieval

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	l := NewQueryLogger(&buf)

	l.Log(QueryLogEntry{
		IngestionID: "abc",
		Query:       "photosynthesis",
		Topic:       "biology",
		Stage1:      25,
		Stage2:      12,
		Reranked:    true,
		NumResults:  5,
		Duration:    42 * time.Millisecond,
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc", entry["ingestion_id"])
	assert.Equal(t, "biology", entry["topic"])
	assert.EqualValues(t, 25, entry["stage1_candidates"])
	assert.EqualValues(t, 42, entry["latency_ms"])
	assert.NotEmpty(t, entry["timestamp"])
}
