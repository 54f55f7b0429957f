package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crudload/internal/runner"
)

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector(0)

	var wg sync.WaitGroup
	for w := 1; w <= 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 1; i <= 25; i++ {
				c.OnAttempt(runner.Attempt{Operation: runner.OpRead, Worker: w, Seq: i, Status: 200})
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, c.Records(), 200)
}

func TestCollector_Paths(t *testing.T) {
	c := NewCollector(2)
	c.OnAttempt(runner.Attempt{Operation: runner.OpDelete, Worker: 1, Seq: 1, ItemID: 42, Status: 200})
	c.OnAttempt(runner.Attempt{Operation: runner.OpDelete, Worker: 1, Seq: 2, Err: runner.ErrQueueExhausted})

	recs := c.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "/api/users/42", recs[0].Path)
	assert.True(t, recs[0].Success)
	assert.Equal(t, "/api/users", recs[1].Path)
	assert.True(t, recs[1].Exhausted)
	assert.False(t, recs[1].Success)
	assert.Equal(t, runner.ErrQueueExhausted.Error(), recs[1].Err)
}

func TestWrite(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run")
	summary := runner.RunSummary{
		Operation:    runner.OpUpdate,
		Outcome:      runner.OutcomeCompleted,
		Workers:      2,
		Attempted:    2,
		TotalSuccess: 1,
		TotalErrors:  1,
	}
	records := []Record{
		{TimeStamp: time.UnixMilli(1700000000000), Latency: 12 * time.Millisecond, Operation: runner.OpUpdate, Worker: 1, Seq: 1, Path: "/api/users/3", Status: 200, Success: true},
		{TimeStamp: time.UnixMilli(1700000000100), Latency: 3 * time.Millisecond, Operation: runner.OpUpdate, Worker: 2, Seq: 1, Path: "/api/users/4", Status: 404, Err: errors.New("not found").Error()},
	}

	jsonPath, csvPath, err := Write(prefix, summary, records)
	require.NoError(t, err)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var got runner.RunSummary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, summary.TotalErrors, got.TotalErrors)
	assert.Equal(t, runner.OpUpdate, got.Operation)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "timeStamp", rows[0][0])
	assert.Equal(t, []string{"1700000000000", "12", "PUT /api/users/3", "200", "OK", "Worker-1"}, rows[1][:6])
	assert.Equal(t, "false", rows[2][7])
	assert.Equal(t, "Not Found", rows[2][4])
	assert.Equal(t, "not found", rows[2][8])
	assert.Equal(t, "2", rows[2][11])
}

func TestWrite_BadDirectory(t *testing.T) {
	_, _, err := Write(filepath.Join(t.TempDir(), "missing", "run"), runner.RunSummary{}, nil)
	assert.Error(t, err)
}
