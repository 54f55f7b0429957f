package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"crudload/internal/runner"
	"crudload/internal/stats"
)

func testModel() Model {
	cfg := runner.Config{Operation: runner.OpRead, BaseURL: "http://x", Concurrency: 2, RequestsPerWorker: 5}
	return NewModel(make(runner.StatsUpdateChan, 1), cfg)
}

func TestModel_StatsUpdate(t *testing.T) {
	m := testModel()

	next, cmd := m.Update(statsMsg(stats.Snapshot{Requests: 5, Success: 4, Fail: 1, ErrorRate: 20, P90Ms: 12}))
	got := next.(Model)

	assert.NotNil(t, cmd)
	assert.Equal(t, uint64(5), got.LastReqs)
	assert.Equal(t, 0.5, got.percent())
	assert.Equal(t, uint64(12), got.LatencyLine.Last())
	assert.Contains(t, got.View(), "REQ: 5/10")
	assert.Contains(t, got.View(), "FAIL: 1 (20.0%)")
}

func TestModel_QuitWaitsForRun(t *testing.T) {
	m := testModel()

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	got := next.(Model)
	assert.True(t, got.Quitting)
	assert.Nil(t, cmd)
	assert.Contains(t, got.View(), "Waiting for workers")

	next, cmd = got.Update(doneMsg{summary: runner.RunSummary{Attempted: 10, TotalSuccess: 10}})
	got = next.(Model)
	assert.True(t, got.Done)
	assert.Equal(t, uint64(10), got.Stats.Success)
	assert.NotNil(t, cmd)
}

func TestModel_PercentCapped(t *testing.T) {
	m := testModel()
	m.Stats.Requests = 50
	assert.Equal(t, 1.0, m.percent())
}
