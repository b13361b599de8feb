package slots

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

type countingSource struct {
	slots []string
	err   error
	calls int
}

func (c *countingSource) GetAvailability(context.Context, string, string) ([]string, error) {
	c.calls++
	return c.slots, c.err
}

type fetchLog []string

func (f *fetchLog) ObserveSlotFetch(status string, _ bool) { *f = append(*f, status) }

func TestFallbackGrid(t *testing.T) {
	grid := FallbackGrid()
	require.Len(t, grid, 13)
	assert.Equal(t, "08:00 - 08:30", grid[0])
	assert.Equal(t, "11:30 - 12:00", grid[7])
	assert.Equal(t, "13:00 - 13:30", grid[8])
	assert.Equal(t, "15:00 - 15:30", grid[12])
	assert.NotContains(t, grid, "12:00 - 12:30")
}

func TestGridDropsRemainder(t *testing.T) {
	assert.Equal(t, []string{"09:00 - 09:45"}, Grid([]Window{{From: 540, To: 600}}, 45))
	assert.Nil(t, Grid(DefaultWindows, 0))
}

func TestFetch_MissingInputsSkipNetwork(t *testing.T) {
	src := &countingSource{slots: []string{"x"}}
	r := NewResolver(src, true, nil, logging.Discard())

	for _, args := range [][2]string{{"gt-1", ""}, {"", "2025-12-01"}, {" ", " "}} {
		res := r.Fetch(context.Background(), args[0], args[1])
		assert.Equal(t, StatusSkipped, res.Status)
		assert.Empty(t, res.Slots)
	}
	assert.Zero(t, src.calls)
}

func TestFetch_APISlotsVerbatim(t *testing.T) {
	src := &countingSource{slots: []string{"09:00 - 09:30", "Walk-in"}}
	var log fetchLog
	r := NewResolver(src, true, &log, logging.Discard())

	res := r.Fetch(context.Background(), "gt-1", "2025-12-01")
	assert.Equal(t, Result{Status: StatusAvailable, Slots: []string{"09:00 - 09:30", "Walk-in"}}, res)
	assert.Equal(t, fetchLog{"available"}, log)
}

func TestFetch_EmptyAndErrorAreDistinct(t *testing.T) {
	empty := NewResolver(&countingSource{}, true, nil, logging.Discard()).Fetch(context.Background(), "gt-1", "2025-12-01")
	assert.Equal(t, StatusUnavailable, empty.Status)
	assert.True(t, empty.Fallback)
	assert.Equal(t, FallbackGrid(), empty.Slots)

	down := NewResolver(&countingSource{err: errors.New("timeout")}, true, nil, logging.Discard()).Fetch(context.Background(), "gt-1", "2025-12-01")
	assert.Equal(t, StatusUnreachable, down.Status)
	assert.True(t, down.Fallback)
	assert.Equal(t, FallbackGrid(), down.Slots)
}

func TestFetch_FallbackDisabled(t *testing.T) {
	res := NewResolver(&countingSource{}, false, nil, logging.Discard()).Fetch(context.Background(), "gt-1", "2025-12-01")
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.False(t, res.Fallback)
	assert.Empty(t, res.Slots)
}

func TestTracker(t *testing.T) {
	var tr Tracker
	first := tr.Begin("gt-1", "2025-12-01")
	assert.True(t, tr.Current(first))

	second := tr.Begin("gt-2", "2025-12-01")
	assert.False(t, tr.Current(first))
	assert.True(t, tr.Current(second))
	assert.Greater(t, second.Generation, first.Generation)

	tr.Invalidate()
	assert.False(t, tr.Current(second))

	// Same key again is still a new generation.
	third := tr.Begin("gt-2", "2025-12-01")
	assert.NotEqual(t, second, third)
}
