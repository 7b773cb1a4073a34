package roundservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeeTimeParser(t *testing.T) {
	now := time.Date(2026, 6, 12, 15, 0, 0, 0, time.UTC)
	parser := NewTeeTimeParser(time.UTC)

	t.Run("empty input defaults to now", func(t *testing.T) {
		got, err := parser.Parse("", now)
		require.NoError(t, err)
		assert.Equal(t, now, got)
	})

	t.Run("whitespace-only input defaults to now", func(t *testing.T) {
		got, err := parser.Parse("   ", now)
		require.NoError(t, err)
		assert.Equal(t, now, got)
	})

	t.Run("tomorrow morning resolves relative to now", func(t *testing.T) {
		got, err := parser.Parse("tomorrow at 8am", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 6, 13, 8, 0, 0, 0, time.UTC), got)
	})

	t.Run("clock time lands on the right day", func(t *testing.T) {
		got, err := parser.Parse("today at 5:30pm", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 6, 12, 17, 30, 0, 0, time.UTC), got)
	})

	t.Run("unparseable input is a validation failure", func(t *testing.T) {
		_, err := parser.Parse("the heat death of the universe", now)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Contains(t, err.Error(), "could not be parsed")
	})

	t.Run("result is normalized to UTC", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		local := NewTeeTimeParser(ny)

		got, err := local.Parse("tomorrow at 8am", now)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, got.Location())
		// 8am eastern is noon UTC in June.
		assert.Equal(t, time.Date(2026, 6, 13, 12, 0, 0, 0, time.UTC), got)
	})
}
