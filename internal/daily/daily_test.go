package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDateKey(t *testing.T) {
	assert.Equal(t, "2024-03-09", DateKey(at("2024-03-10T03:59:59Z"), DefaultRollover), "before rollover belongs to previous day")
	assert.Equal(t, "2024-03-10", DateKey(at("2024-03-10T04:00:00Z"), DefaultRollover))
	assert.Equal(t, "2024-03-10", DateKey(at("2024-03-10T01:00:00-05:00"), DefaultRollover), "converted to UTC first")
}

func TestCountdown(t *testing.T) {
	assert.Equal(t, at("2024-03-11T04:00:00Z"), NextRollover(at("2024-03-10T05:00:00Z"), DefaultRollover))
	assert.Equal(t, at("2024-03-10T04:00:00Z"), NextRollover(at("2024-03-10T03:00:00Z"), DefaultRollover))
	assert.Equal(t, "01:00:00", Countdown(at("2024-03-10T03:00:00Z"), DefaultRollover))
	assert.Equal(t, "22:58:30", Countdown(at("2024-03-10T05:01:30Z"), DefaultRollover))
}

func TestRoundIndex(t *testing.T) {
	launch := at("2022-08-01T00:00:00Z")
	assert.Equal(t, 1, RoundIndex(launch, "2022-08-01"))
	assert.Equal(t, 32, RoundIndex(launch, "2022-09-01"))
	assert.Equal(t, 0, RoundIndex(launch, "2022-07-31"))
	assert.Equal(t, 0, RoundIndex(launch, "not-a-date"))
}

func TestAddDays(t *testing.T) {
	next, err := AddDays("2024-02-28", 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", next)
}

func TestWordIndex(t *testing.T) {
	a := WordIndex("2024-03-10", "salt", 50)
	assert.Equal(t, a, WordIndex("2024-03-10", "salt", 50), "deterministic")
	assert.GreaterOrEqual(t, a, 0)
	assert.Less(t, a, 50)
	assert.Equal(t, 0, WordIndex("2024-03-10", "salt", 0))
}
