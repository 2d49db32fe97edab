// internal/daily/daily.go
//
// Calendar helpers for the daily round.
// A round "day" starts at a fixed UTC hour (the rollover, 04:00 UTC by
// default), so the date key is the UTC date of (now − rollover).

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// DefaultRollover is the UTC hour at which a new round becomes current.
const DefaultRollover = 4 * time.Hour

const keyLayout = "2006-01-02"

// DateKey returns the YYYY-MM-DD key of the round that is current at t.
func DateKey(t time.Time, rollover time.Duration) string {
	return t.UTC().Add(-rollover).Format(keyLayout)
}

// ParseKey parses a YYYY-MM-DD key as a UTC midnight.
func ParseKey(key string) (time.Time, error) {
	return time.ParseInLocation(keyLayout, key, time.UTC)
}

// AddDays shifts a date key by n days.
func AddDays(key string, n int) (string, error) {
	t, err := ParseKey(key)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(keyLayout), nil
}

// NextRollover returns the instant the next round becomes current.
func NextRollover(now time.Time, rollover time.Duration) time.Time {
	day := now.UTC().Add(-rollover).Truncate(24 * time.Hour)
	return day.Add(24*time.Hour + rollover)
}

// Countdown renders the time until the next round as HH:MM:SS.
func Countdown(now time.Time, rollover time.Duration) string {
	d := NextRollover(now, rollover).Sub(now)
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

// RoundIndex numbers days from launch: the launch day is round 1.
// Keys before launch map to 0.
func RoundIndex(launch time.Time, key string) int {
	t, err := ParseKey(key)
	if err != nil {
		return 0
	}
	days := int(t.Sub(launch.UTC().Truncate(24*time.Hour)) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days + 1
}

// WordIndex returns a deterministic index for a date key using
// HMAC(salt, YYYY-MM-DD) % n.
func WordIndex(key, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(key))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
