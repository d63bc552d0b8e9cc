package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(t *testing.T) Policy {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	return New(loc, 7)
}

func TestIsDue(t *testing.T) {
	p := testPolicy(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, p.Location)

	tests := []struct {
		name string
		next string
		want bool
	}{
		{"past date is due", "2025-06-14T12:00:00+02:00", true},
		{"exact moment is due", "2025-06-15T12:00:00+02:00", true},
		{"future date is not due", "2025-06-16T12:00:00+02:00", false},
		{"naive timestamp uses policy timezone", "2025-06-14T09:30:00", true},
		{"bare date", "2025-06-01", true},
		{"empty never fires", "", false},
		{"garbage never fires", "not-a-date", false},
		{"partial garbage never fires", "2025-13-45T99:00:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsDue(tt.next, now))
		})
	}
}

func TestNextFollowupAddsInterval(t *testing.T) {
	p := testPolicy(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, p.Location)

	next := p.NextFollowup("2025-06-15T12:00:00+02:00", now)

	parsed, err := time.Parse(time.RFC3339, next)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, parsed.Sub(now))
}

func TestNextFollowupIsStrictlyLater(t *testing.T) {
	p := testPolicy(t)
	now := time.Now()
	base := now.In(p.Location).Format(time.RFC3339)

	next := p.NextFollowup(base, now)

	parsed, err := time.Parse(time.RFC3339, next)
	require.NoError(t, err)
	assert.True(t, parsed.After(now), "next follow-up must be strictly after its base")
}

func TestNextFollowupFallsBackToNowOnBadBase(t *testing.T) {
	p := testPolicy(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, p.Location)

	next := p.NextFollowup("corrupted", now)

	parsed, err := time.Parse(time.RFC3339, next)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 7).Unix(), parsed.Unix())
}

func TestTimestampRendersPolicyZone(t *testing.T) {
	p := testPolicy(t)
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	ts := p.Timestamp(now)

	parsed, err := time.Parse(time.RFC3339, ts)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(now))
}

func TestNewDefaultsToUTC(t *testing.T) {
	p := New(nil, 3)
	assert.Equal(t, time.UTC, p.Location)
}
