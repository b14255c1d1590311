package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWholeDaysBetween(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"same instant", start, 0},
		{"end before start", start.Add(-48 * time.Hour), 0},
		{"one second short of a day", start.Add(Day - time.Second), 0},
		{"exactly one day", start.Add(Day), 1},
		{"three days and a second", start.Add(3*Day + time.Second), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WholeDaysBetween(start, tt.end))
		})
	}
}

func TestFormatMetadataTime(t *testing.T) {
	ts := time.Date(2026, 3, 1, 7, 30, 0, 0, time.FixedZone("ART", -3*3600))
	assert.Equal(t, "2026-03-01T10:30:00Z", FormatMetadataTime(ts))
}
