package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOccurrenceDates(t *testing.T) {
	first := time.Date(2024, time.January, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		pattern Pattern
		until   time.Time
		want    []time.Time
	}{
		{
			name:    "weekly over three weeks yields four dates",
			pattern: PatternWeekly,
			until:   day(2024, time.January, 31),
			want: []time.Time{
				day(2024, time.January, 10), day(2024, time.January, 17),
				day(2024, time.January, 24), day(2024, time.January, 31),
			},
		},
		{
			name:    "daily inclusive bound",
			pattern: PatternDaily,
			until:   time.Date(2024, time.January, 12, 8, 0, 0, 0, time.UTC),
			want:    []time.Time{day(2024, time.January, 10), day(2024, time.January, 11), day(2024, time.January, 12)},
		},
		{
			name:    "biweekly",
			pattern: PatternBiweekly,
			until:   day(2024, time.February, 6),
			want:    []time.Time{day(2024, time.January, 10), day(2024, time.January, 24)},
		},
		{
			name:    "monthly keeps the day of month",
			pattern: PatternMonthly,
			until:   day(2024, time.March, 10),
			want:    []time.Time{day(2024, time.January, 10), day(2024, time.February, 10), day(2024, time.March, 10)},
		},
		{
			name:    "unknown pattern stops after the first",
			pattern: Pattern("hourly"),
			until:   day(2024, time.March, 1),
			want:    []time.Time{day(2024, time.January, 10)},
		},
		{
			name:    "same-day bound",
			pattern: PatternWeekly,
			until:   day(2024, time.January, 10),
			want:    []time.Time{day(2024, time.January, 10)},
		},
		{
			name:    "bound before the first date",
			pattern: PatternDaily,
			until:   day(2024, time.January, 9),
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OccurrenceDates(first, tt.pattern, tt.until))
		})
	}
}

func TestOccurrenceDatesMonthEnd(t *testing.T) {
	first := time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC)

	got := OccurrenceDates(first, PatternMonthly, day(2024, time.August, 31))
	assert.Equal(t, []time.Time{
		day(2024, time.January, 31),
		day(2024, time.March, 31),
		day(2024, time.May, 31),
		day(2024, time.July, 31),
		day(2024, time.August, 31),
	}, got, "months without a 31st are passed over")

	leap := OccurrenceDates(time.Date(2024, time.January, 29, 9, 0, 0, 0, time.UTC), PatternMonthly, day(2024, time.March, 29))
	assert.Equal(t, []time.Time{day(2024, time.January, 29), day(2024, time.February, 29), day(2024, time.March, 29)}, leap)
}

func TestOccurrenceDatesStopsPastLimit(t *testing.T) {
	got := OccurrenceDates(day(2024, time.January, 1), PatternDaily, day(2030, time.January, 1))
	assert.Len(t, got, MaxOccurrences+1)
}

func TestOccurrenceInterval(t *testing.T) {
	start, end := occurrenceInterval(day(2024, time.February, 7),
		time.Date(2024, time.January, 10, 14, 30, 0, 0, time.UTC),
		time.Date(2024, time.January, 10, 16, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, time.February, 7, 14, 30, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.February, 7, 16, 0, 0, 0, time.UTC), end)
}
