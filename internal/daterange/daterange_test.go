package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateEndDate(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		months int
		want   string
	}{
		{"six months", "2024-01-01", 6, "2024-06-30"},
		{"full year", "2024-01-01", 12, "2024-12-31"},
		{"one month", "2024-03-15", 1, "2024-04-14"},
		{"jan 31 overflows into march", "2024-01-31", 1, "2024-03-01"},
		{"jan 31 non leap year", "2023-01-31", 1, "2023-03-02"},
		{"oct 31 plus one month", "2024-10-31", 1, "2024-11-30"},
		{"crosses year boundary", "2024-11-15", 3, "2025-02-14"},
		{"leap day start", "2024-02-29", 12, "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateEndDate(tt.start, tt.months))
		})
	}
}

func TestCalculateEndDateInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		months int
	}{
		{"empty start", "", 6},
		{"zero months", "2024-01-01", 0},
		{"negative months", "2024-01-01", -1},
		{"garbage start", "not-a-date", 6},
		{"wrong format", "01/01/2024", 6},
		{"unpadded", "2024-1-1", 6},
		{"impossible day", "2024-02-31", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "", CalculateEndDate(tt.start, tt.months))
		})
	}
}

func TestCalculateEndDateOutputFormat(t *testing.T) {
	for months := 1; months <= 12; months++ {
		got := CalculateEndDate("2024-05-07", months)
		assert.True(t, IsValidFormat(got), "months=%d produced %q", months, got)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-06-30", FormatDate(time.Date(2024, 6, 30, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestToday(t *testing.T) {
	got := Today()
	assert.True(t, IsValidFormat(got))
	assert.Equal(t, time.Now().Format(Layout), got)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, IsValidFormat("2024-01-31"))
	assert.False(t, IsValidFormat("2024-1-31"))
	assert.False(t, IsValidFormat("2024-01-31T00:00:00"))
	assert.False(t, IsValidFormat("2024-13-01"))
	assert.False(t, IsValidFormat(""))
}

func TestIsTodayOrLater(t *testing.T) {
	today := time.Now()
	assert.True(t, IsTodayOrLater(today.Format(Layout)))
	assert.True(t, IsTodayOrLater(today.AddDate(0, 0, 1).Format(Layout)))
	assert.False(t, IsTodayOrLater(today.AddDate(0, 0, -1).Format(Layout)))
	assert.False(t, IsTodayOrLater("not-a-date"))
}
