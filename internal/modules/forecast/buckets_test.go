package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/salesops/resource-planner/internal/domain"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"monday maps to itself", "2025-01-06", "2025-01-06"},
		{"tuesday", "2025-01-07", "2025-01-06"},
		{"sunday belongs to the preceding monday", "2025-01-12", "2025-01-06"},
		{"across a month boundary", "2025-02-01", "2025-01-27"},
		{"across a year boundary", "2025-01-01", "2024-12-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mondayOf(day(tt.in)); !got.Equal(day(tt.expected)) {
				t.Errorf("mondayOf(%s) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.expected)
			}
		})
	}
}

func TestMonthStart(t *testing.T) {
	if got := monthStart(day("2025-03-17")); !got.Equal(day("2025-03-01")) {
		t.Errorf("monthStart() = %s, want 2025-03-01", got.Format("2006-01-02"))
	}
}

func TestQuarterStart(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"2025-01-15", "2025-01-01"},
		{"2025-03-31", "2025-01-01"},
		{"2025-04-01", "2025-04-01"},
		{"2025-08-20", "2025-07-01"},
		{"2025-12-31", "2025-10-01"},
	}

	for _, tt := range tests {
		if got := quarterStart(day(tt.in)); !got.Equal(day(tt.expected)) {
			t.Errorf("quarterStart(%s) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.expected)
		}
	}
}

func TestNextBucket(t *testing.T) {
	tests := []struct {
		g        Granularity
		in       string
		expected string
	}{
		{GranularityWeek, "2025-01-06", "2025-01-13"},
		{GranularityMonth, "2025-01-01", "2025-02-01"},
		{GranularityMonth, "2025-12-01", "2026-01-01"},
		{GranularityQuarter, "2025-10-01", "2026-01-01"},
	}

	for _, tt := range tests {
		if got := nextBucket(day(tt.in), tt.g); !got.Equal(day(tt.expected)) {
			t.Errorf("nextBucket(%s, %s) = %s, want %s", tt.in, tt.g, got.Format("2006-01-02"), tt.expected)
		}
	}
}

func TestBucketLabel(t *testing.T) {
	tests := []struct {
		g        Granularity
		in       string
		expected string
	}{
		{GranularityWeek, "2025-01-06", "2025-01-06"},
		{GranularityMonth, "2025-01-01", "Jan 2025"},
		{GranularityQuarter, "2025-01-01", "Q1 2025"},
		{GranularityQuarter, "2025-10-01", "Q4 2025"},
	}

	for _, tt := range tests {
		if got := bucketLabel(day(tt.in), tt.g); got != tt.expected {
			t.Errorf("bucketLabel(%s, %s) = %q, want %q", tt.in, tt.g, got, tt.expected)
		}
	}
}

func TestParseGranularity(t *testing.T) {
	if g, err := ParseGranularity(""); err != nil || g != GranularityWeek {
		t.Errorf("ParseGranularity(\"\") = %q, %v; want week, nil", g, err)
	}
	if g, err := ParseGranularity("quarter"); err != nil || g != GranularityQuarter {
		t.Errorf("ParseGranularity(\"quarter\") = %q, %v; want quarter, nil", g, err)
	}
	if _, err := ParseGranularity("fortnight"); !errors.Is(err, domain.ErrInvalidBucket) {
		t.Errorf("ParseGranularity(\"fortnight\") error = %v, want ErrInvalidBucket", err)
	}
}
