package report

import (
	"strings"
	"testing"

	"github.com/worklens/worklens/internal/models"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		millis int64
		want   string
	}{
		{0, "0s"},
		{999, "0s"},
		{45000, "45s"},
		{60000, "1m"},
		{3540000, "59m"},
		{3600000, "1.0h"},
		{5400000, "1.5h"},
		{-45000, "45s"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.millis); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.millis, got, tt.want)
		}
	}
}

func TestFormatWindowReportTextEmpty(t *testing.T) {
	report := &models.WindowReport{Days: 7}
	out := FormatWindowReportText(report)
	if !strings.Contains(out, "No activity recorded") {
		t.Errorf("empty report output missing placeholder:\n%s", out)
	}
}

func TestFormatWindowReportText(t *testing.T) {
	report := &models.WindowReport{
		Days:        7,
		TotalMillis: 8000,
		Buckets: []models.CategoryBucket{
			{
				CategoryID:  "development",
				TotalMillis: 8000,
				Apps:        []models.AppUsage{{Name: "Editor", TotalMillis: 8000}},
			},
		},
	}

	out := FormatWindowReportText(report)
	for _, want := range []string{"development", "Editor", "100.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTimelineTextEmpty(t *testing.T) {
	if out := FormatTimelineText(nil); !strings.Contains(out, "No activity recorded") {
		t.Errorf("empty timeline output missing placeholder: %q", out)
	}
}

func TestFormatIdleText(t *testing.T) {
	stats := &models.IdleStatistics{
		Days:          7,
		Periods:       2,
		TotalMillis:   90000,
		AverageMillis: 45000,
		LongestMillis: 60000,
	}

	out := FormatIdleText(stats)
	for _, want := range []string{"Periods: 2", "1m", "45s"} {
		if !strings.Contains(out, want) {
			t.Errorf("idle output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 26); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	long := strings.Repeat("x", 40)
	got := truncate(long, 26)
	if len(got) != 26 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate(long) = %q, want 26 chars ending in ...", got)
	}
}
