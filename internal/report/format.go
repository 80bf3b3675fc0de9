package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/worklens/worklens/internal/models"
)

// FormatDuration renders a millisecond duration in the largest sensible unit.
func FormatDuration(millis int64) string {
	if millis < 0 {
		millis = -millis
	}
	seconds := millis / 1000
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds >= 3600 {
		return fmt.Sprintf("%.1fh", float64(seconds)/3600.0)
	}
	return fmt.Sprintf("%dm", seconds/60)
}

// FormatWindowReportText formats a compiled window report as readable text.
func FormatWindowReportText(report *models.WindowReport) string {
	output := fmt.Sprintf("Activity Report - last %d day(s)\n", report.Days)
	output += fmt.Sprintf("Total Time: %s\n\n", FormatDuration(report.TotalMillis))

	if report.TotalMillis == 0 {
		output += "No activity recorded for this period.\n"
		return output
	}

	for _, bucket := range report.Buckets {
		percent := 0.0
		if report.TotalMillis > 0 {
			percent = float64(bucket.TotalMillis) / float64(report.TotalMillis) * 100.0
		}
		output += fmt.Sprintf("%-20s %10s %6.1f%%\n", bucket.CategoryID, FormatDuration(bucket.TotalMillis), percent)
		for _, app := range bucket.Apps {
			output += fmt.Sprintf("    %-26s %10s\n", truncate(app.Name, 26), FormatDuration(app.TotalMillis))
		}
	}

	return output
}

// FormatTimelineText formats merged activity groups as readable text.
func FormatTimelineText(groups []models.ActivityGroup) string {
	if len(groups) == 0 {
		return "No activity recorded.\n"
	}

	var output string
	for _, group := range groups {
		start := time.UnixMilli(group.Start).Format("15:04:05")
		end := time.UnixMilli(group.End).Format("15:04:05")
		output += fmt.Sprintf("%s - %s  (%s)  %v\n", start, end, FormatDuration(group.TotalMillis), group.Categories)
		for _, app := range group.Apps {
			output += fmt.Sprintf("    %-26s %10s  %s\n", truncate(app.Name, 26), FormatDuration(app.TotalMillis), app.Category)
		}
	}
	return output
}

// FormatIdleText formats idle statistics as readable text.
func FormatIdleText(stats *models.IdleStatistics) string {
	output := fmt.Sprintf("Idle Report - last %d day(s)\n", stats.Days)
	output += fmt.Sprintf("Periods: %d\n", stats.Periods)
	output += fmt.Sprintf("Total Idle: %s\n", FormatDuration(stats.TotalMillis))
	if stats.Periods > 0 {
		output += fmt.Sprintf("Average: %s\n", FormatDuration(stats.AverageMillis))
		output += fmt.Sprintf("Longest: %s\n", FormatDuration(stats.LongestMillis))
	}
	return output
}

// FormatJSON marshals any report value as indented JSON.
func FormatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
