// Package analytics derives productivity figures from task and activity
// snapshots. Every function is pure: given the same snapshot and clock
// it returns the same result, and no derived value holds state of its
// own.
package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/kwhite/taskpulse/internal/models"
)

const (
	// RecentActivityLimit is how many log entries the feed shows
	RecentActivityLimit = 8

	// Parameters of the completion-time estimate. This is a display
	// heuristic, not a measured duration: the system never records
	// creation-to-completion latency.
	avgCompletionBaseMinutes  = 118
	avgCompletionRatioScale   = 30
	avgCompletionFloorMinutes = 52
)

// TotalTasks counts all tasks
func TotalTasks(tasks []models.Task) int {
	return len(tasks)
}

// CompletedTasks counts completed tasks
func CompletedTasks(tasks []models.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// PendingTasks counts tasks not yet completed
func PendingTasks(tasks []models.Task) int {
	return len(tasks) - CompletedTasks(tasks)
}

// ProductivityScore is the priority-weighted completion ratio scaled to
// a percentage: High counts 3, Medium 2, Low 1. Zero tasks score zero.
func ProductivityScore(tasks []models.Task) int {
	totalWeight := 0
	completedWeight := 0
	for _, t := range tasks {
		w := t.Priority.Weight()
		totalWeight += w
		if t.Completed {
			completedWeight += w
		}
	}
	if totalWeight == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completedWeight) / float64(totalWeight)))
}

// WeeklyStats counts "completed" activity entries per local calendar day
// over the last 7 days, oldest first, ending with today. Day labels are
// weekday abbreviations.
func WeeklyStats(activity []models.ActivityEntry, now time.Time) []models.WeeklyStat {
	counts := make(map[string]int, 7)
	for _, entry := range activity {
		if entry.Type != models.ActivityCompleted {
			continue
		}
		counts[dayKey(entry.Timestamp)]++
	}

	stats := make([]models.WeeklyStat, 0, 7)
	for offset := 6; offset >= 0; offset-- {
		day := now.AddDate(0, 0, -offset)
		stats = append(stats, models.WeeklyStat{
			Day:       day.Weekday().String()[:3],
			Completed: counts[dayKey(day)],
		})
	}
	return stats
}

// Streak counts consecutive calendar days with at least one completion,
// walking backward. A day without a completion yet does not zero the
// streak while the day is still in progress: when today has no
// completion the walk starts at yesterday.
func Streak(activity []models.ActivityEntry, now time.Time) int {
	days := make(map[string]bool)
	for _, entry := range activity {
		if entry.Type == models.ActivityCompleted {
			days[dayKey(entry.Timestamp)] = true
		}
	}

	cursor := now
	if !days[dayKey(cursor)] {
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for days[dayKey(cursor)] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// MostProductiveDay is the weekday label with the highest weekly count,
// or "N/A" when no day has any completions.
func MostProductiveDay(activity []models.ActivityEntry, now time.Time) string {
	stats := WeeklyStats(activity, now)

	best := models.WeeklyStat{}
	for _, s := range stats {
		if s.Completed > best.Completed {
			best = s
		}
	}
	if best.Completed == 0 {
		return "N/A"
	}
	return best.Day
}

// AverageCompletionTime is an illustrative estimate formatted "Xh Ym":
// a base duration trimmed by the overall completion ratio and floored.
// It is not a measurement.
func AverageCompletionTime(tasks []models.Task) string {
	ratio := 0.0
	if len(tasks) > 0 {
		ratio = float64(CompletedTasks(tasks)) / float64(len(tasks))
	}

	minutes := int(math.Round(avgCompletionBaseMinutes - ratio*avgCompletionRatioScale))
	if minutes < avgCompletionFloorMinutes {
		minutes = avgCompletionFloorMinutes
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// RecentActivity returns the first entries of the newest-first log
func RecentActivity(activity []models.ActivityEntry) []models.ActivityEntry {
	if len(activity) <= RecentActivityLimit {
		return activity
	}
	return activity[:RecentActivityLimit]
}

// Summary bundles every derivation for the analytics endpoint
type Summary struct {
	TotalTasks            int                    `json:"total_tasks"`
	CompletedTasks        int                    `json:"completed_tasks"`
	PendingTasks          int                    `json:"pending_tasks"`
	ProductivityScore     int                    `json:"productivity_score"`
	WeeklyStats           []models.WeeklyStat    `json:"weekly_stats"`
	Streak                int                    `json:"streak"`
	MostProductiveDay     string                 `json:"most_productive_day"`
	AverageCompletionTime string                 `json:"average_completion_time"`
	RecentActivity        []models.ActivityEntry `json:"recent_activity"`
}

// Summarize computes every derivation against one snapshot
func Summarize(tasks []models.Task, activity []models.ActivityEntry, now time.Time) Summary {
	return Summary{
		TotalTasks:            TotalTasks(tasks),
		CompletedTasks:        CompletedTasks(tasks),
		PendingTasks:          PendingTasks(tasks),
		ProductivityScore:     ProductivityScore(tasks),
		WeeklyStats:           WeeklyStats(activity, now),
		Streak:                Streak(activity, now),
		MostProductiveDay:     MostProductiveDay(activity, now),
		AverageCompletionTime: AverageCompletionTime(tasks),
		RecentActivity:        RecentActivity(activity),
	}
}

// dayKey collapses a timestamp to its local calendar day
func dayKey(t time.Time) string {
	return t.Local().Format("2006-01-02")
}
