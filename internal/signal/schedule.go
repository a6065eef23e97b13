package signal

import (
	"fmt"
	"strings"
	"time"
)

// WeeklySchedule maps approved drafts onto posting slots for the week
// starting next Monday.
type WeeklySchedule struct {
	Entries      []ScheduleEntry `json:"entries"`
	WeekStarting string          `json:"week_starting,omitempty"`
	Message      string          `json:"message,omitempty"`
}

// CompileWeek distributes approved drafts over the week starting on the
// Monday after now, at most maxPerDay per day, in the order given. Drafts
// that do not fit inside the seven days are left unscheduled.
func CompileWeek(drafts []DraftPost, now time.Time, maxPerDay int) WeeklySchedule {
	if len(drafts) == 0 {
		return WeeklySchedule{Message: "No approved drafts to schedule."}
	}
	if maxPerDay < 1 {
		maxPerDay = 1
	}

	daysUntilMonday := (8 - int(now.Weekday())) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}
	monday := now.AddDate(0, 0, daysUntilMonday)

	var entries []ScheduleEntry
	day := 0
	onDay := 0
	for _, draft := range drafts {
		if onDay >= maxPerDay {
			day++
			onDay = 0
		}
		if day >= 7 {
			break
		}
		slot := monday.AddDate(0, 0, day)
		entries = append(entries, ScheduleEntry{
			DraftID:       draft.DraftID,
			ItemID:        draft.ItemID,
			Content:       draft.Content,
			HumanLines:    draft.HumanLines,
			ScheduledDay:  slot.Weekday().String(),
			ScheduledDate: slot.Format("2006-01-02"),
		})
		onDay++
	}

	return WeeklySchedule{
		Entries:      entries,
		WeekStarting: monday.Format("2006-01-02"),
	}
}

// FormatSchedule renders the schedule as a plain-text digest grouped by day.
func FormatSchedule(schedule WeeklySchedule) string {
	if len(schedule.Entries) == 0 {
		return "No posts scheduled for this week."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Posting schedule for week of %s\n", schedule.WeekStarting)
	b.WriteString(strings.Repeat("=", 40))
	b.WriteString("\n")

	currentDate := ""
	for _, entry := range schedule.Entries {
		if entry.ScheduledDate != currentDate {
			currentDate = entry.ScheduledDate
			fmt.Fprintf(&b, "\n%s, %s\n", entry.ScheduledDay, entry.ScheduledDate)
			b.WriteString(strings.Repeat("-", 40))
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s]\n%s\n", entry.DraftID, entry.Content)
		if entry.HumanLines != "" {
			fmt.Fprintf(&b, "+ %s\n", entry.HumanLines)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
