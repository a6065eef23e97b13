package signal

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func approvedDraft(t *testing.T, variant int, itemID string) DraftPost {
	t.Helper()
	draft, err := NewDraftPost(itemID, variant, "Post body for "+itemID)
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	draft.Status = StatusApproved
	return draft
}

func TestCompileWeekEmptyDrafts(t *testing.T) {
	schedule := CompileWeek(nil, time.Now(), 2)
	if len(schedule.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(schedule.Entries))
	}
	if schedule.Message != "No approved drafts to schedule." {
		t.Fatalf("unexpected message: %q", schedule.Message)
	}
}

func TestCompileWeekStartsNextMonday(t *testing.T) {
	cases := []struct {
		now  time.Time
		want string
	}{
		// Wednesday → following Monday.
		{time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC), "2026-08-31"},
		// Monday → the Monday after, never today.
		{time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC), "2026-09-07"},
		// Sunday → next day.
		{time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC), "2026-08-31"},
	}
	drafts := []DraftPost{approvedDraft(t, 1, "item1")}
	for _, tc := range cases {
		schedule := CompileWeek(drafts, tc.now, 2)
		if schedule.WeekStarting != tc.want {
			t.Errorf("from %s expected week starting %s, got %s", tc.now.Weekday(), tc.want, schedule.WeekStarting)
		}
		if schedule.Entries[0].ScheduledDay != "Monday" {
			t.Errorf("first slot should be Monday, got %s", schedule.Entries[0].ScheduledDay)
		}
	}
}

func TestCompileWeekDistribution(t *testing.T) {
	var drafts []DraftPost
	for i := 0; i < 5; i++ {
		drafts = append(drafts, approvedDraft(t, 1+i%2, fmt.Sprintf("item%d", i)))
	}

	schedule := CompileWeek(drafts, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), 2)
	if len(schedule.Entries) != 5 {
		t.Fatalf("expected 5 scheduled entries, got %d", len(schedule.Entries))
	}

	perDay := map[string]int{}
	for _, entry := range schedule.Entries {
		perDay[entry.ScheduledDate]++
	}
	if len(perDay) < 3 {
		t.Fatalf("5 drafts at 2/day should span at least 3 days, got %d", len(perDay))
	}
	for date, n := range perDay {
		if n > 2 {
			t.Errorf("day %s has %d posts, max is 2", date, n)
		}
	}
}

func TestCompileWeekStopsAfterSevenDays(t *testing.T) {
	var drafts []DraftPost
	for i := 0; i < 20; i++ {
		drafts = append(drafts, approvedDraft(t, 1+i%2, fmt.Sprintf("item%d", i)))
	}

	schedule := CompileWeek(drafts, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), 2)
	if len(schedule.Entries) != 14 {
		t.Fatalf("a week at 2/day holds 14 posts, got %d", len(schedule.Entries))
	}
	last := schedule.Entries[len(schedule.Entries)-1]
	if last.ScheduledDay != "Sunday" {
		t.Fatalf("last slot should be Sunday, got %s", last.ScheduledDay)
	}
}

func TestFormatScheduleEmpty(t *testing.T) {
	if got := FormatSchedule(WeeklySchedule{}); got != "No posts scheduled for this week." {
		t.Fatalf("unexpected empty format: %q", got)
	}
}

func TestFormatScheduleGroupsByDay(t *testing.T) {
	drafts := []DraftPost{
		approvedDraft(t, 1, "item1"),
		approvedDraft(t, 2, "item1"),
		approvedDraft(t, 1, "item2"),
	}
	drafts[0].HumanLines = "Thoughts welcome."

	schedule := CompileWeek(drafts, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), 2)
	text := FormatSchedule(schedule)

	if !strings.Contains(text, "Monday, 2026-08-31") {
		t.Errorf("expected Monday header, got:\n%s", text)
	}
	if !strings.Contains(text, "Tuesday, 2026-09-01") {
		t.Errorf("expected Tuesday header for the third draft, got:\n%s", text)
	}
	if !strings.Contains(text, "Thoughts welcome.") {
		t.Errorf("human lines should be rendered, got:\n%s", text)
	}
	if !strings.Contains(text, drafts[0].DraftID) {
		t.Errorf("draft ids should be rendered, got:\n%s", text)
	}
}
