package telemetry

import (
	"sort"
	"time"

	"github.com/primusr/alttab/pkg/canvas"
)

// Normalize converts one raw event into its exportable record, tagged
// with the enclosing student and submission. Unparsable timestamps and
// missing fields degrade to the "N/A" sentinel; Normalize never fails.
func Normalize(ev canvas.QuizSubmissionEvent, student canvas.Student, submissionID int64) Record {
	rawType := ev.EventType
	if rawType == "" {
		rawType = "N/A"
	}

	return Record{
		StudentID:      student.ID,
		StudentName:    student.Name,
		SubmissionID:   submissionID,
		Timestamp:      FormatClock(ev.CreatedAt),
		Action:         ActionDescription(ev),
		RawEventType:   rawType,
		RawDescription: ev.Description,
		UserAgent:      ev.UserAgent,
		URL:            ev.URL,
	}
}

// FormatClock renders an ISO-8601 timestamp as wall-clock HH:MM in the
// timestamp's own UTC offset. Unparsable input yields "N/A".
func FormatClock(createdAt string) string {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return "N/A"
	}
	return t.Format("15:04")
}

// SortEventsByCreatedAt sorts events chronologically by parsed created_at,
// in place. Events with unparsable timestamps sort first; ties keep their
// fetch order. The display string loses resolution to the minute, so this
// parsed-timestamp order is established once here and never recomputed
// from rendered records.
func SortEventsByCreatedAt(events []canvas.QuizSubmissionEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return eventTime(events[i]).Before(eventTime(events[j]))
	})
}

func eventTime(ev canvas.QuizSubmissionEvent) time.Time {
	t, err := time.Parse(time.RFC3339, ev.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
