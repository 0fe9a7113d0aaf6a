package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/primusr/alttab/pkg/telemetry"
)

func TestTranscript_LineFormat(t *testing.T) {
	records := []telemetry.Record{
		{
			Timestamp:    "14:00",
			Action:       "Resumed.",
			RawEventType: "window_focused",
			UserAgent:    "Mozilla/5.0",
			URL:          "https://school.instructure.com/quiz",
		},
	}

	got := Transcript(records)
	want := "[14:00] - Action: Resumed. | Type: window_focused | User Agent: Mozilla/5.0 | URL: https://school.instructure.com/quiz"

	if got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}
}

func TestTranscript_JoinsWithNewlines(t *testing.T) {
	records := []telemetry.Record{
		{Timestamp: "14:00", Action: "a", RawEventType: "x"},
		{Timestamp: "14:01", Action: "b", RawEventType: "y"},
	}

	got := Transcript(records)

	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("Got %d lines, want 2", len(lines))
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("Transcript should not end with a trailing newline")
	}
}

func TestTranscript_Empty(t *testing.T) {
	if got := Transcript(nil); got != "" {
		t.Errorf("Transcript(nil) = %q, want empty", got)
	}
}

func TestWriteTranscript_GroupsBySubmission(t *testing.T) {
	records := []telemetry.Record{
		{StudentID: 101, StudentName: "Ada", SubmissionID: 900, Timestamp: "14:00", Action: "Session started", RawEventType: "session_started"},
		{StudentID: 101, StudentName: "Ada", SubmissionID: 900, Timestamp: "14:01", Action: "Resumed.", RawEventType: "window_focused"},
		{StudentID: 102, StudentName: "Alan", SubmissionID: 910, Timestamp: "15:00", Action: "Session started", RawEventType: "session_started"},
	}

	var buf bytes.Buffer
	if err := WriteTranscript(&buf, records); err != nil {
		t.Fatalf("WriteTranscript() failed: %v", err)
	}
	out := buf.String()

	if count := strings.Count(out, "--- Action log for"); count != 2 {
		t.Errorf("Got %d submission headers, want 2:\n%s", count, out)
	}
	if !strings.Contains(out, "Ada (ID: 101), submission 900") {
		t.Errorf("Missing first submission header:\n%s", out)
	}
	if !strings.Contains(out, "Alan (ID: 102), submission 910") {
		t.Errorf("Missing second submission header:\n%s", out)
	}
	if count := strings.Count(out, "----------------------------"); count != 2 {
		t.Errorf("Got %d separators, want 2:\n%s", count, out)
	}
}

func TestWriteTranscript_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTranscript(&buf, nil); err != nil {
		t.Fatalf("WriteTranscript() failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}
