package summary

import (
	"bytes"
	"strings"
	"testing"
)

const eventsCSV = `Student ID,Student Name,Submission ID,Timestamp,Action,Raw Event Type,Raw Description,User Agent,URL
101,Ada Lovelace,900,14:00,Session started,session_started,,Mozilla/5.0,
101,Ada Lovelace,900,14:01,Page blurred,page_blurred,,Mozilla/5.0,
101,Ada Lovelace,900,14:02,Page focused,page_focused,,Mozilla/5.0,
101,Ada Lovelace,900,14:03,Page blurred,page_blurred,,Mozilla/5.0,
102,Alan Turing,910,15:00,Answered question:#5,question_answered,,Mozilla/5.0,
103,Grace Hopper,920,16:00,Session started,session_started,,Mozilla/5.0,
`

func TestSummarize(t *testing.T) {
	rows, err := Summarize(strings.NewReader(eventsCSV), DefaultOptions())
	if err != nil {
		t.Fatalf("Summarize() failed: %v", err)
	}

	// Student 103 has no counted events and is omitted
	if len(rows) != 2 {
		t.Fatalf("Got %d rows, want 2: %+v", len(rows), rows)
	}

	if rows[0].Student != "101" {
		t.Errorf("rows[0].Student = %q, want %q", rows[0].Student, "101")
	}
	if rows[0].Counts["page_blurred"] != 2 {
		t.Errorf("page_blurred count = %d, want 2", rows[0].Counts["page_blurred"])
	}
	if rows[0].Counts["page_focused"] != 1 {
		t.Errorf("page_focused count = %d, want 1", rows[0].Counts["page_focused"])
	}
	if rows[0].Counts["question_answered"] != 0 {
		t.Errorf("question_answered count = %d, want 0", rows[0].Counts["question_answered"])
	}

	if rows[1].Student != "102" {
		t.Errorf("rows[1].Student = %q, want %q", rows[1].Student, "102")
	}
	if rows[1].Counts["question_answered"] != 1 {
		t.Errorf("question_answered count = %d, want 1", rows[1].Counts["question_answered"])
	}
}

func TestSummarize_NumericSort(t *testing.T) {
	input := `Student ID,Raw Event Type
1000,page_blurred
99,page_blurred
101,page_blurred
`

	rows, err := Summarize(strings.NewReader(input), DefaultOptions())
	if err != nil {
		t.Fatalf("Summarize() failed: %v", err)
	}

	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.Student
	}

	want := []string{"99", "101", "1000"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Order = %v, want %v", got, want)
		}
	}
}

func TestSummarize_LexicographicSortForNames(t *testing.T) {
	input := `Student Name,Raw Event Type
Turing,page_blurred
Hopper,page_focused
Lovelace,question_answered
`

	rows, err := Summarize(strings.NewReader(input), Options{
		StudentColumn: "Student Name",
		EventColumn:   "Raw Event Type",
	})
	if err != nil {
		t.Fatalf("Summarize() failed: %v", err)
	}

	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.Student
	}

	want := []string{"Hopper", "Lovelace", "Turing"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Order = %v, want %v", got, want)
		}
	}
}

func TestSummarize_MissingColumn(t *testing.T) {
	input := "Student ID,Action\n101,Session started\n"

	if _, err := Summarize(strings.NewReader(input), DefaultOptions()); err == nil {
		t.Error("Expected error for missing event column")
	}

	if _, err := Summarize(strings.NewReader(input), Options{
		StudentColumn: "Nope",
		EventColumn:   "Action",
	}); err == nil {
		t.Error("Expected error for missing student column")
	}
}

func TestSummarize_EmptyInput(t *testing.T) {
	if _, err := Summarize(strings.NewReader(""), DefaultOptions()); err == nil {
		t.Error("Expected error for empty input")
	}
}

func TestSummarize_HeaderOnly(t *testing.T) {
	input := "Student ID,Raw Event Type\n"

	rows, err := Summarize(strings.NewReader(input), DefaultOptions())
	if err != nil {
		t.Fatalf("Summarize() failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Got %d rows, want 0", len(rows))
	}
}

func TestWriteCSV(t *testing.T) {
	rows := []StudentCounts{
		{Student: "101", Counts: map[string]int{"page_blurred": 2, "page_focused": 1}},
		{Student: "102", Counts: map[string]int{"question_answered": 3}},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, "Student ID", rows); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	expected := "Student ID,page_blurred,page_focused,question_answered\n" +
		"101,2,1,0\n" +
		"102,0,0,3\n"
	if buf.String() != expected {
		t.Errorf("Output:\n%s\nwant:\n%s", buf.String(), expected)
	}
}
