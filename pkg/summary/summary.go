// Package summary tallies notable event occurrences per student from an
// exported events CSV. It is a post-hoc reporting step over the CSV, not
// part of the fetch pipeline.
package summary

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// CountedEvents are the event types tallied per student, in output
// column order.
var CountedEvents = []string{"page_blurred", "page_focused", "question_answered"}

// StudentCounts holds one student's tallies keyed by event type.
type StudentCounts struct {
	Student string
	Counts  map[string]int
}

// Options select which CSV columns feed the tally.
type Options struct {
	StudentColumn string
	EventColumn   string
}

// DefaultOptions matches the column names of the exported events CSV.
func DefaultOptions() Options {
	return Options{
		StudentColumn: "Student ID",
		EventColumn:   "Raw Event Type",
	}
}

// Summarize reads an events CSV and tallies the counted event types per
// student. Students without any counted event are omitted. Rows come back
// sorted by student identifier, numerically when every identifier is a
// number.
func Summarize(r io.Reader, opts Options) ([]StudentCounts, error) {
	if opts.StudentColumn == "" {
		opts.StudentColumn = "Student ID"
	}
	if opts.EventColumn == "" {
		opts.EventColumn = "Raw Event Type"
	}

	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv input")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	studentIdx, eventIdx := -1, -1
	for i, name := range header {
		switch name {
		case opts.StudentColumn:
			studentIdx = i
		case opts.EventColumn:
			eventIdx = i
		}
	}
	if studentIdx == -1 {
		return nil, fmt.Errorf("column %q not found in csv header", opts.StudentColumn)
	}
	if eventIdx == -1 {
		return nil, fmt.Errorf("column %q not found in csv header", opts.EventColumn)
	}

	counted := make(map[string]bool, len(CountedEvents))
	for _, ev := range CountedEvents {
		counted[ev] = true
	}

	tallies := make(map[string]map[string]int)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		event := row[eventIdx]
		if !counted[event] {
			continue
		}

		student := row[studentIdx]
		if tallies[student] == nil {
			tallies[student] = make(map[string]int, len(CountedEvents))
		}
		tallies[student][event]++
	}

	rows := make([]StudentCounts, 0, len(tallies))
	for student, counts := range tallies {
		rows = append(rows, StudentCounts{Student: student, Counts: counts})
	}
	sortByStudent(rows)

	return rows, nil
}

// WriteCSV renders summary rows: the student column followed by one count
// column per counted event type, zero-filled.
func WriteCSV(w io.Writer, studentColumn string, rows []StudentCounts) error {
	if studentColumn == "" {
		studentColumn = "Student ID"
	}

	cw := csv.NewWriter(w)

	header := append([]string{studentColumn}, CountedEvents...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Student)
		for _, ev := range CountedEvents {
			record = append(record, strconv.Itoa(row.Counts[ev]))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// sortByStudent orders rows by identifier. Mixing numeric comparison into
// a partially numeric key set would break comparator transitivity, so the
// numeric path applies only when every identifier parses.
func sortByStudent(rows []StudentCounts) {
	numeric := true
	keys := make(map[string]int64, len(rows))
	for _, r := range rows {
		n, err := strconv.ParseInt(r.Student, 10, 64)
		if err != nil {
			numeric = false
			break
		}
		keys[r.Student] = n
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if numeric {
			return keys[rows[i].Student] < keys[rows[j].Student]
		}
		return rows[i].Student < rows[j].Student
	})
}
