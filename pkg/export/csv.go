// Package export renders consolidated event records as CSV files and
// console transcripts. It never reorders, drops, or merges rows; all
// ordering and dedup decisions are made upstream.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/primusr/alttab/pkg/telemetry"
)

// Header is the fixed CSV column order.
var Header = []string{
	"Student ID", "Student Name", "Submission ID", "Timestamp", "Action",
	"Raw Event Type", "Raw Description", "User Agent", "URL",
}

// WriteCSV writes the header row and one row per record, in input order,
// UTF-8 encoded.
func WriteCSV(w io.Writer, records []telemetry.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.StudentID, 10),
			r.StudentName,
			strconv.FormatInt(r.SubmissionID, 10),
			r.Timestamp,
			r.Action,
			r.RawEventType,
			r.RawDescription,
			r.UserAgent,
			r.URL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes records to filename, creating or truncating it.
func WriteCSVFile(filename string, records []telemetry.Record) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}

	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
