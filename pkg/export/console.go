package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/primusr/alttab/pkg/telemetry"
)

// Transcript renders records as a human-readable action log, one line per
// record in input order, newline-joined without a trailing newline.
func Transcript(records []telemetry.Record) string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, transcriptLine(r))
	}
	return strings.Join(lines, "\n")
}

// WriteTranscript writes per-submission action logs to w. Records arrive
// grouped by submission, so a submission header is emitted whenever the
// submission ID changes.
func WriteTranscript(w io.Writer, records []telemetry.Record) error {
	var lastSubmission int64 = -1

	for _, r := range records {
		if r.SubmissionID != lastSubmission {
			if lastSubmission != -1 {
				if _, err := fmt.Fprintln(w, "----------------------------"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "--- Action log for %s (ID: %d), submission %d ---\n",
				r.StudentName, r.StudentID, r.SubmissionID); err != nil {
				return err
			}
			lastSubmission = r.SubmissionID
		}

		if _, err := fmt.Fprintln(w, transcriptLine(r)); err != nil {
			return err
		}
	}

	if lastSubmission != -1 {
		if _, err := fmt.Fprintln(w, "----------------------------"); err != nil {
			return err
		}
	}

	return nil
}

func transcriptLine(r telemetry.Record) string {
	return fmt.Sprintf("[%s] - Action: %s | Type: %s | User Agent: %s | URL: %s",
		r.Timestamp, r.Action, r.RawEventType, r.UserAgent, r.URL)
}
