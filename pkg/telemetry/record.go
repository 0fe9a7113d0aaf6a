// Package telemetry turns raw quiz submission events into normalized,
// deduplicated records ready for export.
package telemetry

// Record is the exportable form of one quiz submission event, tagged with
// the student and submission it belongs to.
type Record struct {
	StudentID      int64
	StudentName    string
	SubmissionID   int64
	Timestamp      string // Wall-clock HH:MM, or "N/A" if unparsable
	Action         string
	RawEventType   string
	RawDescription string
	UserAgent      string
	URL            string
}

// Key identifies semantically equal records for deduplication. Records
// differing only in URL, user agent, or raw description collapse into one.
type Key struct {
	SubmissionID int64
	Timestamp    string
	Action       string
	RawEventType string
}

// Key returns the record's dedup identity.
func (r Record) Key() Key {
	return Key{
		SubmissionID: r.SubmissionID,
		Timestamp:    r.Timestamp,
		Action:       r.Action,
		RawEventType: r.RawEventType,
	}
}
