package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/primusr/alttab/pkg/pagination"
)

// ListStudents returns the students enrolled in a course, in the order
// Canvas returns them. Non-student enrollments are filtered out. Entries
// whose user ID cannot be determined are skipped with a warning; missing
// names are substituted with "N/A".
func (c *Client) ListStudents(ctx context.Context, courseID string) ([]Student, error) {
	endpoint := fmt.Sprintf("/api/v1/courses/%s/enrollments", url.PathEscape(courseID))

	query := url.Values{}
	query.Add("type[]", "StudentEnrollment")
	query.Add("include[]", "user")

	pager := pagination.New(c, endpoint, query, func(body []byte) ([]Enrollment, error) {
		var enrollments []Enrollment
		if err := json.Unmarshal(body, &enrollments); err != nil {
			return nil, &DecodeError{Endpoint: "enrollments", Err: err}
		}
		return enrollments, nil
	}, c.pagerConfig())

	enrollments, err := pagination.Collect(ctx, pager)
	if err != nil {
		return nil, fmt.Errorf("list enrollments for course %s: %w", courseID, err)
	}

	students := make([]Student, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Role != "StudentEnrollment" {
			continue
		}

		id := e.User.ID
		if id == 0 {
			id = e.UserID
		}
		if id == 0 {
			c.logger.Warn().
				Int64("enrollment_id", e.ID).
				Msg("Enrollment without user ID, skipping")
			continue
		}

		name := e.User.Name
		if name == "" {
			name = "N/A"
		}

		students = append(students, Student{ID: id, Name: name})
	}

	c.logger.Debug().
		Str("course_id", courseID).
		Int("students", len(students)).
		Msg("Fetched course roster")

	return students, nil
}

// ListQuizSubmissions returns the quiz submissions of one student for one
// quiz. A response without the quiz_submissions key yields an empty slice;
// submissions without an ID are dropped with a warning.
func (c *Client) ListQuizSubmissions(ctx context.Context, courseID, quizID string, userID int64) ([]QuizSubmission, error) {
	endpoint := fmt.Sprintf("/api/v1/courses/%s/quizzes/%s/submissions",
		url.PathEscape(courseID), url.PathEscape(quizID))

	query := url.Values{}
	query.Set("user_id", fmt.Sprintf("%d", userID))

	pager := pagination.New(c, endpoint, query, func(body []byte) ([]QuizSubmission, error) {
		var envelope struct {
			QuizSubmissions []QuizSubmission `json:"quiz_submissions"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, &DecodeError{Endpoint: "quiz_submissions", Err: err}
		}
		return envelope.QuizSubmissions, nil
	}, c.pagerConfig())

	submissions, err := pagination.Collect(ctx, pager)
	if err != nil {
		return nil, fmt.Errorf("list quiz submissions for user %d: %w", userID, err)
	}

	valid := submissions[:0]
	for _, s := range submissions {
		if s.ID == 0 {
			c.logger.Warn().
				Int64("user_id", userID).
				Msg("Quiz submission without ID, dropping")
			continue
		}
		valid = append(valid, s)
	}

	return valid, nil
}

// ListSubmissionEvents returns the captured events of one quiz submission
// in the order Canvas returns them. A page without the
// quiz_submission_events key is treated as empty with a warning, since it
// usually means the quiz predates event capture.
func (c *Client) ListSubmissionEvents(ctx context.Context, courseID, quizID string, submissionID int64) ([]QuizSubmissionEvent, error) {
	endpoint := fmt.Sprintf("/api/v1/courses/%s/quizzes/%s/submissions/%d/events",
		url.PathEscape(courseID), url.PathEscape(quizID), submissionID)

	logger := c.logger
	pager := pagination.New(c, endpoint, nil, func(body []byte) ([]QuizSubmissionEvent, error) {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, &DecodeError{Endpoint: "submission_events", Err: err}
		}

		raw, ok := envelope["quiz_submission_events"]
		if !ok {
			logger.Warn().
				Int64("submission_id", submissionID).
				Msg("Response without quiz_submission_events key")
			return nil, nil
		}

		var events []QuizSubmissionEvent
		if err := json.Unmarshal(raw, &events); err != nil {
			return nil, &DecodeError{Endpoint: "submission_events", Err: err}
		}
		return events, nil
	}, c.pagerConfig())

	events, err := pagination.Collect(ctx, pager)
	if err != nil {
		return nil, fmt.Errorf("list events for submission %d: %w", submissionID, err)
	}

	return events, nil
}

func (c *Client) pagerConfig() pagination.Config {
	return pagination.Config{PerPage: c.config.PerPage}
}
