package telemetry

import (
	"testing"

	"github.com/primusr/alttab/pkg/canvas"
)

func TestActionDescription(t *testing.T) {
	tests := []struct {
		name     string
		event    canvas.QuizSubmissionEvent
		expected string
	}{
		{
			name:     "session started",
			event:    canvas.QuizSubmissionEvent{EventType: "session_started"},
			expected: "Session started",
		},
		{
			name: "question answered",
			event: canvas.QuizSubmissionEvent{
				EventType: "question_answered",
				Data:      map[string]any{"question_id": float64(5)},
			},
			expected: "Answered question:#5",
		},
		{
			name: "question answered with large id",
			event: canvas.QuizSubmissionEvent{
				EventType: "question_answered",
				Data:      map[string]any{"question_id": float64(128345)},
			},
			expected: "Answered question:#128345",
		},
		{
			name: "question answered with string id",
			event: canvas.QuizSubmissionEvent{
				EventType: "question_answered",
				Data:      map[string]any{"question_id": "12a"},
			},
			expected: "Answered question:#12a",
		},
		{
			name:     "question answered without payload",
			event:    canvas.QuizSubmissionEvent{EventType: "question_answered"},
			expected: "Answered question:#N/A",
		},
		{
			name: "question answered with nil id",
			event: canvas.QuizSubmissionEvent{
				EventType: "question_answered",
				Data:      map[string]any{"question_id": nil},
			},
			expected: "Answered question:#N/A",
		},
		{
			name:     "window blurred",
			event:    canvas.QuizSubmissionEvent{EventType: "window_blurred"},
			expected: "Stopped viewing the Canvas quiz-taking page...",
		},
		{
			name:     "window focused",
			event:    canvas.QuizSubmissionEvent{EventType: "window_focused"},
			expected: "Resumed.",
		},
		{
			name: "page view with description",
			event: canvas.QuizSubmissionEvent{
				EventType:   "page_view",
				Description: "Quiz Instructions",
				URL:         "https://school.instructure.com/page",
			},
			expected: "Viewed page: Quiz Instructions",
		},
		{
			name: "page view falls back to url",
			event: canvas.QuizSubmissionEvent{
				EventType: "page_view",
				URL:       "https://school.instructure.com/page",
			},
			expected: "Viewed page: https://school.instructure.com/page",
		},
		{
			name:     "page view without description or url",
			event:    canvas.QuizSubmissionEvent{EventType: "page_view"},
			expected: "Viewed page: N/A",
		},
		{
			name: "unknown type with description",
			event: canvas.QuizSubmissionEvent{
				EventType:   "custom_weird_event",
				Description: "hi",
			},
			expected: "Custom weird event: hi",
		},
		{
			name:     "unknown type without description",
			event:    canvas.QuizSubmissionEvent{EventType: "page_blurred"},
			expected: "Page blurred",
		},
		{
			name:     "unknown type with mixed case",
			event:    canvas.QuizSubmissionEvent{EventType: "OAuth_Token_Refreshed"},
			expected: "Oauth token refreshed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ActionDescription(tt.event)
			if result != tt.expected {
				t.Errorf("ActionDescription() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestQuestionID_NonIntegralNumber(t *testing.T) {
	result := questionID(map[string]any{"question_id": 5.5})
	if result != "5.5" {
		t.Errorf("questionID() = %q, want %q", result, "5.5")
	}
}
