package telemetry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/primusr/alttab/pkg/canvas"
)

type renderFunc func(ev canvas.QuizSubmissionEvent) string

// actionRenderers maps known event types to their human-readable templates.
// Unknown types fall through to fallbackAction so new Canvas event types
// degrade to a generic label instead of failing.
var actionRenderers = map[string]renderFunc{
	"session_started": func(canvas.QuizSubmissionEvent) string {
		return "Session started"
	},
	"question_answered": renderQuestionAnswered,
	"window_blurred": func(canvas.QuizSubmissionEvent) string {
		return "Stopped viewing the Canvas quiz-taking page..."
	},
	"window_focused": func(canvas.QuizSubmissionEvent) string {
		return "Resumed."
	},
	"page_view": renderPageView,
}

// ActionDescription renders the human-readable action label for one event.
func ActionDescription(ev canvas.QuizSubmissionEvent) string {
	if render, ok := actionRenderers[ev.EventType]; ok {
		return render(ev)
	}
	return fallbackAction(ev.EventType, ev.Description)
}

func renderQuestionAnswered(ev canvas.QuizSubmissionEvent) string {
	return "Answered question:#" + questionID(ev.Data)
}

func renderPageView(ev canvas.QuizSubmissionEvent) string {
	target := ev.Description
	if target == "" {
		target = ev.URL
	}
	if target == "" {
		target = "N/A"
	}
	return "Viewed page: " + target
}

// questionID extracts the question identifier from the event payload.
// JSON numbers arrive as float64; integral values render without a
// fraction so question 5 reads "5", not "5e+00".
func questionID(data map[string]any) string {
	v, ok := data["question_id"]
	if !ok || v == nil {
		return "N/A"
	}

	switch id := v.(type) {
	case float64:
		if id == math.Trunc(id) {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case string:
		return id
	default:
		return fmt.Sprintf("%v", id)
	}
}

// fallbackAction renders unrecognized event types: underscores become
// spaces, the first rune is upper-cased with the rest lowered, and a
// non-empty description is appended after a colon.
func fallbackAction(eventType, description string) string {
	label := capitalize(strings.ReplaceAll(eventType, "_", " "))
	if description != "" {
		return label + ": " + description
	}
	return label
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
}
