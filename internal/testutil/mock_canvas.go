// Package testutil provides testing utilities for the Canvas telemetry pipeline.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockCanvasResponse defines the behavior for a mock Canvas endpoint response.
type MockCanvasResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCanvas is a configurable mock Canvas API server for testing.
type MockCanvas struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	PathCounts        map[string]int
	LastRequestHeader http.Header
}

// NewMockCanvas creates a new mock Canvas server.
func NewMockCanvas() *MockCanvas {
	mock := &MockCanvas{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		// Check for custom handler
		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		// Default handler
		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCanvas) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCanvas) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCanvas) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCanvas) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockCanvas) SetResponse(path string, resp MockCanvasResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		// Add delay if specified
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		// Set headers
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		// Write status and body
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// EnrollmentsPath returns the course enrollments endpoint path.
func EnrollmentsPath(courseID int64) string {
	return fmt.Sprintf("/api/v1/courses/%d/enrollments", courseID)
}

// QuizSubmissionsPath returns the quiz submissions endpoint path.
func QuizSubmissionsPath(courseID, quizID int64) string {
	return fmt.Sprintf("/api/v1/courses/%d/quizzes/%d/submissions", courseID, quizID)
}

// SubmissionEventsPath returns the submission events endpoint path.
func SubmissionEventsPath(courseID, quizID, submissionID int64) string {
	return fmt.Sprintf("/api/v1/courses/%d/quizzes/%d/submissions/%d/events", courseID, quizID, submissionID)
}

// SetEnrollments serves the given enrollment JSON pages for a course.
// Pages are chained with Link rel="next" headers; the final page carries
// only rel="current" so walkers stop there.
func (m *MockCanvas) SetEnrollments(courseID int64, pages ...string) {
	m.setPaginated(EnrollmentsPath(courseID), "[]", pages)
}

// SetQuizSubmissions serves quiz submission envelopes keyed by the user_id
// query parameter. Users missing from the map get an empty envelope, which
// is how Canvas answers for a student who never took the quiz.
func (m *MockCanvas) SetQuizSubmissions(courseID, quizID int64, byUser map[int64]string) {
	path := QuizSubmissionsPath(courseID, quizID)
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
		body, ok := byUser[userID]
		if !ok {
			body = `{"quiz_submissions": []}`
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s%s>; rel="current"`, m.URL(), path))
		writeJSON(w, http.StatusOK, body)
	})
}

// SetSubmissionEvents serves a single-page event envelope for a submission.
func (m *MockCanvas) SetSubmissionEvents(courseID, quizID, submissionID int64, body string) {
	path := SubmissionEventsPath(courseID, quizID, submissionID)
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", fmt.Sprintf(`<%s%s>; rel="current"`, m.URL(), path))
		writeJSON(w, http.StatusOK, body)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCanvas) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to a specific path.
func (m *MockCanvas) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// setPaginated serves pages in order, chained with Link rel="next" headers.
// Requests past the last page get the empty body so counter-driven walks
// also terminate.
func (m *MockCanvas) setPaginated(path, empty string, pages []string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				page = n
			}
		}

		if page > len(pages) {
			writeJSON(w, http.StatusOK, empty)
			return
		}

		link := fmt.Sprintf(`<%s%s?page=%d>; rel="current"`, m.URL(), path, page)
		if page < len(pages) {
			link = fmt.Sprintf(`<%s%s?page=%d>; rel="next", %s`, m.URL(), path, page+1, link)
		}
		w.Header().Set("Link", link)
		writeJSON(w, http.StatusOK, pages[page-1])
	})
}

// defaultHandler answers unconfigured paths the way Canvas answers
// unknown resources.
func (m *MockCanvas) defaultHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, `{"errors": [{"message": "The specified resource does not exist."}]}`)
}

// writeJSON writes a JSON body together with healthy Canvas quota headers.
func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Rate-Limit-Remaining", "700.0")
	w.Header().Set("X-Request-Cost", "1.0")
	w.WriteHeader(status)
	if body != "" {
		w.Write([]byte(body))
	}
}

// NewHealthyResponse creates a standard 200 OK response with Canvas quota headers.
func NewHealthyResponse(data string) MockCanvasResponse {
	return MockCanvasResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"X-Rate-Limit-Remaining": "700.0",
			"X-Request-Cost":         "1.0",
			"Content-Type":           "application/json; charset=utf-8",
		},
	}
}

// NewLowQuotaResponse creates a 200 OK response whose quota headers push
// the rate-limit tracker into the critical band.
func NewLowQuotaResponse(data string) MockCanvasResponse {
	return MockCanvasResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"X-Rate-Limit-Remaining": "40.0",
			"X-Request-Cost":         "6.5",
			"Content-Type":           "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockCanvasResponse {
	return MockCanvasResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"errors": [{"message": "Rate limit exceeded"}]}`,
		Headers: map[string]string{
			"X-Rate-Limit-Remaining": "0.0",
			"X-Request-Cost":         "1.0",
			"Content-Type":           "application/json; charset=utf-8",
		},
	}
}

// NewUnauthorizedResponse creates a 401 Invalid Token response.
func NewUnauthorizedResponse() MockCanvasResponse {
	return MockCanvasResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"errors": [{"message": "Invalid access token."}]}`,
		Headers: map[string]string{
			"WWW-Authenticate": `Bearer realm="canvas-lms"`,
			"Content-Type":     "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockCanvasResponse {
	return MockCanvasResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"errors": [{"message": "An unexpected error occurred."}]}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
