package canvas

// User is the user object embedded in an enrollment when include[]=user
// is requested.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Enrollment is one element of the course enrollments collection.
type Enrollment struct {
	ID     int64  `json:"id"`
	Role   string `json:"role"`
	UserID int64  `json:"user_id"`
	User   User   `json:"user"`
}

// Student identifies one enrolled student.
type Student struct {
	ID   int64
	Name string
}

// QuizSubmission is one attempt row from the quiz submissions endpoint.
type QuizSubmission struct {
	ID      int64 `json:"id"`
	UserID  int64 `json:"user_id"`
	Attempt int   `json:"attempt"`
}

// QuizSubmissionEvent is one raw behavioral event captured by Canvas during
// a quiz attempt. CreatedAt stays a string here; parsing happens during
// normalization so one bad timestamp cannot fail a whole submission.
type QuizSubmissionEvent struct {
	EventType   string         `json:"event_type"`
	CreatedAt   string         `json:"created_at"`
	Description string         `json:"description"`
	URL         string         `json:"url"`
	UserAgent   string         `json:"user_agent"`
	Data        map[string]any `json:"data"`
}
