// Package consolidate orchestrates the per-student fetch pipeline and
// merges the results into one deduplicated event collection.
package consolidate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/primusr/alttab/pkg/canvas"
	"github.com/primusr/alttab/pkg/telemetry"
)

// Prometheus metrics for consolidation runs.
var (
	studentsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alttab_students_processed_total",
		Help: "Students processed by outcome",
	}, []string{"status"})

	submissionsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alttab_submissions_fetched_total",
		Help: "Total quiz submissions fetched",
	})

	eventsCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alttab_events_collected_total",
		Help: "Total raw submission events collected",
	})

	duplicateEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alttab_duplicate_events_total",
		Help: "Events dropped by deduplication",
	})

	consolidationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alttab_consolidation_seconds",
		Help:    "Wall time of one consolidation run in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
	})
)

// Source is the Canvas surface the engine consumes. *canvas.Client
// implements it; tests substitute a fixture.
type Source interface {
	ListStudents(ctx context.Context, courseID string) ([]canvas.Student, error)
	ListQuizSubmissions(ctx context.Context, courseID, quizID string, userID int64) ([]canvas.QuizSubmission, error)
	ListSubmissionEvents(ctx context.Context, courseID, quizID string, submissionID int64) ([]canvas.QuizSubmissionEvent, error)
}

// Config holds engine configuration.
type Config struct {
	// Workers bounds how many students are fetched concurrently.
	Workers int
}

// DefaultConfig returns safe defaults.
func DefaultConfig() Config {
	return Config{
		Workers: 5,
	}
}

// Engine runs the consolidation pipeline.
type Engine struct {
	source Source
	config Config
	logger zerolog.Logger
}

// New creates a consolidation engine.
func New(source Source, cfg Config) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}

	return &Engine{
		source: source,
		config: cfg,
		logger: log.With().Str("component", "consolidate").Logger(),
	}, nil
}

type job struct {
	idx     int
	student canvas.Student
}

// Consolidate walks course -> students -> submissions -> events and
// returns one deduplicated, deterministically ordered record collection:
// students in roster order, submissions in fetch order, events in
// chronological order. An enrollment fetch failure is fatal; later
// per-student failures only cost that student's contribution.
func (e *Engine) Consolidate(ctx context.Context, courseID, quizID string) ([]telemetry.Record, error) {
	start := time.Now()
	defer func() {
		consolidationSeconds.Observe(time.Since(start).Seconds())
	}()

	students, err := e.source.ListStudents(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch enrollments: %w", err)
	}

	e.logger.Info().
		Str("course_id", courseID).
		Str("quiz_id", quizID).
		Int("students", len(students)).
		Msg("Starting consolidation")

	if len(students) == 0 {
		e.logger.Info().Str("course_id", courseID).Msg("No students enrolled")
		return []telemetry.Record{}, nil
	}

	// Index-addressed slots: each worker writes only its own students'
	// positions, so the merge needs no locking and the final order does
	// not depend on completion order.
	perStudent := make([][]telemetry.Record, len(students))

	jobs := make(chan job, len(students))
	for i, s := range students {
		jobs <- job{idx: i, student: s}
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < e.config.Workers; w++ {
		wg.Add(1)
		go e.worker(ctx, courseID, quizID, jobs, perStudent, &wg, w)
	}
	wg.Wait()

	// Workers stop mid-roster on cancellation; a cancelled run must
	// surface that instead of returning a partial collection.
	if err := ctx.Err(); err != nil {
		e.logger.Warn().
			Err(err).
			Str("course_id", courseID).
			Str("quiz_id", quizID).
			Msg("Consolidation cancelled")
		return nil, fmt.Errorf("consolidation cancelled: %w", err)
	}

	var all []telemetry.Record
	for _, records := range perStudent {
		all = append(all, records...)
	}

	unique := telemetry.Dedupe(all)
	duplicateEventsTotal.Add(float64(len(all) - len(unique)))

	e.logger.Info().
		Str("course_id", courseID).
		Str("quiz_id", quizID).
		Int("events_total", len(all)).
		Int("events_unique", len(unique)).
		Dur("duration", time.Since(start)).
		Msg("Consolidation complete")

	return unique, nil
}

// worker drains the student queue. One student's submissions and events
// are fetched sequentially inside one worker, so their relative order
// never depends on scheduling.
func (e *Engine) worker(ctx context.Context, courseID, quizID string, jobs <-chan job, perStudent [][]telemetry.Record, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for j := range jobs {
		// Check context cancellation between students
		select {
		case <-ctx.Done():
			e.logger.Debug().
				Int("worker_id", workerID).
				Int("students_processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		perStudent[j.idx] = e.collectStudent(ctx, courseID, quizID, j.student, workerID)
		processed++
	}

	if processed > 0 {
		e.logger.Debug().
			Int("worker_id", workerID).
			Int("students_processed", processed).
			Msg("Worker completed")
	}
}

// collectStudent runs one student's full pipeline. Failures are logged
// and shrink the contribution; they never escape to the merge.
func (e *Engine) collectStudent(ctx context.Context, courseID, quizID string, student canvas.Student, workerID int) []telemetry.Record {
	submissions, err := e.source.ListQuizSubmissions(ctx, courseID, quizID, student.ID)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Int64("student_id", student.ID).
			Int("worker_id", workerID).
			Msg("Submission fetch failed, skipping student")
		studentsProcessedTotal.WithLabelValues("failed").Inc()
		return nil
	}

	// No submissions means the student never attempted the quiz
	if len(submissions) == 0 {
		e.logger.Debug().
			Int64("student_id", student.ID).
			Str("quiz_id", quizID).
			Msg("No submissions, skipping student")
		studentsProcessedTotal.WithLabelValues("no_submissions").Inc()
		return nil
	}

	submissionsFetchedTotal.Add(float64(len(submissions)))

	var records []telemetry.Record
	for _, sub := range submissions {
		if ctx.Err() != nil {
			return records
		}

		events, err := e.source.ListSubmissionEvents(ctx, courseID, quizID, sub.ID)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Int64("student_id", student.ID).
				Int64("submission_id", sub.ID).
				Int("worker_id", workerID).
				Msg("Event fetch failed, skipping submission")
			continue
		}

		eventsCollectedTotal.Add(float64(len(events)))

		telemetry.SortEventsByCreatedAt(events)
		for _, ev := range events {
			records = append(records, telemetry.Normalize(ev, student, sub.ID))
		}
	}

	studentsProcessedTotal.WithLabelValues("ok").Inc()
	return records
}
