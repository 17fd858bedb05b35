package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/entity"
)

const jobsTable = "extract_jobs"

var jobColumns = []string{
	"id", "exam_id", "layout", "source_path", "status",
	"question_count", "image_count", "error_message", "started_at", "finished_at",
}

// JobFilter narrows List. Zero fields are ignored.
type JobFilter struct {
	ExamID string
	Status constants.JobStatus
	Limit  int
}

type ExtractJobRepository interface {
	Enqueue(ctx context.Context, examID, sourcePath string) (*entity.ExtractJob, error)
	Start(ctx context.Context, examID, layout, sourcePath string) (*entity.ExtractJob, error)
	Finish(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, questions, images int) error
	Fail(ctx context.Context, jobID uuid.UUID, message string) error
	Skip(ctx context.Context, jobID uuid.UUID, reason string) error
	List(ctx context.Context, f JobFilter) ([]*entity.ExtractJob, error)
}

type extractJobRepo struct {
	ledger *Ledger
	log    *slog.Logger
	now    func() time.Time
}

func NewExtractJobRepository(ledger *Ledger, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{ledger: ledger, log: log, now: time.Now}
}

func (r *extractJobRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.ledger.dialect)
}

// Enqueue records a QUEUED job for examID. The next Start for the same
// exam claims it.
func (r *extractJobRepo) Enqueue(ctx context.Context, examID, sourcePath string) (*entity.ExtractJob, error) {
	job := r.newJob(examID, "", sourcePath, constants.JobStatusQueued)
	if err := r.insert(ctx, job); err != nil {
		r.log.Error("extract_job.enqueue.failed", "exam_id", examID, "error", err)
		return nil, err
	}
	r.log.Debug("extract_job.queued", "job_id", job.ID, "exam_id", examID)
	return job, nil
}

// Start moves the oldest QUEUED job of examID to RUNNING, or inserts a new
// RUNNING job when none is queued.
func (r *extractJobRepo) Start(ctx context.Context, examID, layout, sourcePath string) (*entity.ExtractJob, error) {
	job := r.newJob(examID, layout, sourcePath, constants.JobStatusRunning)
	queued, err := r.oldestQueued(ctx, examID)
	if err != nil {
		r.log.Error("extract_job.start.failed", "exam_id", examID, "error", err)
		return nil, err
	}
	if queued != uuid.Nil {
		job.ID = queued
		err = r.update(ctx, job.ID, r.builder().Update(jobsTable).
			Set("status", job.Status).
			Set("layout", job.Layout).
			Set("source_path", job.SourcePath).
			Set("started_at", job.StartedAt.UnixMilli()))
	} else {
		err = r.insert(ctx, job)
	}
	if err != nil {
		r.log.Error("extract_job.start.failed", "exam_id", examID, "error", err)
		return nil, err
	}
	r.log.Info("extract_job.started", "job_id", job.ID, "exam_id", examID, "layout", layout, "claimed", queued != uuid.Nil)
	return job, nil
}

func (r *extractJobRepo) newJob(examID, layout, sourcePath string, status constants.JobStatus) *entity.ExtractJob {
	return &entity.ExtractJob{
		ID:         uuid.New(),
		ExamID:     examID,
		Layout:     layout,
		SourcePath: sourcePath,
		Status:     string(status),
		// stored with millisecond precision
		StartedAt: time.UnixMilli(r.now().UnixMilli()).UTC(),
	}
}

func (r *extractJobRepo) insert(ctx context.Context, job *entity.ExtractJob) error {
	query, args := r.builder().Insert(jobsTable).
		Columns("id", "exam_id", "layout", "source_path", "status", "started_at").
		Values(job.ID.String(), job.ExamID, job.Layout, job.SourcePath, job.Status, job.StartedAt.UnixMilli()).
		Query()
	if _, err := r.ledger.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return nil
}

func (r *extractJobRepo) oldestQueued(ctx context.Context, examID string) (uuid.UUID, error) {
	b := r.builder()
	query, args := b.Select("id").From(b.Table(jobsTable)).
		Where(entsql.And(entsql.EQ("exam_id", examID), entsql.EQ("status", string(constants.JobStatusQueued)))).
		OrderBy(entsql.Asc("started_at")).
		Limit(1).
		Query()
	var id uuid.UUID
	err := r.ledger.DB().QueryRowContext(ctx, query, args...).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return uuid.Nil, nil
	case err != nil:
		return uuid.Nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return id, nil
}

func (r *extractJobRepo) Finish(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, questions, images int) error {
	if !status.Terminal() {
		return fmt.Errorf("finish job %s as %s: %w", jobID, status, common.ErrInvalidInput)
	}
	err := r.update(ctx, jobID, r.builder().Update(jobsTable).
		Set("status", string(status)).
		Set("question_count", questions).
		Set("image_count", images).
		Set("finished_at", r.now().UnixMilli()))
	if err != nil {
		r.log.Error("extract_job.finish.failed", "job_id", jobID, "error", err)
		return err
	}
	r.log.Info("extract_job.finished", "job_id", jobID, "status", status, "questions", questions, "images", images)
	return nil
}

func (r *extractJobRepo) Fail(ctx context.Context, jobID uuid.UUID, message string) error {
	return r.close(ctx, jobID, constants.JobStatusFailed, message)
}

func (r *extractJobRepo) Skip(ctx context.Context, jobID uuid.UUID, reason string) error {
	return r.close(ctx, jobID, constants.JobStatusSkipped, reason)
}

func (r *extractJobRepo) close(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, message string) error {
	err := r.update(ctx, jobID, r.builder().Update(jobsTable).
		Set("status", string(status)).
		Set("error_message", message).
		Set("finished_at", r.now().UnixMilli()))
	if err != nil {
		r.log.Error("extract_job.close.failed", "job_id", jobID, "status", status, "error", err)
		return err
	}
	r.log.Warn("extract_job.closed", "job_id", jobID, "status", status, "reason", message)
	return nil
}

// update applies u to jobID while the job is still open. Closed jobs are
// never rewritten.
func (r *extractJobRepo) update(ctx context.Context, jobID uuid.UUID, u *entsql.UpdateBuilder) error {
	query, args := u.Where(entsql.And(
		entsql.EQ("id", jobID.String()),
		entsql.NotIn("status", closedStatuses()...),
	)).Query()
	res, err := r.ledger.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return nil
	}
	current, err := r.status(ctx, jobID)
	if err != nil {
		return err
	}
	return fmt.Errorf("extract job %s is already %s: %w", jobID, current, common.ErrInvalidInput)
}

func (r *extractJobRepo) status(ctx context.Context, jobID uuid.UUID) (constants.JobStatus, error) {
	b := r.builder()
	query, args := b.Select("status").From(b.Table(jobsTable)).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	var s string
	err := r.ledger.DB().QueryRowContext(ctx, query, args...).Scan(&s)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("extract job %s: %w", jobID, common.ErrNotFound)
	case err != nil:
		return "", fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return constants.JobStatus(s), nil
}

func closedStatuses() []any {
	var out []any
	for _, s := range constants.JobStatuses() {
		if s.Terminal() {
			out = append(out, string(s))
		}
	}
	return out
}

func (r *extractJobRepo) List(ctx context.Context, f JobFilter) ([]*entity.ExtractJob, error) {
	b := r.builder()
	sel := b.Select(jobColumns...).From(b.Table(jobsTable))
	if f.ExamID != "" {
		sel.Where(entsql.EQ("exam_id", f.ExamID))
	}
	if f.Status != "" {
		sel.Where(entsql.EQ("status", string(f.Status)))
	}
	sel.OrderBy(entsql.Desc("started_at"))
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	query, args := sel.Query()

	rows, err := r.ledger.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.ExtractJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func scanJob(rows *sql.Rows) (*entity.ExtractJob, error) {
	var (
		job      entity.ExtractJob
		errMsg   sql.NullString
		started  int64
		finished sql.NullInt64
	)
	if err := rows.Scan(&job.ID, &job.ExamID, &job.Layout, &job.SourcePath, &job.Status,
		&job.QuestionCount, &job.ImageCount, &errMsg, &started, &finished); err != nil {
		return nil, fmt.Errorf("scan extract job: %w", err)
	}
	job.StartedAt = time.UnixMilli(started).UTC()
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	if finished.Valid {
		t := time.UnixMilli(finished.Int64).UTC()
		job.FinishedAt = &t
	}
	return &job, nil
}
