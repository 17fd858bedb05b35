package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/entity"
	"github.com/freeseed/exams-tw/internal/examstore"
	"github.com/freeseed/exams-tw/internal/repository"
)

// ExamSource reads exam records from a folder or from MongoDB.
type ExamSource interface {
	Get(ctx context.Context, id string) (*entity.Exam, error)
	List(ctx context.Context, f examstore.Filter) ([]entity.Exam, error)
}

// Exporter renders an XLSX workbook for a filter.
type Exporter interface {
	ExportExamsXLSX(ctx context.Context, f examstore.Filter) ([]byte, error)
}

// JobLister reads the extraction ledger.
type JobLister interface {
	List(ctx context.Context, f repository.JobFilter) ([]*entity.ExtractJob, error)
}

type ExamServer struct {
	exams    ExamSource
	exporter Exporter
	jobs     JobLister
	logger   *slog.Logger
}

var _ ExamServiceServer = (*ExamServer)(nil)

func NewExamServer(exams ExamSource, exporter Exporter, jobs JobLister, logger *slog.Logger) *ExamServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExamServer{exams: exams, exporter: exporter, jobs: jobs, logger: logger}
}

// ListExams returns exam summaries. Request fields: year, exam_name,
// subject, parsed_only, limit.
func (s *ExamServer) ListExams(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := examFilter(req)
	if err != nil {
		return nil, err
	}
	exams, err := s.exams.List(ctx, f)
	if err != nil {
		s.logger.Error("server.list_exams.failed", "error", err)
		return nil, common.ToStatus(err, "list exams failed")
	}
	out := make([]any, 0, len(exams))
	for i := range exams {
		e := &exams[i]
		out = append(out, map[string]any{
			"id":        e.ID,
			"year":      e.Year,
			"exam_name": e.ExamName,
			"subject":   e.Subject,
			"questions": len(e.Questions),
			"images":    e.ImageCount(),
			"parsed":    e.Parsed,
		})
	}
	return newStruct(map[string]any{"exams": out, "count": len(out)})
}

// GetExam returns one exam record exactly as it is stored.
func (s *ExamServer) GetExam(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := strings.TrimSpace(req.GetValue())
	if id == "" {
		return nil, common.InvalidArgumentErrorf("id is required")
	}
	if err := common.ValidateAndReturnError(common.NewValidator().Field("id", id, common.FSEID)); err != nil {
		return nil, err
	}
	e, err := s.exams.Get(ctx, id)
	if err != nil {
		s.logger.Warn("server.get_exam.failed", "exam_id", id, "error", err)
		return nil, common.ToStatus(err, "exam "+id)
	}
	e.Normalize()
	b, err := json.Marshal(e)
	if err != nil {
		return nil, common.InternalErrorf("encode exam: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, common.InternalErrorf("encode exam: %v", err)
	}
	return newStruct(m)
}

// ExportXLSX renders the filtered exams as a workbook.
func (s *ExamServer) ExportXLSX(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error) {
	f, err := examFilter(req)
	if err != nil {
		return nil, err
	}
	xlsx, err := s.exporter.ExportExamsXLSX(ctx, f)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "error", err)
		return nil, common.ToStatus(err, "export failed")
	}
	return wrapperspb.Bytes(xlsx), nil
}

// ListJobs returns ledger rows, newest first. Request fields: exam_id,
// status, limit.
func (s *ExamServer) ListJobs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.jobs == nil {
		return nil, common.InternalErrorf("ledger not configured")
	}
	f := repository.JobFilter{
		ExamID: stringField(req, "exam_id"),
		Status: constants.JobStatus(strings.ToUpper(stringField(req, "status"))),
		Limit:  intField(req, "limit"),
	}
	jobs, err := s.jobs.List(ctx, f)
	if err != nil {
		s.logger.Error("server.list_jobs.failed", "error", err)
		return nil, common.ToStatus(err, "list jobs failed")
	}
	out := make([]any, 0, len(jobs))
	for _, j := range jobs {
		row := map[string]any{
			"id":             j.ID.String(),
			"exam_id":        j.ExamID,
			"layout":         j.Layout,
			"status":         j.Status,
			"question_count": j.QuestionCount,
			"image_count":    j.ImageCount,
			"started_at":     j.StartedAt.Format(time.RFC3339Nano),
		}
		if j.ErrorMessage != nil {
			row["error_message"] = *j.ErrorMessage
		}
		if j.FinishedAt != nil {
			row["finished_at"] = j.FinishedAt.Format(time.RFC3339Nano)
		}
		out = append(out, row)
	}
	return newStruct(map[string]any{"jobs": out, "count": len(out)})
}

// ListLayouts returns the canonical layout names.
func (s *ExamServer) ListLayouts(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	names := constants.LayoutNames()
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return newStruct(map[string]any{"layouts": out})
}

func examFilter(req *structpb.Struct) (examstore.Filter, error) {
	f := examstore.Filter{
		Year:       stringField(req, "year"),
		ExamName:   stringField(req, "exam_name"),
		Subject:    stringField(req, "subject"),
		ParsedOnly: req.GetFields()["parsed_only"].GetBoolValue(),
		Limit:      intField(req, "limit"),
	}
	if f.Limit < 0 {
		return f, common.InvalidArgumentErrorf("limit must not be negative, got %d", f.Limit)
	}
	return f, nil
}

func stringField(req *structpb.Struct, key string) string {
	return strings.TrimSpace(req.GetFields()[key].GetStringValue())
}

func intField(req *structpb.Struct, key string) int {
	return int(req.GetFields()[key].GetNumberValue())
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return s, nil
}
