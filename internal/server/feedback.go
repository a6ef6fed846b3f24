package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/essay-feedback/internal/common"
	"github.com/joseph-ayodele/essay-feedback/internal/core"
	"github.com/joseph-ayodele/essay-feedback/internal/export"
	"github.com/joseph-ayodele/essay-feedback/internal/llm"
	"github.com/joseph-ayodele/essay-feedback/internal/repository"
)

const (
	defaultListLimit = 50
	maxFilenameRunes = 255
)

type FeedbackService struct {
	registry *core.Registry
	exporter *export.Service
	logger   *slog.Logger
}

var _ FeedbackServer = (*FeedbackService)(nil)

func NewFeedbackService(registry *core.Registry, exporter *export.Service, logger *slog.Logger) *FeedbackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackService{registry: registry, exporter: exporter, logger: logger}
}

// RegisterUpload expects {filename, content_base64}.
func (s *FeedbackService) RegisterUpload(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	name := strings.TrimSpace(stringField(req, "filename"))
	if err := common.ValidateAndReturnError(common.NewValidator().
		Field("filename", name, common.Required, common.MaxLength(maxFilenameRunes))); err != nil {
		return nil, err
	}
	content, err := base64.StdEncoding.DecodeString(stringField(req, "content_base64"))
	if err != nil {
		return nil, common.InvalidArgumentError("content_base64 must be standard base64")
	}

	u, err := s.registry.RegisterContent(ctx, name, bytes.NewReader(content))
	if err != nil {
		s.logger.Error("rpc.register_upload.failed", "req_id", rid, "filename", name, "error", err)
		return nil, common.ToStatus(err)
	}
	return toStruct(uploadFields(u))
}

// Evaluate expects {upload_id}.
func (s *FeedbackService) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	id, err := uploadID(req)
	if err != nil {
		return nil, err
	}
	u, res, err := s.registry.Evaluate(ctx, id)
	if err != nil {
		s.logger.Error("rpc.evaluate.failed", "req_id", rid, "upload_id", id, "error", err)
		return nil, common.ToStatus(err)
	}
	out := uploadFields(u)
	out["feedback"] = res.Feedback.AsMap()
	out["truncated"] = res.Truncated
	out["schema_warnings"] = stringsToAny(res.SchemaWarnings)
	return toStruct(out)
}

// NextRound expects {upload_id}.
func (s *FeedbackService) NextRound(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uploadID(req)
	if err != nil {
		return nil, err
	}
	n, err := s.registry.NextRound(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{"upload_id": id.String(), "feedback_count": n})
}

// IngestFeedback expects {upload_id, text}.
func (s *FeedbackService) IngestFeedback(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	id, err := uploadID(req)
	if err != nil {
		return nil, err
	}
	u, fb, err := s.registry.IngestFeedback(ctx, id, strings.NewReader(stringField(req, "text")))
	if err != nil {
		s.logger.Warn("rpc.ingest_feedback.failed", "req_id", rid, "upload_id", id, "error", err)
		return nil, common.ToStatus(err)
	}
	out := uploadFields(u)
	out["feedback"] = fb.AsMap()
	return toStruct(out)
}

// Status expects {upload_id}.
func (s *FeedbackService) Status(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uploadID(req)
	if err != nil {
		return nil, err
	}
	st, err := s.registry.Status(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := map[string]any{
		"upload_id":           st.UploadID.String(),
		"filename":            st.Filename,
		"saved_path":          st.SavedPath,
		"format":              st.Format,
		"feedback_count":      st.FeedbackCount,
		"status":              string(st.State),
		"last_error":          st.LastError,
		"has_latest_feedback": st.HasLatestFeedback,
		"dimensions":          stringsToAny(st.Dimensions),
	}
	if st.Latest != nil {
		out["latest_feedback"] = st.Latest.AsMap()
	}
	return toStruct(out)
}

// ListUploads accepts an optional {limit}.
func (s *FeedbackService) ListUploads(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := defaultListLimit
	if v, ok := req.GetFields()["limit"]; ok && v.GetNumberValue() > 0 {
		limit = int(v.GetNumberValue())
	}
	ups, err := s.registry.List(ctx, limit)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	items := make([]any, 0, len(ups))
	for _, u := range ups {
		items = append(items, uploadFields(u))
	}
	return toStruct(map[string]any{"uploads": items})
}

// ExportFeedback expects {upload_ids: [...]} and returns {filename, xlsx_base64}.
// Every upload must already carry feedback.
func (s *FeedbackService) ExportFeedback(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	raw := req.GetFields()["upload_ids"].GetListValue().GetValues()
	if len(raw) == 0 {
		return nil, common.InvalidArgumentError("upload_ids is required")
	}

	docs := make([]export.Document, 0, len(raw))
	for _, v := range raw {
		id, err := uuid.Parse(strings.TrimSpace(v.GetStringValue()))
		if err != nil {
			return nil, common.InvalidArgumentErrorf("upload id %q must be a UUID", v.GetStringValue())
		}
		st, err := s.registry.Status(ctx, id)
		if err != nil {
			return nil, common.ToStatus(err)
		}
		if st.Latest == nil {
			return nil, common.FailedPreconditionError("upload " + id.String() + " has no feedback yet")
		}
		docs = append(docs, export.Document{Name: st.Filename, Feedback: *st.Latest})
	}

	xlsx, err := s.exporter.FeedbackXLSX(ctx, docs)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "req_id", rid, "error", err)
		return nil, common.InternalError(err.Error())
	}
	return toStruct(map[string]any{
		"filename":    "feedback-" + time.Now().UTC().Format("20060102-150405") + ".xlsx",
		"xlsx_base64": base64.StdEncoding.EncodeToString(xlsx),
	})
}

func uploadID(req *structpb.Struct) (uuid.UUID, error) {
	raw := strings.TrimSpace(stringField(req, "upload_id"))
	if err := common.ValidateAndReturnError(common.NewValidator().Field("upload_id", raw, common.Required)); err != nil {
		return uuid.Nil, err
	}
	if err := common.ValidateAndReturnError(common.NewValidator().Field("upload_id", raw, common.UUID)); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(raw), nil
}

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func uploadFields(u repository.Upload) map[string]any {
	return map[string]any{
		"upload_id":           u.ID.String(),
		"filename":            u.Filename,
		"saved_path":          u.SavedPath,
		"format":              u.Format,
		"content_hash":        u.ContentHash,
		"size_bytes":          u.SizeBytes,
		"feedback_count":      u.FeedbackCount,
		"status":              string(u.Status),
		"has_latest_feedback": u.HasLatestFeedback(),
		"created_at":          u.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":          u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return st, nil
}

// FeedbackFromStruct decodes a feedback Struct from a response.
func FeedbackFromStruct(v *structpb.Value) llm.Feedback {
	return llm.Normalize(v.AsInterface())
}
