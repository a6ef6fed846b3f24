package common

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id on outgoing HTTP calls and incoming gRPC metadata.
const RequestIDHeader = "x-request-id"

type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyUploadID  contextKey = "upload_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// EnsureRequestID returns ctx carrying a request ID, generating one if absent.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if rid := RequestIDFromContext(ctx); rid != "" {
		return ctx, rid
	}
	rid := uuid.New().String()
	return WithRequestID(ctx, rid), rid
}

// WithUploadID adds an upload ID to the context
func WithUploadID(ctx context.Context, uploadID string) context.Context {
	return context.WithValue(ctx, ContextKeyUploadID, uploadID)
}

// UploadIDFromContext extracts the upload ID from context
func UploadIDFromContext(ctx context.Context) string {
	if uploadID, ok := ctx.Value(ContextKeyUploadID).(string); ok {
		return uploadID
	}
	return ""
}
