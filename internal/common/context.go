package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const ContextKeyDocumentID contextKey = "document_id"

// WithDocumentID tags the context with the document being extracted (content hash hex).
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, ContextKeyDocumentID, documentID)
}

// DocumentIDFromContext extracts the document ID from context
func DocumentIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyDocumentID).(string); ok {
		return id
	}
	return ""
}
