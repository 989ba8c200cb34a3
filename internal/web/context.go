package web

import (
	"context"
	"net/http"

	"github.com/PranavYehale/FCTC-TOOL/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for run
// history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, clientIP(r), r.Header.Get("User-Agent"))
}
