package audit

import "context"

// Source identifies the sender of a batch.
type Source struct {
	IP        string
	UserAgent string
}

type ctxKey struct{}

// WithSource stores the batch sender in ctx.
func WithSource(ctx context.Context, src Source) context.Context {
	return context.WithValue(ctx, ctxKey{}, src)
}

// SourceFromContext returns the sender stored by WithSource, or a zero Source.
func SourceFromContext(ctx context.Context) Source {
	if ctx == nil {
		return Source{}
	}
	v, _ := ctx.Value(ctxKey{}).(Source)
	return v
}
