package hint

import "context"

// Requester produces a short free-form hint for a level question.
type Requester interface {
	RequestHint(ctx context.Context, question, contextLabel string) (string, error)
}

type RequesterFunc func(ctx context.Context, question, contextLabel string) (string, error)

func (f RequesterFunc) RequestHint(ctx context.Context, question, contextLabel string) (string, error) {
	return f(ctx, question, contextLabel)
}
