package practice

import "context"

// ResultSink receives a finished session's result. Implementations persist
// the history record and, for homework sessions, mark the homework
// complete.
type ResultSink interface {
	Deliver(ctx context.Context, r *Result) error
}

// Publish hands the result to sink. It is a no-op for a nil result so
// callers can pass Submission.Result or Step.Result unconditionally.
func Publish(ctx context.Context, sink ResultSink, r *Result) error {
	if r == nil || sink == nil {
		return nil
	}
	return sink.Deliver(ctx, r)
}
