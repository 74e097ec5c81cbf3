package queue

import "context"

// Publisher is the outbound event/notification channel. Delivery is
// best-effort: callers log failures and never roll back the identity
// mutation that triggered the event.
type Publisher interface {
	Publish(ctx context.Context, key string, event any, reqID string) error
	Close() error
}

type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) Publish(ctx context.Context, key string, event any, reqID string) error {
	return nil
}
func (NoopPub) Close() error { return nil }
