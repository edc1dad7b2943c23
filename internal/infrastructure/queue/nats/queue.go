package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/resilience"
)

const (
	clientName       = "campus-faq-assistant"
	workerQueueGroup = "faq-workers"
	publishOperation = "nats.publish"
)

// Queue carries ingestion events from the API and faqctl to the workers.
type Queue struct {
	conn     *nats.Conn
	subject  string
	workers  int
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	// Workers is the number of documents processed concurrently by one subscriber.
	Workers            int
	ResilienceExecutor *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	conn, err := nats.Connect(url, connectOptions(options)...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		workers:  max(options.Workers, 1),
		executor: options.ResilienceExecutor,
	}, nil
}

func connectOptions(o Options) []nats.Option {
	timeout := o.ConnectTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	wait := o.ReconnectWait
	if wait <= 0 {
		wait = 2 * time.Second
	}
	reconnects := o.MaxReconnects
	if reconnects <= 0 {
		reconnects = 60
	}
	retryOnFailed := true
	if o.RetryOnFailedConnect != nil {
		retryOnFailed = *o.RetryOnFailedConnect
	}

	return []nats.Option{
		nats.Name(clientName),
		nats.Timeout(timeout),
		nats.ReconnectWait(wait),
		nats.MaxReconnects(reconnects),
		nats.RetryOnFailedConnect(retryOnFailed),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	}
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	msg, err := encodeEvent(q.subject, ingestEvent{DocumentID: documentID, QueuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	publish := func(context.Context) error {
		if err := q.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}
	if q.executor != nil {
		err = q.executor.Execute(ctx, publishOperation, publish, classifyNATSError)
	} else {
		err = publish(ctx)
	}
	return resilience.WrapTemporary(publishOperation, err, classifyNATSError)
}

// SubscribeDocumentIngested blocks until ctx is done, then drains the
// subscription and waits for in-flight documents. Handler errors are logged;
// the document row already carries the failure.
func (q *Queue) SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error {
	msgs := make(chan *nats.Msg, q.workers*4)
	sub, err := q.conn.ChanQueueSubscribe(q.subject, workerQueueGroup, msgs)
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := q.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("nats flush: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for range q.workers {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case msg := <-msgs:
					q.dispatch(gctx, msg, handler)
				}
			}
		})
	}

	<-ctx.Done()
	drainErr := sub.Drain()
	_ = g.Wait()
	if drainErr != nil {
		return fmt.Errorf("nats drain subscription: %w", drainErr)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (q *Queue) dispatch(ctx context.Context, msg *nats.Msg, handler func(context.Context, string) error) {
	event, err := decodeEvent(msg)
	if err != nil {
		slog.Warn("ingest_event_rejected", "subject", msg.Subject, "error", err)
		return
	}
	if !event.QueuedAt.IsZero() {
		slog.Debug("ingest_event_received",
			"document_id", event.DocumentID,
			"queue_lag_ms", time.Since(event.QueuedAt).Milliseconds(),
		)
	}
	if err := handler(ctx, event.DocumentID); err != nil {
		slog.Error("document_processing_failed", "document_id", event.DocumentID, "error", err)
	}
}
