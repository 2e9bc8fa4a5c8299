package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/nlpstudio/textlab/pkg/kafka"
	"github.com/nlpstudio/textlab/pkg/resilience"
)

// Publisher writes a batch of events. *kafka.Producer implements it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers usage events and publishes them in batches, either
// when a batch fills up or when the flush interval elapses.
type Collector struct {
	publisher     Publisher
	eventCh       chan UsageEvent
	batchSize     int
	flushInterval time.Duration
	onDrop        func()
	backoff       resilience.Backoff
	logger        *slog.Logger
	done          chan struct{}
}

// NewCollector creates a Collector. onDrop, if set, is called for every
// event dropped because the buffer was full.
func NewCollector(publisher Publisher, bufferSize, batchSize int, flushInterval time.Duration, onDrop func()) *Collector {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	if onDrop == nil {
		onDrop = func() {}
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan UsageEvent, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		onDrop:        onDrop,
		backoff:       resilience.Backoff{Attempts: 3, Initial: 200 * time.Millisecond, Max: 2 * time.Second, Jitter: 0.2},
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the publish loop. It runs until ctx is cancelled or Close
// is called, then publishes whatever is still buffered.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		batch := make([]kafka.Event, 0, c.batchSize)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					c.publish(context.Background(), batch)
					return
				}
				batch = append(batch, toKafka(event))
				if len(batch) >= c.batchSize {
					c.publish(ctx, batch)
					batch = batch[:0]
				}
			case <-ticker.C:
				c.publish(ctx, batch)
				batch = batch[:0]
			case <-ctx.Done():
				c.drainRemaining(batch)
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

// Track enqueues an event without blocking. Events are dropped when the
// buffer is full.
func (c *Collector) Track(event UsageEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.onDrop()
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the final flush.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) drainRemaining(batch []kafka.Event) {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				c.publish(context.Background(), batch)
				return
			}
			batch = append(batch, toKafka(event))
		default:
			c.publish(context.Background(), batch)
			return
		}
	}
}

func (c *Collector) publish(ctx context.Context, batch []kafka.Event) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err := resilience.Retry(ctx, "publish-usage-events", c.backoff, func() error {
		return c.publisher.PublishBatch(ctx, batch)
	})
	if err != nil {
		c.logger.Error("failed to publish usage events", "count", len(batch), "error", err)
		return
	}
	c.logger.Debug("usage events published", "count", len(batch))
}

func toKafka(event UsageEvent) kafka.Event {
	return kafka.Event{Key: event.Command, Value: event}
}
