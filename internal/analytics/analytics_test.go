package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nlpstudio/textlab/pkg/kafka"
	"github.com/nlpstudio/textlab/pkg/resilience"
)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (p *recordingPublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, append([]kafka.Event(nil), events...))
	return p.err
}

func (p *recordingPublisher) events() []kafka.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var all []kafka.Event
	for _, b := range p.batches {
		all = append(all, b...)
	}
	return all
}

func TestCollectorFlushesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 16, 100, time.Hour, nil)
	c.Start(context.Background())

	c.Track(UsageEvent{Command: "tokens", Outcome: OutcomeOK})
	c.Track(UsageEvent{Command: "summarize", Strategy: "lexrank", Outcome: OutcomeOK})
	c.Close()

	got := pub.events()
	if len(got) != 2 {
		t.Fatalf("published %d events, want 2", len(got))
	}
	if got[0].Key != "tokens" || got[1].Key != "summarize" {
		t.Errorf("keys = %q, %q", got[0].Key, got[1].Key)
	}
	if ev, ok := got[1].Value.(UsageEvent); !ok || ev.Strategy != "lexrank" {
		t.Errorf("value = %#v", got[1].Value)
	}
}

func TestCollectorFlushesFullBatch(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 16, 2, time.Hour, nil)
	c.Start(context.Background())
	for range 4 {
		c.Track(UsageEvent{Command: "sentiment"})
	}
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(pub.batches))
	}
	for i, b := range pub.batches {
		if len(b) != 2 {
			t.Errorf("batch %d has %d events, want 2", i, len(b))
		}
	}
}

func TestCollectorDropsWhenFull(t *testing.T) {
	pub := &recordingPublisher{}
	var dropped int
	c := NewCollector(pub, 1, 10, time.Hour, func() { dropped++ })

	// Not started: the second event finds the buffer full.
	c.Track(UsageEvent{Command: "tokens"})
	c.Track(UsageEvent{Command: "tokens"})
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestCollectorDrainsOnCancel(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	c := NewCollector(pub, 8, 100, time.Hour, nil)
	c.backoff = resilience.Backoff{Attempts: 1}
	ctx, cancel := context.WithCancel(context.Background())
	c.Track(UsageEvent{Command: "entities"})
	c.Start(ctx)
	cancel()
	<-c.done
	if len(pub.events()) != 1 {
		t.Errorf("expected the buffered event to be attempted once")
	}
}

type flakyPublisher struct {
	recordingPublisher
	failures int
}

func (p *flakyPublisher) PublishBatch(ctx context.Context, events []kafka.Event) error {
	p.mu.Lock()
	if p.failures > 0 {
		p.failures--
		p.mu.Unlock()
		return errors.New("leader not available")
	}
	p.mu.Unlock()
	return p.recordingPublisher.PublishBatch(ctx, events)
}

func TestCollectorRetriesPublish(t *testing.T) {
	pub := &flakyPublisher{failures: 2}
	c := NewCollector(pub, 8, 100, time.Hour, nil)
	c.backoff = resilience.Backoff{Attempts: 3, Initial: time.Millisecond}
	c.Start(context.Background())
	c.Track(UsageEvent{Command: "sentiment"})
	c.Close()

	if got := pub.events(); len(got) != 1 || got[0].Key != "sentiment" {
		t.Errorf("published = %+v, want one sentiment event", got)
	}
}

func TestAggregatorStats(t *testing.T) {
	a := NewAggregator()
	start := a.startTime
	a.now = func() time.Time { return start.Add(2 * time.Minute) }

	a.Track(UsageEvent{Command: "tokens", Outcome: OutcomeOK, LatencyMs: 2})
	a.Track(UsageEvent{Command: "summarize", Strategy: "frequency", FellBack: true, Outcome: OutcomeOK, LatencyMs: 10})
	a.Track(UsageEvent{Command: "summarize", Strategy: "lexrank", Outcome: OutcomeError, LatencyMs: 4})
	a.Track(UsageEvent{Command: "tokens", Download: true, Outcome: OutcomeOK, LatencyMs: 4})

	s := a.Stats()
	if s.TotalCommands != 4 || s.Errors != 1 || s.Downloads != 1 || s.SummarizerFallback != 1 {
		t.Errorf("counters = %+v", s)
	}
	if len(s.ByCommand) != 2 || s.ByCommand[0].Command != "summarize" || s.ByCommand[0].Count != 2 {
		t.Errorf("ByCommand = %+v", s.ByCommand)
	}
	if s.ByStrategy["lexrank"] != 1 || s.ByStrategy["frequency"] != 1 {
		t.Errorf("ByStrategy = %v", s.ByStrategy)
	}
	if s.AvgLatencyMs != 5 {
		t.Errorf("AvgLatencyMs = %v, want 5", s.AvgLatencyMs)
	}
	if s.P50LatencyMs != 4 {
		t.Errorf("P50LatencyMs = %d, want 4", s.P50LatencyMs)
	}
	if s.CommandsPerMinute != 2 {
		t.Errorf("CommandsPerMinute = %v, want 2", s.CommandsPerMinute)
	}
}

func TestTrackersFanOut(t *testing.T) {
	a, b := NewAggregator(), NewAggregator()
	Trackers{a, b, Discard{}}.Track(UsageEvent{Command: "tokens"})
	if a.Stats().TotalCommands != 1 || b.Stats().TotalCommands != 1 {
		t.Error("event not delivered to every tracker")
	}
}
