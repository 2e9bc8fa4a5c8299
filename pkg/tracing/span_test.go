package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/nlpstudio/textlab/pkg/logger"
)

func TestSpanTree(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	logger.SetupWriter(&buf, "debug", "json")

	ctx := logger.WithRequestID(context.Background(), "req-1")
	ctx, root := Start(ctx, "download")
	_, child := Start(ctx, "command.entities")
	child.SetAttr("input_bytes", 42)
	child.End()
	root.End()

	if root.TraceID != "req-1" || child.TraceID != "req-1" {
		t.Errorf("trace IDs = %q, %q, want req-1", root.TraceID, child.TraceID)
	}
	if got := root.Children(); len(got) != 1 || got[0] != child {
		t.Fatalf("children = %v", got)
	}
	out := buf.String()
	for _, want := range []string{`"span":"download"`, `"span":"command.entities"`, `"input_bytes":42`, `"depth":1`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestSpanQuietAboveDebug(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	logger.SetupWriter(&buf, "info", "json")

	_, s := Start(context.Background(), "tokens")
	s.End()
	if buf.Len() != 0 {
		t.Errorf("span logged at info level: %s", buf.String())
	}
	if FromContext(context.Background()) != nil {
		t.Error("empty context has a span")
	}
}
