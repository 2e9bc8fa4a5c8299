package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunMissingConfig(t *testing.T) {
	dir := t.TempDir()
	err := run(context.Background(), []string{
		"-env", filepath.Join(dir, "absent.env"),
		"-config", filepath.Join(dir, "absent.yaml"),
	})
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("run() = %v, want config error", err)
	}
}

func TestRunReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf("server:\n  port: %d\nmetrics:\n  enabled: false\nlogging:\n  level: error\n", port)
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = run(ctx, []string{"-env", filepath.Join(dir, "absent.env"), "-config", cfgPath})
	if err == nil || !strings.Contains(err.Error(), "serving") {
		t.Fatalf("run() = %v, want listen error", err)
	}
	if ctx.Err() != nil {
		t.Fatal("run() did not return before the deadline")
	}
}
