package web

import (
	"context"
	"net/http"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/db"
)

func TestNewServer(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	srv, err := NewServer(database, config.DefaultConfig(), zap.NewNop(), "test", "127.0.0.1", 8484)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if srv.Addr != "127.0.0.1:8484" {
		t.Errorf("Addr = %q, want 127.0.0.1:8484", srv.Addr)
	}
	if srv.ReadHeaderTimeout == 0 {
		t.Error("expected ReadHeaderTimeout to be set")
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := &http.Server{
		Addr:              "127.0.0.1:0",
		Handler:           http.NotFoundHandler(),
		ReadHeaderTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, zap.NewNop()) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ListenError(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := &http.Server{Addr: "127.0.0.1:-1", ReadHeaderTimeout: time.Second}
	if err := Run(context.Background(), srv, zap.NewNop()); err == nil {
		t.Error("expected error for invalid address")
	}
}
