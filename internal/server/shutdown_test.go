package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"retail-dashboard/internal/config"
)

func TestGracefulServer_ClosesStreamsOnShutdown(t *testing.T) {
	started := make(chan struct{})
	streamClosed := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sse/transactions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
		close(streamClosed)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gs := NewGracefulServer(&http.Server{Handler: mux}, logger, config.ServerConfig{ShutdownTimeout: 5 * time.Second})

	var order []string
	gs.RegisterShutdownHook(func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	gs.RegisterShutdownHook(func(context.Context) error {
		order = append(order, "second")
		return errors.New("flush failed")
	})

	ctx, stop := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- gs.Serve(ctx, ln) }()

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/sse/transactions")
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never started")
	}

	begin := time.Now()
	stop()

	select {
	case err := <-served:
		if err == nil || !strings.Contains(err.Error(), "flush failed") {
			t.Errorf("Serve() = %v, want the hook failure", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown waited on the open stream")
	}

	select {
	case <-streamClosed:
	default:
		t.Error("stream context was not cancelled")
	}
	if elapsed := time.Since(begin); elapsed > 2*time.Second {
		t.Errorf("shutdown took %v", elapsed)
	}
	if strings.Join(order, ",") != "first,second" {
		t.Errorf("hooks ran as %v, want first,second", order)
	}
}

func TestGracefulServer_ServeErrorIsReported(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ln.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gs := NewGracefulServer(&http.Server{}, logger, config.ServerConfig{ShutdownTimeout: time.Second})
	if err := gs.Serve(context.Background(), ln); err == nil {
		t.Error("Serve() on a closed listener should fail")
	}
}
