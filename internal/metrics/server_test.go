package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestServerServesRegistry(t *testing.T) {
	srv := NewServer("127.0.0.1:0", "/metrics")
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		if err := srv.Stop(context.Background()); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	}()

	CapturePacketsTotal.WithLabelValues("scrape0").Inc()

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", srv.Addr()))
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Reading scrape body failed: %v", err)
	}
	if !strings.Contains(string(body), "kestrel_capture_packets_total") {
		t.Error("Expected kestrel_capture_packets_total in scrape output")
	}
}

func TestServerDefaultPath(t *testing.T) {
	srv := NewServer("127.0.0.1:0", "")
	if srv.path != "/metrics" {
		t.Errorf("Expected default path /metrics, got %q", srv.path)
	}
}

func TestServerStartBadAddress(t *testing.T) {
	srv := NewServer("127.0.0.1:-1", "/metrics")
	if err := srv.Start(context.Background()); err == nil {
		srv.Stop(context.Background())
		t.Fatal("Expected listen error for invalid port")
	}
}

func TestServerStopBeforeStart(t *testing.T) {
	srv := NewServer("127.0.0.1:0", "/metrics")
	if err := srv.Stop(context.Background()); err != nil {
		t.Errorf("Stop before Start should be a no-op, got %v", err)
	}
}

func TestServerAddrBeforeStart(t *testing.T) {
	srv := NewServer("127.0.0.1:0", "/metrics")
	if addr := srv.Addr(); addr != "" {
		t.Errorf("Expected empty addr before Start, got %q", addr)
	}
}
