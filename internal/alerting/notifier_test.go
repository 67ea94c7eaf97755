package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func sampleNotification() Notification {
	return Notification{
		TriggeredAt:     time.Date(2025, time.December, 3, 10, 45, 0, 0, time.UTC),
		Ticker:          "O:SPX251219P05000000",
		Expiration:      time.Date(2025, time.December, 19, 0, 0, 0, 0, time.UTC),
		Strike:          decimal.NewFromInt(5000),
		ContractKind:    "put",
		Moneyness:       0.74,
		DTE:             16,
		Flags:           []string{"delta", "multiplier"},
		CurrentVolume:   4583,
		ReferenceVolume: 320,
		ReferenceSource: "yesterday_hour",
		Notional:        decimal.NewFromInt(5728750),
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Notify should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id incorrect: %#v", received)
	}
	if !strings.Contains(received["text"], "O:SPX251219P05000000") {
		t.Fatalf("message should name the contract: %q", received["text"])
	}
	if !strings.Contains(received["text"], "multiplier") {
		t.Fatalf("message should list the flags: %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("ok=false should error")
	}
}

func TestTelegramNotifierBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("HTTP 403 should error")
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
