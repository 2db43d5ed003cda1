package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akulagin/rentadash-system/internal/rates"
)

func TestBootstrap(t *testing.T) {
	prices := map[string]string{
		"BTCUSDT": "60000.00",
		"BTCARS":  "54000000.00",
		"USDTBRL": "5.40",
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Fatalf("path = %s, want /api/v3/ticker/price", r.URL.Path)
		}

		symbol := r.URL.Query().Get("symbol")
		price, ok := prices[symbol]
		if !ok {
			// Binance отвечает 400 на неизвестную пару.
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"` + symbol + `","price":"` + price + `"}`))
	}))
	defer ts.Close()

	client := NewClient(DefaultStreamURL, ts.URL, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client.Bootstrap(ctx)

	got := map[rates.Instrument]float64{}
	for len(client.Ticks()) > 0 {
		tick := <-client.Ticks()
		got[tick.Instrument] = tick.Price
	}

	if len(got) != 3 {
		t.Fatalf("ticks = %v, want 3 instruments", got)
	}
	if got[rates.InstrumentBTCUSDT] != 60000 {
		t.Fatalf("BTCUSDT = %v, want 60000", got[rates.InstrumentBTCUSDT])
	}
	if got[rates.InstrumentUSDTBRL] != 5.40 {
		t.Fatalf("USDTBRL = %v, want 5.40", got[rates.InstrumentUSDTBRL])
	}
	if _, ok := got[rates.InstrumentUSDTARS]; ok {
		t.Fatalf("optional USDTARS must be skipped when unavailable")
	}
}

func TestHandleMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		tick    bool
	}{
		{
			name:    "valid trade event",
			message: `{"e":"trade","s":"BTCUSDT","p":"60000.00","T":1700000000000}`,
			tick:    true,
		},
		{
			name:    "unexpected symbol",
			message: `{"e":"trade","s":"ETHUSDT","p":"3000.00","T":1700000000000}`,
			tick:    false,
		},
		{
			name:    "malformed price",
			message: `{"e":"trade","s":"BTCUSDT","p":"not-a-number","T":1700000000000}`,
			tick:    false,
		},
		{
			name:    "not json",
			message: `garbage`,
			tick:    false,
		},
		{
			name:    "subscription ack without symbol",
			message: `{"result":null,"id":1}`,
			tick:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient("", "", zap.NewNop())

			client.handleMessage(context.Background(), []byte(tt.message))

			if tt.tick {
				select {
				case tick := <-client.Ticks():
					if tick.Instrument != rates.InstrumentBTCUSDT || tick.Price != 60000 {
						t.Fatalf("unexpected tick: %+v", tick)
					}
				default:
					t.Fatalf("expected tick was not emitted")
				}
				return
			}

			if len(client.Ticks()) != 0 {
				t.Fatalf("unexpected tick emitted for %q", tt.message)
			}
		})
	}
}

func TestRunReceivesStreamTicks(t *testing.T) {
	upgrader := websocket.Upgrader{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		msg := `{"e":"trade","s":"USDTBRL","p":"5.40","T":1700000000000}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return
		}

		// Держим соединение открытым до закрытия со стороны клиента.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	client := NewClient(wsURL, DefaultAPIURL, zap.NewNop())

	connectedCh := make(chan bool, 8)
	client.OnStatus(func(connected bool) {
		connectedCh <- connected
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = client.Run(ctx)
		close(done)
	}()

	select {
	case tick := <-client.Ticks():
		if tick.Instrument != rates.InstrumentUSDTBRL || tick.Price != 5.40 {
			t.Fatalf("unexpected tick: %+v", tick)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("tick not received from stream")
	}

	select {
	case connected := <-connectedCh:
		if !connected {
			t.Fatalf("first status callback = false, want true")
		}
	case <-time.After(time.Second):
		t.Fatalf("status callback did not report connection")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after context cancellation")
	}
}
