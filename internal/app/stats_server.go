package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SerhatHacioglu/trumptakip/internal/store"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader for real-time stats
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// startHealthServer starts an HTTP server for health checks, stats and the
// wallet management API.
func (r *Runner) startHealthServer(port int) {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// JSON stats endpoint
	mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		stats := r.GetStats()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(stats)
	})

	// WebSocket endpoint for real-time stats
	mux.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, req, nil)
		if err != nil {
			r.clients.Logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		// Send stats every second
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			stats := r.GetStats()
			if err := conn.WriteJSON(stats); err != nil {
				return // Client disconnected
			}
		}
	})

	// Wallet registry: list and upsert
	mux.HandleFunc("/api/wallets", r.handleWallets)

	// Full registry replacement
	mux.HandleFunc("/api/wallets/sync", r.handleWalletSync)

	// Delete a single wallet by key
	mux.HandleFunc("/api/wallets/", r.handleWalletDelete)

	// Current positions for one tracked wallet
	mux.HandleFunc("/api/positions/", r.handlePositions)

	// Force an immediate poll cycle
	mux.HandleFunc("/api/check-now", r.handleCheckNow)

	// Latest market prices from the price watch
	mux.HandleFunc("/api/crypto-prices", func(w http.ResponseWriter, _ *http.Request) {
		prices := map[string]float64{}
		if r.priceMonitor != nil {
			prices = r.priceMonitor.LatestPrices()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prices)
	})

	// HTML dashboard
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(dashboardHTML))
	})

	// Root status summary
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		stats := r.GetStats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":         "running",
			"uptime":         stats.Uptime,
			"wallets":        stats.Wallets,
			"thresholds":     stats.Thresholds,
			"cycles":         stats.Poller.CyclesRun,
			"events_sent":    stats.Engine.EventsSent,
			"fetch_failures": stats.Engine.FetchFailures,
		})
	})

	r.healthServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := r.healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.clients.Logger.Error("health server error", zap.Error(err))
		}
	}()
}

func (r *Runner) handleWallets(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		wallets, err := r.registry.List(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(wallets)

	case http.MethodPost:
		var wallet store.Wallet
		if err := json.NewDecoder(req.Body).Decode(&wallet); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := r.registry.Upsert(req.Context(), wallet); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "key": wallet.Key})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (r *Runner) handleWalletSync(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var wallets []store.Wallet
	if err := json.NewDecoder(req.Body).Decode(&wallets); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := r.registry.Sync(req.Context(), wallets); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	r.clients.Logger.Info("wallet registry replaced via API",
		zap.Int("wallets", len(wallets)),
	)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "count": len(wallets)})
}

func (r *Runner) handleWalletDelete(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	key := strings.TrimPrefix(req.URL.Path, "/api/wallets/")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing wallet key")
		return
	}
	if err := r.registry.Delete(req.Context(), key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "wallet not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "key": key})
}

func (r *Runner) handlePositions(w http.ResponseWriter, req *http.Request) {
	key := strings.TrimPrefix(req.URL.Path, "/api/positions/")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing wallet key")
		return
	}
	positions, ok := r.engine.WalletPositions(key)
	if !ok {
		writeError(w, http.StatusNotFound, "wallet not tracked")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"wallet":    key,
		"positions": positions,
	})
}

func (r *Runner) handleCheckNow(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	queued := r.positionMonitor.CheckNow()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"queued": queued})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Trumptakip Stats</title>
    <style>
        :root {
            --bg-primary: #0d1117;
            --bg-secondary: #161b22;
            --border-color: #30363d;
            --text-primary: #c9d1d9;
            --text-secondary: #8b949e;
            --text-heading: #f0f6fc;
            --accent-blue: #58a6ff;
            --accent-green: #3fb950;
            --accent-red: #f85149;
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            padding: 24px;
        }
        h1 { color: var(--text-heading); font-size: 20px; margin-bottom: 4px; }
        .sub { color: var(--text-secondary); font-size: 13px; margin-bottom: 20px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(220px, 1fr)); gap: 12px; margin-bottom: 24px; }
        .card {
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 6px;
            padding: 14px;
        }
        .card .label { color: var(--text-secondary); font-size: 12px; text-transform: uppercase; }
        .card .value { color: var(--text-heading); font-size: 24px; font-weight: 600; margin-top: 4px; }
        table { width: 100%; border-collapse: collapse; font-size: 13px; }
        th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid var(--border-color); }
        th { color: var(--text-secondary); font-weight: 500; }
        .phase-tracking { color: var(--accent-green); }
        .phase-baseline { color: var(--accent-blue); }
        .phase-unseen { color: var(--text-secondary); }
        .err { color: var(--accent-red); }
        h2 { color: var(--text-heading); font-size: 15px; margin: 20px 0 10px; }
    </style>
</head>
<body>
    <h1>Trumptakip</h1>
    <div class="sub" id="uptime">connecting...</div>
    <div class="grid">
        <div class="card"><div class="label">Cycles Run</div><div class="value" id="cycles">-</div></div>
        <div class="card"><div class="label">Events Sent</div><div class="value" id="events">-</div></div>
        <div class="card"><div class="label">Shared Suppressed</div><div class="value" id="suppressed">-</div></div>
        <div class="card"><div class="label">Fetch Failures</div><div class="value" id="failures">-</div></div>
    </div>
    <h2>Tracked Wallets</h2>
    <table>
        <thead><tr><th>Key</th><th>Name</th><th>Phase</th><th>Positions</th><th>Last Checked</th><th>Last Error</th></tr></thead>
        <tbody id="wallets"></tbody>
    </table>
    <h2>Market Prices</h2>
    <table>
        <thead><tr><th>Coin</th><th>Price (USD)</th></tr></thead>
        <tbody id="prices"></tbody>
    </table>
    <script>
        function render(s) {
            document.getElementById('uptime').textContent =
                'up ' + s.uptime + ' | build ' + s.build.commit.substring(0, 8) + ' | ' + s.build.go_version;
            document.getElementById('cycles').textContent = s.poller.cycles_run;
            var total = 0;
            for (var k in (s.engine.events_sent || {})) total += s.engine.events_sent[k];
            document.getElementById('events').textContent = total;
            document.getElementById('suppressed').textContent = s.engine.shared_suppressed;
            document.getElementById('failures').textContent = s.engine.fetch_failures;

            var rows = '';
            (s.wallets || []).forEach(function(w) {
                rows += '<tr><td>' + w.key + '</td><td>' + w.name + '</td>' +
                    '<td class="phase-' + w.phase + '">' + w.phase + '</td>' +
                    '<td>' + w.position_count + '</td>' +
                    '<td>' + (w.last_checked ? new Date(w.last_checked).toLocaleTimeString() : '-') + '</td>' +
                    '<td class="err">' + (w.last_error || '') + '</td></tr>';
            });
            document.getElementById('wallets').innerHTML = rows;

            var prices = '';
            for (var coin in (s.crypto_prices || {})) {
                prices += '<tr><td>' + coin + '</td><td>$' +
                    s.crypto_prices[coin].toLocaleString() + '</td></tr>';
            }
            document.getElementById('prices').innerHTML = prices;
        }

        function connect() {
            var proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            var ws = new WebSocket(proto + '//' + location.host + '/ws');
            ws.onmessage = function(e) { render(JSON.parse(e.data)); };
            ws.onclose = function() { setTimeout(connect, 3000); };
        }
        connect();
        fetch('/stats').then(function(r) { return r.json(); }).then(render);
    </script>
</body>
</html>`
