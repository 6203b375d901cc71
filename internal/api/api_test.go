package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/grimnir_rundown/internal/events"
	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/friendsincode/grimnir_rundown/internal/playout"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
	"github.com/friendsincode/grimnir_rundown/internal/testutil"
)

func newTestServer(t *testing.T) (*gorm.DB, http.Handler, *playout.Runner) {
	t.Helper()

	db := testutil.OpenDB(t)
	testutil.Seed(t, db, testutil.EventFixture{
		ID: "e1", ChannelID: "c1", StartsAt: testutil.Epoch,
		Durations: []time.Duration{10 * time.Minute, 0}, PlaceholderAt: 1, Solver: "filler",
	})
	testutil.Seed(t, db, testutil.EventFixture{
		ID: "e2", ChannelID: "c1", StartsAt: testutil.Epoch.Add(30 * time.Minute), PlaceholderAt: -1,
	})

	reg := solver.NewRegistry(zerolog.Nop())
	_ = reg.Register("filler", func() (solver.Strategy, error) {
		return solver.Items(models.Item{ID: "fill", Title: "Fill", Duration: 20 * time.Minute}), nil
	})
	_ = reg.Register("empty", func() (solver.Strategy, error) { return solver.Items(), nil })

	store := rundown.NewGormStore(db)
	s := solver.New(store, reg, nil, events.NewBus(), zerolog.Nop())

	runner := playout.NewRunner(time.Second, zerolog.Nop())
	runner.Add(playout.New("resolver", playout.NewChannelState("c1"), playout.NewResolver(s, "filler"), zerolog.Nop()))

	router := chi.NewRouter()
	New(store, s, nil, runner, zerolog.Nop()).Routes(router)
	return db, router, runner
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var decoded map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode %s %s response %q: %v", method, target, rr.Body.String(), err)
	}
	return rr, decoded
}

func TestHealthAndSolvers(t *testing.T) {
	_, h, _ := newTestServer(t)

	rr, body := do(t, h, http.MethodGet, "/api/v1/health", "")
	if rr.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health: %d %v", rr.Code, body)
	}

	rr, body = do(t, h, http.MethodGet, "/api/v1/solvers", "")
	solvers, _ := body["solvers"].([]any)
	if rr.Code != http.StatusOK || len(solvers) != 2 || solvers[0] != "empty" {
		t.Fatalf("solvers: %d %v", rr.Code, body)
	}
}

func TestSolveEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		target string
		code   int
		status string
		needed float64
	}{
		{"debug run", "/api/v1/placeholders/e1-placeholder/solve?debug=true", http.StatusAccepted, "accepted", 1200},
		{"empty solver", "/api/v1/placeholders/e1-placeholder/solve?solver=empty", http.StatusNotImplemented, "empty", 1200},
		{"unknown solver", "/api/v1/placeholders/e1-placeholder/solve?solver=ghost", http.StatusNotImplemented, "failed", 0},
		{"placeholder solver", "/api/v1/placeholders/e1-placeholder/solve", http.StatusOK, "resolved", 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h, _ := newTestServer(t)
			rr, body := do(t, h, http.MethodPost, tt.target, "")
			if rr.Code != tt.code || body["status"] != tt.status {
				t.Fatalf("got %d %v, want %d %s", rr.Code, body, tt.code, tt.status)
			}
			if body["needed_sec"] != tt.needed {
				t.Fatalf("needed_sec = %v", body["needed_sec"])
			}
		})
	}
}

func TestSolveEndpointErrors(t *testing.T) {
	_, h, _ := newTestServer(t)

	tests := []struct {
		target string
		code   int
		errStr string
	}{
		{"/api/v1/placeholders/missing/solve?solver=filler", http.StatusNotFound, "not_found"},
		{"/api/v1/placeholders/missing/solve", http.StatusNotFound, "not_found"},
		{"/api/v1/placeholders/e1-item-1/solve?solver=filler", http.StatusConflict, "not_placeholder"},
		{"/api/v1/placeholders/e1-item-1/solve", http.StatusBadRequest, "solver_required"},
		{"/api/v1/placeholders/e1-placeholder/solve?debug=maybe", http.StatusBadRequest, "invalid_debug"},
	}

	for _, tt := range tests {
		rr, body := do(t, h, http.MethodPost, tt.target, "")
		if rr.Code != tt.code || body["error"] != tt.errStr {
			t.Errorf("%s: got %d %v, want %d %s", tt.target, rr.Code, body, tt.code, tt.errStr)
		}
	}
}

func TestGapEndpoint(t *testing.T) {
	_, h, _ := newTestServer(t)

	rr, body := do(t, h, http.MethodGet, "/api/v1/events/e1/gap", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("gap: %d %v", rr.Code, body)
	}
	if body["placeholder_id"] != "e1-placeholder" || body["next_event_id"] != "e2" || body["needed_sec"] != 1200.0 {
		t.Fatalf("unexpected gap %v", body)
	}

	rr, body = do(t, h, http.MethodGet, "/api/v1/events/e2/gap", "")
	if rr.Code != http.StatusNotFound || body["error"] != "no_placeholder" {
		t.Fatalf("e2 gap: %d %v", rr.Code, body)
	}

	rr, body = do(t, h, http.MethodGet, "/api/v1/events/e2/gap?placeholder=e1-placeholder", "")
	if rr.Code != http.StatusNotFound || body["error"] != "placeholder_not_in_event" {
		t.Fatalf("foreign placeholder: %d %v", rr.Code, body)
	}
}

func TestBinEndpoint(t *testing.T) {
	_, h, _ := newTestServer(t)

	rr, body := do(t, h, http.MethodGet, "/api/v1/bins/bin-e1", "")
	if rr.Code != http.StatusOK || rr.Header().Get("X-Cache") != "miss" {
		t.Fatalf("bin: %d %v", rr.Code, body)
	}
	if items, _ := body["items"].([]any); len(items) != 2 || body["duration_sec"] != 600.0 {
		t.Fatalf("unexpected bin %v", body)
	}

	rr, _ = do(t, h, http.MethodGet, "/api/v1/bins/bin-ghost", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing bin: %d", rr.Code)
	}
}

func TestPlayoutEndpoints(t *testing.T) {
	db, h, runner := newTestServer(t)

	rr, body := do(t, h, http.MethodGet, "/api/v1/playout/plugins/", "")
	plugins, _ := body["plugins"].([]any)
	if rr.Code != http.StatusOK || len(plugins) != 1 {
		t.Fatalf("plugins: %d %v", rr.Code, body)
	}

	rr, body = do(t, h, http.MethodPost, "/api/v1/playout/plugins/resolver/commands",
		`{"action":"resolve","args":{"placeholder":"e1-placeholder"}}`)
	if rr.Code != http.StatusAccepted || body["pending"] != 1.0 {
		t.Fatalf("command: %d %v", rr.Code, body)
	}

	p, _ := runner.Plugin("resolver")
	if res := p.Tick(t.Context()); res.Outcome != playout.TickOK {
		t.Fatalf("tick: %+v", res)
	}
	if bin := testutil.BinItems(t, db, "bin-e1"); len(bin) != 2 || bin[1].ID != "fill" {
		t.Fatalf("command did not resolve: %+v", bin)
	}

	rr, _ = do(t, h, http.MethodPost, "/api/v1/playout/plugins/ghost/commands", `{"action":"resolve"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown plugin: %d", rr.Code)
	}
	rr, _ = do(t, h, http.MethodPost, "/api/v1/playout/plugins/resolver/commands", `{"action":"dance"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad action: %d", rr.Code)
	}
	rr, _ = do(t, h, http.MethodPost, "/api/v1/playout/plugins/resolver/commands", `{`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", rr.Code)
	}
}
