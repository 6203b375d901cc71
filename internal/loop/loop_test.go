package loop

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/grimnir_rundown/internal/events"
	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
	"github.com/friendsincode/grimnir_rundown/internal/testutil"
)

func setup(t *testing.T) (*gorm.DB, *solver.Solver) {
	t.Helper()
	db := testutil.OpenDB(t)
	for _, asset := range []models.Asset{
		{ID: "jingle", Title: "Jingle", Duration: 30 * time.Second},
		{ID: "promo", Title: "Promo", Duration: 90 * time.Second},
		{ID: "silence", Title: "Silence"},
	} {
		if err := db.Create(&asset).Error; err != nil {
			t.Fatalf("create asset: %v", err)
		}
	}
	// A five minute gap.
	testutil.Seed(t, db, testutil.EventFixture{
		ID: "e1", ChannelID: "c1", StartsAt: testutil.Epoch,
		Durations: []time.Duration{0}, PlaceholderAt: 0,
	})
	testutil.Seed(t, db, testutil.EventFixture{
		ID: "e2", ChannelID: "c1", StartsAt: testutil.Epoch.Add(5 * time.Minute), PlaceholderAt: -1,
	})

	bus := events.NewBus()
	return db, solver.New(rundown.NewGormStore(db), solver.NewRegistry(zerolog.Nop()), nil, bus, zerolog.Nop())
}

func assetIDs(items []models.Item) string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.AssetID
	}
	return strings.Join(ids, ",")
}

func TestLoopRepeatsUntilFilled(t *testing.T) {
	db, s := setup(t)

	result, err := s.Resolve(context.Background(), "e1-placeholder", New(db, []string{"jingle", "promo"}, false), false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Status != solver.StatusResolved {
		t.Fatalf("status = %s: %s", result.Status, result.Message)
	}
	if got := assetIDs(result.Candidates); got != "jingle,promo,jingle,promo,jingle,promo" {
		t.Fatalf("sequence = %s", got)
	}
	if result.Produced != 6*time.Minute {
		t.Fatalf("produced = %v", result.Produced)
	}
}

func TestLoopTrimSkipsOverrunningItems(t *testing.T) {
	db, s := setup(t)

	result, err := s.Resolve(context.Background(), "e1-placeholder", New(db, []string{"promo", "jingle"}, true), true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Produced > 5*time.Minute {
		t.Fatalf("produced %v overruns the gap", result.Produced)
	}
	if got := assetIDs(result.Candidates); got != "promo,jingle,promo,jingle,jingle,jingle" {
		t.Fatalf("sequence = %s", got)
	}
}

func TestLoopFailures(t *testing.T) {
	tests := []struct {
		name   string
		ids    []string
		status solver.Status
	}{
		{"missing asset", []string{"jingle", "ghost"}, solver.StatusFailed},
		{"zero duration", []string{"silence"}, solver.StatusFailed},
		{"empty list", nil, solver.StatusEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, s := setup(t)
			result, err := s.Resolve(context.Background(), "e1-placeholder", New(db, tt.ids, false), false)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if result.Status != tt.status {
				t.Fatalf("status = %s, want %s", result.Status, tt.status)
			}
			if bin := testutil.BinItems(t, db, "bin-e1"); len(bin) != 1 || !bin[0].Placeholder {
				t.Fatalf("bin changed: %+v", bin)
			}
		})
	}
}
