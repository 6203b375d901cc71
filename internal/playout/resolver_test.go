package playout

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/grimnir_rundown/internal/events"
	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
	"github.com/friendsincode/grimnir_rundown/internal/testutil"
)

func testItem(id string, d time.Duration) models.Item {
	return models.Item{ID: id, Duration: d}
}

func TestResolverRunsQueuedCommands(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.Seed(t, db, testutil.EventFixture{
		ID: "e1", ChannelID: "c1", StartsAt: testutil.Epoch,
		Durations: []time.Duration{time.Minute, 0}, PlaceholderAt: 1,
	})

	bus := events.NewBus()
	changes := bus.Subscribe(events.EventObjectsChanged)

	reg := solver.NewRegistry(zerolog.Nop())
	_ = reg.Register("filler", func() (solver.Strategy, error) {
		return solver.Items(models.Item{ID: "fill", Title: "Fill", Duration: 59 * time.Minute}), nil
	})
	s := solver.New(rundown.NewGormStore(db), reg, nil, bus, zerolog.Nop())

	p := New("resolver", NewChannelState("c1"), NewResolver(s, "filler"), zerolog.Nop())
	runner := NewRunner(time.Second, zerolog.Nop())
	runner.Add(p)

	if p.Title() != "Placeholder resolver" || len(p.SlotManifest()) != 3 {
		t.Fatalf("resolver slots not initialised: %v", p.SlotManifest())
	}

	ctx := context.Background()
	runner.Dispatch(ctx, events.Payload{
		"plugin": "resolver",
		"action": "resolve",
		"args":   map[string]any{"placeholder": "e1-placeholder"},
	})
	runner.Dispatch(ctx, events.Payload{"plugin": "missing", "action": "resolve"})
	runner.Dispatch(ctx, events.Payload{"plugin": "resolver", "action": "resolve", "args": map[string]any{}})

	if p.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", p.Pending())
	}
	if res := p.Tick(ctx); res.Outcome != TickOK {
		t.Fatalf("tick: %+v", res)
	}
	if p.Pending() != 0 {
		t.Fatal("finished resolution should leave the queue")
	}

	bin := testutil.BinItems(t, db, "bin-e1")
	if len(bin) != 2 || bin[1].ID != "fill" || bin[1].Position != 2 {
		t.Fatalf("unexpected bin %+v", bin)
	}

	select {
	case payload := <-changes:
		if payload["object_type"] != events.ObjectBin {
			t.Fatalf("unexpected payload %v", payload)
		}
	default:
		t.Fatal("expected objects_changed notification")
	}
}

func TestResolverRejectsUnknownAction(t *testing.T) {
	p := New("resolver", NewChannelState("c1"), NewResolver(nil, "smartblock"), zerolog.Nop())
	if err := p.Command(context.Background(), "explode", nil); err == nil {
		t.Fatal("expected error")
	}
}
