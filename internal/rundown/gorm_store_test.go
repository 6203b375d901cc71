package rundown_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
	"github.com/friendsincode/grimnir_rundown/internal/testutil"
)

func TestGormStoreLookupsMapNotFound(t *testing.T) {
	store := rundown.NewGormStore(testutil.OpenDB(t))
	ctx := context.Background()

	lookups := map[string]func() error{
		"event": func() error {
			_, err := store.Event(ctx, "missing")
			return err
		},
		"event for bin": func() error {
			_, err := store.EventForBin(ctx, "missing")
			return err
		},
		"item": func() error {
			_, err := store.Item(ctx, "missing")
			return err
		},
	}
	for name, lookup := range lookups {
		t.Run(name, func(t *testing.T) {
			if err := lookup(); !errors.Is(err, rundown.ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestGormStoreTransactionRollsBack(t *testing.T) {
	db := testutil.OpenDB(t)
	store := rundown.NewGormStore(db)
	ctx := context.Background()

	ev, items := testutil.Seed(t, db, testutil.EventFixture{
		ID:            "e1",
		ChannelID:     "c1",
		StartsAt:      testutil.Epoch,
		Durations:     []time.Duration{time.Minute, 0},
		PlaceholderAt: 1,
	})

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx rundown.Store) error {
		if err := tx.DeleteItem(ctx, items[1]); err != nil {
			return err
		}
		if err := tx.SaveItem(ctx, &models.Item{ID: "new", BinID: ev.BinID, Position: 2}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction() = %v, want boom", err)
	}

	got := testutil.BinItems(t, db, ev.BinID)
	if len(got) != 2 || got[1].ID != items[1].ID {
		t.Fatalf("bin changed after rollback: %+v", got)
	}
}

func TestGormStorePendingPlaceholders(t *testing.T) {
	db := testutil.OpenDB(t)
	store := rundown.NewGormStore(db)

	testutil.Seed(t, db, testutil.EventFixture{
		ID:            "e1",
		ChannelID:     "c1",
		StartsAt:      testutil.Epoch,
		Durations:     []time.Duration{0, time.Minute},
		PlaceholderAt: 0,
		Solver:        "smartblock",
	})
	testutil.Seed(t, db, testutil.EventFixture{
		ID:            "e2",
		ChannelID:     "c1",
		StartsAt:      testutil.Epoch.Add(time.Hour),
		Durations:     []time.Duration{0},
		PlaceholderAt: 0,
	})

	pending, err := store.PendingPlaceholders(context.Background(), 10, nil)
	if err != nil {
		t.Fatalf("PendingPlaceholders: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "e1-placeholder" {
		t.Fatalf("pending = %+v, want only e1-placeholder", pending)
	}

	pending, err = store.PendingPlaceholders(context.Background(), 10, []string{"e1-placeholder"})
	if err != nil {
		t.Fatalf("PendingPlaceholders with exclusions: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %+v, want excluded placeholder left out", pending)
	}
}
