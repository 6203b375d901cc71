package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/rs/zerolog"
)

type failingLoader struct{ calls int }

func (l *failingLoader) BinItems(context.Context, string) ([]models.Item, error) {
	l.calls++
	return nil, errors.New("boom")
}

func TestBinSnapshotTotalsDurations(t *testing.T) {
	items := []models.Item{
		{ID: "a", Position: 1, Duration: 90 * time.Second},
		{ID: "b", Position: 2, Duration: 30 * time.Second, Placeholder: true},
	}

	snap := BinSnapshot("bin-1", items)

	if snap.ID != "bin-1" || len(snap.Items) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.DurationSec != 120 {
		t.Fatalf("DurationSec = %v, want 120", snap.DurationSec)
	}
	if !snap.Items[1].Placeholder || snap.Items[1].Position != 2 {
		t.Fatalf("unexpected second item: %+v", snap.Items[1])
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c := Disabled(zerolog.Nop())
	ctx := context.Background()

	if c.IsAvailable() {
		t.Fatal("disabled cache reports available")
	}
	if err := c.SetBin(ctx, CachedBin{ID: "bin-1"}); err != nil {
		t.Fatalf("SetBin: %v", err)
	}
	if _, ok := c.GetBin(ctx, "bin-1"); ok {
		t.Fatal("disabled cache returned a hit")
	}
	if err := c.InvalidateBins(ctx, "bin-1"); err != nil {
		t.Fatalf("InvalidateBins: %v", err)
	}
}

func TestRefreshSkipsLoaderWhenDisabled(t *testing.T) {
	loader := &failingLoader{}
	r := NewBinRefresher(Disabled(zerolog.Nop()), loader)

	if err := r.RefreshBins(context.Background(), []string{"bin-1"}); err != nil {
		t.Fatalf("RefreshBins: %v", err)
	}
	if loader.calls != 0 {
		t.Fatalf("loader called %d times with cache disabled", loader.calls)
	}
}
