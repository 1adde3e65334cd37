package offers

import (
	"errors"
	"testing"

	"roundbuy/pkg/models"
)

func pendingOffer(id string, ts int64) models.Offer {
	return models.Offer{ID: id, Status: models.StatusPending, CreatedTS: ts}
}

func TestBoardBeginResolve(t *testing.T) {
	b := NewBoard()
	b.Replace([]models.Offer{pendingOffer("o1", 1)})

	if err := b.Begin("o1"); err != nil {
		t.Fatal(err)
	}
	if !b.InFlight("o1") {
		t.Fatal("row not in flight after Begin")
	}

	accepted := pendingOffer("o1", 1)
	accepted.Status = models.StatusAccepted
	b.Resolve("o1", accepted)

	r, ok := b.Get("o1")
	if !ok {
		t.Fatal("row missing")
	}
	if r.Offer.Status != models.StatusAccepted || r.Phase != PhaseIdle {
		t.Fatalf("row = %+v", r)
	}
}

func TestBoardBeginGuards(t *testing.T) {
	b := NewBoard()
	accepted := pendingOffer("done", 1)
	accepted.Status = models.StatusAccepted
	b.Replace([]models.Offer{pendingOffer("o1", 1), accepted})

	if err := b.Begin("missing"); !errors.Is(err, ErrUnknownOffer) {
		t.Fatalf("want ErrUnknownOffer, got %v", err)
	}
	if err := b.Begin("done"); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("want ErrTerminalState, got %v", err)
	}
	if err := b.Begin("o1"); err != nil {
		t.Fatal(err)
	}
	if err := b.Begin("o1"); !errors.Is(err, ErrInFlight) {
		t.Fatalf("want ErrInFlight, got %v", err)
	}
}

func TestBoardFailRevertsPhaseOnly(t *testing.T) {
	b := NewBoard()
	b.Replace([]models.Offer{pendingOffer("o1", 1)})

	if err := b.Begin("o1"); err != nil {
		t.Fatal(err)
	}
	b.Fail("o1")

	r, _ := b.Get("o1")
	if r.Phase != PhaseIdle {
		t.Fatal("phase not reverted")
	}
	if r.Offer.Status != models.StatusPending {
		t.Fatal("offer state must stay untouched on failure")
	}
	if err := b.Begin("o1"); err != nil {
		t.Fatalf("resubmit after failure: %v", err)
	}
}

func TestBoardReplacePreservesInFlight(t *testing.T) {
	b := NewBoard()
	b.Replace([]models.Offer{pendingOffer("o1", 1), pendingOffer("o2", 2)})
	if err := b.Begin("o1"); err != nil {
		t.Fatal(err)
	}
	if err := b.Begin("o2"); err != nil {
		t.Fatal(err)
	}

	// refetch arrives: o1 still pending, o2 resolved server-side, o3 new
	resolved := pendingOffer("o2", 2)
	resolved.Status = models.StatusRejected
	b.Replace([]models.Offer{pendingOffer("o3", 3), resolved, pendingOffer("o1", 1)})

	if !b.InFlight("o1") {
		t.Fatal("pending survivor lost its in-flight phase")
	}
	if b.InFlight("o2") {
		t.Fatal("terminal row must drop its in-flight phase")
	}
	if b.InFlight("o3") {
		t.Fatal("new row must start idle")
	}

	snap := b.Snapshot()
	if len(snap) != 3 || snap[0].Offer.ID != "o3" || snap[1].Offer.ID != "o2" || snap[2].Offer.ID != "o1" {
		t.Fatalf("snapshot order wrong: %+v", snap)
	}
}

func TestBoardReplaceDropsVanishedRows(t *testing.T) {
	b := NewBoard()
	b.Replace([]models.Offer{pendingOffer("o1", 1)})
	b.Replace([]models.Offer{pendingOffer("o2", 2)})

	if _, ok := b.Get("o1"); ok {
		t.Fatal("vanished row survived replace")
	}
	if err := b.Begin("o1"); !errors.Is(err, ErrUnknownOffer) {
		t.Fatalf("want ErrUnknownOffer, got %v", err)
	}
}
