package client

import (
	"context"
	"testing"

	"github.com/ankit-chaubey/layer/tl"
)

func TestMessageIterNextDrainsBufferedPage(t *testing.T) {
	t.Parallel()

	it := &MessageIter{
		buf:  []tl.IncomingMessage{{ID: 10}, {ID: 9}},
		done: true,
	}
	for _, want := range []int32{10, 9} {
		m, ok, err := it.Next(context.Background())
		if err != nil || !ok || m.ID != want {
			t.Fatalf("Next() = (%+v, %v, %v), want id %d", m, ok, err, want)
		}
	}
	if _, ok, err := it.Next(context.Background()); ok || err != nil {
		t.Fatalf("Next() after exhaustion = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}

func TestMessageIterApplyPageAdvancesOffsetAndStopsOnShortPage(t *testing.T) {
	t.Parallel()

	it := &MessageIter{limit: 3}
	it.applyPage(tl.MessagesPage{
		Messages: []tl.IncomingMessage{{ID: 30}, {ID: 20}, {ID: 10}},
		HasCount: true,
		Count:    50,
	})
	if it.done {
		t.Fatal("applyPage() marked done on a full page")
	}
	if it.offsetID != 10 {
		t.Fatalf("applyPage() offsetID = %d, want 10 (the oldest message in the page)", it.offsetID)
	}
	total, ok := it.Total()
	if !ok || total != 50 {
		t.Fatalf("Total() = (%d, %v), want (50, true)", total, ok)
	}

	it.applyPage(tl.MessagesPage{Messages: []tl.IncomingMessage{{ID: 5}}})
	if !it.done {
		t.Fatal("applyPage() did not mark done on a page shorter than limit")
	}
}

func TestParticipantIterApplyPageStopsAtTotal(t *testing.T) {
	t.Parallel()

	it := &ParticipantIter{limit: 2}
	it.applyPage(tl.ParticipantsPage{
		Count:        3,
		Participants: []tl.Participant{{UserID: 1}, {UserID: 2}},
	})
	if it.done {
		t.Fatal("applyPage() marked done before reaching the total")
	}
	if it.offset != 2 {
		t.Fatalf("applyPage() offset = %d, want 2", it.offset)
	}

	it.applyPage(tl.ParticipantsPage{
		Count:        3,
		Participants: []tl.Participant{{UserID: 3}},
	})
	if !it.done {
		t.Fatal("applyPage() did not mark done once offset reached the total count")
	}

	p, ok, err := it.Next(context.Background())
	if err != nil || !ok || p.UserID != 1 {
		t.Fatalf("Next() = (%+v, %v, %v), want user 1", p, ok, err)
	}
}

func TestParticipantIterApplyPageStopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	it := &ParticipantIter{limit: 50}
	it.applyPage(tl.ParticipantsPage{Count: 100})
	if !it.done {
		t.Fatal("applyPage() did not mark done on an empty page despite a nonzero total")
	}
}
