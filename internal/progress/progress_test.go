package progress

import (
	"errors"
	"testing"
	"time"
)

func TestTrackerMonotonic(t *testing.T) {
	var got []Event
	tr := NewTracker(2, func(e Event) { got = append(got, e) })

	tr.Start(0, "a.png")
	tr.Update(0, "a.png", StageLoading, 0)
	tr.Update(0, "a.png", StageRecognizing, 0.5)
	tr.Update(0, "a.png", StageRecognizing, 0.3) // engine going backwards
	tr.Update(0, "a.png", "initializing api", 0.9)
	tr.Update(0, "a.png", StageRecognizing, 1)
	tr.Start(1, "b.png")
	tr.Update(1, "b.png", StageRecognizing, 1)
	tr.Finish()

	prev := 0.0
	for i, e := range got {
		if e.Fraction < prev {
			t.Errorf("event %d fraction %v < previous %v", i, e.Fraction, prev)
		}
		if e.Fraction >= 1 && i != len(got)-1 {
			t.Errorf("event %d reached %v before the batch finished", i, e.Fraction)
		}
		prev = e.Fraction
	}

	last := got[len(got)-1]
	if last.Fraction != 1 || !last.Done {
		t.Errorf("final event = %+v, want fraction 1 and done", last)
	}
	if got[0].Status != "processing a.png (1/2)" {
		t.Errorf("start status = %q", got[0].Status)
	}
	if got[1].Status != "loading language model..." {
		t.Errorf("loading status = %q", got[1].Status)
	}
	if got[2].Fraction != 0.25 || got[2].Status != "reading a.png (50%)" {
		t.Errorf("recognizing event = %+v", got[2])
	}
	// The unknown stage produced no event.
	if len(got) != 8 {
		t.Errorf("expected 8 events, got %d", len(got))
	}
}

func TestTrackerFail(t *testing.T) {
	var last Event
	tr := NewTracker(4, func(e Event) { last = e })
	tr.Start(1, "x.png")
	tr.Fail(errors.New("boom"))
	if !last.Done || last.Error != "boom" || last.Fraction != 0.25 {
		t.Errorf("fail event = %+v", last)
	}
}

func TestBroadcasterCoalesces(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 1; i <= 100; i++ {
			b.Publish(Event{Fraction: float64(i) / 100})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	e := <-ch
	if e.Fraction != 1 {
		t.Errorf("pending event = %v, want the latest (1)", e.Fraction)
	}
	select {
	case e := <-ch:
		t.Errorf("unexpected extra event %+v", e)
	default:
	}
}

func TestBroadcasterLateSubscriberGetsLatest(t *testing.T) {
	b := NewBroadcaster()
	b.Publish(Event{Fraction: 0.4, Status: "reading"})

	ch, cancel := b.Subscribe()
	e := <-ch
	if e.Fraction != 0.4 {
		t.Errorf("got %v, want 0.4", e.Fraction)
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}

	b.Reset()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()
	select {
	case e := <-ch2:
		t.Errorf("unexpected event after reset: %+v", e)
	default:
	}
}

func TestBroadcasterClose(t *testing.T) {
	b := NewBroadcaster()
	ch1, _ := b.Subscribe()
	ch2, _ := b.Subscribe()
	b.Close()
	b.Publish(Event{Fraction: 1})

	for _, ch := range []<-chan Event{ch1, ch2} {
		if _, ok := <-ch; ok {
			t.Error("subscriber channel not closed")
		}
	}
	ch3, cancel := b.Subscribe()
	defer cancel()
	if _, ok := <-ch3; ok {
		t.Error("subscribe after close returned an open channel")
	}
}
