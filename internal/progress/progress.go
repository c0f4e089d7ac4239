// Package progress reports batch recognition progress.
//
// A Tracker turns per-image engine ticks into batch-wide fractions that never
// decrease and only reach 1.0 when the batch is complete. A Broadcaster fans
// those events out to any number of subscribers without ever blocking the
// producer: each subscriber holds at most one pending event, and a newer
// event replaces an unread older one.
package progress

import (
	"fmt"
	"math"
	"sync"
)

// Engine stages that carry meaning for batch progress.
const (
	StageRecognizing = "recognizing text"
	StageLoading     = "loading language traineddata"
)

// maxPending is the highest fraction reported before a batch completes.
const maxPending = 0.999

// Event is one progress update.
type Event struct {
	Fraction float64 `json:"fraction"` // Batch progress in [0, 1]
	Status   string  `json:"status"`   // Human-readable status line
	Index    int     `json:"index"`    // 1-based image being processed, 0 when idle
	Total    int     `json:"total"`    // Number of images in the batch
	Done     bool    `json:"done"`     // Set on the final event of a batch
	Error    string  `json:"error,omitempty"`
}

// Percent returns the fraction as a rounded percentage.
func (e Event) Percent() int {
	return int(math.Round(e.Fraction * 100))
}

// Func receives progress events.
type Func func(Event)

// Tracker computes batch-wide progress for a fixed number of images.
type Tracker struct {
	total int
	last  float64
	emit  Func
}

// NewTracker creates a tracker for total images. emit may be nil.
func NewTracker(total int, emit Func) *Tracker {
	if emit == nil {
		emit = func(Event) {}
	}
	return &Tracker{total: total, emit: emit}
}

// Start reports that image index (0-based) is about to be processed.
func (t *Tracker) Start(index int, name string) {
	t.send(index, float64(index)/float64(t.total),
		fmt.Sprintf("processing %s (%d/%d)", name, index+1, t.total))
}

// Update maps an engine tick for image index onto the batch fraction.
// Stages other than recognition and model loading are ignored.
func (t *Tracker) Update(index int, name, stage string, fraction float64) {
	switch stage {
	case StageRecognizing:
		fraction = clamp(fraction)
		t.send(index, (float64(index)+fraction)/float64(t.total),
			fmt.Sprintf("reading %s (%d%%)", name, int(math.Round(fraction*100))))
	case StageLoading:
		t.send(index, float64(index)/float64(t.total), "loading language model...")
	}
}

// Finish reports completion with a fraction of exactly 1.0.
func (t *Tracker) Finish() {
	t.last = 1
	t.emit(Event{Fraction: 1, Status: "completed", Index: t.total, Total: t.total, Done: true})
}

// Fail reports a terminal failure without advancing the fraction.
func (t *Tracker) Fail(err error) {
	t.emit(Event{Fraction: t.last, Status: "failed", Total: t.total, Done: true, Error: err.Error()})
}

// Last returns the most recent fraction reported.
func (t *Tracker) Last() float64 {
	return t.last
}

func (t *Tracker) send(index int, fraction float64, status string) {
	if fraction > maxPending {
		fraction = maxPending
	}
	if fraction < t.last {
		fraction = t.last
	}
	t.last = fraction
	t.emit(Event{Fraction: fraction, Status: status, Index: index + 1, Total: t.total})
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// Broadcaster distributes events to subscribers, keeping only the latest
// unread event per subscriber.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	last    Event
	hasLast bool
	closed  bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Publish delivers e to every subscriber. It never blocks.
func (b *Broadcaster) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.last = e
	b.hasLast = true
	for _, ch := range b.subs {
		offer(ch, e)
	}
}

// offer replaces any pending event in ch with e.
// Only Publish writes to subscriber channels, under the lock.
func offer(ch chan Event, e Event) {
	select {
	case ch <- e:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- e:
	default:
	}
}

// Subscribe returns a channel of events and a cancel function. A new
// subscriber immediately receives the latest event, if any. The channel is
// closed by cancel or Close.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	if b.hasLast {
		ch <- b.last
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Latest returns the most recently published event.
func (b *Broadcaster) Latest() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.hasLast
}

// Reset forgets the latest event so new subscribers start empty.
func (b *Broadcaster) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = Event{}
	b.hasLast = false
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
