package cue

import "sync"

// Cue names a short sound effect. Rendering is left to listeners.
type Cue string

const (
	None   Cue = ""
	Pop    Cue = "pop"
	Click  Cue = "click"
	Win    Cue = "win"
	Wrong  Cue = "wrong"
	Whoosh Cue = "whoosh"
)

type Listener interface {
	OnCue(c Cue)
}

type ListenerFunc func(Cue)

func (f ListenerFunc) OnCue(c Cue) { f(c) }

// Bus fans cues out to listeners unless muted. Safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	muted     bool
	nextID    int
	listeners map[int]Listener
}

func NewBus() *Bus {
	return &Bus{listeners: map[int]Listener{}}
}

// Subscribe registers l and returns a function that removes it.
func (b *Bus) Subscribe(l Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

func (b *Bus) Emit(cues ...Cue) {
	b.mu.RLock()
	if b.muted || len(b.listeners) == 0 {
		b.mu.RUnlock()
		return
	}
	ls := make([]Listener, 0, len(b.listeners))
	for i := 0; i < b.nextID; i++ {
		if l, ok := b.listeners[i]; ok {
			ls = append(ls, l)
		}
	}
	b.mu.RUnlock()

	for _, c := range cues {
		if c == None {
			continue
		}
		for _, l := range ls {
			l.OnCue(c)
		}
	}
}

func (b *Bus) SetMuted(muted bool) {
	b.mu.Lock()
	b.muted = muted
	b.mu.Unlock()
}

func (b *Bus) Muted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.muted
}
