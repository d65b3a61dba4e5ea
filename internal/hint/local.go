package hint

import (
	"context"
	"strings"
	"sync"
)

var localQuips = map[string][]string{
	"Level Type: DRAG": {
		"Things here are more mobile than they look.",
		"Your mouse button has a hold mode, you know.",
		"Not everything is glued to the floor. Try moving it.",
	},
	"Level Type: CLICK": {
		"Look closer. Then look even closer.",
		"The obvious answer is obviously wrong. Or is it?",
		"Some things change when you poke them.",
	},
}

var genericQuips = []string{
	"Read the question again. Slowly. Out loud if you must.",
	"The answer is on the screen. Probably.",
}

// LocalRequester answers without a network, cycling through canned quips.
type LocalRequester struct {
	mu   sync.Mutex
	next map[string]int
}

func NewLocalRequester() *LocalRequester {
	return &LocalRequester{next: map[string]int{}}
}

func (l *LocalRequester) RequestHint(ctx context.Context, question, contextLabel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	quips, ok := localQuips[strings.TrimSpace(contextLabel)]
	if !ok {
		quips = genericQuips
	}
	l.mu.Lock()
	i := l.next[contextLabel]
	l.next[contextLabel] = i + 1
	l.mu.Unlock()
	return quips[i%len(quips)], nil
}
