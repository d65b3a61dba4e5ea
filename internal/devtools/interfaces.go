package devtools

import (
	"context"

	"mindmaster/internal/gesture"
	"mindmaster/internal/hint"
)

type Demo interface {
	Resolve(name string) Scenario
	Solution(levelID int) []gesture.Event
	SetState(ctx context.Context, cacheDir string, state string, rendered bool) error
	MockOracle() hint.Requester
}
