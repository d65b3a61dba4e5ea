package app

import (
	"mindmaster/internal/cue"
	"mindmaster/internal/ui"
)

// View is the presentation surface the app drives. It also renders audio cues.
type View interface {
	ui.View
	cue.Listener
}
