package gesture

import "fmt"

type Kind int

const (
	Click Kind = iota + 1
	Drop
)

func (k Kind) String() string {
	switch k {
	case Click:
		return "click"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "click":
		return Click, nil
	case "drop":
		return Drop, nil
	default:
		return 0, fmt.Errorf("unknown gesture kind %q", s)
	}
}

// Event is a classified gesture. X and Y are only meaningful for Drop and hold
// the asset centre as a percentage of the play area.
type Event struct {
	Kind    Kind
	AssetID string
	X, Y    float64
}

func ClickOn(assetID string) Event { return Event{Kind: Click, AssetID: assetID} }

func DropAt(assetID string, x, y float64) Event {
	return Event{Kind: Drop, AssetID: assetID, X: x, Y: y}
}

func (e Event) String() string {
	if e.Kind == Drop {
		return fmt.Sprintf("drop %s @ (%.1f,%.1f)", e.AssetID, e.X, e.Y)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.AssetID)
}
