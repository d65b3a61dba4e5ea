package levels

import (
	"fmt"
	"regexp"

	"github.com/agnivade/levenshtein"
)

const (
	CatalogKind            = "catalog"
	SupportedSchemaVersion = 1

	maxSuggestDistance = 2
)

var assetIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,31}$`)

type InteractionType string

const (
	InteractionClick  InteractionType = "CLICK"
	InteractionDrag   InteractionType = "DRAG"
	InteractionHidden InteractionType = "HIDDEN"
	InteractionInput  InteractionType = "INPUT"
)

type AssetKind string

const (
	AssetText  AssetKind = "text"
	AssetImage AssetKind = "image"
	AssetShape AssetKind = "shape"
)

type Catalog struct {
	Kind          string  `yaml:"kind"`
	SchemaVersion int     `yaml:"schema_version"`
	Name          string  `yaml:"name"`
	Levels        []Level `yaml:"levels"`

	Path string `yaml:"-"`
}

type Level struct {
	ID       int             `yaml:"id"`
	Question string          `yaml:"question"`
	Hint     string          `yaml:"hint"`
	Type     InteractionType `yaml:"type"`
	Assets   []Asset         `yaml:"assets"`
}

// Asset is an immutable placement template. X and Y are percentages of the
// play area and mark the asset centre before any drag offset is applied.
type Asset struct {
	ID        string    `yaml:"id"`
	Kind      AssetKind `yaml:"kind"`
	Content   string    `yaml:"content"`
	X         float64   `yaml:"x"`
	Y         float64   `yaml:"y"`
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
	Draggable bool      `yaml:"draggable"`
	IsCorrect bool      `yaml:"is_correct"`
	Hidden    bool      `yaml:"hidden"`
	TargetID  string    `yaml:"target_id"`
	ZIndex    int       `yaml:"z_index"`
}

func (c Catalog) Len() int { return len(c.Levels) }

func (c Catalog) Level(id int) (Level, bool) {
	if id < 1 || id > len(c.Levels) {
		return Level{}, false
	}
	return c.Levels[id-1], true
}

func (l Level) Asset(id string) (Asset, bool) {
	for _, a := range l.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// ContextLabel is the short description handed to the hint oracle.
// SuggestAsset returns the asset id closest to id, or "" when nothing is near.
func (l Level) SuggestAsset(id string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, a := range l.Assets {
		if d := levenshtein.ComputeDistance(id, a.ID); d < bestDist {
			best, bestDist = a.ID, d
		}
	}
	if best == id {
		return ""
	}
	return best
}

func (l Level) ContextLabel() string {
	return "Level Type: " + string(l.Type)
}

func (c Catalog) Validate() error {
	if c.Kind != CatalogKind {
		return fmt.Errorf("kind must be %q", CatalogKind)
	}
	if c.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if c.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported catalog schema_version %d (max supported %d)", c.SchemaVersion, SupportedSchemaVersion)
	}
	if len(c.Levels) == 0 {
		return fmt.Errorf("catalog must contain at least one level")
	}
	for i, l := range c.Levels {
		if l.ID != i+1 {
			return fmt.Errorf("levels[%d]: id must be %d, got %d", i, i+1, l.ID)
		}
		if err := l.Validate(); err != nil {
			return fmt.Errorf("level %d: %w", l.ID, err)
		}
	}
	return nil
}

func (l Level) Validate() error {
	if l.ID < 1 {
		return fmt.Errorf("id must be >= 1")
	}
	if l.Question == "" {
		return fmt.Errorf("question is required")
	}
	if l.Hint == "" {
		return fmt.Errorf("hint is required")
	}
	switch l.Type {
	case InteractionClick, InteractionDrag, InteractionHidden, InteractionInput:
	default:
		return fmt.Errorf("invalid type %q", l.Type)
	}
	if len(l.Assets) == 0 {
		return fmt.Errorf("assets must contain at least one item")
	}
	seen := map[string]struct{}{}
	for _, a := range l.Assets {
		if !assetIDPattern.MatchString(a.ID) {
			return fmt.Errorf("invalid asset id %q", a.ID)
		}
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("duplicate asset id %q", a.ID)
		}
		seen[a.ID] = struct{}{}
		if err := a.Validate(); err != nil {
			return fmt.Errorf("asset %q: %w", a.ID, err)
		}
	}
	for _, a := range l.Assets {
		if a.TargetID == "" {
			continue
		}
		if a.TargetID == a.ID {
			return fmt.Errorf("asset %q: target_id must name another asset", a.ID)
		}
		if _, ok := seen[a.TargetID]; !ok {
			if near := l.SuggestAsset(a.TargetID); near != "" {
				return fmt.Errorf("asset %q: unknown target_id %q (did you mean %q?)", a.ID, a.TargetID, near)
			}
			return fmt.Errorf("asset %q: unknown target_id %q", a.ID, a.TargetID)
		}
	}
	return nil
}

func (a Asset) Validate() error {
	switch a.Kind {
	case AssetText, AssetImage, AssetShape:
	default:
		return fmt.Errorf("invalid kind %q", a.Kind)
	}
	if a.Content == "" {
		return fmt.Errorf("content is required")
	}
	if a.X < 0 || a.X > 100 || a.Y < 0 || a.Y > 100 {
		return fmt.Errorf("position (%.1f,%.1f) must be within 0..100", a.X, a.Y)
	}
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("width and height must be >0")
	}
	return nil
}
