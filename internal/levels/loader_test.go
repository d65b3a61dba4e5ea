package levels

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinCatalogLoadsTwentyLevels(t *testing.T) {
	cat, err := NewLoader().Load(context.Background(), "")
	if err != nil {
		t.Fatalf("load builtin: %v", err)
	}
	if cat.Len() != 20 {
		t.Fatalf("expected 20 levels, got %d", cat.Len())
	}
	l11, ok := cat.Level(11)
	if !ok {
		t.Fatalf("level 11 not found")
	}
	zero, ok := l11.Asset("0")
	if !ok || !zero.IsCorrect || zero.Draggable {
		t.Fatalf("expected level 11 asset 0 to be a static correct answer, got %+v", zero)
	}
	moon, _ := cat.Levels[18].Asset("moon")
	if moon.TargetID != "baby" {
		t.Fatalf("expected moon to target baby, got %q", moon.TargetID)
	}
	if _, ok := cat.Level(21); ok {
		t.Fatalf("expected level 21 to be missing")
	}
}

func TestLoadFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "levels.yaml")
	body := `kind: catalog
schema_version: 1
levels:
  - id: 1
    question: Tap it.
    hint: Just tap.
    type: CLICK
    assets:
      - {id: dot, content: "o", x: 50, y: 50, width: 10, height: 10, is_correct: true}
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := NewLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cat.Len() != 1 || cat.Levels[0].Assets[0].Kind != AssetText {
		t.Fatalf("expected one level with defaulted text asset, got %+v", cat.Levels)
	}
}

func TestLoadFileRejectsInvalidCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "levels.yaml")
	if err := os.WriteFile(path, []byte("kind: catalog\nlevels: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewLoader().Load(context.Background(), path); err == nil {
		t.Fatalf("expected validation error")
	}
}
