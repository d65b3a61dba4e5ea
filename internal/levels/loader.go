package levels

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/levels.yaml
var builtinCatalog []byte

const BuiltinPath = "builtin:levels.yaml"

type FSLoader struct{}

func NewLoader() *FSLoader { return &FSLoader{} }

// Load reads the catalog at path, or the embedded catalog when path is empty.
func (l *FSLoader) Load(ctx context.Context, path string) (Catalog, error) {
	if err := ctx.Err(); err != nil {
		return Catalog{}, err
	}
	if path == "" || path == BuiltinPath {
		return LoadBuiltin()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Catalog{}, err
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", abs, err)
	}
	cat, err := parseCatalog(b)
	if err != nil {
		return Catalog{}, fmt.Errorf("load catalog %s: %w", abs, err)
	}
	cat.Path = abs
	return cat, nil
}

func LoadBuiltin() (Catalog, error) {
	cat, err := parseCatalog(builtinCatalog)
	if err != nil {
		return Catalog{}, fmt.Errorf("load builtin catalog: %w", err)
	}
	cat.Path = BuiltinPath
	return cat, nil
}

// MustBuiltin is for tests and tools that cannot continue without the catalog.
func MustBuiltin() Catalog {
	cat, err := LoadBuiltin()
	if err != nil {
		panic(err)
	}
	return cat
}

func parseCatalog(b []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(b, &cat); err != nil {
		return cat, err
	}
	applyCatalogDefaults(&cat)
	if err := cat.Validate(); err != nil {
		return cat, err
	}
	return cat, nil
}

func applyCatalogDefaults(cat *Catalog) {
	if cat.Kind == "" {
		cat.Kind = CatalogKind
	}
	if cat.SchemaVersion == 0 {
		cat.SchemaVersion = SupportedSchemaVersion
	}
	for i := range cat.Levels {
		lvl := &cat.Levels[i]
		if lvl.Type == "" {
			lvl.Type = InteractionDrag
		}
		for j := range lvl.Assets {
			if lvl.Assets[j].Kind == "" {
				lvl.Assets[j].Kind = AssetText
			}
		}
	}
}

var _ Loader = (*FSLoader)(nil)
