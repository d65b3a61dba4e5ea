package rules

import (
	"sort"

	"mindmaster/internal/levels"
)

type Filter string

const (
	FilterNone   Filter = ""
	FilterHeated Filter = "heated"
)

// AssetView is what the presentation layer draws for one asset.
type AssetView struct {
	Asset   levels.Asset
	Content string
	Filter  Filter
	Visible bool
}

type Scene struct {
	LevelID int
	Dark    bool
	Solved  bool
	// Assets are ordered bottom to top by z-index, catalog order breaking ties.
	Assets []AssetView
}

// Top returns the topmost visible asset accepted by hit, if any.
func (s Scene) Top(hit func(AssetView) bool) (AssetView, bool) {
	for i := len(s.Assets) - 1; i >= 0; i-- {
		v := s.Assets[i]
		if v.Visible && hit(v) {
			return v, true
		}
	}
	return AssetView{}, false
}

func SceneFor(lvl levels.Level, st State) Scene {
	scene := Scene{LevelID: lvl.ID, Solved: st.Solved}
	if light, ok := st.Data.(LightState); ok {
		scene.Dark = light.Dark
	}
	views := make([]AssetView, 0, len(lvl.Assets))
	for _, a := range lvl.Assets {
		views = append(views, AssetView{
			Asset:   a,
			Content: contentFor(a, st.Data),
			Filter:  filterFor(a, st.Data),
			Visible: !a.Hidden || scene.Dark,
		})
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Asset.ZIndex < views[j].Asset.ZIndex })
	scene.Assets = views
	return scene
}

func contentFor(a levels.Asset, data Scratch) string {
	switch st := data.(type) {
	case EggState:
		if st.Broken[a.ID] {
			return "🍳"
		}
	case GlassState:
		if a.ID == "glass2" && st.Empty {
			return "💧"
		}
	case PillowState:
		if a.ID == "man" && st.Woke {
			return "😳"
		}
	case CatState:
		if st.Shaken[a.ID] {
			if a.IsCorrect {
				return "🐱"
			}
			return "🦝"
		}
	}
	return a.Content
}

func filterFor(a levels.Asset, data Scratch) Filter {
	if st, ok := data.(HammerState); ok && st.Heated && a.ID == "hammer" {
		return FilterHeated
	}
	return FilterNone
}
