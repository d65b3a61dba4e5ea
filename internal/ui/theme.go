package ui

import "charm.land/lipgloss/v2"

type Theme struct {
	Header       lipgloss.Style
	Status       lipgloss.Style
	PanelTitle   lipgloss.Style
	PanelBorder  lipgloss.Style
	PanelBody    lipgloss.Style
	OverlayTitle lipgloss.Style
	Accent       lipgloss.Style
	Pass         lipgloss.Style
	Fail         lipgloss.Style
	Pending      lipgloss.Style
	Muted        lipgloss.Style
	Info         lipgloss.Style

	Coins       lipgloss.Style
	TileLocked  lipgloss.Style
	TileOpen    lipgloss.Style
	TileDone    lipgloss.Style
	TileCurrent lipgloss.Style
	Heated      lipgloss.Style
	Dragging    lipgloss.Style
	Night       lipgloss.Style
}

type palette struct {
	ink, slate, paper, accent, good, bad, warn, dim, border, night string
	double                                                           bool
}

var palettes = map[string]palette{
	"modern_arcade": {
		ink: "#0E1420", slate: "#1B2740", paper: "#EAF2FF", accent: "#5EEBFF",
		good: "#67F0A8", bad: "#FF6F91", warn: "#FFC857", dim: "#9CAAC6", border: "#4B5F8A", night: "#05070C",
	},
	"cozy_clean": {
		ink: "#1E2430", slate: "#30394A", paper: "#F4F6FA", accent: "#86B6F6",
		good: "#80C4A3", bad: "#D17A86", warn: "#F2B872", dim: "#A3ACC2", border: "#4A5972", night: "#101318",
	},
	"retro_terminal": {
		ink: "#07150A", slate: "#12301A", paper: "#C5F7C4", accent: "#9CF5A2",
		good: "#9CF5A2", bad: "#FF6B6B", warn: "#E5D47A", dim: "#73A17A", border: "#1F5C2F", night: "#020803",
		double: true,
	},
}

func DefaultTheme() Theme {
	return ThemeForVariant("modern_arcade")
}

func ThemeForVariant(variant string) Theme {
	p, ok := palettes[variant]
	if !ok {
		p = palettes["modern_arcade"]
	}
	return themeFromPalette(p)
}

func themeFromPalette(p palette) Theme {
	c := lipgloss.Color
	border := lipgloss.RoundedBorder()
	if p.double {
		border = lipgloss.DoubleBorder()
	}
	return Theme{
		Header:       lipgloss.NewStyle().Background(c(p.ink)).Foreground(c(p.paper)).Bold(true).Padding(0, 1),
		Status:       lipgloss.NewStyle().Background(c(p.slate)).Foreground(c(p.paper)).Padding(0, 1),
		PanelTitle:   lipgloss.NewStyle().Foreground(c(p.accent)).Bold(true),
		PanelBorder:  lipgloss.NewStyle().Foreground(c(p.border)),
		PanelBody:    lipgloss.NewStyle().Foreground(c(p.paper)),
		OverlayTitle: lipgloss.NewStyle().Foreground(c(p.accent)).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(c(p.accent)).Bold(true),
		Pass:         lipgloss.NewStyle().Foreground(c(p.good)).Bold(true),
		Fail:         lipgloss.NewStyle().Foreground(c(p.bad)).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(c(p.warn)),
		Muted:        lipgloss.NewStyle().Foreground(c(p.dim)),
		Info:         lipgloss.NewStyle().Foreground(c(p.accent)),

		Coins:       lipgloss.NewStyle().Foreground(c(p.warn)).Bold(true),
		TileLocked:  lipgloss.NewStyle().Border(border).BorderForeground(c(p.border)).Foreground(c(p.dim)).Align(lipgloss.Center),
		TileOpen:    lipgloss.NewStyle().Border(border).BorderForeground(c(p.accent)).Foreground(c(p.paper)).Align(lipgloss.Center),
		TileDone:    lipgloss.NewStyle().Border(border).BorderForeground(c(p.good)).Foreground(c(p.good)).Align(lipgloss.Center),
		TileCurrent: lipgloss.NewStyle().Border(border).BorderForeground(c(p.warn)).Foreground(c(p.warn)).Bold(true).Align(lipgloss.Center),
		Heated:      lipgloss.NewStyle().Foreground(c(p.bad)).Bold(true),
		Dragging:    lipgloss.NewStyle().Foreground(c(p.warn)).Bold(true),
		Night:       lipgloss.NewStyle().Foreground(c(p.dim)).Background(c(p.night)),
	}
}
