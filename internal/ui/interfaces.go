package ui

import "mindmaster/internal/gesture"

type Controller interface {
	OnPlay()
	OnOpenLevelSelect()
	OnStartLevel(levelID int)
	OnBackToMainMenu()
	OnGesture(ev gesture.Event)
	OnPickUp(assetID string)
	OnRestart()
	OnSkip()
	OnNextLevel()
	OnBuyHint()
	OnAskOracle()
	OnCloseHint()
	OnCloseOracle()
	OnToggleMute()
	OnResize(cols, rows int)
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(screen Screen)
	SetProgress(state ProgressState)
	SetPlayingState(state PlayingState)
	SetLifetimeStats(rows []StatRow)
	SetSettingsOpen(open bool)
	PlaceAsset(assetID string, x, y float64)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenMainMenu Screen = iota
	ScreenLevelSelect
	ScreenPlaying
)

func (s Screen) String() string {
	switch s {
	case ScreenMainMenu:
		return "main_menu"
	case ScreenLevelSelect:
		return "level_select"
	default:
		return "playing"
	}
}

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

// ProgressState feeds the main menu and the level grid.
type ProgressState struct {
	CurrentLevel int
	TotalLevels  int
	Coins        int
	Completed    []int
	Muted        bool
	GameComplete bool
}

func (p ProgressState) IsCompleted(id int) bool {
	for _, c := range p.Completed {
		if c == id {
			return true
		}
	}
	return false
}

func (p ProgressState) Unlocked(id int) bool {
	if id < 1 || id > p.TotalLevels {
		return false
	}
	return id == 1 || p.IsCompleted(id-1)
}

type PlayingState struct {
	// Epoch changes whenever a new attempt starts; drag offsets reset with it.
	Epoch       uint64
	LevelID     int
	TotalLevels int
	Question    string
	Coins       int
	Dark        bool
	Assets      []AssetState

	Solved       bool
	SolvePending bool

	HintVisible   bool
	HintText      string
	OraclePending bool
	OracleText    string
	CanBuyHint    bool
	CanAskOracle  bool
	HintCost      int
	OracleCost    int

	Muted bool
}

// AssetState is one drawable asset, bottom to top. X and Y are percentages of
// the play area before any drag offset.
type AssetState struct {
	ID        string
	Kind      string
	Content   string
	X, Y      float64
	Width     int
	Height    int
	Draggable bool
	Visible   bool
	Filter    string
}

type StatRow struct {
	Label string
	Value string
}
