package ui

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"

	"mindmaster/internal/cue"
	"mindmaster/internal/gesture"
)

type applyMsg struct {
	fn func(*Root)
}

type drawMsg struct{}
type animateMsg time.Time
type flashClearMsg struct{ seq int }

type gameKeyMap struct {
	Hint    key.Binding
	Oracle  key.Binding
	Restart key.Binding
	Skip    key.Binding
	Next    key.Binding
	Mute    key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func (k gameKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Hint, k.Oracle, k.Restart, k.Skip, k.Next, k.Mute, k.Back}
}

func (k gameKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Hint, k.Oracle}, {k.Restart, k.Skip, k.Next}, {k.Mute, k.Back, k.Quit}}
}

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	styleVariant string
	motionLevel  string
	bell         bool
	bellOut      io.Writer

	mu      sync.Mutex
	program *tea.Program
	running bool

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	progress      ProgressState
	play          PlayingState
	stats         []StatRow
	statusFlash   string
	flashSeq      int
	cueGlyph      string
	settingsOpen  bool
	completeShown bool

	mainMenuIndex int
	levelIndex    int
	settingsIndex int

	tracker    *gesture.Tracker
	offsets    map[string]gesture.Point
	dragCenter gesture.Point

	help       help.Model
	keymap     gameKeyMap
	mastery    progress.Model
	oracleSpin spinner.Model
	markdown   *glamour.TermRenderer
	logger     *clog.Logger
	winPos     float64
	winVel     float64
	spring     harmonica.Spring

	drawPending atomic.Bool

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
	// Bell rings the terminal bell on win and wrong cues.
	Bell    bool
	BellOut io.Writer
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "mindmaster-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(44),
	)
	if err != nil {
		renderer = nil
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 7.0, 0.55)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}
	mastery := progress.New(
		progress.WithWidth(20),
		progress.WithColors(lipgloss.Color("#5EC2FF"), lipgloss.Color("#79E6A6"), lipgloss.Color("#F2D16B")),
		progress.WithScaled(true),
	)
	if motionLevel == "off" {
		mastery.SetSpringOptions(1000.0, 1.0)
	}
	oracleSpin := spinner.New(
		spinner.WithSpinner(spinner.Moon),
		spinner.WithStyle(theme.Accent),
	)
	bellOut := opts.BellOut
	if bellOut == nil {
		bellOut = os.Stdout
	}

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		bell:         opts.Bell,
		bellOut:      bellOut,
		screen:       ScreenMainMenu,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		progress:     ProgressState{CurrentLevel: 1, TotalLevels: 20},
		tracker:      gesture.NewTracker(),
		offsets:      map[string]gesture.Point{},
		help:         h,
		mastery:      mastery,
		oracleSpin:   oracleSpin,
		markdown:     renderer,
		logger:       logger,
		spring:       spring,
	}
	r.keymap = gameKeyMap{
		Hint:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hint")),
		Oracle:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "oracle")),
		Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		Skip:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
		Next:    key.NewBinding(key.WithKeys("n", "enter"), key.WithHelp("n", "next")),
		Mute:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+q", "ctrl+c"), key.WithHelp("ctrl+q", "quit")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return spinnerTickCmd(r.oracleSpin)
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		r.tracker.Cancel()
		r.dispatchController(func(c Controller) { c.OnResize(msg.Width, msg.Height) })
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, tea.Batch(r.animateIfNeeded(), r.flashClearCmd())
	case drawMsg:
		r.drawPending.Store(false)
		return r, nil
	case flashClearMsg:
		if msg.seq == r.flashSeq {
			r.statusFlash = ""
			r.cueGlyph = ""
		}
		return r, nil
	case animateMsg:
		r.winPos, r.winVel = r.spring.Update(r.winPos, r.winVel, 1.0)
		if r.shouldAnimate() {
			return r, animateTickCmd()
		}
		r.winPos, r.winVel = 1, 0
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.oracleSpin, cmd = r.oracleSpin.Update(msg)
		return r, cmd
	case tea.MouseClickMsg:
		return r.handleMouseClick(msg)
	case tea.MouseMotionMsg:
		return r.handleMouseMotion(msg)
	case tea.MouseReleaseMsg:
		return r.handleMouseRelease(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	v := tea.NewView(r.render())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	v.WindowTitle = "MindMaster"
	return v
}

// render draws the full screen, overlays included.
func (r *Root) render() string {
	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	switch {
	case DetermineLayoutMode(r.cols, r.rows) == LayoutTooSmall:
		base = r.renderTooSmall()
	case r.screen == ScreenMainMenu:
		base = r.renderMainMenu()
	case r.screen == ScreenLevelSelect:
		base = r.renderLevelSelect()
	default:
		base = r.renderPlaying()
	}

	if ov, ok := r.overlaySpec(r.topOverlay()); ok {
		panel := r.drawPanel(ov.title, ov.lines, ov.width, ov.height)
		base = composeOverlayAt(base, panel, r.cols, r.rows, ov.startRow, ov.startCol)
	}
	return base
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(m *Root) {
		m.screen = screen
		m.tracker.Cancel()
		if screen == ScreenLevelSelect {
			m.levelIndex = max(0, m.progress.CurrentLevel-1)
		}
	})
}

func (r *Root) SetProgress(state ProgressState) {
	r.apply(func(m *Root) {
		if !state.GameComplete {
			m.completeShown = false
		}
		m.progress = state
	})
}

func (r *Root) SetPlayingState(s PlayingState) {
	r.apply(func(m *Root) {
		if s.Epoch != m.play.Epoch || s.LevelID != m.play.LevelID {
			m.offsets = map[string]gesture.Point{}
			m.tracker.Cancel()
		}
		if s.Solved && !m.play.Solved {
			m.winPos, m.winVel = 0, 0
			if m.motionLevel == "off" {
				m.winPos = 1
			}
		}
		m.play = s
	})
}

func (r *Root) SetLifetimeStats(rows []StatRow) {
	r.apply(func(m *Root) {
		m.stats = append([]StatRow(nil), rows...)
	})
}

func (r *Root) SetSettingsOpen(open bool) {
	r.apply(func(m *Root) {
		m.settingsOpen = open
		m.settingsIndex = 0
	})
}

// PlaceAsset moves an asset to (x,y) percent, for gestures that did not come
// from the mouse.
func (r *Root) PlaceAsset(assetID string, x, y float64) {
	r.apply(func(m *Root) {
		m.setOffset(assetID, x, y)
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
		m.flashSeq++
	})
}

// OnCue is the terminal sink for audio cues.
func (r *Root) OnCue(c cue.Cue) {
	glyph := cueGlyph(c, r.ascii)
	if glyph == "" {
		return
	}
	if r.bell && (c == cue.Win || c == cue.Wrong) {
		_, _ = io.WriteString(r.bellOut, "\a")
	}
	r.apply(func(m *Root) {
		m.cueGlyph = glyph
		m.flashSeq++
	})
}

func (r *Root) RequestDraw() {
	r.mu.Lock()
	p := r.program
	running := r.running
	r.mu.Unlock()
	if !running || p == nil {
		return
	}
	if !r.drawPending.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(16*time.Millisecond, func() {
		r.mu.Lock()
		p := r.program
		running := r.running
		r.mu.Unlock()
		if !running || p == nil {
			r.drawPending.Store(false)
			return
		}
		p.Send(drawMsg{})
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, r.keymap.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if r.overlayActive() {
		return r.handleOverlayKey(msg)
	}
	switch r.screen {
	case ScreenMainMenu:
		return r.handleMainMenuKey(msg)
	case ScreenLevelSelect:
		return r.handleLevelSelectKey(msg)
	default:
		return r.handlePlayingKey(msg)
	}
}

func (r *Root) handleMainMenuKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	items := r.mainMenuItems()
	switch msg.String() {
	case "up", "k":
		r.mainMenuIndex = wrapIndex(r.mainMenuIndex-1, len(items))
	case "down", "j", "tab":
		r.mainMenuIndex = wrapIndex(r.mainMenuIndex+1, len(items))
	case "enter", "space":
		r.activateMainMenuSelection()
	case "l":
		r.dispatchController(func(c Controller) { c.OnOpenLevelSelect() })
	case "m":
		r.dispatchController(func(c Controller) { c.OnToggleMute() })
	}
	return r, nil
}

const gridCols = 5

func (r *Root) handleLevelSelectKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	total := max(1, r.progress.TotalLevels)
	switch msg.String() {
	case "left", "h":
		r.levelIndex = wrapIndex(r.levelIndex-1, total)
	case "right", "l", "tab":
		r.levelIndex = wrapIndex(r.levelIndex+1, total)
	case "up", "k":
		if r.levelIndex-gridCols >= 0 {
			r.levelIndex -= gridCols
		}
	case "down", "j":
		if r.levelIndex+gridCols < total {
			r.levelIndex += gridCols
		}
	case "enter", "space":
		id := r.levelIndex + 1
		r.dispatchController(func(c Controller) { c.OnStartLevel(id) })
	case "esc", "q":
		r.dispatchController(func(c Controller) { c.OnBackToMainMenu() })
	}
	return r, nil
}

func (r *Root) handlePlayingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, r.keymap.Back):
		r.tracker.Cancel()
		r.dispatchController(func(c Controller) { c.OnBackToMainMenu() })
	case key.Matches(msg, r.keymap.Hint):
		r.dispatchController(func(c Controller) { c.OnBuyHint() })
	case key.Matches(msg, r.keymap.Oracle):
		r.dispatchController(func(c Controller) { c.OnAskOracle() })
	case key.Matches(msg, r.keymap.Restart):
		r.dispatchController(func(c Controller) { c.OnRestart() })
	case key.Matches(msg, r.keymap.Skip):
		r.dispatchController(func(c Controller) { c.OnSkip() })
	case key.Matches(msg, r.keymap.Mute):
		r.dispatchController(func(c Controller) { c.OnToggleMute() })
	case key.Matches(msg, r.keymap.Next):
		if r.play.Solved {
			r.dispatchController(func(c Controller) { c.OnNextLevel() })
		}
	}
	return r, nil
}

func (r *Root) handleOverlayKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	top := r.topOverlay()
	k := msg.String()
	if top == "settings" {
		switch k {
		case "up", "k", "down", "j", "tab":
			r.settingsIndex = wrapIndex(r.settingsIndex+1, 2)
		case "m":
			r.dispatchController(func(c Controller) { c.OnToggleMute() })
		case "enter", "space":
			if r.settingsIndex == 0 {
				r.dispatchController(func(c Controller) { c.OnToggleMute() })
			} else {
				r.settingsOpen = false
			}
		case "esc", "q":
			r.settingsOpen = false
		}
		return r, nil
	}
	switch k {
	case "esc", "q":
		r.dismissTopOverlay()
	case "enter", "space", "n":
		r.activateOverlay()
	case "r":
		if top == "win" {
			r.dispatchController(func(c Controller) { c.OnRestart() })
		}
	}
	return r, nil
}

func (r *Root) activateOverlay() {
	switch r.topOverlay() {
	case "win":
		r.dispatchController(func(c Controller) { c.OnNextLevel() })
	case "complete":
		r.completeShown = true
		r.dispatchController(func(c Controller) { c.OnBackToMainMenu() })
	default:
		r.dismissTopOverlay()
	}
}

func (r *Root) dismissTopOverlay() {
	switch r.topOverlay() {
	case "settings":
		r.settingsOpen = false
	case "hint":
		r.dispatchController(func(c Controller) { c.OnCloseHint() })
	case "oracle":
		if !r.play.OraclePending {
			r.dispatchController(func(c Controller) { c.OnCloseOracle() })
		}
	case "complete":
		r.completeShown = true
		r.dispatchController(func(c Controller) { c.OnBackToMainMenu() })
	case "win":
		r.dispatchController(func(c Controller) { c.OnBackToMainMenu() })
	}
}

func (r *Root) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	m := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_click:%d,%d button:%v", m.X, m.Y, m.Button))
	if m.Button != tea.MouseLeft {
		return r, nil
	}
	if r.overlayActive() {
		if ov, ok := r.overlaySpec(r.topOverlay()); ok && ov.contains(m.X, m.Y) {
			r.activateOverlay()
		} else {
			r.dismissTopOverlay()
		}
		return r, nil
	}
	switch r.screen {
	case ScreenMainMenu:
		return r.handleMainMenuMouseClick(m.X, m.Y)
	case ScreenLevelSelect:
		return r.handleLevelSelectMouseClick(m.X, m.Y)
	}
	return r.pressPlayfield(m.X, m.Y)
}

func (r *Root) pressPlayfield(x, y int) (tea.Model, tea.Cmd) {
	p := gesture.Point{X: float64(x), Y: float64(y)}
	if !r.playRect().Contains(p) || r.play.Solved {
		return r, nil
	}
	a, center, ok := r.assetAt(p)
	if !ok {
		return r, nil
	}
	r.dragCenter = center
	if r.tracker.Down(a.ID, a.Draggable, center, p) == cue.Pop {
		id := a.ID
		r.dispatchController(func(c Controller) { c.OnPickUp(id) })
	}
	return r, nil
}

func (r *Root) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !r.tracker.Active() {
		return r, nil
	}
	m := msg.Mouse()
	if c, ok := r.tracker.Move(gesture.Point{X: float64(m.X), Y: float64(m.Y)}); ok {
		r.dragCenter = c
	}
	return r, nil
}

func (r *Root) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if !r.tracker.Active() {
		return r, nil
	}
	m := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_release:%d,%d", m.X, m.Y))
	ev, ok := r.tracker.Up(gesture.Point{X: float64(m.X), Y: float64(m.Y)}, r.playRect())
	if !ok {
		return r, nil
	}
	if ev.Kind == gesture.Drop {
		r.setOffset(ev.AssetID, ev.X, ev.Y)
	}
	r.dispatchController(func(c Controller) { c.OnGesture(ev) })
	return r, nil
}

func (r *Root) handleMainMenuMouseClick(x, y int) (tea.Model, tea.Cmd) {
	items := r.mainMenuItems()
	leftW := min(36, max(24, r.cols/3))
	if x < 1 || x >= leftW-1 {
		return r, nil
	}
	idx := y - 2
	if idx < 0 || idx >= len(items) {
		return r, nil
	}
	r.mainMenuIndex = idx
	r.activateMainMenuSelection()
	return r, nil
}

func (r *Root) handleLevelSelectMouseClick(x, y int) (tea.Model, tea.Cmd) {
	idx, ok := r.tileAt(x, y)
	if !ok {
		return r, nil
	}
	r.levelIndex = idx
	id := idx + 1
	r.dispatchController(func(c Controller) { c.OnStartLevel(id) })
	return r, nil
}

type menuItem struct {
	Label  string
	Action string
}

func (r *Root) mainMenuItems() []menuItem {
	play := "Play"
	if r.progress.CurrentLevel > 1 || len(r.progress.Completed) > 0 {
		play = fmt.Sprintf("Continue (Level %d)", r.progress.CurrentLevel)
	}
	return []menuItem{
		{Label: play, Action: "play"},
		{Label: "Levels", Action: "levels"},
		{Label: "Settings", Action: "settings"},
		{Label: "Quit", Action: "quit"},
	}
}

func (r *Root) activateMainMenuSelection() {
	items := r.mainMenuItems()
	if r.mainMenuIndex < 0 || r.mainMenuIndex >= len(items) {
		return
	}
	switch items[r.mainMenuIndex].Action {
	case "play":
		r.dispatchController(func(c Controller) { c.OnPlay() })
	case "levels":
		r.dispatchController(func(c Controller) { c.OnOpenLevelSelect() })
	case "settings":
		r.settingsOpen = true
		r.settingsIndex = 0
	case "quit":
		r.dispatchController(func(c Controller) { c.OnQuit() })
	}
}

func (r *Root) renderTooSmall() string {
	msg := []string{
		"Terminal too small",
		fmt.Sprintf("Current: %dx%d", r.cols, r.rows),
		fmt.Sprintf("Minimum: %dx%d", MinCols, MinRows),
		"Resize the terminal to continue.",
	}
	panel := r.drawPanel("Resize Required", msg, min(40, r.cols), min(8, r.rows))
	return lipgloss.Place(r.cols, r.rows, lipgloss.Center, lipgloss.Center, panel)
}

func (r *Root) renderMainMenu() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render("MindMaster")

	items := r.mainMenuItems()
	menuLines := make([]string, len(items))
	for i, item := range items {
		prefix := "  "
		if i == r.mainMenuIndex {
			prefix = "> "
		}
		menuLines[i] = prefix + item.Label
	}
	left := r.drawPanel("Main Menu", menuLines, min(36, max(24, w/3)), max(8, h-2))
	info := strings.Split(strings.TrimSuffix(r.mainMenuInfoText(), "\n"), "\n")
	right := r.drawPanel("Overview", info, max(20, w-lipgloss.Width(left)), max(8, h-2))
	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, right) + "\n" + r.statusText()
}

func (r *Root) mainMenuInfoText() string {
	var b strings.Builder
	b.WriteString("Outsmart 20 riddles that never play fair.\n\n")
	b.WriteString(fmt.Sprintf("Level:  %d/%d\n", r.progress.CurrentLevel, r.progress.TotalLevels))
	b.WriteString(fmt.Sprintf("Coins:  %d\n", r.progress.Coins))
	b.WriteString(fmt.Sprintf("Solved: %d\n", len(r.progress.Completed)))
	b.WriteString(r.masteryBar(24) + "\n")
	if len(r.stats) > 0 {
		b.WriteString("\nLifetime\n")
		for _, row := range r.stats {
			b.WriteString(fmt.Sprintf("%-10s %s\n", row.Label+":", row.Value))
		}
	}
	b.WriteString("\nDrag or click with the mouse. Nothing is what it seems.\n")
	return b.String()
}

func (r *Root) tileDims() (int, int) {
	sample := r.theme.TileOpen.Width(6).Render("20")
	return lipgloss.Width(sample), lipgloss.Height(sample)
}

// tileAt maps a screen cell to a level-grid index.
func (r *Root) tileAt(x, y int) (int, bool) {
	tw, th := r.tileDims()
	col := (x - 2) / (tw + 1)
	row := (y - 2) / th
	if x < 2 || y < 2 || col >= gridCols || (x-2)%(tw+1) == tw {
		return 0, false
	}
	idx := row*gridCols + col
	if idx < 0 || idx >= r.progress.TotalLevels {
		return 0, false
	}
	return idx, true
}

func (r *Root) renderLevelSelect() string {
	header := r.theme.Header.Width(max(1, r.cols)).Render("MindMaster - Level Select")
	lines := []string{header, r.theme.Muted.Render("  Pick a level. Locked levels open once the previous one is solved.")}

	total := r.progress.TotalLevels
	var rows []string
	for start := 0; start < total; start += gridCols {
		var tiles []string
		for i := start; i < min(total, start+gridCols); i++ {
			if i > start {
				tiles = append(tiles, " ")
			}
			tiles = append(tiles, r.renderTile(i+1, i == r.levelIndex))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
	}
	grid := lipgloss.JoinVertical(lipgloss.Left, rows...)
	for _, l := range strings.Split(grid, "\n") {
		lines = append(lines, "  "+l)
	}
	for len(lines) < r.rows-1 {
		lines = append(lines, "")
	}
	return strings.Join(lines[:max(1, r.rows-1)], "\n") + "\n" + r.statusText()
}

func (r *Root) renderTile(id int, selected bool) string {
	label := fmt.Sprintf("%d", id)
	style := r.theme.TileOpen
	switch {
	case !r.progress.Unlocked(id):
		style = r.theme.TileLocked
		label = "🔒"
		if r.ascii {
			label = "#"
		}
	case r.progress.IsCompleted(id):
		style = r.theme.TileDone
		label += " ✓"
	case id == r.progress.CurrentLevel:
		style = r.theme.TileCurrent
	}
	if selected {
		label = "[" + label + "]"
	}
	return style.Width(6).Render(label)
}

func (r *Root) renderPlaying() string {
	w, h := r.cols, r.rows
	mode := DetermineLayoutMode(w, h)
	r.layout = mode

	rect := r.playRect()
	bodyH := max(3, h-2)
	title := fmt.Sprintf("Level %d", r.play.LevelID)
	board := r.drawPanel(title, r.renderPlayfield(rect), int(rect.W)+2, bodyH)
	body := board
	if mode == LayoutWide {
		hud := r.drawPanel("HUD", strings.Split(strings.TrimSuffix(r.hudText(), "\n"), "\n"), hudWidth, bodyH)
		body = lipgloss.JoinHorizontal(lipgloss.Top, board, hud)
	}
	return r.headerText() + "\n" + body + "\n" + r.statusText()
}

func (r *Root) headerText() string {
	width := max(1, r.cols-1)
	coins := fmt.Sprintf("🪙 %d", r.play.Coins)
	if r.ascii {
		coins = fmt.Sprintf("$%d", r.play.Coins)
	}
	txt := fmt.Sprintf("MindMaster | %d/%d | %s | %s", r.play.LevelID, r.play.TotalLevels, r.play.Question, coins)
	if ansi.StringWidth(txt) > width {
		txt = fmt.Sprintf("%d/%d %s | %s", r.play.LevelID, r.play.TotalLevels, r.play.Question, coins)
	}
	txt = trimForWidth(txt, width)
	if r.debug {
		txt = trimForWidth(fmt.Sprintf("%s | %dx%d %v", txt, r.cols, r.rows, r.layout), width)
	}
	return r.theme.Header.Width(max(1, r.cols)).Render(txt)
}

func (r *Root) statusText() string {
	keys := r.help.ShortHelpView(r.keymap.ShortHelp())
	if r.screen != ScreenPlaying {
		keys = "enter select | esc back | m mute | ctrl+q quit"
	}
	if r.play.Muted || r.progress.Muted {
		keys += " | muted"
	}
	if r.play.SolvePending {
		keys += " | " + r.theme.Pending.Render("...")
	}
	if r.cueGlyph != "" {
		keys += " " + r.cueGlyph
	}
	if r.statusFlash != "" {
		keys += " | " + r.statusFlash
	}
	keys = trimForWidth(keys, max(1, r.cols-1))
	return r.theme.Status.Width(max(1, r.cols)).Render(keys)
}

func (r *Root) hudText() string {
	var b strings.Builder
	b.WriteString("Riddle\n")
	b.WriteString(r.play.Question + "\n")
	b.WriteString(fmt.Sprintf("\nCoins: %d\n", r.play.Coins))
	hint := fmt.Sprintf("h  hint   (%d)", r.play.HintCost)
	oracle := fmt.Sprintf("o  oracle (%d)", r.play.OracleCost)
	if !r.play.CanBuyHint && !r.play.HintVisible {
		hint = r.theme.Muted.Render(hint)
	}
	if !r.play.CanAskOracle && r.play.OracleText == "" && !r.play.OraclePending {
		oracle = r.theme.Muted.Render(oracle)
	}
	b.WriteString(hint + "\n" + oracle + "\n")
	b.WriteString("\nProgress\n")
	b.WriteString(fmt.Sprintf("%d of %d solved\n", len(r.progress.Completed), r.progress.TotalLevels))
	b.WriteString(r.masteryBar(hudWidth-4) + "\n")
	b.WriteString("\nKeys\n")
	for _, col := range r.keymap.FullHelp() {
		parts := make([]string, 0, len(col))
		for _, kb := range col {
			parts = append(parts, kb.Help().Key+" "+kb.Help().Desc)
		}
		b.WriteString(strings.Join(parts, "  ") + "\n")
	}
	return b.String()
}

type overlaySpec struct {
	title    string
	lines    []string
	width    int
	height   int
	startRow int
	startCol int
}

func (s overlaySpec) contains(x, y int) bool {
	return x >= s.startCol && x < s.startCol+s.width && y >= s.startRow && y < s.startRow+s.height
}

func (r *Root) topOverlay() string {
	switch {
	case r.settingsOpen:
		return "settings"
	case r.progress.GameComplete && !r.completeShown:
		return "complete"
	case r.screen != ScreenPlaying:
		return ""
	case r.play.OraclePending || r.play.OracleText != "":
		return "oracle"
	case r.play.HintVisible:
		return "hint"
	case r.play.Solved:
		return "win"
	}
	return ""
}

func (r *Root) overlayActive() bool {
	return r.topOverlay() != ""
}

func (r *Root) overlaySpec(top string) (overlaySpec, bool) {
	if top == "" {
		return overlaySpec{}, false
	}
	w := min(52, max(24, r.cols-8))
	var title string
	var lines []string
	switch top {
	case "settings":
		title = "Settings"
		sound := "Sound: On"
		if r.progress.Muted || r.play.Muted {
			sound = "Sound: Off"
		}
		for i, label := range []string{sound, "Close"} {
			prefix := "  "
			if i == r.settingsIndex {
				prefix = "> "
			}
			lines = append(lines, prefix+label)
		}
		lines = append(lines, "", "Enter: Select  Esc: Close")
	case "hint":
		title = "Hint"
		lines = r.renderMarkdown("*" + r.play.HintText + "*")
		lines = append(lines, "", "Esc: Close")
	case "oracle":
		title = "Ask the Oracle"
		if r.play.OraclePending {
			lines = []string{strings.TrimSpace(r.oracleSpin.View()) + " The oracle is consulting the spirits..."}
		} else {
			lines = r.renderMarkdown(r.play.OracleText)
			lines = append(lines, "", "Esc: Close")
		}
	case "win":
		title = "Solved!"
		lines = []string{
			r.theme.Pass.Render(fmt.Sprintf("Level %d cleared.", r.play.LevelID)),
			"",
			"Enter/n: Next Level   r: Replay   Esc: Menu",
		}
	case "complete":
		title = "Game Complete"
		lines = []string{
			r.theme.Pass.Render("You outsmarted every riddle."),
			fmt.Sprintf("Coins left: %d", r.progress.Coins),
			"",
			"Enter: Main Menu",
		}
	default:
		return overlaySpec{}, false
	}
	h := min(len(lines)+2, max(5, r.rows-2))
	startRow := (r.rows - h) / 2
	if top == "win" && r.winPos < 1 {
		startRow = int(float64(startRow) * maxFloat(r.winPos, 0))
	}
	return overlaySpec{
		title:    title,
		lines:    lines,
		width:    w,
		height:   h,
		startRow: startRow,
		startCol: (r.cols - w) / 2,
	}, true
}

func (r *Root) renderMarkdown(md string) []string {
	text := strings.TrimSpace(md)
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(md); err == nil {
			text = strings.Trim(rendered, "\n")
		}
	}
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(ansi.Strip(l)) == "" && len(out) == 0 {
			continue
		}
		out = append(out, strings.TrimRight(l, " "))
	}
	if len(out) == 0 {
		out = []string{"(empty)"}
	}
	return out
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h, v := "─", "│"
	tl, tr, bl, br := "┌", "┐", "└", "┘"
	if r.ascii {
		h, v = "-", "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := trimForWidth(" "+title+" ", innerW-1)
		top = tl + h + t + strings.Repeat(h, max(0, innerW-1-ansi.StringWidth(t))) + tr
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.PanelBorder.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, r.theme.PanelBorder.Render(v)+r.theme.PanelBody.Render(padCells(line, innerW))+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) animateIfNeeded() tea.Cmd {
	if r.topOverlay() == "win" && r.shouldAnimate() {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) flashClearCmd() tea.Cmd {
	if r.statusFlash == "" && r.cueGlyph == "" {
		return nil
	}
	seq := r.flashSeq
	return tea.Tick(1500*time.Millisecond, func(time.Time) tea.Msg { return flashClearMsg{seq: seq} })
}

func (r *Root) masteryBar(width int) string {
	m := r.mastery
	m.SetWidth(max(8, width))
	total := r.progress.TotalLevels
	if total <= 0 {
		return m.ViewAs(0)
	}
	return m.ViewAs(float64(len(r.progress.Completed)) / float64(total))
}

func (r *Root) shouldAnimate() bool {
	if r.motionLevel == "off" {
		return false
	}
	return r.winPos < 0.999 || abs(r.winVel) > 0.001
}

func cueGlyph(c cue.Cue, ascii bool) string {
	glyphs := map[cue.Cue][2]string{
		cue.Pop:    {"•", "*"},
		cue.Click:  {"·", "."},
		cue.Win:    {"★", "!"},
		cue.Wrong:  {"✗", "x"},
		cue.Whoosh: {"»", ">"},
	}
	g, ok := glyphs[c]
	if !ok {
		return ""
	}
	if ascii {
		return g[1]
	}
	return g[0]
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// padCells truncates or pads s to exactly width terminal cells.
func padCells(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	if gap := width - ansi.StringWidth(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}

// composeOverlayAt stamps overlay onto base with its top-left at (startRow, startCol).
func composeOverlayAt(base, overlay string, cols, rows, startRow, startCol int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	baseLines := strings.Split(base, "\n")
	for len(baseLines) < rows {
		baseLines = append(baseLines, "")
	}
	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	startRow = max(0, startRow)
	startCol = max(0, startCol)

	for i, line := range overlayLines {
		row := startRow + i
		if row >= rows {
			break
		}
		dst := padCells(baseLines[row], cols)
		ow := min(ansi.StringWidth(line), cols-startCol)
		if ow <= 0 {
			continue
		}
		left := padCells(ansi.Truncate(dst, startCol, ""), startCol)
		right := ansi.TruncateLeft(dst, startCol+ow, "")
		baseLines[row] = left + padCells(line, ow) + right
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(ansi.Strip(s), "\n", " ")
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func normalizeStyleVariant(v string) string {
	v = strings.TrimSpace(v)
	if _, ok := palettes[v]; ok {
		return v
	}
	return "modern_arcade"
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"message_type", msgType,
		"screen", r.screen.String(),
		"cols", r.cols,
		"rows", r.rows,
		"overlay", r.topOverlay(),
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
var _ cue.Listener = (*Root)(nil)
