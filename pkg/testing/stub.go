package testing

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/go-drift/puzzles/pkg/engine"
)

// Stub palette indices.
const (
	StubColourBackground = iota
	StubColourOff
	StubColourOn
	StubColourGrid
	StubColourCursor
	stubNColours
)

const (
	stubDefaultTile = 32
	stubFlashTime   = 0.3
)

type stubMove struct {
	// Kind is 'T' toggle, 'M' mark, 'R' restart or 'S' solve.
	Kind byte
	Cell int
}

func (m stubMove) String() string {
	if m.Kind == 'R' || m.Kind == 'S' {
		return string(m.Kind)
	}
	return fmt.Sprintf("%c%d", m.Kind, m.Cell)
}

func parseStubMove(s string) (stubMove, error) {
	if s == "" {
		return stubMove{}, errors.New("empty move")
	}
	m := stubMove{Kind: s[0]}
	switch m.Kind {
	case 'R', 'S':
		if len(s) != 1 {
			return stubMove{}, fmt.Errorf("malformed move %q", s)
		}
	case 'T', 'M':
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return stubMove{}, fmt.Errorf("malformed move %q", s)
		}
		m.Cell = n
	default:
		return stubMove{}, fmt.Errorf("unknown move %q", s)
	}
	return m, nil
}

type stubState struct {
	cells  []bool
	marks  []bool
	solved bool
	// cheated is set once Solve has been used in this line of history.
	cheated bool
}

func (s stubState) clone() stubState {
	c := s
	c.cells = append([]bool(nil), s.cells...)
	c.marks = append([]bool(nil), s.marks...)
	return c
}

type stubTile struct {
	on, marked, flash, valid bool
}

// stub is a small but complete engine: parameters, presets, preferences,
// move history, save files, a completion flash on the timer, keyboard
// cursor and a blitter-backed cursor overlay.
type stub struct {
	host engine.Host

	params StubParams // for the next new game
	cur    StubParams // of the running game
	seed   string
	nextID int

	pendingID   string
	pendingSeed string

	initial []bool
	history []stubMove
	states  []stubState
	pos     int

	cursorX, cursorY int
	cursorVisible    bool

	prefFlash       bool
	prefCursorStyle int

	flashing  bool
	flashTime float32
	timerOn   bool

	tile      int
	drawn     []stubTile
	drawnTile int
	markGlyph string
	blitter   engine.Blitter
	blTile    int
	cursorAt  *engine.Point

	statusText string

	onParams func()
	onID     func()
}

// NewStub creates a stub engine bound to host. It has no game until
// NewGame is called.
func NewStub(host engine.Host) engine.Midend {
	s := &stub{
		host:      host,
		params:    stubGame{}.DefaultParams().(StubParams),
		tile:      stubDefaultTile,
		prefFlash: true,
		nextID:    1,
	}
	return s
}

func (s *stub) Game() engine.Game { return stubGame{} }

func (s *stub) border() int { return s.tile / 2 }

func (s *stub) state() stubState { return s.states[s.pos] }

func (s *stub) hasGame() bool { return len(s.states) > 0 }

func (s *stub) Size(x, y int, userSize bool, dpr float64) (int, int) {
	p := s.cur
	if !s.hasGame() {
		p = s.params
	}
	limit := int(float64(stubDefaultTile) * dpr)
	if userSize {
		limit = 1 << 20
	}
	// Largest tile for which W*t + t (two half-tile borders) fits.
	t := min(x/(p.W+1), y/(p.H+1), limit)
	if t < 1 {
		t = 1
	}
	s.tile = t
	s.drawn = nil
	return p.W*t + 2*(t/2), p.H*t + 2*(t/2)
}

func (s *stub) ResetTileSize() { s.tile = stubDefaultTile }

func (s *stub) NewGame() {
	game := stubGame{}
	if s.pendingID != "" {
		p, cells, err := parseGameID(s.pendingID)
		s.pendingID = ""
		if err == nil {
			s.start(p, cells, "")
			return
		}
	}
	seed := s.pendingSeed
	s.pendingSeed = ""
	if seed == "" {
		seed = strconv.Itoa(s.nextID)
		s.nextID++
	}
	p := s.params
	if game.ValidateParams(p, true) != nil {
		p = game.DefaultParams().(StubParams)
	}
	s.start(p, generateBoard(p, seed), seed)
}

// generateBoard scrambles a solved board with presses chosen from seed, so
// every generated board is solvable.
func generateBoard(p StubParams, seed string) []bool {
	h := fnv.New64a()
	h.Write([]byte(seed))
	rng := rand.New(rand.NewPCG(h.Sum64(), uint64(p.W*31+p.H)))
	cells := make([]bool, p.W*p.H)
	for range p.W*p.H/2 + 1 {
		for _, n := range p.neighbours(rng.IntN(len(cells))) {
			cells[n] = !cells[n]
		}
	}
	if allOff(cells) {
		for _, n := range p.neighbours(0) {
			cells[n] = !cells[n]
		}
	}
	return cells
}

func allOff(cells []bool) bool {
	for _, on := range cells {
		if on {
			return false
		}
	}
	return true
}

func (s *stub) start(p StubParams, cells []bool, seed string) {
	s.cur = p
	s.seed = seed
	s.initial = cells
	s.history = nil
	s.states = []stubState{{cells: append([]bool(nil), cells...), marks: make([]bool, len(cells))}}
	s.pos = 0
	s.cursorX, s.cursorY = 0, 0
	s.cursorVisible = false
	s.stopFlash()
	s.drawn = nil
	if s.onID != nil {
		s.onID()
	}
	s.updateStatus()
}

func (s *stub) apply(st stubState, m stubMove) stubState {
	next := st.clone()
	switch m.Kind {
	case 'T':
		for _, n := range s.cur.neighbours(m.Cell) {
			next.cells[n] = !next.cells[n]
		}
	case 'M':
		next.marks[m.Cell] = !next.marks[m.Cell]
	case 'R':
		next.cells = append([]bool(nil), s.initial...)
		next.marks = make([]bool, len(s.initial))
	case 'S':
		next.cells = make([]bool, len(s.initial))
		next.cheated = true
	}
	next.solved = allOff(next.cells)
	return next
}

func (s *stub) move(m stubMove) {
	prev := s.state()
	next := s.apply(prev, m)
	s.history = append(s.history[:s.pos], m)
	s.states = append(s.states[:s.pos+1], next)
	s.pos++
	if next.solved && !prev.solved && m.Kind == 'T' && s.prefFlash {
		s.flashing = true
		s.flashTime = 0
		s.setTimer(true)
	}
	s.updateStatus()
}

func (s *stub) RestartGame() {
	if !s.hasGame() {
		return
	}
	s.move(stubMove{Kind: 'R'})
}

func (s *stub) cell(x, y int) (int, bool) {
	if x < s.border() || y < s.border() {
		return 0, false
	}
	cx, cy := (x-s.border())/s.tile, (y-s.border())/s.tile
	if cx >= s.cur.W || cy >= s.cur.H {
		return 0, false
	}
	return cy*s.cur.W + cx, true
}

func (s *stub) ProcessKey(x, y, button int) engine.KeyResult {
	button &^= engine.ModMask
	switch button {
	case engine.UIQuit, 'q', 'Q':
		return engine.KeyQuit
	case engine.UINewGame, 'n', 'N':
		s.NewGame()
		return engine.KeySomeEffect
	case engine.UIUndo, 'u', 'U':
		return s.undo()
	case engine.UIRedo, 'r', 'R':
		return s.redo()
	case engine.UISolve:
		if s.Solve() != nil {
			return engine.KeyNoEffect
		}
		return engine.KeySomeEffect
	}
	if !s.hasGame() {
		return engine.KeyUnused
	}

	switch {
	case button == engine.LeftButton || button == engine.RightButton:
		i, ok := s.cell(x, y)
		if !ok {
			return engine.KeyNoEffect
		}
		s.cursorVisible = false
		if button == engine.LeftButton {
			s.move(stubMove{Kind: 'T', Cell: i})
		} else {
			s.move(stubMove{Kind: 'M', Cell: i})
		}
		return engine.KeySomeEffect
	case engine.IsMouseDrag(button), engine.IsMouseRelease(button), button == engine.MiddleButton:
		return engine.KeyNoEffect
	case button >= engine.CursorUp && button <= engine.CursorRight:
		if !s.cursorVisible {
			s.cursorVisible = true
			return engine.KeySomeEffect
		}
		switch button {
		case engine.CursorUp:
			s.cursorY = max(s.cursorY-1, 0)
		case engine.CursorDown:
			s.cursorY = min(s.cursorY+1, s.cur.H-1)
		case engine.CursorLeft:
			s.cursorX = max(s.cursorX-1, 0)
		case engine.CursorRight:
			s.cursorX = min(s.cursorX+1, s.cur.W-1)
		}
		return engine.KeySomeEffect
	case button == engine.CursorSelect || button == engine.CursorSelect2:
		if !s.cursorVisible {
			s.cursorVisible = true
			return engine.KeySomeEffect
		}
		kind := byte('T')
		if button == engine.CursorSelect2 {
			kind = 'M'
		}
		s.move(stubMove{Kind: kind, Cell: s.cursorY*s.cur.W + s.cursorX})
		return engine.KeySomeEffect
	}
	return engine.KeyUnused
}

func (s *stub) undo() engine.KeyResult {
	if !s.CanUndo() {
		return engine.KeyNoEffect
	}
	s.pos--
	s.stopFlash()
	s.updateStatus()
	return engine.KeySomeEffect
}

func (s *stub) redo() engine.KeyResult {
	if !s.CanRedo() {
		return engine.KeyNoEffect
	}
	s.pos++
	s.updateStatus()
	return engine.KeySomeEffect
}

func (s *stub) RequestKeys() []engine.KeyLabel {
	return []engine.KeyLabel{{Label: "Mark", Button: engine.CursorSelect2}}
}

func (s *stub) CurrentKeyLabel(button int) string {
	if !s.cursorVisible {
		return ""
	}
	switch button {
	case engine.CursorSelect:
		return "Toggle"
	case engine.CursorSelect2:
		return "Mark"
	}
	return ""
}

func (s *stub) Colours() []engine.Colour {
	bg := s.host.DefaultColour()
	cols := make([]engine.Colour, stubNColours)
	cols[StubColourBackground] = bg
	cols[StubColourOff] = engine.Colour{bg[0] * 0.8, bg[1] * 0.8, bg[2] * 0.8}
	cols[StubColourOn] = engine.Colour{1, 0.8, 0}
	cols[StubColourGrid] = engine.Colour{0, 0, 0}
	cols[StubColourCursor] = engine.Colour{0, 0, 1}
	return cols
}

func (s *stub) setTimer(on bool) {
	if on == s.timerOn {
		return
	}
	s.timerOn = on
	if on {
		s.host.ActivateTimer()
	} else {
		s.host.DeactivateTimer()
	}
}

func (s *stub) stopFlash() {
	s.flashing = false
	s.flashTime = 0
	s.setTimer(false)
}

func (s *stub) FreezeTimer(tprop float32) {
	if s.flashing {
		s.stopFlash()
	}
}

func (s *stub) Timer(tplus float32) {
	if !s.flashing {
		return
	}
	s.flashTime += tplus
	if s.flashTime >= stubFlashTime {
		s.stopFlash()
	}
	if s.drawn != nil {
		s.Redraw()
	}
}

func (s *stub) WantsStatusbar() bool { return true }

func (s *stub) updateStatus() {
	text := ""
	if s.hasGame() {
		st := s.state()
		switch {
		case st.solved && st.cheated:
			text = "Auto-solved."
		case st.solved:
			text = "COMPLETED!"
		default:
			text = fmt.Sprintf("Moves: %d", s.pos)
		}
	}
	if text != s.statusText {
		s.statusText = text
		s.host.StatusBar(text)
	}
}

func (s *stub) Config(kind engine.ConfigKind) (string, []engine.ConfigItem) {
	switch kind {
	case engine.ConfigSettings:
		return "Stub configuration", stubGame{}.Configure(s.params)
	case engine.ConfigSeed:
		return "Game random seed", []engine.ConfigItem{{Name: "Game random seed", Type: engine.ConfigString, String: s.randomSeedID()}}
	case engine.ConfigDesc:
		return "Game ID", []engine.ConfigItem{{Name: "Game ID", Type: engine.ConfigString, String: s.GameID()}}
	case engine.ConfigPrefs:
		return "Stub preferences", []engine.ConfigItem{
			{Name: "Flash on completion", Keyword: "flash", Type: engine.ConfigBoolean, Bool: s.prefFlash},
			{Name: "Cursor style", Keyword: "cursor-style", Type: engine.ConfigChoices, Choices: ":Circle:Square", Selected: s.prefCursorStyle},
		}
	}
	return "", nil
}

func (s *stub) SetConfig(kind engine.ConfigKind, items []engine.ConfigItem) error {
	switch kind {
	case engine.ConfigSettings:
		game := stubGame{}
		p := game.CustomParams(items)
		if err := game.ValidateParams(p, true); err != nil {
			return err
		}
		s.setParams(p.(StubParams))
	case engine.ConfigSeed:
		ps, seed, ok := strings.Cut(items[0].String, "#")
		if !ok || seed == "" {
			return errors.New("Random seed must be of the form PARAMS#SEED")
		}
		p := stubGame{}.DecodeParams(ps)
		if err := (stubGame{}).ValidateParams(p, true); err != nil {
			return err
		}
		s.setParams(p.(StubParams))
		s.pendingSeed = seed
	case engine.ConfigDesc:
		return s.SetGameID(items[0].String)
	case engine.ConfigPrefs:
		s.prefFlash = items[0].Bool
		s.prefCursorStyle = items[1].Selected
		s.drawn = nil
	}
	return nil
}

func (s *stub) setParams(p StubParams) {
	if p == s.params {
		return
	}
	s.params = p
	if s.onParams != nil {
		s.onParams()
	}
}

func (s *stub) EncodedParams() string {
	return stubGame{}.EncodeParams(s.params, true)
}

func (s *stub) SetEncodedParams(encoded string) error {
	p := stubGame{}.DecodeParams(encoded)
	if err := (stubGame{}).ValidateParams(p, true); err != nil {
		return err
	}
	s.setParams(p.(StubParams))
	return nil
}

var stubPresets = []struct {
	title  string
	params string
}{
	{"3x3", "3x3"},
	{"5x5", "5x5"},
	{"7x7", "7x7"},
	{"4x4 corners", "4x4c"},
}

func (s *stub) Presets() []engine.Preset {
	return []engine.Preset{
		{Title: stubPresets[0].title, ID: 0},
		{Title: stubPresets[1].title, ID: 1},
		{Title: "More", ID: -1, Submenu: []engine.Preset{
			{Title: stubPresets[2].title, ID: 2},
			{Title: stubPresets[3].title, ID: 3},
		}},
	}
}

func (s *stub) EncodedParamsForPreset(id int) string {
	if id < 0 || id >= len(stubPresets) {
		return ""
	}
	return stubPresets[id].params
}

func (s *stub) GameID() string {
	if !s.hasGame() {
		return ""
	}
	return stubGame{}.EncodeParams(s.cur, true) + ":" + encodeBoard(s.initial)
}

func (s *stub) randomSeedID() string {
	if s.seed == "" {
		return ""
	}
	return stubGame{}.EncodeParams(s.cur, true) + "#" + s.seed
}

func (s *stub) SetGameID(id string) error {
	p, _, err := parseGameID(id)
	if err != nil {
		return err
	}
	s.setParams(p)
	s.pendingID = id
	return nil
}

func (s *stub) RandomSeed() (string, bool) {
	if s.seed == "" {
		return "", false
	}
	return s.randomSeedID(), true
}

func (s *stub) CanFormatAsText() bool { return true }

func (s *stub) TextFormat() (string, bool) {
	if !s.hasGame() {
		return "", false
	}
	st := s.state()
	var sb strings.Builder
	for y := range s.cur.H {
		for x := range s.cur.W {
			i := y*s.cur.W + x
			switch {
			case st.cells[i]:
				sb.WriteByte('#')
			case st.marks[i]:
				sb.WriteByte('x')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String(), true
}

func (s *stub) Solve() error {
	if !s.hasGame() {
		return errors.New("No game in progress")
	}
	if s.state().solved {
		return errors.New("Puzzle is already solved")
	}
	s.move(stubMove{Kind: 'S'})
	return nil
}

func (s *stub) CursorLocation() (engine.Rect, bool) {
	if !s.cursorVisible {
		return engine.Rect{}, false
	}
	return engine.Rect{
		X: s.border() + s.cursorX*s.tile,
		Y: s.border() + s.cursorY*s.tile,
		W: s.tile,
		H: s.tile,
	}, true
}

func (s *stub) Status() int {
	if s.hasGame() && s.state().solved {
		return 1
	}
	return 0
}

func (s *stub) UsedSolve() bool {
	return s.hasGame() && s.state().cheated
}

func (s *stub) CanUndo() bool { return s.pos > 0 }

func (s *stub) CanRedo() bool { return s.pos < len(s.states)-1 }

func (s *stub) MoveCount() (int, int) { return s.pos, len(s.states) - 1 }

func (s *stub) RequestParamsChanges(fn func()) { s.onParams = fn }

func (s *stub) RequestIDChanges(fn func()) { s.onID = fn }

func (s *stub) Free() {
	s.setTimer(false)
	if s.blitter != 0 {
		s.host.Drawing().BlitterFree(s.blitter)
		s.blitter = 0
	}
}
