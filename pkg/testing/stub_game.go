package testing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-drift/puzzles/pkg/engine"
)

// StubName is the puzzle type RegisterStub registers.
const StubName = "stub"

// StubVersion is the engine version the stub registers with.
const StubVersion = "v1.0.0"

// RegisterStub registers the stub puzzle with the engine registry.
func RegisterStub() {
	engine.Register(StubName, StubVersion, NewStub)
}

// StubParams are the stub puzzle's parameters: a W by H grid where pressing
// a cell toggles it and its orthogonal neighbours, or its diagonal
// neighbours when Corners is set.
type StubParams struct {
	W, H    int
	Corners bool
}

const (
	stubMinSize = 2
	stubMaxSize = 10
)

var errStubTooSmall = errors.New("Width and height must both be at least 2")

type stubGame struct{}

func (stubGame) Info() engine.GameInfo {
	return engine.GameInfo{
		Name:             "Stub",
		CanConfigure:     true,
		CanSolve:         true,
		NeedsRightButton: true,
	}
}

func (stubGame) DefaultParams() engine.Params {
	return StubParams{W: 3, H: 3}
}

// DecodeParams accepts "W", "WxH" and either followed by "c".
func (g stubGame) DecodeParams(encoded string) engine.Params {
	p := g.DefaultParams().(StubParams)
	s := encoded
	if rest, ok := strings.CutSuffix(s, "c"); ok {
		p.Corners = true
		s = rest
	}
	if s == "" {
		return p
	}
	ws, hs, found := strings.Cut(s, "x")
	w, err := strconv.Atoi(ws)
	if err != nil {
		w = 0
	}
	h := w
	if found {
		if h, err = strconv.Atoi(hs); err != nil {
			h = 0
		}
	}
	p.W, p.H = w, h
	return p
}

func (stubGame) ValidateParams(params engine.Params, full bool) error {
	p, ok := params.(StubParams)
	if !ok {
		return fmt.Errorf("unexpected params %T", params)
	}
	if p.W < stubMinSize || p.H < stubMinSize {
		return errStubTooSmall
	}
	if p.W > stubMaxSize || p.H > stubMaxSize {
		return fmt.Errorf("Width and height must both be at most %d", stubMaxSize)
	}
	return nil
}

func (stubGame) Configure(params engine.Params) []engine.ConfigItem {
	p := params.(StubParams)
	mode := 0
	if p.Corners {
		mode = 1
	}
	return []engine.ConfigItem{
		{Name: "Width", Type: engine.ConfigString, String: strconv.Itoa(p.W)},
		{Name: "Height", Type: engine.ConfigString, String: strconv.Itoa(p.H)},
		{Name: "Toggle pattern", Type: engine.ConfigChoices, Choices: ":Cross:Corners", Selected: mode},
	}
}

func (stubGame) CustomParams(items []engine.ConfigItem) engine.Params {
	var p StubParams
	p.W, _ = strconv.Atoi(items[0].String)
	p.H, _ = strconv.Atoi(items[1].String)
	p.Corners = items[2].Selected == 1
	return p
}

func (stubGame) EncodeParams(params engine.Params, full bool) string {
	p := params.(StubParams)
	s := fmt.Sprintf("%dx%d", p.W, p.H)
	if p.Corners {
		s += "c"
	}
	return s
}

// neighbours returns the cells a press at i toggles, including i.
func (p StubParams) neighbours(i int) []int {
	x, y := i%p.W, i/p.W
	out := []int{i}
	var deltas [][2]int
	if p.Corners {
		deltas = [][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	} else {
		deltas = [][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	}
	for _, d := range deltas {
		nx, ny := x+d[0], y+d[1]
		if nx >= 0 && ny >= 0 && nx < p.W && ny < p.H {
			out = append(out, ny*p.W+nx)
		}
	}
	return out
}

// encodeBoard renders cells as a string of '0' and '1'.
func encodeBoard(cells []bool) string {
	var sb strings.Builder
	sb.Grow(len(cells))
	for _, on := range cells {
		if on {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// parseGameID parses "PARAMS:BOARD".
func parseGameID(id string) (StubParams, []bool, error) {
	ps, bs, ok := strings.Cut(id, ":")
	if !ok {
		return StubParams{}, nil, errors.New("Game ID has no ':' separator")
	}
	g := stubGame{}
	p := g.DecodeParams(ps).(StubParams)
	if err := g.ValidateParams(p, true); err != nil {
		return StubParams{}, nil, err
	}
	if len(bs) != p.W*p.H {
		return StubParams{}, nil, fmt.Errorf("Game description should have %d cells, not %d", p.W*p.H, len(bs))
	}
	cells := make([]bool, len(bs))
	for i := range bs {
		switch bs[i] {
		case '0':
		case '1':
			cells[i] = true
		default:
			return StubParams{}, nil, fmt.Errorf("Unexpected character %q in game description", bs[i])
		}
	}
	return p, cells, nil
}
