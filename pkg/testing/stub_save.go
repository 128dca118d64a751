package testing

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-drift/puzzles/pkg/engine"
)

// Save files are a sequence of records "KEY     :LEN:VALUE\n" with the key
// padded to eight characters.
const (
	stubSaveMagic   = "Simon Tatham's Portable Puzzle Collection"
	stubSaveVersion = "1"
	stubPrefsMagic  = "stub-preferences"
)

var errTruncated = errors.New("Data is truncated")

func writeRecord(write func([]byte), key, value string) {
	write(fmt.Appendf(nil, "%-8.8s:%d:", key, len(value)))
	write([]byte(value + "\n"))
}

type recordReader struct {
	read func([]byte) bool
}

func (r recordReader) next() (key, value string, err error) {
	head := make([]byte, 9)
	if !r.read(head) {
		return "", "", errTruncated
	}
	if head[8] != ':' {
		return "", "", errors.New("Data is malformed")
	}
	key = trimKey(head[:8])

	n := 0
	one := make([]byte, 1)
	for digits := 0; ; digits++ {
		if !r.read(one) {
			return "", "", errTruncated
		}
		if one[0] == ':' && digits > 0 {
			break
		}
		if one[0] < '0' || one[0] > '9' || digits > 8 {
			return "", "", errors.New("Data is malformed")
		}
		n = n*10 + int(one[0]-'0')
	}
	buf := make([]byte, n+1)
	if !r.read(buf) {
		return "", "", errTruncated
	}
	if buf[n] != '\n' {
		return "", "", errors.New("Data is malformed")
	}
	return key, string(buf[:n]), nil
}

func trimKey(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == ' ' {
		end--
	}
	return string(b[:end])
}

func (s *stub) Serialise(write func([]byte)) {
	if !s.hasGame() {
		return
	}
	writeRecord(write, "SAVEFILE", stubSaveMagic)
	writeRecord(write, "VERSION", stubSaveVersion)
	writeRecord(write, "GAME", "Stub")
	writeRecord(write, "PARAMS", s.EncodedParams())
	writeRecord(write, "CPARAMS", stubGame{}.EncodeParams(s.cur, true))
	if s.seed != "" {
		writeRecord(write, "SEED", s.seed)
	}
	writeRecord(write, "DESC", encodeBoard(s.initial))
	writeRecord(write, "NSTATES", strconv.Itoa(len(s.states)))
	writeRecord(write, "STATEPOS", strconv.Itoa(s.pos))
	for _, m := range s.history {
		writeRecord(write, "MOVE", m.String())
	}
}

type stubSave struct {
	params, cur StubParams
	seed        string
	initial     []bool
	moves       []stubMove
	nstates     int
	pos         int
}

func (s *stub) Deserialise(read func([]byte) bool) error {
	r := recordReader{read: read}
	var sv stubSave
	game := stubGame{}
	seen := map[string]bool{}

	key, value, err := r.next()
	if err != nil {
		return err
	}
	if key != "SAVEFILE" || value != stubSaveMagic {
		return errors.New("File does not start with a recognised save-file header")
	}
	for {
		key, value, err := r.next()
		if err != nil {
			return err
		}
		seen[key] = true
		switch key {
		case "VERSION":
			if value != stubSaveVersion {
				return errors.New("Cannot handle this save file version")
			}
		case "GAME":
			if value != "Stub" {
				return errors.New("Save file is from a different puzzle")
			}
		case "PARAMS", "CPARAMS":
			p := game.DecodeParams(value)
			if err := game.ValidateParams(p, true); err != nil {
				return fmt.Errorf("Parameters in save file are invalid: %w", err)
			}
			if key == "PARAMS" {
				sv.params = p.(StubParams)
			} else {
				sv.cur = p.(StubParams)
			}
		case "SEED":
			sv.seed = value
		case "DESC":
			_, cells, err := parseGameID(game.EncodeParams(sv.cur, true) + ":" + value)
			if err != nil {
				return fmt.Errorf("Game description in save file is invalid: %w", err)
			}
			sv.initial = cells
		case "NSTATES", "STATEPOS":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 || (key == "NSTATES" && n == 0) {
				return errors.New("Data is malformed")
			}
			if key == "NSTATES" {
				sv.nstates = n
			} else {
				sv.pos = n
			}
		case "MOVE":
			m, err := parseStubMove(value)
			if err != nil {
				return err
			}
			if m.Kind != 'R' && m.Kind != 'S' && (m.Cell < 0 || m.Cell >= len(sv.initial)) {
				return errors.New("Move in save file is out of range")
			}
			sv.moves = append(sv.moves, m)
		default:
			return fmt.Errorf("Unrecognised record %q in save file", key)
		}
		if seen["NSTATES"] && seen["STATEPOS"] && len(sv.moves) == sv.nstates-1 {
			break
		}
	}
	for _, k := range []string{"PARAMS", "CPARAMS", "DESC", "NSTATES", "STATEPOS"} {
		if !seen[k] {
			return fmt.Errorf("Save file is missing %s", k)
		}
	}
	if sv.pos >= sv.nstates {
		return errors.New("Game position in save file is out of range")
	}
	s.restore(sv)
	return nil
}

func (s *stub) restore(sv stubSave) {
	paramsChanged := sv.params != s.params
	s.params = sv.params
	s.cur = sv.cur
	s.seed = sv.seed
	s.initial = sv.initial
	s.history = sv.moves
	s.states = []stubState{{cells: append([]bool(nil), sv.initial...), marks: make([]bool, len(sv.initial))}}
	for _, m := range sv.moves {
		s.states = append(s.states, s.apply(s.states[len(s.states)-1], m))
	}
	s.pos = sv.pos
	s.cursorVisible = false
	s.stopFlash()
	s.drawn = nil
	if paramsChanged && s.onParams != nil {
		s.onParams()
	}
	if s.onID != nil {
		s.onID()
	}
	s.updateStatus()
}

func (s *stub) SavePrefs(write func([]byte)) {
	writeRecord(write, "PREFS", stubPrefsMagic)
	writeRecord(write, "flash", strconv.FormatBool(s.prefFlash))
	writeRecord(write, "cursor-s", strconv.Itoa(s.prefCursorStyle))
}

func (s *stub) LoadPrefs(read func([]byte) bool) error {
	r := recordReader{read: read}
	key, value, err := r.next()
	if err != nil {
		return err
	}
	if key != "PREFS" || value != stubPrefsMagic {
		return errors.New("Not a preferences file")
	}
	flash, style := s.prefFlash, s.prefCursorStyle
	for range 2 {
		key, value, err := r.next()
		if err != nil {
			return err
		}
		switch key {
		case "flash":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("Bad value for flash: %q", value)
			}
			flash = b
		case "cursor-s":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 || n > 1 {
				return fmt.Errorf("Bad value for cursor-style: %q", value)
			}
			style = n
		default:
			return fmt.Errorf("Unrecognised preference %q", key)
		}
	}
	s.prefFlash, s.prefCursorStyle = flash, style
	s.drawn = nil
	return nil
}

var _ engine.Midend = (*stub)(nil)
