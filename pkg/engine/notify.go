package engine

import (
	"encoding/json"
	"fmt"
)

// Notification type tags.
const (
	TypeGameIDChange    = "game-id-change"
	TypeGameStateChange = "game-state-change"
	TypeParamsChange    = "params-change"
	TypeStatusBarChange = "status-bar-change"
)

// ChangeNotification is a push message from the engine to the main context.
// The concrete types are GameIDChange, GameStateChange, ParamsChange and
// StatusBarChange.
type ChangeNotification interface {
	Type() string
}

// GameStatus summarises whether the current game is finished.
type GameStatus string

const (
	StatusOngoing        GameStatus = "ongoing"
	StatusSolved         GameStatus = "solved"
	StatusSolvedWithHelp GameStatus = "solved-with-help"
	StatusLost           GameStatus = "lost"
)

// GameIDChange reports a new current game id.
type GameIDChange struct {
	CurrentGameID string  `json:"currentGameId"`
	RandomSeed    *string `json:"randomSeed,omitempty"`
}

func (GameIDChange) Type() string { return TypeGameIDChange }

// GameStateChange reports the move counters and completion status.
type GameStateChange struct {
	Status      GameStatus `json:"status"`
	CurrentMove int        `json:"currentMove"`
	TotalMoves  int        `json:"totalMoves"`
	CanUndo     bool       `json:"canUndo"`
	CanRedo     bool       `json:"canRedo"`
}

func (GameStateChange) Type() string { return TypeGameStateChange }

// ParamsChange reports new encoded parameters.
type ParamsChange struct {
	Params string `json:"params"`
}

func (ParamsChange) Type() string { return TypeParamsChange }

// StatusBarChange reports new status bar text.
type StatusBarChange struct {
	StatusBarText string `json:"statusBarText"`
}

func (StatusBarChange) Type() string { return TypeStatusBarChange }

// EncodeNotification serialises n as a JSON object with a "type" tag.
func EncodeNotification(n ChangeNotification) ([]byte, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(n.Type())
	fields["type"] = tag
	return json.Marshal(fields)
}

// DecodeNotification parses the output of EncodeNotification.
func DecodeNotification(data []byte) (ChangeNotification, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	var n ChangeNotification
	var err error
	switch head.Type {
	case TypeGameIDChange:
		var v GameIDChange
		err = json.Unmarshal(data, &v)
		n = v
	case TypeGameStateChange:
		var v GameStateChange
		err = json.Unmarshal(data, &v)
		n = v
	case TypeParamsChange:
		var v ParamsChange
		err = json.Unmarshal(data, &v)
		n = v
	case TypeStatusBarChange:
		var v StatusBarChange
		err = json.Unmarshal(data, &v)
		n = v
	default:
		return nil, fmt.Errorf("unknown notification type %q", head.Type)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}
