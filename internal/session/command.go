package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cardclash/clash-server-go/internal/game"
	"github.com/cardclash/clash-server-go/internal/game/rules"
)

// CommandType names a player command.
type CommandType string

const (
	CommandPlayMonster CommandType = "PlayMonster"
	CommandPlaySpell   CommandType = "PlaySpell"
	CommandEndTurn     CommandType = "EndTurn"
	CommandAttack      CommandType = "Attack"
	CommandMove        CommandType = "Move"
)

// Command is a decoded player command. Only the fields of its type are set.
type Command struct {
	Type      CommandType
	CardID    game.EntityID
	Position  int
	Targets   []game.EntityID
	Initiator game.EntityID
	Target    game.EntityID
}

type commandValue struct {
	CardID    *int  `json:"cardId,omitempty"`
	Position  *int  `json:"position,omitempty"`
	Targets   []int `json:"targets,omitempty"`
	Initiator *int  `json:"initiator,omitempty"`
	Target    *int  `json:"target,omitempty"`
}

type commandEnvelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ParseCommand decodes {"type": ..., "value": {...}}. Type names are
// matched case-insensitively.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		if _, ok := rules.KindOf(err); ok {
			return Command{}, err
		}
		return Command{}, rules.Serialization("invalid command", err)
	}
	return cmd, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Command) UnmarshalJSON(data []byte) error {
	var env commandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return rules.Serialization("invalid command", err)
	}

	var v commandValue
	if len(env.Value) > 0 && string(env.Value) != "null" {
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return rules.Serialization("invalid command value", err)
		}
	}

	require := func(field string, p *int) (int, error) {
		if p == nil {
			return 0, rules.Serialization(fmt.Sprintf("%s requires %q", env.Type, field), nil)
		}
		return *p, nil
	}

	var (
		out Command
		err error
	)
	switch strings.ToLower(env.Type) {
	case "playmonster":
		out.Type = CommandPlayMonster
		if out.CardID, err = require("cardId", v.CardID); err != nil {
			return err
		}
		if out.Position, err = require("position", v.Position); err != nil {
			return err
		}
		out.Targets = v.Targets
	case "playspell":
		out.Type = CommandPlaySpell
		if out.CardID, err = require("cardId", v.CardID); err != nil {
			return err
		}
		out.Targets = v.Targets
	case "endturn":
		out.Type = CommandEndTurn
	case "attack":
		out.Type = CommandAttack
		if out.Initiator, err = require("initiator", v.Initiator); err != nil {
			return err
		}
		if out.Target, err = require("target", v.Target); err != nil {
			return err
		}
	case "move":
		out.Type = CommandMove
		if out.CardID, err = require("cardId", v.CardID); err != nil {
			return err
		}
		if out.Position, err = require("position", v.Position); err != nil {
			return err
		}
	default:
		return rules.Serialization(fmt.Sprintf("unknown command type %q", env.Type), nil)
	}
	*c = out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Command) MarshalJSON() ([]byte, error) {
	env := struct {
		Type  CommandType   `json:"type"`
		Value *commandValue `json:"value,omitempty"`
	}{Type: c.Type}

	intp := func(v int) *int { return &v }
	switch c.Type {
	case CommandPlayMonster:
		env.Value = &commandValue{CardID: intp(c.CardID), Position: intp(c.Position), Targets: c.Targets}
	case CommandPlaySpell:
		env.Value = &commandValue{CardID: intp(c.CardID), Targets: c.Targets}
	case CommandAttack:
		env.Value = &commandValue{Initiator: intp(c.Initiator), Target: intp(c.Target)}
	case CommandMove:
		env.Value = &commandValue{CardID: intp(c.CardID), Position: intp(c.Position)}
	case CommandEndTurn:
	default:
		return nil, fmt.Errorf("unknown command type %q", c.Type)
	}
	return json.Marshal(env)
}

func (c Command) String() string {
	switch c.Type {
	case CommandPlayMonster:
		return fmt.Sprintf("PlayMonster(card=%d, slot=%d, targets=%v)", c.CardID, c.Position, c.Targets)
	case CommandPlaySpell:
		return fmt.Sprintf("PlaySpell(card=%d, targets=%v)", c.CardID, c.Targets)
	case CommandAttack:
		return fmt.Sprintf("Attack(%d -> %d)", c.Initiator, c.Target)
	case CommandMove:
		return fmt.Sprintf("Move(card=%d, slot=%d)", c.CardID, c.Position)
	default:
		return string(c.Type)
	}
}

// Apply runs the command against g on behalf of player.
func (c Command) Apply(g *game.Game, player game.PlayerID) ([]game.Action, error) {
	switch c.Type {
	case CommandPlayMonster:
		return g.PlayMonster(player, c.CardID, c.Position, c.Targets)
	case CommandPlaySpell:
		return g.PlaySpell(player, c.CardID, c.Targets)
	case CommandEndTurn:
		return g.EndTurn(player)
	case CommandAttack:
		return g.Attack(player, c.Initiator, c.Target)
	case CommandMove:
		return g.MoveCard(player, c.CardID, c.Position)
	default:
		return nil, rules.Rulef("Unknown command %q", c.Type)
	}
}

// MessageType tags a ServerMessage.
type MessageType string

const (
	MessageAction  MessageType = "Action"
	MessageError   MessageType = "Error"
	MessageMessage MessageType = "Message"
	MessageView    MessageType = "View"
)

// ServerMessage is pushed to a connected player.
type ServerMessage struct {
	Type  MessageType `json:"type"`
	Value any         `json:"value"`
}

func actionMessage(a game.Action) ServerMessage {
	return ServerMessage{Type: MessageAction, Value: a}
}

func errorMessage(msg string) ServerMessage {
	return ServerMessage{Type: MessageError, Value: msg}
}

func textMessage(msg string) ServerMessage {
	return ServerMessage{Type: MessageMessage, Value: msg}
}

func viewMessage(v *game.PublicGameState) ServerMessage {
	return ServerMessage{Type: MessageView, Value: v}
}
