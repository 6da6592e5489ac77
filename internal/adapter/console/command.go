package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type CommandKind string

const (
	CommandInput         CommandKind = "input"
	CommandToggle        CommandKind = "toggle"
	CommandReplace       CommandKind = "replace"
	CommandPosition      CommandKind = "pos"
	CommandDistance      CommandKind = "dist"
	CommandState         CommandKind = "state"
	CommandRadio         CommandKind = "radio"
	CommandReplay        CommandKind = "replay"
	CommandResetExposure CommandKind = "exposure-reset"
	CommandHelp          CommandKind = "help"
	CommandQuit          CommandKind = "quit"
)

var ErrBadCommand = errors.New("bad command")

// Command is one parsed console line. Lines starting with ':' are commands,
// anything else is submitted as terminal input.
type Command struct {
	Kind      CommandKind
	Text      string
	Tool      string
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Distance  float64
	Index     int
}

const HelpText = `:toggle <tool>       flashlight | gas-mask | radio | geiger
:replace <tool>      swap battery or filter
:pos <lat> <lon> [accuracy]
:dist <meters>       feed a distance sample directly
:state  :radio  :replay <n>  :exposure-reset  :quit`

func Parse(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ":") {
		return Command{Kind: CommandInput, Text: line}, nil
	}
	fields := strings.Fields(strings.TrimPrefix(trimmed, ":"))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command: %w", ErrBadCommand)
	}
	kind := CommandKind(strings.ToLower(fields[0]))
	args := fields[1:]

	switch kind {
	case CommandToggle, CommandReplace:
		if len(args) != 1 {
			return Command{}, fmt.Errorf(":%s needs a tool: %w", kind, ErrBadCommand)
		}
		return Command{Kind: kind, Tool: args[0]}, nil
	case CommandPosition:
		if len(args) < 2 || len(args) > 3 {
			return Command{}, fmt.Errorf(":pos needs latitude and longitude: %w", ErrBadCommand)
		}
		nums, err := floats(args)
		if err != nil {
			return Command{}, err
		}
		cmd := Command{Kind: kind, Latitude: nums[0], Longitude: nums[1]}
		if len(nums) == 3 {
			cmd.Accuracy = nums[2]
		}
		return cmd, nil
	case CommandDistance:
		if len(args) != 1 {
			return Command{}, fmt.Errorf(":dist needs meters: %w", ErrBadCommand)
		}
		nums, err := floats(args)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, Distance: nums[0]}, nil
	case CommandReplay:
		n := 0
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return Command{}, fmt.Errorf("replay index %q: %w", args[0], ErrBadCommand)
			}
			n = v
		}
		return Command{Kind: kind, Index: n}, nil
	case CommandState, CommandRadio, CommandResetExposure, CommandHelp, CommandQuit:
		return Command{Kind: kind}, nil
	case "q", "exit":
		return Command{Kind: CommandQuit}, nil
	default:
		return Command{}, fmt.Errorf("unknown command %q: %w", fields[0], ErrBadCommand)
	}
}

func floats(args []string) ([]float64, error) {
	out := make([]float64, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", a, ErrBadCommand)
		}
		out = append(out, v)
	}
	return out, nil
}
