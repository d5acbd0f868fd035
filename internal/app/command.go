// Package app dispatches host commands against the island and keeps the
// home hexalot's journey in step with the island selection.
package app

import "fmt"

// Command is a host action on the current island state.
type Command int

const (
	ClaimHexalot Command = iota
	CreateLand
	CreateWater
	RandomGenome
	SaveGenome
	Drive
	Evolve
	ForgetJourney
	Detach
	ReturnToSeed
	TurnLeft
	TurnRight
	ComeHere
	GoThere
	Stop
)

var commandNames = [...]string{
	"claim-hexalot",
	"create-land",
	"create-water",
	"random-genome",
	"save-genome",
	"drive",
	"evolve",
	"forget-journey",
	"detach",
	"return-to-seed",
	"turn-left",
	"turn-right",
	"come-here",
	"go-there",
	"stop",
}

func (c Command) String() string {
	if c >= 0 && int(c) < len(commandNames) {
		return commandNames[c]
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand resolves a command by name.
func ParseCommand(name string) (Command, error) {
	for i, n := range commandNames {
		if n == name {
			return Command(i), nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}
