package flagparse

import (
	"fmt"

	"github.com/strategoai/ron-livesync/pkg/util"
)

// Command defines the command to execute.
type Command int

const (
	None Command = iota
	Run
	Sync
	Pause
	Resume
	Status
	Restore
	Init
	Version
)

var commandToString = map[Command]string{
	None:    "none",
	Run:     "run",
	Sync:    "sync",
	Pause:   "pause",
	Resume:  "resume",
	Status:  "status",
	Restore: "restore",
	Init:    "init",
	Version: "version",
}

var stringToCommand map[string]Command

func init() {
	stringToCommand = util.InvertMap(commandToString)
}

func (c Command) String() string {
	if str, ok := commandToString[c]; ok {
		return str
	}
	return fmt.Sprintf("unknown_command(%d)", c)
}

func ParseCommand(s string) (Command, error) {
	if command, ok := stringToCommand[s]; ok && command != None {
		return command, nil
	}
	return None, fmt.Errorf("invalid command: %q. Must be 'run', 'sync', 'pause', 'resume', 'status', 'restore', 'init', or 'version'", s)
}
