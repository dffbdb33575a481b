package flagparse

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/strategoai/ron-livesync/pkg/buildinfo"
)

// cliFlags holds pointers to all possible command-line flags.
// Fields are pointers so we can distinguish between "not registered for this
// command" (nil) and "registered but not set by user" (non-nil pointer to
// zero value).
type cliFlags struct {
	// Global
	LogLevel *string
	Config   *string
	BaseDir  *string

	// Run
	Enabled *bool
	PreGame *bool
	Watch   *bool
	Process *string
	Keep    *int

	// Resume
	DelaySeconds *int
	Trigger      *bool

	// Restore
	Target   *string
	Snapshot *string

	// Init
	Force *bool
}

func registerGlobalFlags(fs *flag.FlagSet, f *cliFlags) {
	f.LogLevel = fs.String("log-level", "info", "Set the logging level: 'debug', 'notice', 'info', 'warn', 'error'.")
	f.Config = fs.String("config", "", "Path to the configuration file.")
	f.BaseDir = fs.String("base-dir", "", "Override the game's Saved/Config base directory.")
}

func registerRunFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Enabled = fs.Bool("enabled", true, "Enable the live sync poll loop.")
	f.PreGame = fs.Bool("pregame", true, "Sync before the game process is running.")
	f.Watch = fs.Bool("watch", false, "Watch the work file and sync on change instead of waiting for the next poll.")
	f.Process = fs.String("process", "", "Game process executable name to watch for.")
	f.Keep = fs.Int("keep", 0, "Number of safety snapshots to keep per target document.")
}

func registerSyncFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Keep = fs.Int("keep", 0, "Number of safety snapshots to keep per target document.")
}

func registerResumeFlags(fs *flag.FlagSet, f *cliFlags) {
	f.DelaySeconds = fs.Int("delay", 0, "Seconds to keep the pause flag in place before resuming.")
	f.Trigger = fs.Bool("trigger", true, "Touch the work file on resume so the next poll syncs.")
}

func registerRestoreFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Target = fs.String("target", "", "Target document base name to restore, e.g. 'StandardDifficulty'. (Required unless -snapshot is given)")
	f.Snapshot = fs.String("snapshot", "", "Path of a specific snapshot to restore instead of the newest one.")
}

func registerInitFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Force = fs.Bool("force", false, "Overwrite an existing configuration file.")
}

// commandSpec wires a command to its flag registration and help text.
type commandSpec struct {
	desc     string
	register func(fs *flag.FlagSet, f *cliFlags)
}

var commandSpecs = map[Command]commandSpec{
	Run:     {"Run the live sync poll loop in the foreground.", registerRunFlags},
	Sync:    {"Merge the work file into every target document once and exit.", registerSyncFlags},
	Pause:   {"Create the pause flag so the running loop stops syncing.", nil},
	Resume:  {"Remove the pause flag and optionally trigger a sync.", registerResumeFlags},
	Status:  {"Print the installation and scheduler status.", nil},
	Restore: {"Restore a target document from a safety snapshot.", registerRestoreFlags},
	Init:    {"Generate a default configuration file.", registerInitFlags},
}

// Parse parses the provided arguments (usually os.Args[1:]) and returns the
// command and the map of explicitly set flags.
func Parse(args []string) (Command, map[string]any, error) {
	if len(args) == 0 {
		fs := flag.NewFlagSet("main", flag.ContinueOnError)
		printTopLevelUsage(fs)
		return None, nil, nil
	}

	cmdStr := strings.ToLower(args[0])
	if cmdStr == "help" || cmdStr == "-h" || cmdStr == "-help" || cmdStr == "--help" {
		fs := flag.NewFlagSet("main", flag.ContinueOnError)
		printTopLevelUsage(fs)
		return None, nil, nil
	}

	command, err := ParseCommand(cmdStr)
	if err != nil {
		return None, nil, err
	}
	if command == Version {
		return command, nil, nil
	}

	spec := commandSpecs[command]
	f := &cliFlags{}
	fs := flag.NewFlagSet(command.String(), flag.ContinueOnError)
	registerGlobalFlags(fs, f)
	if spec.register != nil {
		spec.register(fs, f)
	}
	fs.Usage = func() {
		printSubcommandUsage(command, spec.desc, fs)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return command, nil, err
	}
	return command, flagsToMap(fs, f), nil
}

func flagsToMap(fs *flag.FlagSet, f *cliFlags) map[string]any {
	// Only flags the user explicitly set end up in the map, so they can
	// selectively override the configuration file.
	usedFlags := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { usedFlags[fl.Name] = true })

	flagMap := make(map[string]any)

	addIfUsed(flagMap, usedFlags, "log-level", f.LogLevel)
	addIfUsed(flagMap, usedFlags, "config", f.Config)
	addIfUsed(flagMap, usedFlags, "base-dir", f.BaseDir)

	addIfUsed(flagMap, usedFlags, "enabled", f.Enabled)
	addIfUsed(flagMap, usedFlags, "pregame", f.PreGame)
	addIfUsed(flagMap, usedFlags, "watch", f.Watch)
	addIfUsed(flagMap, usedFlags, "process", f.Process)
	addIfUsed(flagMap, usedFlags, "keep", f.Keep)

	addIfUsed(flagMap, usedFlags, "delay", f.DelaySeconds)
	addIfUsed(flagMap, usedFlags, "trigger", f.Trigger)

	addIfUsed(flagMap, usedFlags, "target", f.Target)
	addIfUsed(flagMap, usedFlags, "snapshot", f.Snapshot)

	addIfUsed(flagMap, usedFlags, "force", f.Force)

	return flagMap
}

// addIfUsed adds the value of ptr to flagMap if ptr is not nil and the flag was set.
func addIfUsed[T any](flagMap map[string]any, usedFlags map[string]bool, name string, ptr *T) {
	if ptr != nil && usedFlags[name] {
		flagMap[name] = *ptr
	}
}

// printTopLevelUsage prints the main help message.
func printTopLevelUsage(fs *flag.FlagSet) {
	execName := filepath.Base(os.Args[0])
	fmt.Fprintf(fs.Output(), "%s(%s) ", buildinfo.Name, buildinfo.Version)
	fmt.Fprintf(fs.Output(), "Live difficulty sync for Ready or Not.\n\n")
	fmt.Fprintf(fs.Output(), "Usage: %s <command> [flags]\n\n", execName)
	fmt.Fprintf(fs.Output(), "Commands:\n")
	fmt.Fprintf(fs.Output(), "  run         Run the live sync poll loop in the foreground\n")
	fmt.Fprintf(fs.Output(), "  sync        Merge the work file into every target document once\n")
	fmt.Fprintf(fs.Output(), "  pause       Suspend syncing via the pause flag\n")
	fmt.Fprintf(fs.Output(), "  resume      Remove the pause flag and optionally trigger a sync\n")
	fmt.Fprintf(fs.Output(), "  status      Print the installation and scheduler status\n")
	fmt.Fprintf(fs.Output(), "  restore     Restore a target document from a safety snapshot\n")
	fmt.Fprintf(fs.Output(), "  init        Generate a default configuration file\n")
	fmt.Fprintf(fs.Output(), "  version     Print the application version\n")
	fmt.Fprintf(fs.Output(), "\nRun '%s <command> -help' for more information on a command.\n", execName)
}

// printSubcommandUsage prints the help message for a specific subcommand.
func printSubcommandUsage(command Command, desc string, fs *flag.FlagSet) {
	execName := filepath.Base(os.Args[0])
	fmt.Fprintf(fs.Output(), "%s(%s) ", buildinfo.Name, buildinfo.Version)
	fmt.Fprintf(fs.Output(), "Live difficulty sync for Ready or Not.\n\n")
	fmt.Fprintf(fs.Output(), "Usage of the %s command: %s %s [flags]\n\n", command, execName, command)
	fmt.Fprintf(fs.Output(), "%s\n\n", desc)
	fmt.Fprintf(fs.Output(), "Flags:\n")
	fs.PrintDefaults()
}
