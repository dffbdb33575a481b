// Package gamedirs resolves the Ready or Not configuration layout that the
// live sync operates on. All paths hang off one base directory, which on a
// normal install is %LOCALAPPDATA%\ReadyOrNot\Saved\Config.
package gamedirs

import (
	"os"
	"path/filepath"
)

// Directory and file names fixed by the game and the mod installer.
const (
	// DifficultiesDirName is the directory the game reads difficulty files from.
	// Its presence marks the mod as installed and active.
	DifficultiesDirName = "Difficulties"
	// DisabledDirName is where the installer parks the difficulties while the
	// mod is deactivated.
	DisabledDirName = "Difficulties.disabled"
	// WorkFileName is the single user-editable configuration file.
	WorkFileName = "work.ini"
)

// workFileSubdirs is the path of the work file below the base directory.
var workFileSubdirs = []string{"StrategoAI_Live_Mod", "Work"}

// TargetFileNames lists the three difficulty files the game consumes, in the
// order they are synchronized.
var TargetFileNames = []string{
	"CasualDifficulty.ini",
	"HardDifficulty.ini",
	"StandardDifficulty.ini",
}

// Layout resolves every path the sync core touches relative to one base
// directory. A zero BaseDir means "use the real game install".
type Layout struct {
	BaseDir string
}

// Default returns the layout of a standard game install, anchored at
// %LOCALAPPDATA%\ReadyOrNot\Saved\Config. When LOCALAPPDATA is unset (or on
// non-Windows hosts used for testing) it falls back to the equivalent path
// under the user's home directory.
func Default() Layout {
	base := os.Getenv("LOCALAPPDATA")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, "AppData", "Local")
	}
	return Layout{BaseDir: filepath.Join(base, "ReadyOrNot", "Saved", "Config")}
}

// DifficultiesDir returns the directory holding the three target documents.
func (l Layout) DifficultiesDir() string {
	return filepath.Join(l.BaseDir, DifficultiesDirName)
}

// DisabledDir returns the parked difficulties directory of a deactivated mod.
func (l Layout) DisabledDir() string {
	return filepath.Join(l.BaseDir, DisabledDirName)
}

// WorkFile returns the path of the user-editable work.ini.
func (l Layout) WorkFile() string {
	parts := append([]string{l.BaseDir}, workFileSubdirs...)
	parts = append(parts, WorkFileName)
	return filepath.Join(parts...)
}

// TargetFiles returns the absolute paths of the three difficulty files.
func (l Layout) TargetFiles() []string {
	dir := l.DifficultiesDir()
	targets := make([]string, len(TargetFileNames))
	for i, name := range TargetFileNames {
		targets[i] = filepath.Join(dir, name)
	}
	return targets
}

// IsActive reports whether the mod is installed and active, which the
// installer signals by the presence of the Difficulties directory.
func (l Layout) IsActive() bool {
	info, err := os.Stat(l.DifficultiesDir())
	return err == nil && info.IsDir()
}

// IsDisabled reports whether an installed mod is currently deactivated.
func (l Layout) IsDisabled() bool {
	info, err := os.Stat(l.DisabledDir())
	return err == nil && info.IsDir()
}
