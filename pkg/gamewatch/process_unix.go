//go:build !windows

package gamewatch

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
)

// processRunning scans /proc for a process whose argv[0] basename matches
// exactly. The game only ships on Windows; this path exists so the tool
// behaves sensibly when developed or tested elsewhere (e.g. under Proton).
func processRunning(name string) (bool, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue // not a PID directory
		}
		cmdline, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "cmdline"))
		if err != nil || len(cmdline) == 0 {
			continue // process may have exited mid-scan
		}
		argv0 := string(bytes.SplitN(cmdline, []byte{0}, 2)[0])
		if filepath.Base(argv0) == name {
			return true, nil
		}
	}
	return false, nil
}
