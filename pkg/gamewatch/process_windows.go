//go:build windows

package gamewatch

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// processRunning walks a Toolhelp snapshot of the process table and reports
// whether any entry's executable name matches exactly.
func processRunning(name string) (bool, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return false, err
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Process32First(snapshot, &entry); err != nil {
		return false, err
	}
	for {
		if windows.UTF16ToString(entry.ExeFile[:]) == name {
			return true, nil
		}
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			if err == windows.ERROR_NO_MORE_FILES {
				return false, nil
			}
			return false, err
		}
	}
}
