// Package iniarchive keeps compressed safety snapshots of the target
// documents. Target files are overwritten in place during sync (no atomic
// rename, matching the legacy tool), so before each overwrite the previous
// content is archived; a torn write can then be recovered with Restore.
package iniarchive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	kgzip "github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"

	"github.com/strategoai/ron-livesync/pkg/plog"
	"github.com/strategoai/ron-livesync/pkg/util"
)

// ArchiveDirName is the snapshot directory inside the Difficulties folder.
// The leading dot keeps it out of the game's way.
const ArchiveDirName = ".livesync-archive"

// DefaultKeep is the default number of snapshots retained per target.
const DefaultKeep = 10

// stampFormat names snapshots sortably; millisecond precision avoids
// collisions when the 1s active cadence snapshots twice in one second.
const stampFormat = "20060102-150405.000"

const snapshotSuffix = ".ini.gz"

// Entry describes one snapshot found on disk.
type Entry struct {
	Path   string
	Target string    // target base name, e.g. "StandardDifficulty"
	Time   time.Time // parsed from the file name, UTC
}

// Archiver snapshots target documents into one archive directory and prunes
// old snapshots per target.
type Archiver struct {
	dir  string // the Difficulties directory
	keep int    // newest snapshots kept per target; <=0 selects DefaultKeep
}

// New creates an archiver for the given Difficulties directory.
func New(dir string, keep int) *Archiver {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Archiver{dir: dir, keep: keep}
}

// ArchiveDir returns the snapshot directory path.
func (a *Archiver) ArchiveDir() string {
	return filepath.Join(a.dir, ArchiveDirName)
}

// Snapshot archives the current content of targetPath and prunes that
// target's old snapshots. A missing target is a no-op: there is nothing to
// preserve before a first write.
func (a *Archiver) Snapshot(targetPath string) (string, error) {
	data, err := os.ReadFile(targetPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("could not read target %s: %w", targetPath, err)
	}

	archiveDir := a.ArchiveDir()
	if err := os.MkdirAll(archiveDir, util.UserWritableDirPerms); err != nil {
		return "", fmt.Errorf("could not create archive directory %s: %w", archiveDir, err)
	}

	base := targetBase(targetPath)
	name := base + "." + time.Now().UTC().Format(stampFormat) + snapshotSuffix
	snapshotPath := filepath.Join(archiveDir, name)

	if err := writeGzip(snapshotPath, data); err != nil {
		return "", err
	}

	a.pruneTarget(base)
	return snapshotPath, nil
}

// Restore decompresses a snapshot over targetPath.
func (a *Archiver) Restore(snapshotPath, targetPath string) error {
	f, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("could not open snapshot %s: %w", snapshotPath, err)
	}
	defer f.Close()

	gz, err := kgzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("could not read snapshot %s: %w", snapshotPath, err)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return fmt.Errorf("could not decompress snapshot %s: %w", snapshotPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), util.UserWritableDirPerms); err != nil {
		return fmt.Errorf("could not create target directory: %w", err)
	}
	if err := os.WriteFile(targetPath, data, util.UserWritableFilePerms); err != nil {
		return fmt.Errorf("could not write target %s: %w", targetPath, err)
	}
	return nil
}

// List returns all snapshots, newest first.
func (a *Archiver) List() ([]Entry, error) {
	entries, err := os.ReadDir(a.ArchiveDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // no snapshots yet
		}
		return nil, fmt.Errorf("could not read archive directory: %w", err)
	}

	var found []Entry
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		parsed, ok := parseSnapshotName(entry.Name())
		if !ok {
			plog.Debug("skipping unrecognized file in archive directory", "name", entry.Name())
			continue
		}
		parsed.Path = filepath.Join(a.ArchiveDir(), entry.Name())
		found = append(found, parsed)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Time.After(found[j].Time)
	})
	return found, nil
}

// LatestFor returns the newest snapshot of the given target base name.
func (a *Archiver) LatestFor(target string) (Entry, bool) {
	all, err := a.List()
	if err != nil {
		return Entry{}, false
	}
	for _, e := range all {
		if e.Target == target {
			return e, true
		}
	}
	return Entry{}, false
}

// pruneTarget deletes the oldest snapshots of one target beyond the keep
// count. Best-effort: a failed delete is logged and skipped.
func (a *Archiver) pruneTarget(target string) {
	all, err := a.List()
	if err != nil {
		plog.Warn("could not list snapshots for pruning", "error", err)
		return
	}

	count := 0
	for _, e := range all {
		if e.Target != target {
			continue
		}
		count++
		if count <= a.keep {
			continue
		}
		if err := os.Remove(e.Path); err != nil {
			plog.Warn("could not delete old snapshot", "path", e.Path, "error", err)
			continue
		}
		plog.Debug("deleted old snapshot", "path", e.Path)
	}
}

func writeGzip(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, util.UserWritableFilePerms)
	if err != nil {
		return fmt.Errorf("could not create snapshot %s: %w", path, err)
	}

	gz, err := pgzip.NewWriterLevel(f, pgzip.BestSpeed)
	if err != nil {
		f.Close()
		return fmt.Errorf("could not create gzip writer: %w", err)
	}
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		f.Close()
		return fmt.Errorf("could not write snapshot %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return fmt.Errorf("could not finalize snapshot %s: %w", path, err)
	}
	return f.Close()
}

// targetBase strips the directory and .ini extension from a target path.
func targetBase(targetPath string) string {
	return strings.TrimSuffix(filepath.Base(targetPath), ".ini")
}

// parseSnapshotName splits "<target>.<stamp>.ini.gz" into its parts.
func parseSnapshotName(name string) (Entry, bool) {
	if !strings.HasSuffix(name, snapshotSuffix) {
		return Entry{}, false
	}
	trimmed := strings.TrimSuffix(name, snapshotSuffix)
	idx := strings.IndexByte(trimmed, '.')
	if idx <= 0 {
		return Entry{}, false
	}
	target := trimmed[:idx]
	stamp := trimmed[idx+1:]
	ts, err := time.Parse(stampFormat, stamp)
	if err != nil {
		return Entry{}, false
	}
	return Entry{Target: target, Time: ts}, true
}
