package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/chinnucsk/mem3/internal/telemetry"
)

const (
	filePrefix    = "membership."
	timeFormat    = "20060102150405"
	tempSuffix    = ".tmp"
	snapshotPerms = 0o644
)

var (
	// ErrNotFound means the data directory holds no usable snapshot.
	ErrNotFound = errors.New("mem_state_file_not_found")

	// ErrBadFile means the newest snapshot exists but cannot be decoded.
	ErrBadFile = errors.New("bad_mem_state_file")
)

// Store writes and reads timestamped membership snapshots in a directory.
// Each Save produces a new file named membership.<YYYYMMDDhhmmss> (UTC);
// Load picks the newest one.
type Store struct {
	dir     string
	logger  kitlog.Logger
	nowFunc func() time.Time
}

func New(dir string, logger kitlog.Logger) *Store {
	return &Store{
		dir:     dir,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Save serialises v into a new timestamped snapshot file. The write goes
// through a temp file and rename so a crash never leaves a truncated
// snapshot with a valid name.
func (s *Store) Save(v any) error {
	started := time.Now()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	name := filePrefix + s.nowFunc().UTC().Format(timeFormat)
	path := filepath.Join(s.dir, name)
	tmp := path + tempSuffix

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, snapshotPerms)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)

		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)

		return fmt.Errorf("sync snapshot: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)

		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)

		return fmt.Errorf("rename snapshot: %w", err)
	}

	telemetry.SnapshotWrites.Inc()
	telemetry.SnapshotWriteDuration.Observe(time.Since(started).Seconds())

	level.Debug(s.logger).Log("msg", "membership snapshot written", "file", name)

	return nil
}

// Load decodes the newest snapshot into v. It returns ErrNotFound when no
// snapshot exists and ErrBadFile when the newest one cannot be parsed.
func (s *Store) Load(v any) error {
	path, err := s.newest()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadFile, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s", ErrBadFile, err)
	}

	return nil
}

// Prune removes all but the keep newest snapshots.
func (s *Store) Prune(keep int) error {
	names, err := s.snapshots()
	if err != nil || len(names) <= keep {
		return err
	}

	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return fmt.Errorf("remove snapshot: %w", err)
		}
	}

	return nil
}

func (s *Store) newest() (string, error) {
	names, err := s.snapshots()
	if err != nil {
		return "", err
	}

	if len(names) == 0 {
		return "", ErrNotFound
	}

	return filepath.Join(s.dir, names[len(names)-1]), nil
}

// snapshots returns snapshot file names sorted oldest first.
func (s *Store) snapshots() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var names []string

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || strings.HasSuffix(name, tempSuffix) {
			continue
		}

		if ts := strings.TrimPrefix(name, filePrefix); len(ts) != len(timeFormat) || strings.Trim(ts, "0123456789") != "" {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}
