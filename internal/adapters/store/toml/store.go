// Package toml keeps the record log in a single TOML file. Writes go
// through a temp file and rename so readers never see a partial log, and
// every access holds an flock on a sidecar lock file so several processes
// can share one log.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/dindex-chat/internal/adapters/store/poll"
	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
	"github.com/gofrs/flock"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	PathKey         = "store.toml.path"
	recordsFileMode = 0o600
	recordsDirMode  = 0o700
	recordsDir      = ".dindex"
	recordsFile     = "records.toml"
	tempFilePattern = ".records-*.toml.tmp"
	lockFileSuffix  = ".lock"
	lockRetryDelay  = 5 * time.Millisecond
)

type Store struct {
	recordsPath string
	lockPath    string
	mu          *sync.RWMutex
	clock       ports.Clock
}

var errLockNotAcquired = errors.New("lock not acquired")

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.RecordStore = (*Store)(nil)

func NewStore(cfg *viper.Viper) (*Store, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	recordsPath := cfg.GetString(PathKey)
	if recordsPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		recordsPath = filepath.Join(homeDir, recordsDir, recordsFile)
	}

	recordsPath, err := normalizeRecordsPath(recordsPath)
	if err != nil {
		return nil, err
	}

	return &Store{
		recordsPath: recordsPath,
		lockPath:    recordsPath + lockFileSuffix,
		mu:          lockForPath(recordsPath),
		clock:       ports.SystemClock{},
	}, nil
}

func (s *Store) Path() string {
	return s.recordsPath
}

func (s *Store) Publish(ctx context.Context, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock, err := s.lock(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}

	file.Records = append(file.Records, toSchema(file.lastSeq()+1, rec, s.clock.Now()))

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.writeSchema(file)
}

func (s *Store) Query(ctx context.Context, pattern domain.Pattern) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matcher, err := pattern.Compile()
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	file, err := s.readSchema()
	if err != nil {
		return nil, err
	}

	return matcher.Filter(file.after(0)), nil
}

func (s *Store) Listen(ctx context.Context, pattern domain.Pattern, opts ports.ListenOptions, handler ports.ListenHandler) error {
	matcher, err := pattern.Compile()
	if err != nil {
		return err
	}

	cursor, err := s.head(ctx)
	if err != nil {
		return err
	}

	return poll.Listen(ctx, cursor, s.fetch, matcher, opts, handler)
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) head(ctx context.Context) (uint64, error) {
	unlock, err := s.lock(ctx, false)
	if err != nil {
		return 0, err
	}
	defer unlock()

	file, err := s.readSchema()
	if err != nil {
		return 0, err
	}

	return file.lastSeq(), nil
}

func (s *Store) fetch(ctx context.Context, cursor uint64) ([]domain.Record, uint64, error) {
	unlock, err := s.lock(ctx, false)
	if err != nil {
		return nil, cursor, err
	}
	defer unlock()

	file, err := s.readSchema()
	if err != nil {
		return nil, cursor, err
	}

	return file.after(cursor), max(cursor, file.lastSeq()), nil
}

func (s *Store) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(s.recordsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("%w: read records file: %w", domain.ErrStoreUnavailable, err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("%w: decode records file: %w", domain.ErrStoreUnavailable, err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	file.applyDefaults()

	return file, nil
}

// lock takes the in-process lock for the path, then the flock on the
// sidecar file. Shared locks skip the flock while the directory does not
// exist yet: there is nothing to read.
func (s *Store) lock(ctx context.Context, exclusive bool) (func(), error) {
	release := s.mu.RUnlock
	if exclusive {
		s.mu.Lock()
		release = s.mu.Unlock
	} else {
		s.mu.RLock()
	}

	dir := filepath.Dir(s.lockPath)
	if exclusive {
		if err := os.MkdirAll(dir, recordsDirMode); err != nil {
			release()
			return nil, fmt.Errorf("%w: create records directory: %w", domain.ErrStoreUnavailable, err)
		}
	} else if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return release, nil
	}

	fileLock := flock.New(s.lockPath, flock.SetPermissions(recordsFileMode))

	var locked bool
	var err error
	if exclusive {
		locked, err = fileLock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fileLock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil || !locked {
		release()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err == nil {
			err = errLockNotAcquired
		}
		return nil, fmt.Errorf("%w: lock records file: %w", domain.ErrStoreUnavailable, err)
	}

	return func() {
		_ = fileLock.Unlock()
		release()
	}, nil
}

func normalizeRecordsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve records path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (s *Store) writeSchema(file fileSchema) error {
	file.applyDefaults()

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode records file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.recordsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("%w: create temp records file: %w", domain.ErrStoreUnavailable, err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("%w: write temp records file: %w", domain.ErrStoreUnavailable, err)
	}

	if err := tempFile.Chmod(recordsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("%w: chmod temp records file: %w", domain.ErrStoreUnavailable, err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("%w: close temp records file: %w", domain.ErrStoreUnavailable, err)
	}

	if err := os.Rename(tempName, s.recordsPath); err != nil {
		return fmt.Errorf("%w: replace records file: %w", domain.ErrStoreUnavailable, err)
	}

	cleanup = false
	return nil
}
