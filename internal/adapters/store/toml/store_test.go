package toml

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bnema/dindex-chat/internal/adapters/store/storetest"
	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
	"github.com/gofrs/flock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, recordsPath string) *Store {
	t.Helper()

	config := viper.New()
	config.Set(PathKey, recordsPath)

	store, err := NewStore(config)
	require.NoError(t, err)
	return store
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.RecordStore {
		return newTestStore(t, filepath.Join(t.TempDir(), "records.toml"))
	})
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	recordsPath := filepath.Join(t.TempDir(), "nested", "records.toml")
	first := newTestStore(t, recordsPath)
	require.NoError(t, first.Publish(context.Background(), domain.ConnectRecord("alice")))
	require.NoError(t, first.Publish(context.Background(), domain.MessageRecord("alice", "hi = there")))

	second := newTestStore(t, recordsPath)
	got, err := second.Query(context.Background(), domain.AnyActionPattern())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[1].Equal(domain.MessageRecord("alice", "hi = there")))

	info, err := os.Stat(recordsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(recordsFileMode), info.Mode().Perm())

	data, err := os.ReadFile(recordsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "seq = 2")
}

func TestStoreMissingFileQueriesEmpty(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, filepath.Join(t.TempDir(), "absent.toml"))

	got, err := store.Query(context.Background(), domain.ConnectPattern())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreRejectsNewerSchemaVersion(t *testing.T) {
	t.Parallel()

	recordsPath := filepath.Join(t.TempDir(), "records.toml")
	require.NoError(t, os.WriteFile(recordsPath, []byte("version = 99\n"), 0o600))

	store := newTestStore(t, recordsPath)
	_, err := store.Query(context.Background(), domain.ConnectPattern())
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorContains(t, err, "unsupported records schema version 99")
}

func TestStoreCorruptFileIsUnavailable(t *testing.T) {
	t.Parallel()

	recordsPath := filepath.Join(t.TempDir(), "records.toml")
	require.NoError(t, os.WriteFile(recordsPath, []byte("[[records]\nseq = "), 0o600))

	store := newTestStore(t, recordsPath)
	err := store.Publish(context.Background(), domain.ConnectRecord("a"))
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestStoreConcurrentPublishKeepsEveryRecord(t *testing.T) {
	t.Parallel()

	recordsPath := filepath.Join(t.TempDir(), "records.toml")
	stores := []*Store{newTestStore(t, recordsPath), newTestStore(t, recordsPath)}

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store := stores[i%len(stores)]
			assert.NoError(t, store.Publish(context.Background(), domain.ConnectRecord("user")))
		}()
	}
	wg.Wait()

	got, err := stores[0].Query(context.Background(), domain.ConnectPattern())
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

const (
	childRecordsPathEnv = "DINDEX_TOML_CHILD_RECORDS_PATH"
	childWriterEnv      = "DINDEX_TOML_CHILD_WRITER"
	childProcesses      = 4
	recordsPerChild     = 50
)

func TestStorePublishAcrossProcesses(t *testing.T) {
	if recordsPath := os.Getenv(childRecordsPathEnv); recordsPath != "" {
		publishAsChild(t, recordsPath, os.Getenv(childWriterEnv))
		return
	}
	if testing.Short() {
		t.Skip("spawns child test processes")
	}

	recordsPath := filepath.Join(t.TempDir(), "records.toml")

	children := make([]*exec.Cmd, 0, childProcesses)
	for i := range childProcesses {
		cmd := exec.Command(os.Args[0], "-test.run=^TestStorePublishAcrossProcesses$", "-test.count=1")
		cmd.Env = append(os.Environ(),
			childRecordsPathEnv+"="+recordsPath,
			fmt.Sprintf("%s=writer-%d", childWriterEnv, i),
		)
		require.NoError(t, cmd.Start())
		children = append(children, cmd)
	}
	for _, cmd := range children {
		require.NoError(t, cmd.Wait())
	}

	store := newTestStore(t, recordsPath)
	got, err := store.Query(context.Background(), domain.MessagePattern())
	require.NoError(t, err)
	assert.Len(t, got, childProcesses*recordsPerChild)

	for i := range childProcesses {
		writer := fmt.Sprintf("writer-%d", i)
		messages, err := store.Query(context.Background(), domain.NewPattern(map[string]string{
			domain.FieldAction:   "msg",
			domain.FieldUsername: "^" + writer + "$",
		}))
		require.NoError(t, err)
		assert.Len(t, messages, recordsPerChild, writer)
	}
}

func publishAsChild(t *testing.T, recordsPath, writer string) {
	store := newTestStore(t, recordsPath)
	for i := range recordsPerChild {
		require.NoError(t, store.Publish(context.Background(), domain.MessageRecord(writer, fmt.Sprintf("message %d", i))))
	}
}

func TestStoreLockHonorsContext(t *testing.T) {
	t.Parallel()

	recordsPath := filepath.Join(t.TempDir(), "records.toml")
	holder := flock.New(recordsPath + lockFileSuffix)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	store := newTestStore(t, recordsPath)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := store.Publish(ctx, domain.ConnectRecord("alice"))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, holder.Unlock())
	require.NoError(t, store.Publish(context.Background(), domain.ConnectRecord("alice")))
}

func TestNewStoreDefaultsUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewStore(nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, recordsDir, recordsFile), store.Path())
}
