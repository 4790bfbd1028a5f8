package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDirectoryReader_Unreachable verifies List wraps ErrUnreachable for a missing directory.
func TestDirectoryReader_Unreachable(t *testing.T) {
	t.Parallel()

	reader := NewDirectoryReader(filepath.Join(t.TempDir(), "missing"))

	names, err := reader.List(context.Background())
	require.ErrorIs(t, err, ErrUnreachable)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Nil(t, names)
}

// TestDirectoryReader_List returns files only, sorted by name.
func TestDirectoryReader_List(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b_dev_1.bin", "a_dev_1.bin"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	require.NoError(t, os.Mkdir(filepath.Join(dir, "c_dev_1.d"), 0o700))

	reader := NewDirectoryReader(dir)
	require.Equal(t, filepath.Clean(dir), reader.Path())

	names, err := reader.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a_dev_1.bin", "b_dev_1.bin"}, names)
}

// TestDirectoryReader_CanceledContext stops before touching the disk.
func TestDirectoryReader_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDirectoryReader(t.TempDir()).List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
