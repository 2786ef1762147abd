package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnharris85/fab-content-filter/internal/core/domain"
)

func TestLoad_MissingFileReturnsZeroSettings(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope.yaml"))

	settings, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, settings.FilteredUsernames)
	assert.False(t, settings.ShowBlockedCount)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "settings.yaml"))
	want := domain.Settings{
		FilteredUsernames: []string{"alice", "Bob"},
		ShowBlockedCount:  true,
	}

	require.NoError(t, s.Save(context.Background(), want))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("filtered_usernames: {broken"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}
