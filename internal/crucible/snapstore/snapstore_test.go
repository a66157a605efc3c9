package snapstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible/core/internal/crucible/config"
	"github.com/crucible/core/internal/crucible/engine"
)

func TestOpenCreatesSnapshotsTable(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	eng := engine.New(config.Default(), 1, nil)
	eng.Reset()
	eng.Step()
	eng.Step()

	require.NoError(t, s.Save("default", 1000, eng))

	restored := engine.New(config.Default(), 1, nil)
	require.NoError(t, s.Load("default", restored))

	assert.Equal(t, eng.Generation(), restored.Generation())
}

func TestSaveOverwritesSameName(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	first := engine.New(config.Default(), 1, nil)
	first.Reset()
	require.NoError(t, s.Save("default", 1000, first))

	second := engine.New(config.Default(), 2, nil)
	second.Reset()
	second.Step()
	second.Step()
	second.Step()
	require.NoError(t, s.Save("default", 2000, second))

	names, err := s.List()
	require.NoError(t, err)
	assert.Len(t, names, 1)

	restored := engine.New(config.Default(), 1, nil)
	require.NoError(t, s.Load("default", restored))
	assert.Equal(t, second.Generation(), restored.Generation())
}

func TestLoadUnknownNameReturnsError(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	restored := engine.New(config.Default(), 1, nil)
	err = s.Load("nonexistent", restored)
	assert.Error(t, err)
}

func TestListOrdersNewestFirst(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	eng := engine.New(config.Default(), 1, nil)
	eng.Reset()

	require.NoError(t, s.Save("older", 1000, eng))
	require.NoError(t, s.Save("newer", 2000, eng))

	names, err := s.List()
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Equal(t, "newer", names[0])
	assert.Equal(t, "older", names[1])
}
