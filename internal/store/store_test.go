package store

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadKind(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	entries := []FileEntities{
		{Path: "lib/a.ex", Hash: 42, Payload: json.RawMessage(`[{"Name":"button"}]`)},
		{Path: "lib/b.ex", Hash: math.MaxUint64, Payload: json.RawMessage(`[]`)},
	}
	require.NoError(t, s.SaveKind("components", entries))

	got, err := s.LoadKind("components")
	require.NoError(t, err)
	require.Len(t, got, 2)

	byPath := map[string]FileEntities{}
	for _, e := range got {
		byPath[e.Path] = e
	}
	assert.Equal(t, uint64(42), byPath["lib/a.ex"].Hash)
	// Full unsigned range survives the TEXT round trip.
	assert.Equal(t, uint64(math.MaxUint64), byPath["lib/b.ex"].Hash)
	assert.JSONEq(t, `[{"Name":"button"}]`, string(byPath["lib/a.ex"].Payload))
}

func TestSaveKindReplaces(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveKind("events", []FileEntities{
		{Path: "lib/a.ex", Hash: 1, Payload: json.RawMessage(`["save"]`)},
		{Path: "lib/b.ex", Hash: 2, Payload: json.RawMessage(`["cancel"]`)},
	}))
	require.NoError(t, s.SaveKind("events", []FileEntities{
		{Path: "lib/a.ex", Hash: 3, Payload: json.RawMessage(`["save","delete"]`)},
	}))

	got, err := s.LoadKind("events")
	require.NoError(t, err)
	require.Len(t, got, 1, "stale rows must be cleared")
	assert.Equal(t, uint64(3), got[0].Hash)
}

func TestKindsAreIndependent(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveKind("components", []FileEntities{{Path: "a", Hash: 1, Payload: json.RawMessage(`[]`)}}))
	require.NoError(t, s.SaveKind("schemas", []FileEntities{{Path: "b", Hash: 2, Payload: json.RawMessage(`[]`)}}))
	require.NoError(t, s.SaveKind("components", nil))

	comps, err := s.LoadKind("components")
	require.NoError(t, err)
	assert.Empty(t, comps)

	schemas, err := s.LoadKind("schemas")
	require.NoError(t, err)
	assert.Len(t, schemas, 1)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.db")

	s, err := OpenPath(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveKind("templates", []FileEntities{{Path: "x.heex", Hash: 9, Payload: json.RawMessage(`[]`)}}))
	require.NoError(t, s.Close())

	s, err = OpenPath(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.LoadKind("templates")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(9), got[0].Hash)
	assert.Equal(t, path, s.Path())
}

func TestWithTransactionRollsBack(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveKind("renders", []FileEntities{{Path: "a", Hash: 1, Payload: json.RawMessage(`[]`)}}))

	errBoom := assert.AnError
	err = s.WithTransaction(func(tx *Store) error {
		if _, execErr := tx.q.Exec("DELETE FROM entities"); execErr != nil {
			return execErr
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	got, err := s.LoadKind("renders")
	require.NoError(t, err)
	assert.Len(t, got, 1, "failed transaction must roll back")
}

func TestFormatParseHash(t *testing.T) {
	for _, h := range []uint64{0, 1, 42, math.MaxUint64, 1 << 63} {
		if got := parseHash(formatHash(h)); got != h {
			t.Errorf("round trip %d -> %q -> %d", h, formatHash(h), got)
		}
	}
}
