package catstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupMissing(t *testing.T) {
	store := NewMappingStore(filepath.Join(t.TempDir(), "mappings.yaml"), nil)

	_, found := store.Lookup("grocery mart")
	assert.False(t, found)
}

func TestLearnAndLookup(t *testing.T) {
	store := NewMappingStore(filepath.Join(t.TempDir(), "mappings.yaml"), nil)

	store.Learn("Grocery Mart", "Groceries")

	category, found := store.Lookup("grocery mart")
	require.True(t, found)
	assert.Equal(t, "Groceries", category)

	// Lookup is case-insensitive.
	category, found = store.Lookup("GROCERY MART")
	require.True(t, found)
	assert.Equal(t, "Groceries", category)
}

func TestLearnIgnoresEmpty(t *testing.T) {
	store := NewMappingStore(filepath.Join(t.TempDir(), "mappings.yaml"), nil)

	store.Learn("", "Groceries")
	store.Learn("grocery mart", "")

	_, found := store.Lookup("grocery mart")
	assert.False(t, found)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "mappings.yaml")

	store := NewMappingStore(path, nil)
	store.Learn("grocery mart", "Groceries")
	store.Learn("cafe x", "Groceries")
	require.NoError(t, store.Save())

	reloaded := NewMappingStore(path, nil)
	category, found := reloaded.Lookup("cafe x")
	require.True(t, found)
	assert.Equal(t, "Groceries", category)
}

func TestSaveSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")

	store := NewMappingStore(path, nil)
	require.NoError(t, store.Save())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "clean store should not write a file")
}
