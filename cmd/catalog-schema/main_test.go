package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cardclash/clash-server-go/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schemas", "cards.schema.json")
	require.NoError(t, writeSchema(out, catalog.Schema()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Card Catalog", doc["title"])

	_, err = os.Stat(out + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")
}
