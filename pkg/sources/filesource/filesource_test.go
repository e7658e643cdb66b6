package filesource

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, path string, value any) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	payload, err := json.Marshal(value)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, payload, 0o644))
}

func TestSupplierByID(t *testing.T) {
	root := t.TempDir()
	supplier := testutil.CreateTestSupplier()
	writeJSON(t, filepath.Join(root, "suppliers", supplier.ID+".json"), supplier)

	source := NewSource(root)

	loaded, err := source.SupplierByID(context.Background(), supplier.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, supplier.CompanyName, loaded.CompanyName)

	missing, err := source.SupplierByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestExtraction(t *testing.T) {
	root := t.TempDir()
	extraction := testutil.CreateTestExtraction("supplier-1", models.DocumentDURC)
	writeJSON(t, filepath.Join(root, "extractions", "supplier-1", "durc.json"), extraction)

	source := NewSource(root)

	loaded, err := source.Extraction(context.Background(), "supplier-1", models.DocumentDURC)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, extraction.Fields["esito"], loaded.Fields["esito"])

	missing, err := source.Extraction(context.Background(), "supplier-1", models.DocumentSOA)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAnswersBySupplier(t *testing.T) {
	root := t.TempDir()
	answers := testutil.CreateTestAnswers("supplier-1")
	writeJSON(t, filepath.Join(root, "questionnaires", "supplier-1.json"), answers)

	source := NewSource(root)

	loaded, err := source.AnswersBySupplier(context.Background(), "supplier-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, true, loaded.Answers["legal_compliance"])
}

func TestSupplierIDs(t *testing.T) {
	root := t.TempDir()
	writeJSON(t, filepath.Join(root, "suppliers", "a.json"), testutil.CreateTestSupplier())
	writeJSON(t, filepath.Join(root, "suppliers", "b.json"), testutil.CreateTestSupplier())

	source := NewSource(root)

	ids, err := source.SupplierIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestSupplierIDsEmptyTree(t *testing.T) {
	source := NewSource(t.TempDir())

	ids, err := source.SupplierIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCorruptFileIsAnError(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "suppliers", "bad.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	source := NewSource(root)

	_, err := source.SupplierByID(context.Background(), "bad")
	require.Error(t, err)
}
