package csvutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	w := NewWriter(path, []string{"name", "price"})

	err := w.Append([][]string{{"Widget One", "9.99"}})
	require.NoError(t, err)
	err = w.Append([][]string{{"Widget Two", "19.99"}})
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "name,price\nWidget One,9.99\nWidget Two,19.99\n", string(contents))
}

func TestReadColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.csv")
	err := os.WriteFile(path, []byte("id,code\n1,A-100\n2,A-200\n"), 0600)
	require.NoError(t, err)

	codes, err := ReadColumn(path, "code")
	require.NoError(t, err)
	require.Equal(t, []string{"A-100", "A-200"}, codes)

	_, err = ReadColumn(path, "nonexistent")
	require.Error(t, err)
}
