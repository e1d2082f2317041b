package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/tutorlens/internal/store"
)

func TestRootCarriesServeFlags(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"addr", "dataset", "store", "tie-mode", "llm-url", "base-path"} {
		assert.NotNil(t, root.Flags().Lookup(name), name)
	}
	export, _, err := root.Find([]string{"feedback", "export"})
	require.NoError(t, err)
	assert.NotNil(t, export.Flags().Lookup("format"))
}

func TestOpenBlob(t *testing.T) {
	v := viper.New()
	v.Set("store", "sqlite")
	v.Set("db", ":memory:")
	blob, err := openBlob(context.Background(), v)
	require.NoError(t, err)
	defer blob.Close()
	assert.IsType(t, &store.Store{}, blob)

	v.Set("store", "etcd")
	_, err = openBlob(context.Background(), v)
	assert.ErrorContains(t, err, "unknown store")
}

func TestWriteTally(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTally(&buf, []store.TutorTally{{Tutor: "GPT-4", Helpful: 2, Preferred: 1, Compared: 3}}))
	out := buf.String()
	assert.Contains(t, out, "TUTOR")
	assert.Regexp(t, `GPT-4\s+2\s+0\s+0\s+1\s+3`, out)
}

func TestWriteOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeOutput(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "{}\n")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
}
