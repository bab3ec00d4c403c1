package helper

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointIDIsDeterministic(t *testing.T) {
	a := PointID("manual", "0-1")
	b := PointID("manual", "0-1")
	c := PointID("manual", "0-2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}

func TestGenerateUUID(t *testing.T) {
	a, err := GenerateUUID()
	require.NoError(t, err)
	b, err := GenerateUUID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestClearFolderKeepsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), []byte("[]"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "keep"), 0o755))

	require.NoError(t, ClearFolder(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep", entries[0].Name())
}

func TestClearFolderMissing(t *testing.T) {
	assert.NoError(t, ClearFolder(filepath.Join(t.TempDir(), "missing")))
}

func TestWriteReadJSONKeepsUnicode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	in := map[string]string{"title": "Lubrificação <básica>"}

	require.NoError(t, WriteJSON(path, in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Lubrificação <básica>")

	var out map[string]string
	require.NoError(t, ReadJSON(path, &out))
	assert.Equal(t, in, out)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "manual", BaseName("/tmp/in/manual.pdf"))
	assert.Equal(t, "notes.v2", BaseName("notes.v2.txt"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestSessionLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "interaction_log.txt")

	s, err := NewSessionLog(path)
	require.NoError(t, err)
	require.NoError(t, s.Record("What oil?", "y", 1500*time.Millisecond))
	require.NoError(t, s.Record("Hello", "n", 200*time.Millisecond))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)

	assert.True(t, strings.HasPrefix(content, "Session started"))
	assert.Contains(t, content, "User: What oil?\nAssistant: y\nResponse time: 1.50 seconds")
	assert.Contains(t, content, "Response time: 0.20 seconds")
	assert.Equal(t, s.String(), content)
}
