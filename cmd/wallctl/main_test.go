package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrywall/internal/names"
	"pantrywall/internal/pantry"
	"pantrywall/internal/pantry/pantrytest"
	"pantrywall/internal/wall"
)

type harness struct {
	remote *pantrytest.Server
	state  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		remote: pantrytest.NewServer(t),
		state:  filepath.Join(t.TempDir(), "state.json"),
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--state", h.state, "--pantry-url", h.remote.URL + "/apiv1"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandsRequireConfiguration(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{{"show"}, {"post", "hi"}, {"name", "sam"}, {"config"}} {
		_, err := h.run(t, args...)
		assert.ErrorIs(t, err, errNotConfigured, args)
	}
	assert.Empty(t, h.remote.Calls())
}

func TestPostAndShowKeepOneIdentity(t *testing.T) {
	h := newHarness(t)
	ref := pantry.Ref{PantryID: "P", Basket: "K"}
	h.remote.Seed(t, ref, map[string]string{"u2": "hello"})

	out, err := h.run(t, "config", "set", "P", "K")
	require.NoError(t, err)
	assert.Contains(t, out, "using P/K")
	assert.Contains(t, out, "anonymous: hello")

	_, err = h.run(t, "post", "from", "the", "terminal")
	require.NoError(t, err)
	_, err = h.run(t, "post", "edited")
	require.NoError(t, err)

	var entries wall.Entries
	require.True(t, h.remote.Decode(t, ref, &entries))
	assert.Len(t, entries, 2)
	assert.Equal(t, "hello", entries["u2"])

	out, err = h.run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "* you: edited")
	assert.Contains(t, out, "posting as you")
}

func TestPostKeepsNotesSavedSinceLastRun(t *testing.T) {
	h := newHarness(t)
	ref := pantry.Ref{PantryID: "P", Basket: "K"}
	h.remote.Seed(t, ref, map[string]string{"u2": "hello"})

	_, err := h.run(t, "config", "set", "P", "K")
	require.NoError(t, err)

	// Another visitor writes after this terminal last read the wall.
	h.remote.Seed(t, ref, map[string]string{"u2": "hello", "u3": "hey"})

	_, err = h.run(t, "post", "mine")
	require.NoError(t, err)

	var entries wall.Entries
	require.True(t, h.remote.Decode(t, ref, &entries))
	assert.Len(t, entries, 3)
	assert.Equal(t, "hey", entries["u3"])
	assert.Equal(t, "hello", entries["u2"])
}

func TestNameCommand(t *testing.T) {
	h := newHarness(t)
	ref := pantry.Ref{PantryID: "P", Basket: "K"}
	h.remote.Seed(t, names.DirectoryRef(ref), names.Directory{
		Names: map[string]int{"sam": 3},
		Users: map[string]names.Assignment{"u2": {Name: "sam", Seq: 3}},
	})

	_, err := h.run(t, "config", "set", "P", "K")
	require.NoError(t, err)

	out, err := h.run(t, "name", "sam")
	require.NoError(t, err)
	assert.Equal(t, "you are sam(4)\n", out)

	_, err = h.run(t, "name", "sam(5)")
	assert.ErrorIs(t, err, names.ErrReservedChars)
}

func TestConfigFromURL(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "config", "from-url", "https://mju.no/pantry-wall#pid=abc&key=notes")
	require.NoError(t, err)
	assert.Contains(t, out, "using abc/notes")

	out, err = h.run(t, "config")
	require.NoError(t, err)
	assert.Equal(t, "pantry: abc\nbasket: notes\n", out)

	_, err = h.run(t, "config", "from-url", "https://mju.no/pantry-wall")
	assert.Error(t, err)
}

func TestShareWritesQRCode(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "config", "from-url", "https://mju.no/pantry-wall#pid=abc&key=notes")
	require.NoError(t, err)

	qrPath := filepath.Join(t.TempDir(), "wall.png")
	out, err := h.run(t, "share", "https://mju.no/pantry-wall?lang=en", "--qr", qrPath, "--qr-size", "200")
	require.NoError(t, err)
	assert.Contains(t, out, "https://mju.no/pantry-wall?lang=en#pid=abc&key=notes\n")

	f, err := os.Open(qrPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
}
