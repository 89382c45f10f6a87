package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	Mpat "github.com/maroda/madrigal/pattern"
	Ms "github.com/maroda/madrigal/server"
	"github.com/maroda/madrigal/sheets"
)

// execute runs the root command with args, returning stdout and stderr
func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &syncBuffer{}, &syncBuffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestQuery(t *testing.T) {
	t.Run("Text lists onsets", func(t *testing.T) {
		out, _, err := execute(t, context.Background(), "query", "cheat-sheet/sequence")
		require.NoError(t, err)
		assert.Equal(t, "[0, 1/4) s=bd\n[1/4, 1/2) s=sd\n[1/2, 3/4) s=bd\n[3/4, 1) s=hh\n", out)
	})

	t.Run("Range is cycles from to", func(t *testing.T) {
		out, _, err := execute(t, context.Background(), "query", "cheat-sheet/kick", "--from", "2", "--to", "4")
		require.NoError(t, err)
		assert.Equal(t, "[2, 3) s=bd\n[3, 4) s=bd\n", out)
	})

	t.Run("JSON", func(t *testing.T) {
		out, _, err := execute(t, context.Background(), "query", "cheat-sheet/gain", "--json")
		require.NoError(t, err)

		var events []QueryEvent
		require.NoError(t, json.Unmarshal([]byte(out), &events))
		require.Len(t, events, 2)
		assert.Equal(t, "1/2", events[1].Begin)
		assert.Equal(t, "1", events[1].End)
		assert.Equal(t, "sd", events[1].Params["s"])
		assert.InDelta(t, 0.8, events[1].Params["gain"], 1e-9)
	})

	t.Run("Unknown sheet", func(t *testing.T) {
		_, _, err := execute(t, context.Background(), "query", "nope")
		var unknown *Mpat.UnknownReferenceError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "sheet", unknown.Kind)
	})

	t.Run("Empty range", func(t *testing.T) {
		_, _, err := execute(t, context.Background(), "query", "--from", "3", "--to", "3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty range")
	})

	t.Run("Sheet from config", func(t *testing.T) {
		path := writeConfig(t, "session.yaml", "sheet: cheat-sheet/rest\n")
		out, _, err := execute(t, context.Background(), "--config", path, "query")
		require.NoError(t, err)
		assert.Equal(t, "[0, 1/4) s=bd\n[1/2, 3/4) s=bd\n[3/4, 1) s=sd\n", out)
	})
}

func TestSheets(t *testing.T) {
	out, _, err := execute(t, context.Background(), "sheets")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(sheets.Names()))

	var dave string
	for _, l := range lines {
		if strings.HasPrefix(l, sheets.DJDave) {
			dave = l
		}
	}
	assert.Contains(t, dave, "13/24")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "madrigal dev")
	assert.Contains(t, out, "log")
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults to the cheat sheet", func(t *testing.T) {
		c, err := loadConfig(&RootOptions{})
		require.NoError(t, err)
		assert.Equal(t, sheets.CheatSheet, c.Sheet)
	})

	t.Run("Environment wins over the file", func(t *testing.T) {
		path := writeConfig(t, "session.json", `{"sheet": "dj-dave", "cps": "1/2"}`)
		t.Setenv("MADRIGAL_CPS", "3/4")

		c, err := loadConfig(&RootOptions{Config: path})
		require.NoError(t, err)
		assert.Equal(t, sheets.DJDave, c.Sheet)
		assert.Equal(t, "3/4", c.CPS)
	})

	t.Run("Bad file", func(t *testing.T) {
		path := writeConfig(t, "session.json", `{"sheet": 4}`)
		_, err := loadConfig(&RootOptions{Config: path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config "+path)
	})
}

func TestPrepareSheet(t *testing.T) {
	t.Run("Sheet tempo and samples fill the gaps", func(t *testing.T) {
		c := &Ms.ConfigFile{Sheet: sheets.DJDave}
		_, err := prepareSheet(c, Mpat.NewSliderBank())
		require.NoError(t, err)
		assert.Equal(t, "13/24", c.CPS)
		assert.Equal(t, []string{sheets.DJDaveSamples}, c.Samples)
	})

	t.Run("Configured tempo is kept", func(t *testing.T) {
		c := &Ms.ConfigFile{Sheet: sheets.DJDave, CPM: 30, Samples: []string{"local.json"}}
		_, err := prepareSheet(c, Mpat.NewSliderBank())
		require.NoError(t, err)
		assert.Empty(t, c.CPS)
		assert.Equal(t, []string{"local.json"}, c.Samples)
	})

	t.Run("Sliders land in the bank", func(t *testing.T) {
		bank := Mpat.NewSliderBank()
		_, err := prepareSheet(&Ms.ConfigFile{Sheet: "cheat-sheet/sliders"}, bank)
		require.NoError(t, err)
		assert.Equal(t, []string{"lpf", "lpq"}, bank.Names())
	})
}

func TestPlay_Headless(t *testing.T) {
	if testing.Short() {
		t.Skip("plays in real time")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer cancel()

	out, _, err := execute(t, ctx, "play", "cheat-sheet/kick", "--headless", "--cps", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "msg=Trigger")
	assert.Contains(t, out, "s=bd")
}

// syncBuffer takes writes from trigger goroutines that may outlive Execute
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
