package main

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajfix/internal/fsutil"
	"github.com/banshee-data/trajfix/internal/render"
	"github.com/banshee-data/trajfix/internal/timeutil"
)

var testNow = time.Date(2025, 1, 7, 17, 31, 29, 0, time.UTC)

func newTestApp(t *testing.T, stdin string) (*app, *fsutil.MemoryFileSystem, *bytes.Buffer) {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	for _, ds := range []struct{ folder, ts, data string }{
		{"korytarz2024-05-01_09-15-42", "2024-05-01_09-15-42", "0,0,0\n0.1,0,0\n5,0,0\n5.1,0,0\n"},
		{"parter_2024-05-02_11-30-00", "2024-05-02_11-30-00", "0,0,0\n0,0.2,0\n"},
	} {
		dir := filepath.Join("files", ds.folder)
		require.NoError(t, fsys.WriteFile(filepath.Join(dir, "dane-"+ds.ts+".csv"), []byte(ds.data), 0644))
		require.NoError(t, fsys.WriteFile(filepath.Join(dir, "checkpoint-"+ds.ts+".csv"), []byte("0,0,0\n"), 0644))
	}
	out := &bytes.Buffer{}
	return &app{
		in:    bufio.NewReader(strings.NewReader(stdin)),
		out:   out,
		fs:    fsys,
		clock: timeutil.NewMockClock(testNow),
	}, fsys, out
}

func execute(a *app, args ...string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	return root.Execute()
}

func TestListCommand(t *testing.T) {
	a, _, out := newTestApp(t, "")
	require.NoError(t, execute(a, "list"))
	assert.Equal(t,
		"0: korytarz | data: 2024-05-01_09-15-42\n1: parter | data: 2024-05-02_11-30-00\n",
		out.String())
}

func TestListCommand_NoDatasets(t *testing.T) {
	a, _, _ := newTestApp(t, "")
	err := execute(a, "list", "--data-dir", "elsewhere")
	assert.Error(t, err)
}

func TestAnalyzeCommand_ByName(t *testing.T) {
	a, fsys, out := newTestApp(t, "")
	require.NoError(t, execute(a, "analyze", "korytarz2024-05-01_09-15-42", "--correct", "--output-dir", "out"))

	assert.Contains(t, out.String(), "Discontinuities:  1 [2]")
	dir := filepath.Join("out", "korytarz2024-05-01_09-15-42", render.FormatTimestamp(testNow))
	assert.True(t, fsutil.IsFile(fsys, filepath.Join(dir, render.FileScene3D)))
	assert.True(t, fsutil.IsFile(fsys, filepath.Join(dir, render.FileDerivativeNorm)))
}

func TestAnalyzeCommand_Interactive(t *testing.T) {
	a, fsys, out := newTestApp(t, "1\ntak\nn\n")
	require.NoError(t, execute(a, "analyze", "-i", "--threshold", "0.1"))

	s := out.String()
	assert.Contains(t, s, "Select dataset number: ")
	assert.Contains(t, s, "Repair the trajectory? (y/n): ")
	assert.Contains(t, s, "Use one scale for all axes? (y/n): ")
	assert.Contains(t, s, "Discontinuities:  1 [1]")
	assert.NotEmpty(t, fsys.Files(filepath.Join("plots", "parter_2024-05-02_11-30-00")))

	selectAt := strings.Index(s, "Select dataset number: ")
	repairAt := strings.Index(s, "Repair the trajectory?")
	scaleAt := strings.Index(s, "Use one scale for all axes?")
	assert.True(t, selectAt < repairAt && repairAt < scaleAt, "prompts out of order:\n%s", s)
}

func TestAnalyzeCommand_InteractiveSkipsGivenFlags(t *testing.T) {
	a, _, out := newTestApp(t, "0\ny\n")
	require.NoError(t, execute(a, "analyze", "-i", "--correct"))

	s := out.String()
	assert.NotContains(t, s, "Repair the trajectory?")
	assert.Contains(t, s, "Use one scale for all axes? (y/n): ")
	assert.Contains(t, s, "Discontinuities:  1 [2]")
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	t.Run("unknown dataset", func(t *testing.T) {
		a, _, _ := newTestApp(t, "")
		assert.Error(t, execute(a, "analyze", "nope"))
	})
	t.Run("bad threshold", func(t *testing.T) {
		a, _, _ := newTestApp(t, "")
		assert.Error(t, execute(a, "analyze", "0", "--threshold", "0"))
	})
	t.Run("missing explicit config", func(t *testing.T) {
		a, _, _ := newTestApp(t, "")
		assert.Error(t, execute(a, "analyze", "0", "--config", filepath.Join(t.TempDir(), "none.yaml")))
	})
	t.Run("no answer", func(t *testing.T) {
		a, _, _ := newTestApp(t, "")
		assert.Error(t, execute(a, "analyze"))
	})
}

func TestAnalyzeAndHistory(t *testing.T) {
	a, _, out := newTestApp(t, "")
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	require.NoError(t, execute(a, "analyze", "0", "--db", dbPath))
	assert.Contains(t, out.String(), "Run:")

	out.Reset()
	require.NoError(t, execute(a, "history", "--db", dbPath))
	assert.Contains(t, out.String(), "korytarz2024-05-01_09-15-42")
	assert.Contains(t, out.String(), "analyzed")

	out.Reset()
	require.NoError(t, execute(a, "history", "parter_2024-05-02_11-30-00", "--db", dbPath))
	assert.Equal(t, "No runs recorded.\n", out.String())
}

func TestHistoryCommand_NoArchive(t *testing.T) {
	a, _, _ := newTestApp(t, "")
	assert.Error(t, execute(a, "history"))
}

func TestVersionCommand(t *testing.T) {
	a, _, out := newTestApp(t, "")
	require.NoError(t, execute(a, "version"))
	assert.True(t, strings.HasPrefix(out.String(), "trajfix dev"))
}

func TestConfirm(t *testing.T) {
	for answer, want := range map[string]bool{"y": true, "YES": true, "t": true, "Tak": true, "n": false, "": false, "nie": false} {
		a := &app{in: bufio.NewReader(strings.NewReader(answer + "\n")), out: &bytes.Buffer{}}
		got, err := a.confirm("ok?")
		require.NoError(t, err)
		assert.Equal(t, want, got, answer)
	}
}
