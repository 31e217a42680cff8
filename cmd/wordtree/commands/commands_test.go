package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miajio/wordtree/pkg/participle"
)

const corpus = `the cat naps.
the cats nap.
the cat sat
`

// setupEnv 使用临时目录中的数据库和简单分词器
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("WORDTREE_CONFIG", "")
	t.Setenv("WORDTREE_DB_DIR", filepath.Join(dir, "db"))
	t.Setenv("WORDTREE_PREDICT_SEGMENTER", "simple")
	return dir
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// run 执行一条命令并返回标准输出
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestCLI_LearnAndExpand(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, corpus, "learn", "-o", "json")
	require.NoError(t, err)
	var stats participle.LearnStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, participle.LearnStats{Words: 9, NewWords: 6, Bigrams: 6}, stats)

	out, err = run(t, "", "words", "ca", "-o", "yaml", "-n", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "content: cat")
	assert.Contains(t, out, "content: cats")

	out, err = run(t, "", "next", "the", "-o", "json", "-n", "0")
	require.NoError(t, err)
	var followers []participle.Follower
	require.NoError(t, json.Unmarshal([]byte(out), &followers))
	require.Len(t, followers, 2)
	assert.Equal(t, " cat", followers[0].Word)

	out, err = run(t, "", "expand", "the ca", "--depth", "2", "--workers", "2", "-o", "json", "-n", "0")
	require.NoError(t, err)
	var result expandResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "the ca", result.Prompt)
	require.Len(t, result.Completions, 4)
	assert.Equal(t, "ts nap", result.Completions[0].Text)
	assert.InDelta(t, 1.0/3, result.Completions[0].Probability, 1e-9)

	out, err = run(t, "", "expand", "the ca", "--depth", "2", "-o", "table", "-n", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stripANSI(out)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PROBABILITY")
	assert.Contains(t, lines[1], "ts nap")
	assert.Contains(t, lines[1], "0.3333")

	out, err = run(t, "", "word", "add", "catnip", "--freq", "4", "--pos", "n")
	require.NoError(t, err)
	assert.Contains(t, out, "added catnip")

	backup := filepath.Join(dir, "dict.bak")
	_, err = run(t, "", "backup", backup)
	require.NoError(t, err)
	out, err = run(t, "", "restore", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "restored")

	out, err = run(t, "", "words", "catn", "-o", "table", "-n", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "catnip")
}

func TestCLI_Errors(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "words", "-o", "xml")
	require.ErrorContains(t, err, "unsupported output format")

	_, err = run(t, "", "word", "add", "two words")
	require.ErrorIs(t, err, participle.ErrInvalidWord)

	t.Setenv("WORDTREE_PREDICT_MAX_CANDIDATES", "0")
	_, err = run(t, "", "words", "-o", "table")
	require.ErrorContains(t, err, "invalid configuration")
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, row{"A", "LONG HEADER"}, []row{{"wide cell", "x"}, {"b", "y"}}))

	lines := strings.Split(strings.TrimRight(stripANSI(buf.String()), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "A          LONG HEADER", lines[0])
	assert.Equal(t, "wide cell  x", lines[1])
	assert.Equal(t, "b          y", lines[2])
}
