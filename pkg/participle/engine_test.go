package participle

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miajio/wordtree/pkg/badger"
	"github.com/miajio/wordtree/pkg/wordtree"
)

// recordingSegmenter 记录 AddToken 的分词器
type recordingSegmenter struct {
	Segmenter
	tokens map[string]float64
}

func (s *recordingSegmenter) AddToken(content string, frequency float64, _ string) {
	if s.tokens == nil {
		s.tokens = make(map[string]float64)
	}
	s.tokens[content] = frequency
}

const corpus = "the cat naps. the cats nap. the cat sat"

func newTestStore(t *testing.T) *badger.Engine {
	t.Helper()
	db, err := badger.New(badger.Options{InMemory: true, Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, db *badger.Engine, maxCandidates int) (*Engine, *recordingSegmenter) {
	t.Helper()
	seg := &recordingSegmenter{Segmenter: NewSimpleSegmenter()}
	e, err := New(db, Options{Segmenter: seg, Logger: discardLogger(), MaxCandidates: maxCandidates})
	require.NoError(t, err)
	return e, seg
}

func learnedEngine(t *testing.T) *Engine {
	t.Helper()
	e, _ := newTestEngine(t, newTestStore(t), 0)
	_, err := e.LearnFromText(corpus)
	require.NoError(t, err)
	return e
}

// candidateMap 候选转为 word -> probability
func candidateMap(cands []wordtree.Candidate) map[string]float64 {
	m := make(map[string]float64, len(cands))
	for _, c := range cands {
		m[c.Word] = c.Probability
	}
	return m
}

func assertCandidates(t *testing.T, want map[string]float64, got []wordtree.Candidate) {
	t.Helper()
	m := candidateMap(got)
	require.Len(t, m, len(want), "candidates: %v", got)
	for word, p := range want {
		require.Contains(t, m, word)
		assert.InDelta(t, p, m[word], 1e-9, "word %q", word)
	}
}

func TestJoinSpaces(t *testing.T) {
	tests := []struct {
		raw  []string
		want []string
	}{
		{nil, []string{}},
		{[]string{"the", " ", "cat"}, []string{"the", " cat"}},
		{[]string{"the", "\n\t ", "cat", "  "}, []string{"the", " cat", " "}},
		{[]string{"  ", "cat"}, []string{" cat"}},
		{[]string{"猫", "在", "睡"}, []string{"猫", "在", "睡"}},
		{[]string{"a ", "b"}, []string{"a", " b"}},
		{[]string{" "}, []string{" "}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinSpaces(tt.raw), "raw %q", tt.raw)
	}
}

func TestIsSpecialChar(t *testing.T) {
	assert.True(t, IsSpecialChar("."))
	assert.True(t, IsSpecialChar("，。"))
	assert.False(t, IsSpecialChar(""))
	assert.False(t, IsSpecialChar("don't"))
	assert.False(t, IsSpecialChar("猫"))
}

func TestSimpleSegmenter(t *testing.T) {
	seg := NewSimpleSegmenter()
	assert.Equal(t, []string{"the", "  ", "cat", "'", "s", " ", "nap", ".", "."}, seg.Cut("the  cat's nap.."))
	assert.Equal(t, []string{"猫咪", " ", "42"}, seg.Cut("猫咪 42"))
	assert.Empty(t, seg.Cut(""))
}

func TestSplitString(t *testing.T) {
	assert.Equal(t, []string{"猫", "a", "咪"}, SplitString("猫a咪"))
	assert.Empty(t, SplitString(""))
}

func TestLearnFromText(t *testing.T) {
	e, seg := newTestEngine(t, newTestStore(t), 0)

	stats, err := e.LearnFromText(corpus)
	require.NoError(t, err)
	assert.Equal(t, LearnStats{Words: 9, NewWords: 6, Bigrams: 6}, stats)

	entry, ok := e.Lookup("the")
	require.True(t, ok)
	assert.Equal(t, 3.0, entry.Frequency)
	assert.Equal(t, defaultPos, entry.Pos)
	assert.Equal(t, 3.0, seg.tokens["the"])

	_, ok = e.Lookup(".")
	assert.False(t, ok, "punctuation is not learned")

	followers := e.Followers("the", 0)
	require.Len(t, followers, 2)
	assert.Equal(t, Follower{Word: " cat", Count: 2, Probability: 2.0 / 3}, followers[0])
	assert.Equal(t, " cats", followers[1].Word)

	assert.Empty(t, e.Followers("naps", 0), "sentence end breaks the chain")

	stats, err = e.LearnFromText("the cat")
	require.NoError(t, err)
	assert.Equal(t, LearnStats{Words: 2, NewWords: 0, Bigrams: 1}, stats)
	assert.Equal(t, uint64(3), e.Followers("the", 1)[0].Count)

	stats, err = e.LearnFromText(" ... ")
	require.NoError(t, err)
	assert.Zero(t, stats)
}

func TestLearnFromText_Persisted(t *testing.T) {
	db := newTestStore(t)
	first, _ := newTestEngine(t, db, 0)
	_, err := first.LearnFromText(corpus)
	require.NoError(t, err)

	second, seg := newTestEngine(t, db, 0)
	entry, ok := second.Lookup("cat")
	require.True(t, ok)
	assert.Equal(t, 2.0, entry.Frequency)
	assert.Equal(t, 2.0, seg.tokens["cat"], "loaded words are fed to the segmenter")

	followers := second.Followers("cat", 0)
	require.Len(t, followers, 2)
	assert.Equal(t, " naps", followers[0].Word)
	assert.Equal(t, " sat", followers[1].Word)
}

func TestAddWord(t *testing.T) {
	e, seg := newTestEngine(t, newTestStore(t), 0)

	require.NoError(t, e.AddWord("dog", 5, ""))
	entry, ok := e.Lookup("dog")
	require.True(t, ok)
	assert.Equal(t, DictEntry{Content: "dog", Frequency: 5, Pos: defaultPos}, entry)
	assert.Equal(t, 5.0, seg.tokens["dog"])

	require.NoError(t, e.AddWord("dog", 2, "n"))
	entry, _ = e.Lookup("dog")
	assert.Equal(t, "n", entry.Pos)
	assert.Equal(t, 2.0, entry.Frequency)

	for _, tc := range []struct {
		content string
		freq    float64
	}{
		{"", 1},
		{"two words", 1},
		{"dog", 0},
		{"dog", -1},
	} {
		require.ErrorIs(t, e.AddWord(tc.content, tc.freq, ""), ErrInvalidWord, "%q %v", tc.content, tc.freq)
	}
}

func TestWords(t *testing.T) {
	e := learnedEngine(t)

	words := e.Words("na", 0)
	require.Len(t, words, 2)
	assert.Equal(t, "nap", words[0].Content)
	assert.Equal(t, "naps", words[1].Content)

	top := e.Words("", 2)
	require.Len(t, top, 2)
	assert.Equal(t, "the", top[0].Content)
	assert.Equal(t, "cat", top[1].Content)

	assert.Nil(t, e.Words("zebra", 0))
}

func TestExpand(t *testing.T) {
	ctx := context.Background()
	e := learnedEngine(t)

	tests := []struct {
		name string
		text string
		want map[string]float64
	}{
		{
			name: "empty text gives top words",
			text: "",
			want: map[string]float64{
				"the": 3.0 / 9, "cat": 2.0 / 9, "cats": 1.0 / 9,
				"nap": 1.0 / 9, "naps": 1.0 / 9, "sat": 1.0 / 9,
			},
		},
		{
			name: "trailing space gives next words",
			text: "the ",
			want: map[string]float64{"cat": 2.0 / 3, "cats": 1.0 / 3},
		},
		{
			name: "complete word mixes completion and next words",
			text: "the cat",
			want: map[string]float64{"s": 1.0 / 3, " naps": 1.0 / 3, " sat": 1.0 / 3},
		},
		{
			name: "partial word completes",
			text: "the ca",
			want: map[string]float64{"t": 2.0 / 3, "ts": 1.0 / 3},
		},
		{
			name: "unknown word",
			text: "the dog",
			want: map[string]float64{},
		},
		{
			name: "sentence start after punctuation",
			text: "cat. ",
			want: map[string]float64{
				"the": 3.0 / 9, "cat": 2.0 / 9, "cats": 1.0 / 9,
				"nap": 1.0 / 9, "naps": 1.0 / 9, "sat": 1.0 / 9,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Expand(ctx, tt.text)
			require.NoError(t, err)
			assertCandidates(t, tt.want, got)
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].Probability, got[i].Probability)
			}
		})
	}
}

func TestExpand_MaxCandidates(t *testing.T) {
	e, _ := newTestEngine(t, newTestStore(t), 2)
	_, err := e.LearnFromText(corpus)
	require.NoError(t, err)

	got, err := e.Expand(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "the", got[0].Word)
	assert.Equal(t, "cat", got[1].Word)
}

func TestExpand_Canceled(t *testing.T) {
	e := learnedEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Expand(ctx, "the ")
	require.ErrorIs(t, err, context.Canceled)
}

func TestExpand_GrowsWordTree(t *testing.T) {
	ctx := context.Background()
	e := learnedEngine(t)

	root := wordtree.NewRoot()
	prompt, err := wordtree.NewChild("the ca", 1)
	require.NoError(t, err)
	require.NoError(t, root.AttachChild(prompt))

	require.NoError(t, wordtree.Grow(ctx, prompt, e, wordtree.GrowOptions{Depth: 2, Workers: 4}))

	assert.ElementsMatch(t, []string{"t naps", "t sat", "ts", "ts nap"}, prompt.DescendantTexts())

	ranked := prompt.Rank(0)
	require.Len(t, ranked, 4)
	assert.Equal(t, "ts nap", ranked[0].Text)
	assert.InDelta(t, 1.0/3, ranked[0].Probability, 1e-9)
	assert.Equal(t, "the cats nap", ranked[0].Node.CumulativeText())
	for _, c := range ranked[1:] {
		assert.InDelta(t, 2.0/9, c.Probability, 1e-9)
	}
}

func TestEngine_GseSegmenter(t *testing.T) {
	db := newTestStore(t)
	e, err := New(db, Options{Logger: discardLogger()})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"the", " cat", " naps", ".",
		" the", " cats", " nap", ".",
		" the", " cat", " sat",
	}, e.Tokens(corpus))

	stats, err := e.LearnFromText(corpus)
	require.NoError(t, err)
	assert.Equal(t, LearnStats{Words: 9, NewWords: 6, Bigrams: 6}, stats)

	got, err := e.Expand(context.Background(), "the ca")
	require.NoError(t, err)
	assertCandidates(t, map[string]float64{"t": 2.0 / 3, "ts": 1.0 / 3}, got)

	assert.Equal(t, []string{"我", "喜欢", "猫", " ", "和", "狗"}, e.Segment("我喜欢猫 和狗"))

	require.NoError(t, e.AddWord("猫咪侠", 100000, "n"))
	assert.Contains(t, e.Segment("猫咪侠来了"), "猫咪侠", "added words reach gse")

	// 新引擎从数据库重新加载词条到 gse
	reloaded, err := New(db, Options{Logger: discardLogger()})
	require.NoError(t, err)
	assert.Contains(t, reloaded.Segment("猫咪侠来了"), "猫咪侠")

	entry, ok := reloaded.Lookup("cat")
	require.True(t, ok)
	assert.Equal(t, 2.0, entry.Frequency)
	assertCandidates(t, map[string]float64{"cat": 2.0 / 3, "cats": 1.0 / 3}, mustExpand(t, reloaded, "the "))
}

func mustExpand(t *testing.T, e *Engine, text string) []wordtree.Candidate {
	t.Helper()
	got, err := e.Expand(context.Background(), text)
	require.NoError(t, err)
	return got
}
