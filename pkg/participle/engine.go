package participle

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	bd "github.com/dgraph-io/badger/v4"

	"github.com/miajio/wordtree/pkg/badger"
)

const (
	wordKeyPrefix = "word:" // 词条: word:<content> -> DictEntry json
	nextKeyPrefix = "next:" // 后继: next:<prev>\x00<next> -> uint64 大端计数

	nextKeySep = "\x00"

	defaultMaxCandidates = 10
	defaultPos           = "nz"
)

// ErrInvalidWord 词条内容为空或包含空白, 或词频非法
var ErrInvalidWord = errors.New("participle: invalid word")

// Options 引擎配置
type Options struct {
	Segmenter     Segmenter    // 分词器, 为 nil 时使用 gse
	Logger        *slog.Logger // 日志, 默认 slog.Default()
	MaxCandidates int          // Expand 返回的最大候选数, 默认 10
	DefaultPos    string       // 新学习词条的词性, 默认 nz（其他专名）
}

// Engine 分词与续写引擎
//
// 词条保存在前缀树中用于补全当前词, 相邻词计数用于预测下一个词.
// 两者启动时从 badger 加载, 修改时同步写回.
type Engine struct {
	dbEngine  *badger.Engine // 数据库
	segmenter Segmenter      // 分词器
	logger    *slog.Logger
	opts      Options

	mu      sync.RWMutex
	root    *TrieNode                    // 前缀树根节点
	total   float64                      // 全部词频之和
	bigrams map[string]map[string]uint64 // 前一个词 -> 后继词 -> 次数
}

// LearnStats 一次学习的统计
type LearnStats struct {
	Words    int `json:"words" yaml:"words"`         // 学习的词数
	NewWords int `json:"new_words" yaml:"new_words"` // 新词数
	Bigrams  int `json:"bigrams" yaml:"bigrams"`     // 相邻词对数
}

// New 创建引擎, 从数据库加载词典和相邻词计数
func New(dbEngine *badger.Engine, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = defaultMaxCandidates
	}
	if opts.DefaultPos == "" {
		opts.DefaultPos = defaultPos
	}

	d := &Engine{
		dbEngine: dbEngine,
		logger:   opts.Logger,
		opts:     opts,
		root:     NewTrieNode(),
		bigrams:  make(map[string]map[string]uint64),
	}

	entries, err := d.loadDictionary()
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	if err := d.loadBigrams(); err != nil {
		return nil, fmt.Errorf("load bigrams: %w", err)
	}

	d.segmenter = opts.Segmenter
	if d.segmenter == nil {
		if d.segmenter, err = NewGseSegmenter(entries, d.logger); err != nil {
			return nil, err
		}
	} else {
		for _, entry := range entries {
			d.segmenter.AddToken(entry.Content, entry.Frequency, entry.Pos)
		}
	}

	d.logger.Debug("dictionary loaded", "words", len(entries), "prev_words", len(d.bigrams))
	return d, nil
}

// loadDictionary 从数据库加载词典到前缀树
func (d *Engine) loadDictionary() ([]DictEntry, error) {
	var entries []DictEntry
	err := d.dbEngine.Scan([]byte(wordKeyPrefix), func(key, val []byte) error {
		var entry DictEntry
		if err := json.Unmarshal(val, &entry); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		d.putEntry(entry)
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}

// loadBigrams 从数据库加载相邻词计数
func (d *Engine) loadBigrams() error {
	return d.dbEngine.Scan([]byte(nextKeyPrefix), func(key, val []byte) error {
		prev, next, ok := strings.Cut(strings.TrimPrefix(string(key), nextKeyPrefix), nextKeySep)
		if !ok || len(val) != 8 {
			d.logger.Warn("skip malformed bigram", "key", string(key))
			return nil
		}
		d.addBigram(prev, next, binary.BigEndian.Uint64(val))
		return nil
	})
}

// putEntry 写入前缀树并维护总词频, 调用方持有写锁
func (d *Engine) putEntry(entry DictEntry) {
	if old := d.root.Insert(entry); old != nil {
		d.total -= old.Frequency
	}
	d.total += entry.Frequency
}

func (d *Engine) addBigram(prev, next string, n uint64) {
	followers, ok := d.bigrams[prev]
	if !ok {
		followers = make(map[string]uint64)
		d.bigrams[prev] = followers
	}
	followers[next] += n
}

func wordKey(content string) []byte {
	return []byte(wordKeyPrefix + content)
}

func nextKey(prev, next string) []byte {
	return []byte(nextKeyPrefix + prev + nextKeySep + next)
}

func encodeCount(n uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, n)
}

func validWord(content string, frequency float64) error {
	switch {
	case content == "", strings.ContainsFunc(content, unicode.IsSpace):
		return fmt.Errorf("%w: %q", ErrInvalidWord, content)
	case math.IsNaN(frequency) || math.IsInf(frequency, 0) || frequency <= 0:
		return fmt.Errorf("%w: %q frequency %v", ErrInvalidWord, content, frequency)
	}
	return nil
}

// AddWord 添加或覆盖一个词条
func (d *Engine) AddWord(content string, frequency float64, pos string) error {
	if err := validWord(content, frequency); err != nil {
		return err
	}
	if pos == "" {
		pos = d.opts.DefaultPos
	}
	entry := DictEntry{
		Content:   content,
		Frequency: frequency,
		Pos:       pos,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.dbEngine.Set(wordKey(content), data); err != nil {
		return fmt.Errorf("save word %q: %w", content, err)
	}
	d.putEntry(entry)
	d.segmenter.AddToken(content, frequency, pos)
	return nil
}

// LearnFromText 从文本中学习词频和相邻词
//
// 新词以词频 1 加入词典, 已有词词频加 1; 标点会打断相邻关系.
// 一次调用的全部修改在同一个批次中写入, 写入失败时内存不变.
func (d *Engine) LearnFromText(text string) (LearnStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var stats LearnStats
	words := make(map[string]DictEntry)
	counts := make(map[string]map[string]uint64)

	prev := ""
	for _, tok := range JoinSpaces(d.segmenter.Cut(text)) {
		core := strings.TrimLeft(tok, " ")
		// 跳过特殊符号
		if core == "" || IsSpecialChar(core) {
			prev = ""
			continue
		}
		stats.Words++

		entry, seen := words[core]
		if !seen {
			if old, ok := d.root.Lookup(core); ok {
				entry = *old
			} else {
				entry = DictEntry{Content: core, Pos: d.opts.DefaultPos}
				stats.NewWords++
			}
		}
		entry.Frequency++
		words[core] = entry

		if prev != "" {
			if counts[prev] == nil {
				counts[prev] = make(map[string]uint64)
			}
			counts[prev][tok]++
			stats.Bigrams++
		}
		prev = core
	}

	if stats.Words == 0 {
		return stats, nil
	}

	err := d.dbEngine.Batch(func(wb *bd.WriteBatch) error {
		for content, entry := range words {
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if err := wb.Set(wordKey(content), data); err != nil {
				return err
			}
		}
		for p, followers := range counts {
			for next, n := range followers {
				if err := wb.Set(nextKey(p, next), encodeCount(d.bigrams[p][next]+n)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return LearnStats{}, fmt.Errorf("save learned text: %w", err)
	}

	for _, entry := range words {
		d.putEntry(entry)
		d.segmenter.AddToken(entry.Content, entry.Frequency, entry.Pos)
	}
	for p, followers := range counts {
		for next, n := range followers {
			d.addBigram(p, next, n)
		}
	}

	d.logger.Debug("learned text", "words", stats.Words, "new_words", stats.NewWords, "bigrams", stats.Bigrams)
	return stats, nil
}

// Lookup 查找词条
func (d *Engine) Lookup(content string) (DictEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.root.Lookup(content)
	if !ok {
		return DictEntry{}, false
	}
	return *entry, true
}

// Words 以 prefix 开头的词条, 按词频降序, limit <= 0 时返回全部
func (d *Engine) Words(prefix string, limit int) []DictEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	node := d.root.Find(prefix)
	if node == nil {
		return nil
	}
	var out []DictEntry
	node.Each(func(entry *DictEntry) {
		out = append(out, *entry)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Content < out[j].Content
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Followers word 之后出现过的词, 按次数降序, limit <= 0 时返回全部
func (d *Engine) Followers(word string, limit int) []Follower {
	d.mu.RLock()
	defer d.mu.RUnlock()

	followers := d.bigrams[word]
	var total uint64
	for _, n := range followers {
		total += n
	}
	out := make([]Follower, 0, len(followers))
	for next, n := range followers {
		out = append(out, Follower{
			Word:        next,
			Count:       n,
			Probability: float64(n) / float64(total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Segment 对文本进行分词
func (d *Engine) Segment(text string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.segmenter.Cut(text)
}

// Tokens 分词并把空白合并到后一个词前
func (d *Engine) Tokens(text string) []string {
	return JoinSpaces(d.Segment(text))
}

// Close 关闭数据库
func (d *Engine) Close() error {
	return d.dbEngine.Close()
}
