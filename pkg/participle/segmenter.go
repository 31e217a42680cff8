package participle

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/go-ego/gse"
)

// Segmenter 分词器
type Segmenter interface {
	// Cut 分词, 保留空白和标点
	Cut(text string) []string
	// AddToken 添加或更新词条
	AddToken(content string, frequency float64, pos string)
}

// gseSegmenter 基于 gse 的分词器
type gseSegmenter struct {
	seg gse.Segmenter
}

// NewGseSegmenter 创建 gse 分词器, 并加载已有词条
// gse 自带的加载日志关闭, 改由 logger 输出
func NewGseSegmenter(entries []DictEntry, logger *slog.Logger) (Segmenter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	g := &gseSegmenter{}
	g.seg.SkipLog = true
	if err := g.seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("init gse segmenter: %w", err)
	}

	// 从词条加载词典到GSE
	if len(entries) > 0 {
		lines := make([]string, 0, len(entries))
		for _, entry := range entries {
			lines = append(lines, entry.dictLine())
		}
		if err := g.seg.LoadDictStr(strings.Join(lines, "\n")); err != nil {
			return nil, fmt.Errorf("load gse dictionary: %w", err)
		}
	}
	logger.Debug("gse dictionary loaded", "entries", len(entries))
	return g, nil
}

func (g *gseSegmenter) Cut(text string) []string {
	return g.seg.Cut(text, true)
}

func (g *gseSegmenter) AddToken(content string, frequency float64, pos string) {
	g.seg.AddToken(content, frequency, pos)
}

// simpleSegmenter 按字符类别分词: 连续字母数字为一个词, 连续空白为一个词, 其他字符单独成词
// 适用于以空格分词的语言, 不需要词典
type simpleSegmenter struct{}

// NewSimpleSegmenter 创建按字符类别分词的分词器
func NewSimpleSegmenter() Segmenter {
	return simpleSegmenter{}
}

const (
	classWord = iota + 1
	classSpace
	classOther
)

func runeClass(r rune) int {
	switch {
	case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
		return classWord
	case unicode.IsSpace(r):
		return classSpace
	}
	return classOther
}

func (simpleSegmenter) Cut(text string) []string {
	var out []string
	start, prev := 0, 0
	for i, r := range text {
		class := runeClass(r)
		if i > start && (class != prev || class == classOther) {
			out = append(out, text[start:i])
			start = i
		}
		prev = class
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func (simpleSegmenter) AddToken(string, float64, string) {}
