package participle

import (
	"context"
	"sort"
	"strings"

	"github.com/miajio/wordtree/pkg/wordtree"
)

var _ wordtree.Expander = (*Engine)(nil)

// Expand 根据已有文本给出续写候选, 实现 wordtree.Expander
//
//   - 空文本: 按词频给出最常见的词
//   - 以空白结尾: 按相邻词计数给出下一个词
//   - 其他: 补全最后一个词, 若最后一个词本身完整, 其概率再按相邻词计数分给下一个词
//
// 未知的词返回空候选.
func (d *Engine) Expand(ctx context.Context, text string) ([]wordtree.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	weights := make(map[string]float64)
	tokens := JoinSpaces(d.segmenter.Cut(text))
	switch n := len(tokens); {
	case n == 0 || isBlank(text):
		d.addTopWords(weights, 1)
	case tokens[n-1] == " ":
		prev := ""
		if n > 1 {
			prev = strings.TrimLeft(tokens[n-2], " ")
		}
		if prev == "" || IsSpecialChar(prev) {
			// 句首
			d.addTopWords(weights, 1)
		} else {
			d.addFollowers(weights, prev, 1, true)
		}
	default:
		last := strings.TrimLeft(tokens[n-1], " ")
		if IsSpecialChar(last) {
			break
		}
		d.addCompletions(weights, last)
	}

	return d.candidates(weights), nil
}

// addTopWords 全部词条, 概率为词频占比
func (d *Engine) addTopWords(weights map[string]float64, mass float64) {
	if d.total <= 0 {
		return
	}
	d.root.Each(func(entry *DictEntry) {
		weights[entry.Content] += mass * entry.Frequency / d.total
	})
}

// addFollowers 把 mass 按相邻词计数分给 prev 的后继词
// trim 为 true 时去掉后继词的前导空白
func (d *Engine) addFollowers(weights map[string]float64, prev string, mass float64, trim bool) {
	followers := d.bigrams[prev]
	var total uint64
	for _, n := range followers {
		total += n
	}
	if total == 0 {
		return
	}
	for next, n := range followers {
		word := next
		if trim {
			word = strings.TrimLeft(next, " ")
		}
		weights[word] += mass * float64(n) / float64(total)
	}
}

// addCompletions 补全以 prefix 开头的词
func (d *Engine) addCompletions(weights map[string]float64, prefix string) {
	node := d.root.Find(prefix)
	if node == nil {
		return
	}

	var sum float64
	node.Each(func(entry *DictEntry) {
		sum += entry.Frequency
	})
	if sum <= 0 {
		return
	}

	node.Each(func(entry *DictEntry) {
		if entry.Content == prefix {
			return
		}
		weights[entry.Content[len(prefix):]] += entry.Frequency / sum
	})
	if node.IsEnd && node.Entry != nil {
		d.addFollowers(weights, prefix, node.Entry.Frequency/sum, false)
	}
}

// candidates 按概率降序取前 MaxCandidates 个
func (d *Engine) candidates(weights map[string]float64) []wordtree.Candidate {
	out := make([]wordtree.Candidate, 0, len(weights))
	for word, p := range weights {
		if word == "" || p <= 0 {
			continue
		}
		out = append(out, wordtree.Candidate{Word: word, Probability: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > d.opts.MaxCandidates {
		out = out[:d.opts.MaxCandidates]
	}
	return out
}
