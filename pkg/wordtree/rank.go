package wordtree

import "sort"

// Completion 一条完整续写
type Completion struct {
	Text        string  `json:"text" yaml:"text"`               // 相对起点的续写文本
	Probability float64 `json:"probability" yaml:"probability"` // 叶子的累积概率
	Node        *Node   `json:"-" yaml:"-"`                     // 叶子节点
}

// Completions 每个叶子一条, 顺序与 DescendantTexts 相同
func (n *Node) Completions() []Completion {
	var out []Completion
	n.collectTexts("", true, func(text string, leaf *Node) {
		out = append(out, Completion{
			Text:        text,
			Probability: leaf.CumulativeProbability(),
			Node:        leaf,
		})
	})
	return out
}

// Rank 按累积概率降序排列的续写, 概率相同时保持叶子顺序
// limit <= 0 时返回全部
func (n *Node) Rank(limit int) []Completion {
	out := n.Completions()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
