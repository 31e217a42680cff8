package participle

import "fmt"

// DictEntry 字典词条
type DictEntry struct {
	Content   string  `json:"content" yaml:"content"`     // 词条内容
	Frequency float64 `json:"frequency" yaml:"frequency"` // 词频
	Pos       string  `json:"pos" yaml:"pos"`             // 词性
}

// dictLine gse 词典格式的一行
func (d DictEntry) dictLine() string {
	return fmt.Sprintf("%s %f %s", d.Content, d.Frequency, d.Pos)
}

// Follower 后继词统计
type Follower struct {
	Word        string  `json:"word" yaml:"word"`               // 后继词, 带前导空白
	Count       uint64  `json:"count" yaml:"count"`             // 出现次数
	Probability float64 `json:"probability" yaml:"probability"` // 条件概率
}
