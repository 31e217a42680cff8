package participle

// TrieNode 前缀树节点
type TrieNode struct {
	Children map[string]*TrieNode // 子节点，使用完整字符作为键
	IsEnd    bool                 // 是否是一个词的结尾
	Entry    *DictEntry           // 如果是词尾，存储词条信息
}

// NewTrieNode 创建一个新的前缀树节点
func NewTrieNode() *TrieNode {
	return &TrieNode{
		Children: make(map[string]*TrieNode),
	}
}

// Insert 插入词条, 已存在时覆盖, 返回被覆盖的旧词条
func (t *TrieNode) Insert(entry DictEntry) (old *DictEntry) {
	node := t
	for _, char := range SplitString(entry.Content) {
		child, ok := node.Children[char]
		if !ok {
			child = NewTrieNode()
			node.Children[char] = child
		}
		node = child
	}

	if node.IsEnd {
		old = node.Entry
	}
	node.IsEnd = true
	node.Entry = &entry
	return old
}

// Find 查找前缀对应的节点, 不存在时返回 nil
func (t *TrieNode) Find(prefix string) *TrieNode {
	node := t
	for _, char := range SplitString(prefix) {
		child, ok := node.Children[char]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// Lookup 查找完整词条
func (t *TrieNode) Lookup(content string) (*DictEntry, bool) {
	node := t.Find(content)
	if node == nil || !node.IsEnd {
		return nil, false
	}
	return node.Entry, true
}

// Each 遍历子树中的全部词条, 顺序不固定
func (t *TrieNode) Each(fn func(*DictEntry)) {
	if t.IsEnd && t.Entry != nil {
		fn(t.Entry)
	}
	for _, child := range t.Children {
		child.Each(fn)
	}
}
