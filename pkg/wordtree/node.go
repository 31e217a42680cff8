// Package wordtree 概率续写树
//
// 每个节点表示续写路径上的一个词, 携带相对父路径的局部条件概率.
// 累积概率, 累积文本以及叶子续写文本都由树结构推导, 不做缓存.
// 子节点的来源由外部 Expander 决定, 见 Populate.
package wordtree

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
)

// attachMu 串行化挂载, 对 parent 的检查和设置不会与其他挂载交错
var attachMu sync.Mutex

// Node 续写树节点
//
// 父节点拥有子节点, parent 只用于向上遍历.
// word 和 probability 创建后不再改变, parent 只设置一次, 因此向上的推导无需加锁.
type Node struct {
	word        string               // 本节点贡献的文本
	probability float64              // 相对父路径的局部概率
	parent      atomic.Pointer[Node] // 父节点, 根节点为 nil

	mu        sync.RWMutex // 保护 children 和 populated
	children  []*Node      // 有序子节点
	populated bool         // 是否已经展开

	expanding sync.Mutex // 串行化同一节点的展开
}

// NewRoot 创建根节点, 文本为空, 概率为 1
func NewRoot() *Node {
	return &Node{probability: 1}
}

// NewChild 创建待挂载的子节点
// 概率必须是有限的非负数, 不做 [0,1] 截断
func NewChild(word string, probability float64) (*Node, error) {
	if err := checkProbability(probability); err != nil {
		return nil, err
	}
	return &Node{word: word, probability: probability}, nil
}

func checkProbability(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	return nil
}

// AttachChild 挂载子节点, 子节点追加到末尾
func (n *Node) AttachChild(child *Node) error {
	if n == nil || child == nil {
		return fmt.Errorf("%w: nil node", ErrInvalidReference)
	}
	if child == n {
		return fmt.Errorf("%w: node attached to itself", ErrInvalidReference)
	}

	attachMu.Lock()
	defer attachMu.Unlock()

	if child.parent.Load() != nil {
		return fmt.Errorf("%w: %q", ErrAlreadyAttached, child.word)
	}
	// child 没有父节点, 只有当它是 n 所在树的根时才会成环
	if n.Root() == child {
		return fmt.Errorf("%w: attaching %q would create a cycle", ErrInvalidReference, child.word)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.populated {
		return fmt.Errorf("%w: cannot attach %q", ErrAlreadyPopulated, child.word)
	}
	child.parent.Store(n)
	n.children = append(n.children, child)
	return nil
}

// Word 本节点文本
func (n *Node) Word() string { return n.word }

// Probability 局部概率
func (n *Node) Probability() float64 { return n.probability }

// Parent 父节点, 根节点返回 nil
func (n *Node) Parent() *Node { return n.parent.Load() }

// IsRoot 是否为根节点
func (n *Node) IsRoot() bool { return n.parent.Load() == nil }

// Root 所在树的根节点
func (n *Node) Root() *Node {
	for p := n.parent.Load(); p != nil; p = p.parent.Load() {
		n = p
	}
	return n
}

// Depth 到根节点的距离, 根节点为 0
func (n *Node) Depth() int {
	depth := 0
	for p := n.parent.Load(); p != nil; p = p.parent.Load() {
		depth++
	}
	return depth
}

// Children 子节点副本
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// IsLeaf 是否没有子节点
func (n *Node) IsLeaf() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.children) == 0
}

// Populated 是否已经展开
func (n *Node) Populated() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.populated
}

// CumulativeProbability 从本节点到根节点的局部概率之积
func (n *Node) CumulativeProbability() float64 {
	p := n.probability
	for a := n.parent.Load(); a != nil; a = a.parent.Load() {
		p *= a.probability
	}
	return p
}

// CumulativeText 从根节点到本节点的文本直接拼接, 不插入分隔符
func (n *Node) CumulativeText() string {
	var words []string
	size := 0
	for a := n; a != nil; a = a.parent.Load() {
		words = append(words, a.word)
		size += len(a.word)
	}

	var sb strings.Builder
	sb.Grow(size)
	for i := len(words) - 1; i >= 0; i-- {
		sb.WriteString(words[i])
	}
	return sb.String()
}

// DescendantTexts 本节点之后到每个叶子的续写文本, 按先序顺序排列
// 不包含本节点自身的文本; 没有子节点时返回一个空串
func (n *Node) DescendantTexts() []string {
	var results []string
	n.collectTexts("", true, func(text string, _ *Node) {
		results = append(results, text)
	})
	return results
}

// collectTexts 先序遍历, 在每个叶子处回调累积文本
func (n *Node) collectTexts(acc string, skipSelf bool, leaf func(string, *Node)) {
	if !skipSelf {
		acc += n.word
	}
	children := n.Children()
	if len(children) == 0 {
		leaf(acc, n)
		return
	}
	for _, child := range children {
		child.collectTexts(acc, false, leaf)
	}
}

// Walk 先序遍历子树, fn 返回 false 时跳过该节点的子树
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children() {
		child.Walk(fn)
	}
}
