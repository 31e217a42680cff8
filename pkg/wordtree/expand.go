package wordtree

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Candidate 续写候选
type Candidate struct {
	Word        string  `json:"word" yaml:"word"`               // 续写文本, 需自带空白
	Probability float64 `json:"probability" yaml:"probability"` // 局部概率
}

// Expander 续写候选来源
// text 为待展开节点的累积文本
type Expander interface {
	Expand(ctx context.Context, text string) ([]Candidate, error)
}

// ExpanderFunc 函数适配 Expander
type ExpanderFunc func(ctx context.Context, text string) ([]Candidate, error)

// Expand 调用 f
func (f ExpanderFunc) Expand(ctx context.Context, text string) ([]Candidate, error) {
	return f(ctx, text)
}

// Populate 展开节点, 每个节点至多展开一次
//
// 同一节点的并发调用会串行执行; 已展开的节点返回 ErrAlreadyPopulated.
// 展开是全有或全无的: Expander 出错或候选概率非法时不挂载任何子节点,
// 节点保持未展开状态, 可以重试. 零个候选也算一次成功的展开.
func Populate(ctx context.Context, n *Node, exp Expander) error {
	_, err := populate(ctx, n, exp)
	return err
}

// EnsurePopulated 与 Populate 相同, 但已展开的节点视为成功
// 返回值表示本次调用是否执行了展开
func EnsurePopulated(ctx context.Context, n *Node, exp Expander) (bool, error) {
	done, err := populate(ctx, n, exp)
	if errors.Is(err, ErrAlreadyPopulated) {
		return false, nil
	}
	return done, err
}

func populate(ctx context.Context, n *Node, exp Expander) (bool, error) {
	if n == nil || exp == nil {
		return false, fmt.Errorf("%w: nil node or expander", ErrInvalidReference)
	}

	n.expanding.Lock()
	defer n.expanding.Unlock()

	if n.Populated() {
		return false, fmt.Errorf("%w: %q", ErrAlreadyPopulated, n.CumulativeText())
	}

	text := n.CumulativeText()
	candidates, err := exp.Expand(ctx, text)
	if err != nil {
		return false, fmt.Errorf("expand %q: %w", text, err)
	}

	// 先全部构造, 再一次性挂载
	children := make([]*Node, 0, len(candidates))
	for _, c := range candidates {
		child, err := NewChild(c.Word, c.Probability)
		if err != nil {
			return false, fmt.Errorf("expand %q: candidate %q: %w", text, c.Word, err)
		}
		child.parent.Store(n)
		children = append(children, child)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.populated {
		return false, fmt.Errorf("%w: %q", ErrAlreadyPopulated, text)
	}
	n.children = append(n.children, children...)
	n.populated = true
	return true, nil
}

// GrowOptions Grow 参数
type GrowOptions struct {
	// Depth 起点之下展开的层数
	Depth int
	// Workers 同一层并发展开的节点数, <= 0 时为 1
	Workers int
	// MinProbability 累积概率低于该值的节点不再展开
	MinProbability float64
}

// Grow 按层展开 root 之下 Depth 层
//
// 同一层的节点互不相交, 最多 Workers 个同时展开.
// 已展开的节点不会重复展开, 但其子节点仍参与下一层.
func Grow(ctx context.Context, root *Node, exp Expander, opts GrowOptions) error {
	if root == nil || exp == nil {
		return fmt.Errorf("%w: nil node or expander", ErrInvalidReference)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	level := []*Node{root}
	for depth := 0; depth < opts.Depth && len(level) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, node := range level {
			if node.CumulativeProbability() < opts.MinProbability {
				continue
			}
			g.Go(func() error {
				_, err := EnsurePopulated(gctx, node, exp)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var next []*Node
		for _, node := range level {
			if node.CumulativeProbability() < opts.MinProbability {
				continue
			}
			next = append(next, node.Children()...)
		}
		level = next
	}
	return nil
}
