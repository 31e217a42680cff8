package wordtree

import "errors"

// 契约错误, 均为调用方的编程错误, 使用 errors.Is 判断
var (
	// ErrAlreadyAttached 节点已经挂载到其他父节点
	ErrAlreadyAttached = errors.New("wordtree: node already attached")
	// ErrInvalidReference 空节点, 自挂载或挂载后会成环
	ErrInvalidReference = errors.New("wordtree: invalid node reference")
	// ErrInvalidProbability 概率为 NaN, 无穷或负数
	ErrInvalidProbability = errors.New("wordtree: invalid probability")
	// ErrAlreadyPopulated 节点已经展开过
	ErrAlreadyPopulated = errors.New("wordtree: node already populated")
)
