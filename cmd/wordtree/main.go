// Command wordtree 学习文本并生成概率续写树
//
// Usage:
//
//	wordtree [flags] <command> [args]
//
// Commands:
//
//	learn      - 从文件或标准输入学习词频和相邻词
//	word add   - 添加词条
//	words      - 按前缀列出词条
//	next       - 列出某个词的后继词
//	expand     - 展开续写树并按概率输出续写
//	backup     - 备份词典数据库
//	restore    - 从备份恢复词典数据库
package main

import (
	"fmt"
	"os"

	"github.com/miajio/wordtree/cmd/wordtree/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
