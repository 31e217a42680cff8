package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// 输出格式
const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	probStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	plainStyle  = lipgloss.NewStyle()
)

// addOutputFlag 注册 -o/--output
func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", formatTable, "output format: table, yaml, json")
}

// writeOutput 按格式输出, table 格式由 table 渲染
func writeOutput(w io.Writer, format string, v any, table func(io.Writer) error) error {
	switch format {
	case formatTable, "":
		return table(w)
	case formatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, err = w.Write(data)
		return err
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// row 表格的一行
type row []string

// renderTable 按列宽对齐输出, 第一行为表头
func renderTable(w io.Writer, header row, rows []row, styles ...lipgloss.Style) error {
	widths := make([]int, len(header))
	for _, r := range append([]row{header}, rows...) {
		for i, cell := range r {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(r row, header bool) string {
		cells := make([]string, len(r))
		for i, cell := range r {
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			switch {
			case header:
				cell = headerStyle.Render(cell)
			case i < len(styles):
				cell = styles[i].Render(cell)
			}
			cells[i] = cell + pad
		}
		return strings.TrimRight(strings.Join(cells, "  "), " ")
	}

	if _, err := fmt.Fprintln(w, line(header, true)); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintln(w, line(r, false)); err != nil {
			return err
		}
	}
	return nil
}

// quote 显示空白
func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
