package participle

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// specialChars 全部由标点, 符号或空白组成
var specialChars = regexp.MustCompile(`^[\p{P}\p{S}\p{Z}]+$`)

// SplitString 按Unicode字符分割字符串
func SplitString(s string) []string {
	result := make([]string, 0, utf8.RuneCountInString(s))
	for len(s) > 0 {
		_, size := utf8.DecodeRuneInString(s)
		result = append(result, s[:size])
		s = s[size:]
	}
	return result
}

// IsSpecialChar 判断字符串是否为特殊符号
func IsSpecialChar(s string) bool {
	if s == "" {
		return false
	}
	return specialChars.MatchString(s)
}

// isBlank 是否只包含空白
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// JoinSpaces 将分词结果中的空白合并为一个空格并挂到下一个词前
// 末尾的空白单独成为一个 " "
func JoinSpaces(raw []string) []string {
	out := make([]string, 0, len(raw))
	pending := false
	for _, tok := range raw {
		lead := strings.TrimLeftFunc(tok, unicode.IsSpace)
		if lead == "" {
			pending = pending || tok != ""
			continue
		}
		core := strings.TrimRightFunc(lead, unicode.IsSpace)
		word := core
		if pending || len(lead) != len(tok) {
			word = " " + core
		}
		out = append(out, word)
		pending = len(core) != len(lead)
	}
	if pending {
		out = append(out, " ")
	}
	return out
}
