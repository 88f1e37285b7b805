package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var spaceRe = regexp.MustCompile(`\s+`)

// Key 规范化标识（ブースID / 対応マシン名）：全角转半角、去空白、小写
func Key(s string) string {
	s = width.Fold.String(s)
	s = spaceRe.ReplaceAllString(s, "")
	return strings.ToLower(s)
}

// ColumnName 规范化列名，去除首尾空白、BOM 与换行
func ColumnName(name string) string {
	name = strings.TrimPrefix(name, "\uFEFF")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\n", "")
	name = strings.ReplaceAll(name, "\t", "")
	return strings.TrimSpace(name)
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
