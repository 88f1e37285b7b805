package util

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder 无定义值的显示
const Placeholder = "-"

var printer = message.NewPrinter(language.Japanese)

// FormatYen 金额（千分位、四舍五入到円）
func FormatYen(value float64) string {
	return printer.Sprintf("¥%d", int64(math.Round(value)))
}

// FormatYenPtr 金额，nil 显示为 "-"
func FormatYenPtr(value *float64) string {
	if value == nil {
		return Placeholder
	}
	return FormatYen(*value)
}

// FormatPercent 比率格式化为百分比（0.33 → "33.0%"），nil 显示为 "-"
func FormatPercent(value *float64) string {
	if value == nil {
		return Placeholder
	}
	return printer.Sprintf("%.1f%%", *value*100)
}

// FormatRatio 非指针版本
func FormatRatio(value float64) string {
	return FormatPercent(&value)
}

// FormatCount 计数（千分位）
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}
