package normalize

import (
	"math"
	"strconv"
	"strings"
)

var numberReplacer = strings.NewReplacer(
	",", "", // 千分位
	"，", "",
	"円", "",
	"¥", "",
	"￥", "",
	"％", "",
	"%", "",
)

// ParseNumber 安全转换为数值，无法解析时返回 0
func ParseNumber(s string) float64 {
	return ParseNumberOr(s, 0)
}

// ParseNumberOr 安全转换为数值，无法解析或非有限值时返回 def
func ParseNumberOr(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	s = numberReplacer.Replace(s)
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// Text 去除首尾空白
func Text(s string) string {
	return strings.TrimSpace(s)
}

// FirstNonEmpty 返回第一个非空（去空白后）的值
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var falseWords = map[string]struct{}{
	"":      {},
	"0":     {},
	"false": {},
	"no":    {},
	"off":   {},
	"なし":    {},
	"無":     {},
	"無し":    {},
	"×":     {},
	"✕":     {},
	"-":     {},
	"ー":     {},
}

// ParseFlag 布尔标记：空值与常见否定写法为 false，其余为 true
func ParseFlag(s string) bool {
	_, isFalse := falseWords[strings.ToLower(strings.TrimSpace(s))]
	return !isFalse
}
