package normalize

import "strings"

// 投入法
const (
	MethodThreeClaw = "3本爪"
	MethodTwoClaw   = "2本爪"
	MethodInsert    = "投入法"
)

// キャラ属性
const (
	CharacterYes = "キャラ"
	CharacterNo  = "ノンキャラ"
)

// 料金帯
const (
	PriceBand100     = "100円"
	PriceBand200     = "200円"
	PriceBand300Plus = "300円以上"
)

// ClawMethod 投入法表记统一；空值返回 ""
func ClawMethod(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "3") || strings.Contains(s, "３"):
		return MethodThreeClaw
	case strings.Contains(s, "2") || strings.Contains(s, "２"):
		return MethodTwoClaw
	case strings.Contains(s, "投入"):
		return MethodInsert
	}
	return s
}

// Character キャラ属性统一（true/false 也吸收）；空值返回 ""
func Character(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case s == CharacterYes, strings.EqualFold(s, "true"):
		return CharacterYes
	case s == CharacterNo, strings.EqualFold(s, "false"):
		return CharacterNo
	}
	return s
}

// PriceBand 料金帯：显式料金帯优先，否则按料金数值分段
// 料金非正或无法解析时返回 ""（缺失，而不是 0 元档）
func PriceBand(band, price string) string {
	if b := strings.TrimSpace(band); b != "" {
		return b
	}
	p := ParseNumberOr(price, 0)
	switch {
	case p <= 0:
		return ""
	case p <= 100:
		return PriceBand100
	case p <= 200:
		return PriceBand200
	}
	return PriceBand300Plus
}
