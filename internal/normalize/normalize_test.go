package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
	}{
		{"1,200", 1200},
		{" 3,000円 ", 3000},
		{"１２", 0}, // 全角数字不做转换
		{"12.5%", 12.5},
		{"45％", 45},
		{"1，000", 1000},
		{"", 0},
		{"abc", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"-50", -50},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			assert.Equal(t, c.want, ParseNumber(c.in))
		})
	}
}

func TestParseNumberOr_Default(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7.0, ParseNumberOr("", 7))
	assert.Equal(t, 7.0, ParseNumberOr("x", 7))
	assert.Equal(t, 3.0, ParseNumberOr("3", 7))
}

func TestParseFlag(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", " ", "0", "false", "FALSE", "no", "off", "なし", "無", "×", "✕", "-"} {
		assert.Falsef(t, ParseFlag(s), "%q 应为 false", s)
	}
	for _, s := range []string{"1", "true", "○", "予約", "yes", "あり"} {
		assert.Truef(t, ParseFlag(s), "%q 应为 true", s)
	}
}

func TestClawMethod(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MethodThreeClaw, ClawMethod("3本"))
	assert.Equal(t, MethodThreeClaw, ClawMethod("３本爪"))
	assert.Equal(t, MethodTwoClaw, ClawMethod("2本爪"))
	assert.Equal(t, MethodInsert, ClawMethod("投入"))
	assert.Equal(t, "橋渡し", ClawMethod(" 橋渡し "))
	assert.Equal(t, "", ClawMethod("  "))
}

func TestCharacter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CharacterYes, Character("true"))
	assert.Equal(t, CharacterNo, Character("False"))
	assert.Equal(t, CharacterYes, Character("キャラ"))
	assert.Equal(t, CharacterNo, Character("ノンキャラ"))
	assert.Equal(t, "その他", Character("その他"))
	assert.Equal(t, "", Character(""))
}

func TestPriceBand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		band, price, want string
	}{
		{"", "100", PriceBand100},
		{"", "50", PriceBand100},
		{"", "200", PriceBand200},
		{"", "150", PriceBand200},
		{"", "300", PriceBand300Plus},
		{"", "500円", PriceBand300Plus},
		{"", "0", ""},
		{"", "-10", ""},
		{"", "", ""},
		{"", "abc", ""},
		{"200円", "100", "200円"},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, PriceBand(c.band, c.price), "band=%q price=%q", c.band, c.price)
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a01", Key("Ａ０１"))
	assert.Equal(t, "booth12", Key(" Booth 12 "))
	assert.Equal(t, Key("ＵＦＯ キャッチャー"), Key("ufoキャッチャー"))
}

func TestColumnName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "総売上", ColumnName("\uFEFF総売上\r\n"))
	assert.Equal(t, "記号", ColumnName(" 記号\t"))
}
