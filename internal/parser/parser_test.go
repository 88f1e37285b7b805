package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clawboard/internal/model"
	"clawboard/internal/normalize"
	"clawboard/internal/symbol"
)

func testSymbols(t *testing.T) *symbol.Parser {
	t.Helper()
	master := symbol.BuildMaster([]map[string]string{
		{
			"料金記号": "A", "料金": "100円",
			"投入法記号": "P", "投入法": "3本",
			"景品ジャンル記号": "F", "景品ジャンル": "食品",
			"食品記号": "s", "食品": "スナック",
			"キャラ記号": "C", "キャラ": "キャラ",
			"キャラジャンル記号": "k", "キャラジャンル": "アニメ",
			"予約記号": "R", "予約": "予約",
			"ブースID": "B-01", "対応マシン名": "UFO 1号機",
		},
		{
			"料金記号": "B", "料金": "200円",
			"景品ジャンル記号": "N", "景品ジャンル": "ぬいぐるみ",
			"ぬいぐるみ記号": "m", "ぬいぐるみ": "大型",
			"ターゲット記号": "W", "ターゲット": "女性",
		},
	}, model.DefaultCategorySpecs())
	return symbol.NewParser(master)
}

func TestFieldMapper_PickUsesAliasOrder(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper(nil)
	rec := map[string]string{"売上": "200", "総売上": " ", "sales": "300"}
	assert.Equal(t, "200", m.Pick(rec, FieldSales))
	assert.Equal(t, 200.0, m.PickNumber(rec, FieldSales))
	assert.Equal(t, 0.0, m.PickNumber(rec, FieldClaw))
	assert.False(t, m.Has(rec, FieldClaw))
}

func TestFieldMapper_Overrides(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper(map[string][]string{
		"sales": {" 売上金額 "},
		"claw":  {},
	})
	assert.Equal(t, []string{"売上金額"}, m.Aliases(FieldSales))
	assert.Equal(t, DefaultAliases()[FieldClaw], m.Aliases(FieldClaw))

	rec := map[string]string{"売上金額": "1,000", "総売上": "5"}
	assert.Equal(t, 1000.0, m.PickNumber(rec, FieldSales))
}

func TestFieldMapper_MissingRequired(t *testing.T) {
	t.Parallel()

	m := NewFieldMapper(nil)
	missing := m.MissingRequired([]string{"ブースID", "記号 ", "総売上"})
	if diff := cmp.Diff([]Field{FieldClaw}, missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, m.MissingRequired([]string{"booth_id", "symbol", "sales", "claw"}))
}

func TestSheetRecognizer(t *testing.T) {
	t.Parallel()

	r := NewSheetRecognizer()

	db := r.Recognize("DB", []string{"ブースID", "景品名", "総売上", "消化数", "消化額", "原価率", "ラベルID", "対応マシン名", "幅", "奥行き", "記号", "更新日時"})
	assert.Equal(t, SheetTypeDB, db.SheetType)

	master := r.Recognize("記号マスタ", []string{"料金記号", "料金", "回数記号", "回数", "投入法記号", "投入法", "景品ジャンル記号", "景品ジャンル", "ターゲット記号", "年代記号", "キャラ記号"})
	assert.Equal(t, SheetTypeMaster, master.SheetType)
	assert.LessOrEqual(t, master.Confidence, 1.0)

	unknown := r.Recognize("メモ", []string{"備考", "担当"})
	assert.Equal(t, SheetTypeUnknown, unknown.SheetType)

	name, ok := r.Pick(SheetTypeMaster, map[string][]string{
		"Sheet1": {"ブースID", "総売上", "消化額", "記号", "景品名"},
		"Sheet2": {"料金記号", "料金", "回数記号", "投入法記号", "年代記号", "ターゲット記号"},
	}, []string{"Sheet1", "Sheet2"})
	require.True(t, ok)
	assert.Equal(t, "Sheet2", name)
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	assert.True(t, MatchPattern("料金記号", `記号$`))
	assert.True(t, MatchPattern("料金記号", `記号$`)) // 命中缓存
	assert.False(t, MatchPattern("料金", `記号$`))
	assert.False(t, MatchPattern("x", `(`))
}

func TestDBParser_ParseRecord_Decoded(t *testing.T) {
	t.Parallel()

	p := NewDBParser(nil, testSymbols(t))
	row := p.ParseRecord(map[string]string{
		"ブースID": "B-01",
		"景品名":   "ポテト",
		"総売上":   "10,000",
		"消化額":   "3,000",
		"消化数":   "12",
		"記号":    "APFsCkR",
		"幅":     "60",
		"奥行き":   "45.5",
		"更新日時":  "2025/01/02",
	})

	assert.Equal(t, model.StrategyPositional, row.Decoded.Strategy)
	assert.Equal(t, "UFO 1号機", row.MachineName, "明细无マシン名时从主表补齐")
	assert.Equal(t, "ufo1号機", row.MachineKey)
	assert.Equal(t, 10000.0, row.Sales)
	assert.Equal(t, 3000.0, row.Claw)
	assert.Equal(t, 12.0, row.ConsumeCount)
	assert.Equal(t, "食品", row.Genre)
	assert.Equal(t, "スナック", row.SubGenre)
	assert.Equal(t, normalize.CharacterYes, row.Character)
	assert.Equal(t, "アニメ", row.CharacterGenre)
	assert.Equal(t, normalize.MethodThreeClaw, row.ClawMethod)
	assert.Equal(t, normalize.PriceBand100, row.PriceBand)
	assert.Equal(t, "60x45.5", row.Size)
	assert.True(t, row.Flags.Reservation)
	assert.False(t, row.Flags.Movie)
	assert.Equal(t, "2025/01/02", row.UpdatedAt)

	cr, ok := row.CostRate()
	require.True(t, ok)
	assert.InDelta(t, 0.33, cr, 1e-9)
}

func TestDBParser_ParseRecord_RawFallback(t *testing.T) {
	t.Parallel()

	p := NewDBParser(nil, testSymbols(t))
	row := p.ParseRecord(map[string]string{
		"booth_id":   "C-9",
		"sales":      "0",
		"claw":       "500",
		"genre":      "雑貨",
		"character":  "false",
		"method":     "2本爪",
		"price":      "300",
		"movie":      "1",
		"original":   "なし",
		"サイズ":        "L",
		"プレイ回数":      "40",
		"対応マシン名":     "",
		"ターゲット":      "男性",
		"予約景品":       "×",
		"記号":         "zzz",
	})

	assert.Equal(t, "C-9", row.MachineName, "主表也没有时回退为ブースID")
	assert.Equal(t, "c-9", row.MachineKey)
	assert.Equal(t, "雑貨", row.Genre)
	assert.Equal(t, "", row.SubGenre)
	assert.Equal(t, normalize.CharacterNo, row.Character)
	assert.Equal(t, normalize.MethodTwoClaw, row.ClawMethod)
	assert.Equal(t, normalize.PriceBand300Plus, row.PriceBand)
	assert.Equal(t, "男性", row.Target)
	assert.Equal(t, "L", row.Size)
	assert.Equal(t, 40.0, row.Plays)
	assert.Equal(t, model.Flags{Movie: true}, row.Flags)
	assert.Equal(t, 0, row.Decoded.Matched())

	_, ok := row.CostRate()
	assert.False(t, ok)
}

func TestDBParser_ParseRecord_TokenSymbol(t *testing.T) {
	t.Parallel()

	p := NewDBParser(nil, testSymbols(t))
	row := p.ParseRecord(map[string]string{"記号": "B-N-m-W", "総売上": "100"})

	assert.Equal(t, model.StrategyToken, row.Decoded.Strategy)
	assert.Equal(t, "ぬいぐるみ", row.Genre)
	assert.Equal(t, "大型", row.SubGenre)
	assert.Equal(t, "女性", row.Target)
	assert.Equal(t, normalize.PriceBand200, row.PriceBand)
	assert.Equal(t, "", row.ClawMethod)
	assert.Equal(t, "", row.MachineName)
}

func TestDBParser_ParseRecord_PlaysFromSymbol(t *testing.T) {
	t.Parallel()

	master := symbol.BuildMaster([]map[string]string{
		{"料金記号": "A", "料金": "100円", "回数記号": "9", "プレイ回数": "10"},
		{"回数記号": "8", "プレイ回数": "1回"},
	}, model.DefaultCategorySpecs())
	p := NewDBParser(nil, symbol.NewParser(master))

	tests := []struct {
		name string
		rec  map[string]string
		want float64
	}{
		{"decoded label", map[string]string{"記号": "A9", "総売上": "1000"}, 10},
		{"explicit column wins", map[string]string{"記号": "A9", "プレイ回数": "25"}, 25},
		{"non numeric label", map[string]string{"記号": "A8"}, 0},
		{"no plays code", map[string]string{"記号": "A"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := p.ParseRecord(tt.rec)
			assert.Equal(t, tt.want, row.Plays)
		})
	}

	row := p.ParseRecord(map[string]string{"記号": "A9"})
	assert.Equal(t, "10", row.Decoded.Label(model.CatPlays))
	assert.Equal(t, "100円", row.Decoded.Label(model.CatPrice))
}

func TestDBParser_ParseSheet(t *testing.T) {
	t.Parallel()

	p := NewDBParser(nil, testSymbols(t))
	headers := []string{"ブースID", "記号", "総売上"}
	rows, res := p.ParseSheet("DB", headers, []map[string]string{
		{"ブースID": "B-01", "記号": "AP", "総売上": "100"},
		{"ブースID": "", "記号": "", "総売上": ""},
		{"ブースID": "B-02", "記号": "???", "総売上": "50"},
		{"ブースID": "B-03", "記号": "A-F", "総売上": "70"},
	})

	require.Len(t, rows, 3)
	assert.Equal(t, "imported", res.Status)
	assert.Equal(t, 3, res.ImportedRows)
	assert.Equal(t, 1, res.SkippedRows)
	assert.Equal(t, 1, res.Undecoded)
	assert.Equal(t, map[string]int{"positional": 2, "token": 1}, res.Strategies)
	assert.Equal(t, []Field{FieldClaw}, res.Missing)
}

func TestDBParser_NilSymbols(t *testing.T) {
	t.Parallel()

	p := NewDBParser(nil, nil)
	row := p.ParseRecord(map[string]string{"ブースID": "X", "記号": "AP"})
	assert.Equal(t, "X", row.MachineName)
	assert.Equal(t, 0, row.Decoded.Matched())
}
