package parser

import (
	"clawboard/internal/normalize"
)

// Field 逻辑字段
type Field string

const (
	FieldSymbol       Field = "symbol"
	FieldSales        Field = "sales"
	FieldClaw         Field = "claw"
	FieldConsumeCount Field = "consume_count"
	FieldPlays        Field = "plays"
	FieldUpdatedAt    Field = "updated_at"
	FieldBoothID      Field = "booth_id"
	FieldItemName     Field = "item_name"
	FieldLabelID      Field = "label_id"
	FieldMachine      Field = "machine"
	FieldWidth        Field = "width"
	FieldDepth        Field = "depth"
	FieldSize         Field = "size"
	FieldGenre        Field = "genre"
	FieldTarget       Field = "target"
	FieldAge          Field = "age"
	FieldCharacter    Field = "character"
	FieldMethod       Field = "method"
	FieldPriceBand    Field = "price_band"
	FieldPrice        Field = "price"
	FieldReservation  Field = "reservation"
	FieldMovie        Field = "movie"
	FieldOriginal     Field = "original"
)

// requiredFields 缺失时需要在导入报告里提示的字段
var requiredFields = []Field{FieldSymbol, FieldSales, FieldClaw, FieldBoothID}

// DefaultAliases 各逻辑字段的候选列名（按优先级）
func DefaultAliases() map[Field][]string {
	return map[Field][]string{
		FieldSymbol:       {"記号", "symbol", "記号_raw", "記号ID"},
		FieldSales:        {"総売上", "総売り上げ", "売上", "売上合計", "sales", "total_sales"},
		FieldClaw:         {"消化額", "消化金額", "原価", "claw", "consume", "cost"},
		FieldConsumeCount: {"消化数", "消化回数", "消化", "consume_count", "count"},
		FieldPlays:        {"plays", "play_count", "プレイ回数", "プレイ数"},
		FieldUpdatedAt:    {"更新日時", "更新日", "updated_at", "updatedAt", "日付", "date"},
		FieldBoothID:      {"ブースID", "マシン名（ブースID）", "booth_id", "boothId"},
		FieldItemName:     {"景品名", "item_name", "最終景品", "prize"},
		FieldLabelID:      {"ラベルID", "label_id"},
		FieldMachine:      {"対応マシン名", "対応マシン", "マシン名", "machine", "machine_name"},
		FieldWidth:        {"幅", "w"},
		FieldDepth:        {"奥行き", "奥行", "d"},
		FieldSize:         {"サイズ", "size"},
		FieldGenre:        {"景品ジャンル", "ジャンル", "genre"},
		FieldTarget:       {"ターゲット", "性別", "target", "gender"},
		FieldAge:          {"年代", "age"},
		FieldCharacter:    {"キャラ属性", "キャラ", "キャラ区分", "character", "is_character", "chara"},
		FieldMethod:       {"投入法", "method", "claw_method", "方式", "爪", "claw_type"},
		FieldPriceBand:    {"料金帯", "price_band", "priceBand"},
		FieldPrice:        {"料金", "price", "fee", "play_price"},
		FieldReservation:  {"予約景品", "reservation", "is_reservation"},
		FieldMovie:        {"映画関連景品", "映画関連", "movie", "is_movie"},
		FieldOriginal:     {"オリジナル景品", "オリジナル", "original", "is_original"},
	}
}

// FieldMapper 字段映射器：把任意列名的记录解析到逻辑字段
type FieldMapper struct {
	aliases map[Field][]string
}

// NewFieldMapper 创建字段映射器；overrides 中出现的字段整体替换默认候选列
func NewFieldMapper(overrides map[string][]string) *FieldMapper {
	aliases := DefaultAliases()
	for field, cols := range overrides {
		if len(cols) == 0 {
			continue
		}
		normalized := make([]string, 0, len(cols))
		for _, c := range cols {
			if c = normalize.ColumnName(c); c != "" {
				normalized = append(normalized, c)
			}
		}
		if len(normalized) > 0 {
			aliases[Field(field)] = normalized
		}
	}
	return &FieldMapper{aliases: aliases}
}

// Aliases 返回字段的候选列名
func (m *FieldMapper) Aliases(field Field) []string {
	return m.aliases[field]
}

// Pick 取字段的第一个非空值（已去除首尾空白）
func (m *FieldMapper) Pick(rec map[string]string, field Field) string {
	for _, col := range m.aliases[field] {
		if v := normalize.Text(rec[col]); v != "" {
			return v
		}
	}
	return ""
}

// PickNumber 取字段数值，缺失或无法解析时为 0
func (m *FieldMapper) PickNumber(rec map[string]string, field Field) float64 {
	return normalize.ParseNumber(m.Pick(rec, field))
}

// Has 字段是否被提供（列存在且值非空）
func (m *FieldMapper) Has(rec map[string]string, field Field) bool {
	return m.Pick(rec, field) != ""
}

// MapColumns 根据表头解析每个逻辑字段命中的列名
func (m *FieldMapper) MapColumns(headers []string) map[Field]string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[normalize.ColumnName(h)] = struct{}{}
	}

	mappings := make(map[Field]string)
	for field, cols := range m.aliases {
		for _, col := range cols {
			if _, ok := present[col]; ok {
				mappings[field] = col
				break
			}
		}
	}
	return mappings
}

// MissingRequired 返回表头中缺失的关键字段
func (m *FieldMapper) MissingRequired(headers []string) []Field {
	mapped := m.MapColumns(headers)
	var missing []Field
	for _, f := range requiredFields {
		if _, ok := mapped[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}
