package parser

import (
	"strconv"
	"strings"
	"time"

	"clawboard/internal/model"
	"clawboard/internal/normalize"
	"clawboard/internal/symbol"
)

// DBParser 展位明细解析器：列名别名解析 + 记号解码 → model.Row
type DBParser struct {
	mapper  *FieldMapper
	symbols *symbol.Parser
}

// NewDBParser 创建明细解析器
func NewDBParser(mapper *FieldMapper, symbols *symbol.Parser) *DBParser {
	if mapper == nil {
		mapper = NewFieldMapper(nil)
	}
	if symbols == nil {
		symbols = symbol.NewParser(nil)
	}
	return &DBParser{mapper: mapper, symbols: symbols}
}

// ParseSheet 解析整张明细表
func (p *DBParser) ParseSheet(sheetName string, headers []string, records []map[string]string) ([]*model.Row, ParseResult) {
	start := time.Now()
	result := ParseResult{
		SheetName:  sheetName,
		SheetType:  SheetTypeDB,
		Strategies: make(map[string]int),
		Missing:    p.mapper.MissingRequired(headers),
	}

	rows := make([]*model.Row, 0, len(records))
	for _, rec := range records {
		if p.isBlank(rec) {
			result.SkippedRows++
			continue
		}
		row := p.ParseRecord(rec)
		result.Strategies[string(row.Decoded.Strategy)]++
		if row.SymbolRaw != "" && row.Decoded.Matched() == 0 {
			result.Undecoded++
		}
		rows = append(rows, row)
	}

	result.ImportedRows = len(rows)
	result.Status = "imported"
	if len(rows) == 0 {
		result.Status = "skipped"
	}
	result.Duration = time.Since(start)
	return rows, result
}

// isBlank 没有任何可识别内容的行
func (p *DBParser) isBlank(rec map[string]string) bool {
	for _, f := range []Field{FieldBoothID, FieldSymbol, FieldItemName, FieldSales, FieldClaw} {
		if p.mapper.Has(rec, f) {
			return false
		}
	}
	return true
}

// ParseRecord 解析单条明细记录
// 统一口径字段以记号解码结果为准，解码缺失时回退到原始列
func (p *DBParser) ParseRecord(rec map[string]string) *model.Row {
	m := p.mapper
	symbolRaw := m.Pick(rec, FieldSymbol)
	decoded := p.symbols.Parse(symbolRaw)

	row := &model.Row{
		BoothID:      m.Pick(rec, FieldBoothID),
		ItemName:     m.Pick(rec, FieldItemName),
		LabelID:      m.Pick(rec, FieldLabelID),
		Width:        m.PickNumber(rec, FieldWidth),
		Depth:        m.PickNumber(rec, FieldDepth),
		SymbolRaw:    symbolRaw,
		ConsumeCount: m.PickNumber(rec, FieldConsumeCount),
		UpdatedAt:    m.Pick(rec, FieldUpdatedAt),
		Sales:        m.PickNumber(rec, FieldSales),
		Claw:         m.PickNumber(rec, FieldClaw),
		Plays:        m.PickNumber(rec, FieldPlays),
		Decoded:      decoded,
	}

	// 没有回数列时取记号解码出的回数（"10" 之类），非数字按 0
	if !m.Has(rec, FieldPlays) {
		row.Plays = normalize.ParseNumber(decoded.Label(model.CatPlays))
	}

	row.MachineName = p.machineName(rec, row.BoothID)
	row.MachineKey = normalize.Key(row.MachineName)

	row.Genre = normalize.FirstNonEmpty(decoded.Label(model.CatGenre), m.Pick(rec, FieldGenre))
	row.SubGenre = subGenre(row.Genre, decoded)
	row.Target = normalize.FirstNonEmpty(decoded.Label(model.CatTarget), m.Pick(rec, FieldTarget))
	row.Age = normalize.FirstNonEmpty(decoded.Label(model.CatAge), m.Pick(rec, FieldAge))
	row.Character = normalize.Character(
		normalize.FirstNonEmpty(decoded.Label(model.CatCharacter), m.Pick(rec, FieldCharacter)))
	row.CharacterGenre = characterGenre(row.Character, decoded)
	row.ClawMethod = clawMethod(m.Pick(rec, FieldMethod), decoded)
	row.PriceBand = normalize.PriceBand(
		m.Pick(rec, FieldPriceBand),
		normalize.FirstNonEmpty(m.Pick(rec, FieldPrice), decoded.Label(model.CatPrice)))
	row.Size = size(m.Pick(rec, FieldSize), row.Width, row.Depth)
	row.Flags = model.Flags{
		Reservation: normalize.ParseFlag(decoded.Label(model.CatReservation)) || normalize.ParseFlag(m.Pick(rec, FieldReservation)),
		Movie:       normalize.ParseFlag(decoded.Label(model.CatMovie)) || normalize.ParseFlag(m.Pick(rec, FieldMovie)),
		Original:    normalize.ParseFlag(decoded.Label(model.CatOriginal)) || normalize.ParseFlag(m.Pick(rec, FieldOriginal)),
	}
	return row
}

// machineName 対応マシン名：明细列 → 主表ブース对应 → ブースID
func (p *DBParser) machineName(rec map[string]string, boothID string) string {
	if v := p.mapper.Pick(rec, FieldMachine); v != "" {
		return v
	}
	if master := p.symbols.Master(); master != nil && boothID != "" {
		if v := master.MachinesByBooth[normalize.Key(boothID)]; v != "" {
			return v
		}
	}
	return boothID
}

// subGenre 按景品ジャンル选择对应的细分分类
func subGenre(genre string, d model.Decoded) string {
	switch {
	case genre == "":
		return ""
	case strings.Contains(genre, "食品"):
		return d.Label(model.CatFood)
	case strings.Contains(genre, "ぬいぐるみ"):
		return d.Label(model.CatPlush)
	case strings.Contains(genre, "雑貨"):
		return d.Label(model.CatGoods)
	}
	return ""
}

// characterGenre キャラ / ノンキャラ 对应的ジャンル
func characterGenre(character string, d model.Decoded) string {
	switch character {
	case normalize.CharacterYes:
		return d.Label(model.CatCharaGenre)
	case normalize.CharacterNo:
		return d.Label(model.CatNonCharaGenre)
	}
	return ""
}

// clawMethod 投入法：原始列优先，其次解码的投入法，最后看 3本爪 / 2本爪 分类是否命中
func clawMethod(raw string, d model.Decoded) string {
	if v := normalize.ClawMethod(normalize.FirstNonEmpty(raw, d.Label(model.CatMethod))); v != "" {
		return v
	}
	switch {
	case d.Label(model.CatThreeClaw) != "":
		return normalize.MethodThreeClaw
	case d.Label(model.CatTwoClaw) != "":
		return normalize.MethodTwoClaw
	}
	return ""
}

// size サイズ列优先，否则由 幅×奥行き 组成
func size(raw string, w, d float64) string {
	if raw != "" {
		return raw
	}
	if w <= 0 || d <= 0 {
		return ""
	}
	return strconv.FormatFloat(w, 'f', -1, 64) + "x" + strconv.FormatFloat(d, 'f', -1, 64)
}
