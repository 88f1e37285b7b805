package model

import (
	"encoding/json"
)

// CostRateFactor 原价率的固定系数（消化额含税换算）
const CostRateFactor = 1.1

// CostRate 原价率 = 消化额 × 1.1 ÷ 销售额；销售额为 0 时无定义
func CostRate(sales, claw float64) (float64, bool) {
	if sales <= 0 {
		return 0, false
	}
	return claw * CostRateFactor / sales, true
}

// FlagKey 促销标记
type FlagKey string

const (
	FlagReservation FlagKey = "reservation" // 予約
	FlagMovie       FlagKey = "movie"       // 映画
	FlagOriginal    FlagKey = "original"    // WLオリジナル
)

// AllFlags 全部促销标记
var AllFlags = []FlagKey{FlagReservation, FlagMovie, FlagOriginal}

// Valid 是否为已知标记
func (k FlagKey) Valid() bool {
	switch k {
	case FlagReservation, FlagMovie, FlagOriginal:
		return true
	}
	return false
}

// Flags 促销标记集合
type Flags struct {
	Reservation bool `json:"reservation"`
	Movie       bool `json:"movie"`
	Original    bool `json:"original"`
}

// Get 读取指定标记
func (f Flags) Get(k FlagKey) bool {
	switch k {
	case FlagReservation:
		return f.Reservation
	case FlagMovie:
		return f.Movie
	case FlagOriginal:
		return f.Original
	}
	return false
}

// Row 单个展位（ブース）的一条记录
type Row struct {
	BoothID      string
	ItemName     string
	LabelID      string
	MachineName  string // 対応マシン名（展示用）
	MachineKey   string // 规范化后的机台标识，用于去重计数
	Width        float64
	Depth        float64
	SymbolRaw    string
	ConsumeCount float64 // 消化数
	UpdatedAt    string

	Sales float64 // 総売上
	Claw  float64 // 消化額
	Plays float64 // プレイ回数

	Decoded Decoded

	// 由记号与原始列推导出的统一口径字段；空串表示缺失
	Genre          string
	SubGenre       string
	CharacterGenre string
	Target         string
	Age            string
	Character      string
	ClawMethod     string
	PriceBand      string
	Size           string
	Flags          Flags
}

// CostRate 行级原价率
func (r *Row) CostRate() (float64, bool) {
	return CostRate(r.Sales, r.Claw)
}

// rowJSON rows.json 中的固定字段
type rowJSON struct {
	BoothID        string   `json:"booth_id"`
	ItemName       string   `json:"item_name"`
	LabelID        string   `json:"label_id"`
	Machine        string   `json:"machine"`
	MachineKey     string   `json:"machine_key"`
	W              float64  `json:"w"`
	D              float64  `json:"d"`
	SymbolRaw      string   `json:"symbol_raw"`
	ConsumeCount   float64  `json:"consume_count"`
	UpdatedAt      string   `json:"updated_at"`
	Sales          float64  `json:"sales"`
	Claw           float64  `json:"claw"`
	CostRate       *float64 `json:"cost_rate"`
	Plays          float64  `json:"plays"`
	DecodeStrategy string   `json:"decode_strategy"`
	Genre          string   `json:"genre"`
	SubGenre       string   `json:"sub_genre"`
	CharacterGenre string   `json:"character_genre"`
	Target         string   `json:"target"`
	Age            string   `json:"age"`
	Character      string   `json:"character"`
	Method         string   `json:"method"`
	PriceBand      string   `json:"price_band"`
	Size           string   `json:"size"`
	Flags          Flags    `json:"flags"`
}

const codeSuffix = "_code"

// MarshalJSON 输出扁平结构：固定字段 + 每个分类的 "<分类>" / "<分类>_code"
func (r Row) MarshalJSON() ([]byte, error) {
	base := rowJSON{
		BoothID:        r.BoothID,
		ItemName:       r.ItemName,
		LabelID:        r.LabelID,
		Machine:        r.MachineName,
		MachineKey:     r.MachineKey,
		W:              r.Width,
		D:              r.Depth,
		SymbolRaw:      r.SymbolRaw,
		ConsumeCount:   r.ConsumeCount,
		UpdatedAt:      r.UpdatedAt,
		Sales:          r.Sales,
		Claw:           r.Claw,
		Plays:          r.Plays,
		DecodeStrategy: string(r.Decoded.Strategy),
		Genre:          r.Genre,
		SubGenre:       r.SubGenre,
		CharacterGenre: r.CharacterGenre,
		Target:         r.Target,
		Age:            r.Age,
		Character:      r.Character,
		Method:         r.ClawMethod,
		PriceBand:      r.PriceBand,
		Size:           r.Size,
		Flags:          r.Flags,
	}
	if cr, ok := r.CostRate(); ok {
		base.CostRate = &cr
	}

	raw, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	flat := make(map[string]json.RawMessage, 32+2*len(r.Decoded.Values))
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, err
	}
	for cat, m := range r.Decoded.Values {
		label, _ := json.Marshal(m.Label)
		code, _ := json.Marshal(m.Code)
		flat[cat] = label
		flat[cat+codeSuffix] = code
	}
	return json.Marshal(flat)
}

// UnmarshalJSON 读取 rows.json 的一行；分类字段按默认分类定义还原
func (r *Row) UnmarshalJSON(data []byte) error {
	var base rowJSON
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	*r = Row{
		BoothID:        base.BoothID,
		ItemName:       base.ItemName,
		LabelID:        base.LabelID,
		MachineName:    base.Machine,
		MachineKey:     base.MachineKey,
		Width:          base.W,
		Depth:          base.D,
		SymbolRaw:      base.SymbolRaw,
		ConsumeCount:   base.ConsumeCount,
		UpdatedAt:      base.UpdatedAt,
		Sales:          base.Sales,
		Claw:           base.Claw,
		Plays:          base.Plays,
		Genre:          base.Genre,
		SubGenre:       base.SubGenre,
		CharacterGenre: base.CharacterGenre,
		Target:         base.Target,
		Age:            base.Age,
		Character:      base.Character,
		ClawMethod:     base.Method,
		PriceBand:      base.PriceBand,
		Size:           base.Size,
		Flags:          base.Flags,
		Decoded: Decoded{
			Strategy: DecodeStrategy(base.DecodeStrategy),
			Values:   make(map[string]Match),
		},
	}

	for _, key := range CategoryKeys(DefaultCategorySpecs()) {
		var m Match
		if v, ok := flat[key]; ok {
			_ = json.Unmarshal(v, &m.Label)
		}
		if v, ok := flat[key+codeSuffix]; ok {
			_ = json.Unmarshal(v, &m.Code)
		}
		r.Decoded.Values[key] = m
	}
	return nil
}
