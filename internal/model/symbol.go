package model

import (
	"encoding/json"
	"sort"
	"unicode/utf8"
)

// 记号分类键（与记号主表的列名一致）
const (
	CatPrice         = "料金"
	CatPlays         = "回数"
	CatMethod        = "投入法"
	CatThreeClaw     = "3本爪"
	CatTwoClaw       = "2本爪"
	CatGenre         = "景品ジャンル"
	CatFood          = "食品ジャンル"
	CatPlush         = "ぬいぐるみジャンル"
	CatGoods         = "雑貨ジャンル"
	CatTarget        = "ターゲット"
	CatAge           = "年代"
	CatCharacter     = "キャラ"
	CatCharaGenre    = "キャラジャンル"
	CatNonCharaGenre = "ノンキャラジャンル"
	CatMovie         = "映画"
	CatReservation   = "予約"
	CatOriginal      = "WLオリジナル"
)

// CategorySpec 记号分类定义：主表中的“记号列 / 名称列”
// CodeColumns、LabelColumns 按优先级排列，取第一个非空列
type CategorySpec struct {
	Key          string   `json:"key"`
	CodeColumns  []string `json:"code_columns"`
	LabelColumns []string `json:"label_columns"`
}

// DefaultCategorySpecs 默认分类定义
//
// 顺序即记号串的拼接顺序，逐位解析依赖这个顺序。上游表格如果调整了拼接顺序，
// 逐位解析会把标签错配到相邻分类而不会报错。
func DefaultCategorySpecs() []CategorySpec {
	return []CategorySpec{
		{Key: CatPrice, CodeColumns: []string{"料金記号"}, LabelColumns: []string{"料金"}},
		{Key: CatPlays, CodeColumns: []string{"回数記号"}, LabelColumns: []string{"プレイ回数", "回数"}},
		{Key: CatMethod, CodeColumns: []string{"投入法記号"}, LabelColumns: []string{"投入法"}},
		{Key: CatThreeClaw, CodeColumns: []string{"3本爪記号"}, LabelColumns: []string{"3本爪"}},
		{Key: CatTwoClaw, CodeColumns: []string{"2本爪記号"}, LabelColumns: []string{"2本爪"}},
		{Key: CatGenre, CodeColumns: []string{"景品ジャンル記号"}, LabelColumns: []string{"景品ジャンル"}},
		{Key: CatFood, CodeColumns: []string{"食品記号", "食品ジャンル記号"}, LabelColumns: []string{"食品ジャンル", "食品"}},
		{Key: CatPlush, CodeColumns: []string{"ぬいぐるみ記号", "ぬいぐるみジャンル記号"}, LabelColumns: []string{"ぬいぐるみジャンル", "ぬいぐるみ"}},
		{Key: CatGoods, CodeColumns: []string{"雑貨記号", "雑貨ジャンル記号"}, LabelColumns: []string{"雑貨ジャンル", "雑貨"}},
		{Key: CatTarget, CodeColumns: []string{"ターゲット記号"}, LabelColumns: []string{"ターゲット"}},
		{Key: CatAge, CodeColumns: []string{"年代記号"}, LabelColumns: []string{"年代"}},
		{Key: CatCharacter, CodeColumns: []string{"キャラ記号"}, LabelColumns: []string{"キャラ"}},
		{Key: CatCharaGenre, CodeColumns: []string{"キャラジャンル記号"}, LabelColumns: []string{"キャラジャンル"}},
		{Key: CatNonCharaGenre, CodeColumns: []string{"ノンキャラジャンル記号"}, LabelColumns: []string{"ノンキャラジャンル"}},
		{Key: CatMovie, CodeColumns: []string{"映画記号"}, LabelColumns: []string{"映画"}},
		{Key: CatReservation, CodeColumns: []string{"予約記号"}, LabelColumns: []string{"予約"}},
		{Key: CatOriginal, CodeColumns: []string{"WLオリジナル記号"}, LabelColumns: []string{"WLオリジナル"}},
	}
}

// CategoryKeys 返回分类键（按声明顺序）
func CategoryKeys(specs []CategorySpec) []string {
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		keys = append(keys, s.Key)
	}
	return keys
}

// DecodeStrategy 记号解析采用的策略
type DecodeStrategy string

const (
	StrategyToken      DecodeStrategy = "token"
	StrategyPositional DecodeStrategy = "positional"
)

// Match 单个分类的解析结果；未命中时 Label/Code 均为空
type Match struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// Decoded 一个记号串的解析结果（只读，解析缓存会在多行之间共享）
type Decoded struct {
	Strategy DecodeStrategy   `json:"strategy"`
	Values   map[string]Match `json:"values"`
}

// Label 获取分类标签
func (d Decoded) Label(category string) string {
	return d.Values[category].Label
}

// Code 获取分类记号
func (d Decoded) Code(category string) string {
	return d.Values[category].Code
}

// Matched 命中的分类数
func (d Decoded) Matched() int {
	n := 0
	for _, m := range d.Values {
		if m.Label != "" {
			n++
		}
	}
	return n
}

// SymbolMaster 记号主表（每次刷新数据时整体重建，构建后只读）
type SymbolMaster struct {
	Specs []CategorySpec
	// Dict 分类 -> 记号 -> 标签
	Dict map[string]map[string]string
	// Order 分类 -> 记号列表（长度降序，等长按字典序）
	Order map[string][]string
	// MachinesByBooth 规范化后的ブースID -> 対応マシン名
	MachinesByBooth map[string]string
}

// NewSymbolMaster 创建空主表
func NewSymbolMaster(specs []CategorySpec) *SymbolMaster {
	m := &SymbolMaster{
		Specs:           specs,
		Dict:            make(map[string]map[string]string, len(specs)),
		Order:           make(map[string][]string, len(specs)),
		MachinesByBooth: make(map[string]string),
	}
	for _, s := range specs {
		m.Dict[s.Key] = make(map[string]string)
		m.Order[s.Key] = []string{}
	}
	return m
}

// Lookup 查询记号标签
func (m *SymbolMaster) Lookup(category, code string) (string, bool) {
	if m == nil {
		return "", false
	}
	label, ok := m.Dict[category][code]
	return label, ok
}

// SortCodes 按“最长优先”排序，保证短记号不会抢先匹配长记号的前缀
func SortCodes(codes []string) {
	sort.Slice(codes, func(i, j int) bool {
		li := utf8.RuneCountInString(codes[i])
		lj := utf8.RuneCountInString(codes[j])
		if li != lj {
			return li > lj
		}
		return codes[i] < codes[j]
	})
}

type symbolMasterMeta struct {
	Keys []string `json:"keys"`
}

type symbolMasterJSON struct {
	Dict            map[string]map[string]string `json:"dict"`
	Meta            map[string]symbolMasterMeta  `json:"meta"`
	Spec            []CategorySpec               `json:"spec"`
	MachinesByBooth map[string]string            `json:"machines_by_booth"`
}

// MarshalJSON 输出 symbol_master.json 格式
func (m *SymbolMaster) MarshalJSON() ([]byte, error) {
	out := symbolMasterJSON{
		Dict:            m.Dict,
		Meta:            make(map[string]symbolMasterMeta, len(m.Order)),
		Spec:            m.Specs,
		MachinesByBooth: m.MachinesByBooth,
	}
	for k, keys := range m.Order {
		out.Meta[k] = symbolMasterMeta{Keys: keys}
	}
	return json.Marshal(out)
}

// UnmarshalJSON 读取 symbol_master.json
func (m *SymbolMaster) UnmarshalJSON(data []byte) error {
	var in symbolMasterJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	specs := in.Spec
	if len(specs) == 0 {
		specs = DefaultCategorySpecs()
	}
	*m = *NewSymbolMaster(specs)
	for k, dict := range in.Dict {
		m.Dict[k] = dict
	}
	for k, meta := range in.Meta {
		m.Order[k] = meta.Keys
	}
	// 旧快照没有 meta 时按规则补齐
	for k, dict := range m.Dict {
		if len(m.Order[k]) == len(dict) {
			continue
		}
		keys := make([]string, 0, len(dict))
		for code := range dict {
			keys = append(keys, code)
		}
		SortCodes(keys)
		m.Order[k] = keys
	}
	for k, v := range in.MachinesByBooth {
		m.MachinesByBooth[k] = v
	}
	return nil
}
