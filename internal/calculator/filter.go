package calculator

import (
	"clawboard/internal/model"
	"clawboard/internal/normalize"
)

// 选择项中表示“不限”的值
const (
	AllClaw  = "全体" // 投入法
	AnyValue = "全て" // 其他分类
)

// Filter 行过滤条件（不可变值，所有条件取交集）
type Filter struct {
	// Machines 规范化后的机台标识集合，空表示全部
	Machines map[string]struct{}

	ClawMethod string // "" 或 全体 表示全部
	Genre      string // 以下 "" 或 全て 表示不限
	SubGenre   string
	Character  string
	Target     string
	Age        string
	PriceBand  string
	Size       string

	// 闭区间；nil 表示不限
	MinSales    *float64
	MaxSales    *float64
	MinCostRate *float64
	MaxCostRate *float64

	// Flags 指定标记必须等于给定值
	Flags map[model.FlagKey]bool
}

// MachineSet 由机台名或标识构造 Machines 集合
func MachineSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if k := normalize.Key(n); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

// Float 便于构造区间条件
func Float(v float64) *float64 {
	return &v
}

// Passes 判断行是否满足全部条件
func Passes(row *model.Row, f Filter) bool {
	if row == nil {
		return false
	}

	if len(f.Machines) > 0 {
		if _, ok := f.Machines[row.MachineKey]; !ok {
			return false
		}
	}

	if f.ClawMethod != "" && f.ClawMethod != AllClaw && row.ClawMethod != f.ClawMethod {
		return false
	}

	exact := []struct{ want, got string }{
		{f.Genre, row.Genre},
		{f.SubGenre, row.SubGenre},
		{f.Character, row.Character},
		{f.Target, row.Target},
		{f.Age, row.Age},
		{f.PriceBand, row.PriceBand},
		{f.Size, row.Size},
	}
	for _, c := range exact {
		if !matchExact(c.want, c.got) {
			return false
		}
	}

	if f.MinSales != nil && row.Sales < *f.MinSales {
		return false
	}
	if f.MaxSales != nil && row.Sales > *f.MaxSales {
		return false
	}

	if f.MinCostRate != nil || f.MaxCostRate != nil {
		cr, ok := row.CostRate()
		if !ok {
			return false
		}
		if f.MinCostRate != nil && cr < *f.MinCostRate {
			return false
		}
		if f.MaxCostRate != nil && cr > *f.MaxCostRate {
			return false
		}
	}

	for k, want := range f.Flags {
		if row.Flags.Get(k) != want {
			return false
		}
	}
	return true
}

// matchExact 缺失值永远不匹配具体的筛选值
func matchExact(want, got string) bool {
	if want == "" || want == AnyValue {
		return true
	}
	return got != "" && got == want
}

// ApplyFilter 返回满足条件的行（保持原顺序）
func ApplyFilter(rows []*model.Row, f Filter) []*model.Row {
	out := make([]*model.Row, 0, len(rows))
	for _, r := range rows {
		if Passes(r, f) {
			out = append(out, r)
		}
	}
	return out
}
