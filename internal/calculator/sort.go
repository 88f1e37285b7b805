package calculator

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"clawboard/internal/model"
)

// SortKey 分组排序字段
type SortKey string

const (
	SortBySales        SortKey = "sales"
	SortByClaw         SortKey = "claw"
	SortByCostRate     SortKey = "cost_rate"
	SortByMachineCount SortKey = "machine_count"
	SortByBoothCount   SortKey = "booth_count"
	SortByPlays        SortKey = "plays"
	SortByKey          SortKey = "key"
)

// SortSpec 分组排序配置
type SortSpec struct {
	Key  SortKey
	Desc bool
}

// SortItems 分组排序；数值相同时按日文排序规则比较分组名，方向与主键一致
func SortItems(items []model.CompositionItem, spec SortSpec) {
	col := collate.New(language.Japanese)
	dir := 1
	if spec.Desc {
		dir = -1
	}
	sort.SliceStable(items, func(i, j int) bool {
		if spec.Key != SortByKey {
			a, b := itemValue(items[i], spec.Key), itemValue(items[j], spec.Key)
			if a != b {
				return (a < b) == (dir > 0)
			}
		}
		return col.CompareString(items[i].AxisValue, items[j].AxisValue)*dir < 0
	})
}

// itemValue 原价率无定义时按 0 比较
func itemValue(it model.CompositionItem, key SortKey) float64 {
	switch key {
	case SortByClaw:
		return it.Claw
	case SortByCostRate:
		if it.CostRate == nil {
			return 0
		}
		return *it.CostRate
	case SortByMachineCount:
		return float64(it.MachineCount)
	case SortByBoothCount:
		return float64(it.BoothCount)
	case SortByPlays:
		return it.Plays
	}
	return it.Sales
}

// RowSortKey 明细表排序字段
type RowSortKey string

const (
	RowSortSales        RowSortKey = "sales"
	RowSortConsume      RowSortKey = "consume"
	RowSortConsumeCount RowSortKey = "consume_count"
	RowSortCostRate     RowSortKey = "cost_rate"
	RowSortUpdatedAt    RowSortKey = "updated_at"
	RowSortMachine      RowSortKey = "machine"
)

// RowSortSpec 明细表排序配置
type RowSortSpec struct {
	Key  RowSortKey
	Desc bool
}

// SortRows 明细排序（原地、稳定）；字符串字段按日文排序规则
func SortRows(rows []*model.Row, spec RowSortSpec) {
	dir := 1
	if spec.Desc {
		dir = -1
	}

	switch spec.Key {
	case RowSortUpdatedAt, RowSortMachine:
		col := collate.New(language.Japanese)
		str := func(r *model.Row) string {
			if spec.Key == RowSortMachine {
				return r.MachineName
			}
			return r.UpdatedAt
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return col.CompareString(str(rows[i]), str(rows[j]))*dir < 0
		})
	default:
		num := func(r *model.Row) float64 {
			switch spec.Key {
			case RowSortConsume:
				return r.Claw
			case RowSortConsumeCount:
				return r.ConsumeCount
			case RowSortCostRate:
				cr, _ := r.CostRate()
				return cr
			}
			return r.Sales
		}
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := num(rows[i]), num(rows[j])
			if dir > 0 {
				return a < b
			}
			return a > b
		})
	}
}

// UniqueValues 下拉选项：去重、缺失值记为 未分類、按日文排序规则排序
func UniqueValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			v = UnclassifiedLabel
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	collate.New(language.Japanese).SortStrings(out)
	return out
}
