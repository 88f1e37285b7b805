package calculator

import (
	"strings"

	"clawboard/internal/model"
)

// ComputeTotals 行集合的整体指标
func ComputeTotals(rows []*model.Row) model.Totals {
	var t model.Totals
	machines := make(map[string]struct{})
	for _, r := range rows {
		if r == nil {
			continue
		}
		t.RowCount++
		t.Sales += r.Sales
		t.Claw += r.Claw
		t.Plays += r.Plays
		if r.MachineKey != "" {
			machines[r.MachineKey] = struct{}{}
		}
	}
	t.MachineCount = len(machines)
	t.CostRate = costRatePtr(t.Sales, t.Claw)
	if t.MachineCount > 0 {
		avg := t.Sales / float64(t.MachineCount)
		t.AvgPerMachine = &avg
	}
	return t
}

// Dashboard 看板一次渲染所需的数据
type Dashboard struct {
	Totals     model.Totals            `json:"totals"`
	Axis       string                  `json:"axis"`
	Groups     []model.CompositionItem `json:"groups"`
	Indicators []IndicatorGroup        `json:"indicators,omitempty"`
}

// BuildDashboard 过滤 → 整体指标 → 轴分组
// 轴分组保留缺失值（记为 未分類），与下拉选项一致
func BuildDashboard(rows []*model.Row, f Filter, axis Axis, spec SortSpec) (*Dashboard, error) {
	filtered := ApplyFilter(rows, f)

	groups, err := Aggregate(filtered, axis, Options{IncludeUnknown: true, UnknownLabel: UnclassifiedLabel})
	if err != nil {
		return nil, err
	}
	if spec.Key != "" {
		SortItems(groups, spec)
	}

	return &Dashboard{
		Totals:     ComputeTotals(filtered),
		Axis:       axis.String(),
		Groups:     groups,
		Indicators: NewCalculator(rows).CalculateAll(f),
	}, nil
}

// SymbolRollup 按原始记号汇总（agg/by_symbol.json 与 agg/summary.json）
func SymbolRollup(rows []*model.Row, updatedAt string) ([]model.SymbolAgg, model.AggSummary) {
	items := AggregateBy(rows, string(AxisSymbol), func(r *model.Row) (string, bool) {
		s := strings.TrimSpace(r.SymbolRaw)
		return s, s != ""
	}, Options{IncludeUnknown: true, UnknownLabel: UnsetSymbolLabel})

	out := make([]model.SymbolAgg, 0, len(items))
	for _, it := range items {
		out = append(out, model.SymbolAgg{
			Symbol:   it.AxisValue,
			Sales:    it.Sales,
			Claw:     it.Claw,
			Count:    it.BoothCount,
			CostRate: it.CostRate,
		})
	}

	totals := ComputeTotals(rows)
	return out, model.AggSummary{
		UpdatedAt:  updatedAt,
		TotalSales: totals.Sales,
		TotalClaw:  totals.Claw,
		CostRate:   totals.CostRate,
	}
}
