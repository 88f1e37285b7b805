package calculator

import (
	"clawboard/internal/model"
)

// Indicator 指标定义
type Indicator struct {
	ID    string   `json:"id"`    // 指标ID
	Name  string   `json:"name"`  // 指标名称
	Value *float64 `json:"value"` // 指标值，无定义时为 null
	Unit  string   `json:"unit"`  // 单位 (如 円、%、台)
}

// IndicatorGroup 指标分组
type IndicatorGroup struct {
	Name       string      `json:"name"`       // 分组名称
	Indicators []Indicator `json:"indicators"` // 指标列表
}

// Calculator 看板指标计算器（基于一次刷新后的全部行）
type Calculator struct {
	rows []*model.Row
}

// NewCalculator 创建计算器
func NewCalculator(rows []*model.Row) *Calculator {
	return &Calculator{rows: rows}
}

// CalculateAll 计算过滤后的看板指标卡
func (c *Calculator) CalculateAll(f Filter) []IndicatorGroup {
	filtered := ApplyFilter(c.rows, f)
	totals := ComputeTotals(filtered)

	return []IndicatorGroup{
		{
			Name:       "売上",
			Indicators: c.calculateSales(totals),
		},
		{
			Name:       "稼働",
			Indicators: c.calculateMachines(totals),
		},
		{
			Name:       "販促",
			Indicators: c.calculateFlagShares(filtered, totals),
		},
	}
}

// calculateSales 総売上 / 消化額 / 原価率
func (c *Calculator) calculateSales(t model.Totals) []Indicator {
	return []Indicator{
		{ID: "total_sales", Name: "総売上", Value: floatPtr(t.Sales), Unit: "円"},
		{ID: "total_claw", Name: "消化額", Value: floatPtr(t.Claw), Unit: "円"},
		{ID: "cost_rate", Name: "原価率", Value: percentPtr(t.CostRate), Unit: "%"},
	}
}

// calculateMachines 台数 / 台平均売上 / ブース数
func (c *Calculator) calculateMachines(t model.Totals) []Indicator {
	return []Indicator{
		{ID: "machine_count", Name: "台数", Value: floatPtr(float64(t.MachineCount)), Unit: "台"},
		{ID: "avg_per_machine", Name: "台平均売上", Value: t.AvgPerMachine, Unit: "円"},
		{ID: "booth_count", Name: "ブース数", Value: floatPtr(float64(t.RowCount)), Unit: "件"},
	}
}

// calculateFlagShares 各促销标记的销售额占比
func (c *Calculator) calculateFlagShares(rows []*model.Row, t model.Totals) []Indicator {
	names := map[model.FlagKey]string{
		model.FlagReservation: "予約景品売上比",
		model.FlagMovie:       "映画関連売上比",
		model.FlagOriginal:    "オリジナル売上比",
	}

	out := make([]Indicator, 0, len(model.AllFlags))
	for _, flag := range model.AllFlags {
		ind := Indicator{ID: string(flag) + "_sales_ratio", Name: names[flag], Unit: "%"}
		if t.Sales > 0 {
			var on float64
			for _, r := range rows {
				if r.Flags.Get(flag) {
					on += r.Sales
				}
			}
			ind.Value = floatPtr(on / t.Sales * 100)
		}
		out = append(out, ind)
	}
	return out
}

func floatPtr(v float64) *float64 {
	return &v
}

func percentPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return floatPtr(*v * 100)
}
