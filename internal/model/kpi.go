package model

// CompositionItem 按轴分组的汇总结果（构成KPI / 轴KPI 共用）
// 比率均相对于进入聚合的（过滤后）行集合
type CompositionItem struct {
	AxisType     string         `json:"axis_type"`
	AxisValue    string         `json:"axis_value"`
	Sales        float64        `json:"sales"`
	SalesRatio   float64        `json:"sales_ratio"`
	Claw         float64        `json:"claw"`
	CostRate     *float64       `json:"cost_rate"`
	BoothCount   int            `json:"booth_count"`
	BoothRatio   float64        `json:"booth_ratio"`
	Plays        float64        `json:"plays"`
	PlaysRatio   float64        `json:"plays_ratio"`
	AvgPrice     *float64       `json:"avg_price"` // 平均料金，回数为 0 时为 null
	MachineCount int            `json:"machine_count"`
	PriceBands   map[string]int `json:"price_bands,omitempty"`
}

// Totals 过滤后行集合的整体指标
type Totals struct {
	RowCount      int      `json:"row_count"`
	Sales         float64  `json:"total_sales"`
	Claw          float64  `json:"total_claw"`
	Plays         float64  `json:"total_plays"`
	CostRate      *float64 `json:"cost_rate"`
	MachineCount  int      `json:"machine_count"`
	AvgPerMachine *float64 `json:"avg_per_machine"`
}

// Summary raw/summary.json
type Summary struct {
	RunID        string   `json:"run_id,omitempty"`
	UpdatedAt    string   `json:"updated_at"`
	RowCount     int      `json:"row_count"`
	TotalSales   float64  `json:"total_sales"`
	TotalClaw    float64  `json:"total_claw"`
	CostRate     *float64 `json:"cost_rate"`
	MachineCount int      `json:"machine_count"`
}

// SymbolAgg agg/by_symbol.json 的一项（按原始记号汇总）
type SymbolAgg struct {
	Symbol   string   `json:"symbol"`
	Sales    float64  `json:"sales"`
	Claw     float64  `json:"claw"`
	Count    int      `json:"count"`
	CostRate *float64 `json:"cost_rate"`
}

// AggSummary agg/summary.json
type AggSummary struct {
	UpdatedAt  string   `json:"updated_at"`
	TotalSales float64  `json:"total_sales"`
	TotalClaw  float64  `json:"total_claw"`
	CostRate   *float64 `json:"cost_rate"`
}
