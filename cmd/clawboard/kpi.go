package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"clawboard/internal/calculator"
	"clawboard/internal/exporter"
	"clawboard/internal/model"
	"clawboard/internal/normalize"
	"clawboard/internal/store"
	"clawboard/internal/util"
)

// 输出视图
const (
	viewComposition = "composition" // 构成：缺失值计入 (不明)
	viewDashboard   = "dashboard"   // 看板：整体指标 + 分组（缺失值计入 未分類）
	viewRows        = "rows"        // 明细
	viewValues      = "values"      // 下拉选项
)

type kpiOptions struct {
	dataDir string
	view    string
	axis    string
	format  string
	sortBy  string
	desc    bool
	limit   int

	exclude bool // composition 视图不计缺失值

	machines  []string
	claw      string
	genre     string
	subGenre  string
	character string
	target    string
	age       string
	priceBand string
	size      string
	flags     []string

	minSales, maxSales       float64
	minCostRate, maxCostRate float64
}

var kpiOpts kpiOptions

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "基于快照过滤并聚合",
	Long: `读取 build 生成的 raw/rows.json，按条件过滤后聚合输出。

轴：genre sub_genre target age character character_genre method price_band size
    machine updated_date symbol flag:<reservation|movie|original> category:<分类>
    也可使用日文名（景品ジャンル / 投入法 / 料金帯 ...）`,
	Example: `  clawboard kpi --axis method --genre 食品
  clawboard kpi --view dashboard --axis flag:reservation --format json
  clawboard kpi --view rows --sort cost_rate --desc --limit 20 --min-sales 1000`,
	RunE: runKPI,
}

func init() {
	f := kpiCmd.Flags()
	f.StringVar(&kpiOpts.dataDir, "data", "", "快照目录 (默认配置 output.dir)")
	f.StringVar(&kpiOpts.view, "view", viewComposition, "视图: composition / dashboard / rows / values")
	f.StringVarP(&kpiOpts.axis, "axis", "a", "genre", "聚合轴")
	f.StringVar(&kpiOpts.format, "format", "table", "输出格式: table / json")
	f.StringVar(&kpiOpts.sortBy, "sort", "", "排序字段 (分组: sales/claw/cost_rate/machine_count/booth_count/plays/key；明细: sales/consume/consume_count/cost_rate/updated_at/machine)")
	f.BoolVar(&kpiOpts.desc, "desc", false, "降序")
	f.IntVar(&kpiOpts.limit, "limit", 0, "最多输出行数 (0 不限)")
	f.BoolVar(&kpiOpts.exclude, "exclude-unknown", false, "composition 视图不计入缺失值")

	f.StringSliceVar(&kpiOpts.machines, "machine", nil, "机台名（可多次指定）")
	f.StringVar(&kpiOpts.claw, "claw", "", "投入法 (全体 表示不限)")
	f.StringVar(&kpiOpts.genre, "genre", "", "景品ジャンル")
	f.StringVar(&kpiOpts.subGenre, "sub-genre", "", "サブジャンル")
	f.StringVar(&kpiOpts.character, "character", "", "キャラ / ノンキャラ")
	f.StringVar(&kpiOpts.target, "target", "", "ターゲット")
	f.StringVar(&kpiOpts.age, "age", "", "年代")
	f.StringVar(&kpiOpts.priceBand, "price-band", "", "料金帯")
	f.StringVar(&kpiOpts.size, "size", "", "サイズ")
	f.StringSliceVar(&kpiOpts.flags, "flag", nil, "促销标记条件，如 reservation 或 movie=false")
	f.Float64Var(&kpiOpts.minSales, "min-sales", 0, "売上下限")
	f.Float64Var(&kpiOpts.maxSales, "max-sales", 0, "売上上限")
	f.Float64Var(&kpiOpts.minCostRate, "min-cost-rate", 0, "原価率下限 (0.3 = 30%)")
	f.Float64Var(&kpiOpts.maxCostRate, "max-cost-rate", 0, "原価率上限")
}

func runKPI(cmd *cobra.Command, args []string) error {
	st, err := store.New(normalize.FirstNonEmpty(kpiOpts.dataDir, cfg.Output.Dir))
	if err != nil {
		return err
	}
	rows, err := st.LoadRows()
	if err != nil {
		return fmt.Errorf("读取快照失败（先运行 build）: %w", err)
	}

	filter, err := kpiOpts.buildFilter(cmd.Flags().Changed)
	if err != nil {
		return err
	}
	logger.Debug("kpi", "view", kpiOpts.view, "axis", kpiOpts.axis, "rows", len(rows))
	return kpiOpts.render(cmd.OutOrStdout(), rows, filter)
}

// buildFilter 只有显式给出的区间参数才生效
func (o kpiOptions) buildFilter(changed func(string) bool) (calculator.Filter, error) {
	f := calculator.Filter{
		ClawMethod: o.claw,
		Genre:      o.genre,
		SubGenre:   o.subGenre,
		Character:  o.character,
		Target:     o.target,
		Age:        o.age,
		PriceBand:  o.priceBand,
		Size:       o.size,
	}
	if len(o.machines) > 0 {
		f.Machines = calculator.MachineSet(o.machines...)
	}
	if changed("min-sales") {
		f.MinSales = calculator.Float(o.minSales)
	}
	if changed("max-sales") {
		f.MaxSales = calculator.Float(o.maxSales)
	}
	if changed("min-cost-rate") {
		f.MinCostRate = calculator.Float(o.minCostRate)
	}
	if changed("max-cost-rate") {
		f.MaxCostRate = calculator.Float(o.maxCostRate)
	}

	for _, spec := range o.flags {
		key, val, hasVal := strings.Cut(spec, "=")
		fk := model.FlagKey(strings.ToLower(strings.TrimSpace(key)))
		if !fk.Valid() {
			return f, fmt.Errorf("未知的标记 %q", key)
		}
		want := true
		if hasVal {
			want = normalize.ParseFlag(val)
		}
		if f.Flags == nil {
			f.Flags = make(map[model.FlagKey]bool)
		}
		f.Flags[fk] = want
	}
	return f, nil
}

func (o kpiOptions) render(w io.Writer, rows []*model.Row, f calculator.Filter) error {
	switch o.view {
	case viewComposition:
		axis, err := calculator.ParseAxis(o.axis)
		if err != nil {
			return err
		}
		items, err := calculator.Aggregate(calculator.ApplyFilter(rows, f), axis, calculator.Options{IncludeUnknown: !o.exclude})
		if err != nil {
			return err
		}
		if o.sortBy != "" {
			calculator.SortItems(items, calculator.SortSpec{Key: calculator.SortKey(o.sortBy), Desc: o.desc})
		}
		items = limitItems(items, o.limit)
		if o.format == "json" {
			return writeJSON(w, items)
		}
		return writeItems(w, items)

	case viewDashboard:
		axis, err := calculator.ParseAxis(o.axis)
		if err != nil {
			return err
		}
		d, err := calculator.BuildDashboard(rows, f, axis, calculator.SortSpec{Key: calculator.SortKey(o.sortBy), Desc: o.desc})
		if err != nil {
			return err
		}
		d.Groups = limitItems(d.Groups, o.limit)
		if o.format == "json" {
			return writeJSON(w, d)
		}
		return writeDashboard(w, d)

	case viewRows:
		filtered := calculator.ApplyFilter(rows, f)
		if o.sortBy != "" {
			calculator.SortRows(filtered, calculator.RowSortSpec{Key: calculator.RowSortKey(o.sortBy), Desc: o.desc})
		}
		if o.limit > 0 && len(filtered) > o.limit {
			filtered = filtered[:o.limit]
		}
		if o.format == "json" {
			return writeJSON(w, filtered)
		}
		return writeRows(w, filtered)

	case viewValues:
		axis, err := calculator.ParseAxis(o.axis)
		if err != nil {
			return err
		}
		keyFn := axis.KeyFunc()
		values := make([]string, 0, len(rows))
		for _, r := range rows {
			v, _ := keyFn(r)
			values = append(values, v)
		}
		uniq := calculator.UniqueValues(values)
		if o.format == "json" {
			return writeJSON(w, uniq)
		}
		for _, v := range uniq {
			fmt.Fprintln(w, v)
		}
		return nil
	}
	return fmt.Errorf("未知的视图 %q", o.view)
}

func limitItems(items []model.CompositionItem, limit int) []model.CompositionItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeItems 列与 KPI 工作簿的构成表一致
func writeItems(w io.Writer, items []model.CompositionItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(exporter.CompositionColumns, "\t")+"\t")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			it.AxisValue,
			util.FormatYen(it.Sales),
			util.FormatRatio(it.SalesRatio),
			util.FormatYen(it.Claw),
			util.FormatPercent(it.CostRate),
			util.FormatCount(it.BoothCount),
			util.FormatRatio(it.BoothRatio),
			util.FormatCount(it.MachineCount),
			util.FormatCount(int(it.Plays)),
			util.FormatRatio(it.PlaysRatio),
			util.FormatYenPtr(it.AvgPrice),
		)
	}
	return tw.Flush()
}

func writeDashboard(w io.Writer, d *calculator.Dashboard) error {
	t := d.Totals
	fmt.Fprintf(w, "総売上 %s / 消化額 %s / 原価率 %s / 台数 %s / 台平均 %s\n\n",
		util.FormatYen(t.Sales),
		util.FormatYen(t.Claw),
		util.FormatPercent(t.CostRate),
		util.FormatCount(t.MachineCount),
		util.FormatYenPtr(t.AvgPerMachine),
	)
	for _, g := range d.Indicators {
		fmt.Fprintf(w, "[%s]", g.Name)
		for _, it := range g.Indicators {
			fmt.Fprintf(w, " %s=%s", it.Name, formatIndicator(it))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n軸: %s\n", d.Axis)
	return writeItems(w, d.Groups)
}

func formatIndicator(it calculator.Indicator) string {
	if it.Value == nil {
		return util.Placeholder
	}
	switch it.Unit {
	case "円":
		return util.FormatYen(*it.Value)
	case "%":
		return fmt.Sprintf("%.1f%%", *it.Value)
	}
	return util.FormatCount(int(*it.Value))
}

func writeRows(w io.Writer, rows []*model.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ブースID\tマシン\t景品名\t記号\t売上\t消化額\t原価率\t更新日時")
	for _, r := range rows {
		var rate *float64
		if v, ok := r.CostRate(); ok {
			rate = &v
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.BoothID, r.MachineName, r.ItemName, r.SymbolRaw,
			util.FormatYen(r.Sales), util.FormatYen(r.Claw), util.FormatPercent(rate), r.UpdatedAt)
	}
	return tw.Flush()
}
