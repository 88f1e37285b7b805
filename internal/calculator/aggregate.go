package calculator

import (
	"sort"

	"clawboard/internal/model"
)

// 未知桶的默认标签
const (
	UnknownLabel      = "(不明)"
	UnsetSymbolLabel  = "(未設定)"
	UnclassifiedLabel = "未分類"
)

// Options 聚合选项
type Options struct {
	// IncludeUnknown 为 true 时缺失值归入 UnknownLabel 桶，否则该行不参与聚合
	IncludeUnknown bool
	UnknownLabel   string
}

type bucket struct {
	sales    float64
	claw     float64
	plays    float64
	booths   int
	machines map[string]struct{}
	bands    map[string]int
}

// Aggregate 按轴分组汇总
//
// 比率的分母是实际进入聚合的行（过滤后，且不含被排除的缺失行），
// 输出按销售额降序，相同销售额保持首次出现顺序。
func Aggregate(rows []*model.Row, axis Axis, opts Options) ([]model.CompositionItem, error) {
	if err := axis.Validate(); err != nil {
		return nil, err
	}
	return AggregateBy(rows, axis.String(), axis.KeyFunc(), opts), nil
}

// AggregateBy 通用分组汇总，keyFn 决定每行归入哪个组
func AggregateBy(rows []*model.Row, axisType string, keyFn func(*model.Row) (string, bool), opts Options) []model.CompositionItem {
	unknown := opts.UnknownLabel
	if unknown == "" {
		unknown = UnknownLabel
	}

	buckets := make(map[string]*bucket)
	var keys []string
	var totalSales, totalPlays float64
	totalBooths := 0

	for _, r := range rows {
		if r == nil {
			continue
		}
		key, ok := keyFn(r)
		if !ok {
			if !opts.IncludeUnknown {
				continue
			}
			key = unknown
		}

		b, exists := buckets[key]
		if !exists {
			b = &bucket{
				machines: make(map[string]struct{}),
				bands:    make(map[string]int),
			}
			buckets[key] = b
			keys = append(keys, key)
		}

		b.sales += r.Sales
		b.claw += r.Claw
		b.plays += r.Plays
		b.booths++
		if r.MachineKey != "" {
			b.machines[r.MachineKey] = struct{}{}
		}
		if r.PriceBand != "" {
			b.bands[r.PriceBand]++
		}

		totalSales += r.Sales
		totalPlays += r.Plays
		totalBooths++
	}

	items := make([]model.CompositionItem, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		item := model.CompositionItem{
			AxisType:     axisType,
			AxisValue:    key,
			Sales:        b.sales,
			SalesRatio:   ratio(b.sales, totalSales),
			Claw:         b.claw,
			CostRate:     costRatePtr(b.sales, b.claw),
			BoothCount:   b.booths,
			BoothRatio:   ratio(float64(b.booths), float64(totalBooths)),
			Plays:        b.plays,
			PlaysRatio:   ratio(b.plays, totalPlays),
			MachineCount: len(b.machines),
		}
		if b.plays > 0 {
			avg := b.sales / b.plays
			item.AvgPrice = &avg
		}
		if len(b.bands) > 0 {
			item.PriceBands = b.bands
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Sales > items[j].Sales
	})
	return items
}

func ratio(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total
}

func costRatePtr(sales, claw float64) *float64 {
	cr, ok := model.CostRate(sales, claw)
	if !ok {
		return nil
	}
	return &cr
}
