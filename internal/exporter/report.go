package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"clawboard/internal/calculator"
	"clawboard/internal/model"
)

const (
	SheetSummary  = "Summary"
	SheetBySymbol = "記号別"
)

// DefaultAxes 报表默认输出的构成轴
var DefaultAxes = []calculator.Axis{
	{Type: calculator.AxisGenre},
	{Type: calculator.AxisMethod},
	{Type: calculator.AxisPriceBand},
	{Type: calculator.AxisTarget},
	{Type: calculator.AxisAge},
	{Type: calculator.AxisCharacter},
	{Type: calculator.AxisFlag, FlagKey: model.FlagReservation},
	{Type: calculator.AxisFlag, FlagKey: model.FlagMovie},
	{Type: calculator.AxisFlag, FlagKey: model.FlagOriginal},
}

// ReportData 报表输入
type ReportData struct {
	UpdatedAt string
	Rows      []*model.Row
	Filter    calculator.Filter
	Axes      []calculator.Axis // 为空时使用 DefaultAxes
}

// CompositionColumns 构成表列（工作簿与命令行表格共用）
var CompositionColumns = []string{
	"分類", "売上", "売上構成比", "消化額", "原価率", "ブース数", "ブース構成比", "台数", "回数", "回数構成比", "平均料金",
}

// WriteReport 生成 KPI 工作簿：Summary + 每个构成轴一张表 + 记号别
func WriteReport(path string, data ReportData, progress func(ProgressEvent)) error {
	axes := data.Axes
	if len(axes) == 0 {
		axes = DefaultAxes
	}
	rows := calculator.ApplyFilter(data.Rows, data.Filter)

	f := excelize.NewFile()
	defer f.Close()

	tracker := reportProgress{fn: progress, sheets: len(axes)}
	tracker.emit(5, StagePrepare, "")
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("重命名 Summary 失败: %w", err)
	}
	indicators := calculator.NewCalculator(data.Rows).CalculateAll(data.Filter)
	if err := writeSummarySheet(f, styles, data.UpdatedAt, calculator.ComputeTotals(rows), indicators); err != nil {
		return err
	}
	tracker.emit(compositionFrom, StageSummary, SheetSummary)

	for i, axis := range axes {
		items, err := calculator.Aggregate(rows, axis, calculator.Options{IncludeUnknown: true})
		if err != nil {
			return fmt.Errorf("聚合 %s 失败: %w", axis, err)
		}
		name := sheetName(axis)
		if err := writeCompositionSheet(f, styles, name, items); err != nil {
			return err
		}
		tracker.composition(i+1, name)
	}

	items, _ := calculator.SymbolRollup(rows, data.UpdatedAt)
	if err := writeBySymbolSheet(f, styles, items); err != nil {
		return err
	}
	tracker.emit(90, StageBySymbol, SheetBySymbol)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存报表失败: %w", err)
	}
	tracker.emit(100, StageSaved, "")
	return nil
}

// sheetName Excel 表名不能含 ':' 且不超过 31 字符
func sheetName(axis calculator.Axis) string {
	var name string
	switch axis.Type {
	case calculator.AxisFlag:
		name = "flag_" + string(axis.FlagKey)
	case calculator.AxisCategory:
		name = "cat_" + axis.Category
	default:
		name = string(axis.Type)
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

type reportStyles struct {
	header  int
	yen     int
	percent int
	count   int
}

func newStyles(f *excelize.File) (reportStyles, error) {
	var s reportStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	}); err != nil {
		return s, fmt.Errorf("创建样式失败: %w", err)
	}
	yenFmt := "¥#,##0"
	if s.yen, err = f.NewStyle(&excelize.Style{CustomNumFmt: &yenFmt}); err != nil {
		return s, fmt.Errorf("创建样式失败: %w", err)
	}
	if s.percent, err = f.NewStyle(&excelize.Style{NumFmt: 10}); err != nil {
		return s, fmt.Errorf("创建样式失败: %w", err)
	}
	if s.count, err = f.NewStyle(&excelize.Style{NumFmt: 3}); err != nil {
		return s, fmt.Errorf("创建样式失败: %w", err)
	}
	return s, nil
}

func writeSummarySheet(f *excelize.File, st reportStyles, updatedAt string, t model.Totals, groups []calculator.IndicatorGroup) error {
	sheet := SheetSummary
	lines := [][]interface{}{
		{"項目", "値"},
		{"更新日時", updatedAt},
		{"ブース数", t.RowCount},
		{"総売上", t.Sales},
		{"消化額", t.Claw},
		{"原価率", optional(t.CostRate)},
		{"台数", t.MachineCount},
		{"台平均売上", optional(t.AvgPerMachine)},
	}
	for _, g := range groups {
		lines = append(lines, []interface{}{})
		lines = append(lines, []interface{}{g.Name})
		for _, it := range g.Indicators {
			lines = append(lines, []interface{}{it.Name, optional(it.Value), it.Unit})
		}
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return fmt.Errorf("写入 %s 失败: %w", sheet, err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", st.header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B4", "B5", st.yen); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B6", "B6", st.percent); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B8", "B8", st.yen); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "A", 20)
}

func writeCompositionSheet(f *excelize.File, st reportStyles, sheet string, items []model.CompositionItem) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("创建 %s 失败: %w", sheet, err)
	}
	header := make([]interface{}, len(CompositionColumns))
	for i, c := range CompositionColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", sheet, err)
	}
	for i, it := range items {
		row := []interface{}{
			it.AxisValue, it.Sales, it.SalesRatio, it.Claw, optional(it.CostRate),
			it.BoothCount, it.BoothRatio, it.MachineCount, it.Plays, it.PlaysRatio, optional(it.AvgPrice),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("写入 %s 失败: %w", sheet, err)
		}
	}
	last := len(items) + 1
	if err := f.SetCellStyle(sheet, "A1", "K1", st.header); err != nil {
		return err
	}
	if last < 2 {
		return nil
	}
	for _, c := range []struct {
		col   string
		style int
	}{
		{"B", st.yen}, {"C", st.percent}, {"D", st.yen}, {"E", st.percent},
		{"G", st.percent}, {"I", st.count}, {"J", st.percent}, {"K", st.yen},
	} {
		if err := f.SetCellStyle(sheet, fmt.Sprintf("%s2", c.col), fmt.Sprintf("%s%d", c.col, last), c.style); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 18)
}

func writeBySymbolSheet(f *excelize.File, st reportStyles, items []model.SymbolAgg) error {
	sheet := SheetBySymbol
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("创建 %s 失败: %w", sheet, err)
	}
	header := []interface{}{"記号", "売上", "消化額", "件数", "原価率"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", sheet, err)
	}
	for i, it := range items {
		row := []interface{}{it.Symbol, it.Sales, it.Claw, it.Count, optional(it.CostRate)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("写入 %s 失败: %w", sheet, err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", st.header); err != nil {
		return err
	}
	if last := len(items) + 1; last >= 2 {
		if err := f.SetCellStyle(sheet, "B2", fmt.Sprintf("C%d", last), st.yen); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "E2", fmt.Sprintf("E%d", last), st.percent); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 24)
}

// optional 无定义的比率写为空单元格
func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
