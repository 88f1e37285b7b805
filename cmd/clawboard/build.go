package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clawboard/internal/importer"
	"clawboard/internal/normalize"
	"clawboard/internal/parser"
	"clawboard/internal/source"
	"clawboard/internal/store"
	"clawboard/internal/util"
)

var buildOpts struct {
	db          string
	master      string
	dbSheet     string
	masterSheet string
	outDir      string
	report      string
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "读取数据源并生成看板快照",
	Long: `读取展位明细与记号主表（URL 或本地 csv / xlsx），解码记号后写出：

  raw/rows.json  raw/summary.json  master/symbol_master.json
  agg/by_symbol.json  agg/summary.json

指定 --report 时额外生成 KPI 工作簿。`,
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVar(&buildOpts.db, "db", "", "明细来源 (覆盖配置 source.db_url)")
	f.StringVar(&buildOpts.master, "master", "", "记号主表来源 (覆盖配置 source.master_url)")
	f.StringVar(&buildOpts.dbSheet, "db-sheet", "", "xlsx 中的明细 Sheet 名")
	f.StringVar(&buildOpts.masterSheet, "master-sheet", "", "xlsx 中的主表 Sheet 名")
	f.StringVarP(&buildOpts.outDir, "out", "o", "", "输出目录 (覆盖配置 output.dir)")
	f.StringVar(&buildOpts.report, "report", "", "KPI 工作簿路径 (覆盖配置 output.report_path)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts := importer.ImportOptions{
		DBLocation:     normalize.FirstNonEmpty(buildOpts.db, cfg.Source.DBURL),
		MasterLocation: normalize.FirstNonEmpty(buildOpts.master, cfg.Source.MasterURL),
		DBSheet:        normalize.FirstNonEmpty(buildOpts.dbSheet, cfg.Source.DBSheet),
		MasterSheet:    normalize.FirstNonEmpty(buildOpts.masterSheet, cfg.Source.MasterSheet),
		ReportPath:     normalize.FirstNonEmpty(buildOpts.report, cfg.Output.ReportPath),
	}
	outDir := normalize.FirstNonEmpty(buildOpts.outDir, cfg.Output.Dir)

	st, err := store.New(outDir)
	if err != nil {
		return err
	}
	coordinator := importer.NewCoordinator(st, source.NewFetcher(cfg.Timeout()), parser.NewFieldMapper(cfg.Aliases), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var report *importer.ImportReport
	for evt := range coordinator.Import(ctx, opts) {
		switch evt.Type {
		case importer.EventError:
			return errors.New(evt.Message)
		case importer.EventWarning:
			fmt.Fprintf(out, "⚠ %s\n", evt.Message)
		case importer.EventDone:
			report, _ = evt.Data.(*importer.ImportReport)
		default:
			fmt.Fprintf(out, "• %s\n", evt.Message)
		}
	}
	if report == nil {
		return errors.New("构建未完成")
	}

	s := report.Summary
	fmt.Fprintln(out, "==========================================")
	fmt.Fprintf(out, "  更新时间: %s\n", s.UpdatedAt)
	fmt.Fprintf(out, "  行数:     %s\n", util.FormatCount(s.RowCount))
	fmt.Fprintf(out, "  総売上:   %s\n", util.FormatYen(s.TotalSales))
	fmt.Fprintf(out, "  消化額:   %s\n", util.FormatYen(s.TotalClaw))
	fmt.Fprintf(out, "  原価率:   %s\n", util.FormatPercent(s.CostRate))
	fmt.Fprintf(out, "  台数:     %s\n", util.FormatCount(s.MachineCount))
	fmt.Fprintf(out, "  记号串:   %s\n", util.FormatCount(report.DistinctSymbols))
	fmt.Fprintf(out, "  输出目录: %s\n", st.Dir())
	if report.ReportPath != "" {
		fmt.Fprintf(out, "  KPI 报表: %s\n", report.ReportPath)
	}
	fmt.Fprintln(out, "==========================================")
	return nil
}
