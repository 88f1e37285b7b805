package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"clawboard/internal/calculator"
	"clawboard/internal/exporter"
	"clawboard/internal/logging"
	"clawboard/internal/model"
	"clawboard/internal/parser"
	"clawboard/internal/source"
	"clawboard/internal/store"
	"clawboard/internal/symbol"
)

// ErrNoSources 未配置明细数据源
var ErrNoSources = errors.New("no db source configured")

// 进度事件类型
const (
	EventStart      = "start"
	EventInfo       = "info"
	EventWarning    = "warning"
	EventSheetStart = "sheet_start"
	EventDone       = "done"
	EventError      = "error"
)

// Coordinator 构建协调器：读取来源 → 构建主表 → 解码明细 → 写出快照
type Coordinator struct {
	store      *store.Store
	fetcher    *source.Fetcher
	mapper     *parser.FieldMapper
	recognizer *parser.SheetRecognizer
	logger     *logging.Logger
}

// NewCoordinator 创建协调器；fetcher / mapper / logger 为 nil 时使用默认值
func NewCoordinator(st *store.Store, fetcher *source.Fetcher, mapper *parser.FieldMapper, logger *logging.Logger) *Coordinator {
	if fetcher == nil {
		fetcher = source.NewFetcher(0)
	}
	if mapper == nil {
		mapper = parser.NewFieldMapper(nil)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Coordinator{
		store:      st,
		fetcher:    fetcher,
		mapper:     mapper,
		recognizer: parser.NewSheetRecognizer(),
		logger:     logger,
	}
}

// ImportOptions 构建选项
type ImportOptions struct {
	DBLocation     string // URL 或本地 csv / xlsx
	MasterLocation string // 可为空：此时所有记号都解不出分类
	DBSheet        string // xlsx 时指定 Sheet，空则自动识别
	MasterSheet    string
	ReportPath     string    // 非空时额外生成 KPI 工作簿
	Now            time.Time // 更新时间，零值取当前时间
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/warning/sheet_start/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// ImportReport 一次构建的结果
type ImportReport struct {
	RunID           string             `json:"runId"`
	UpdatedAt       string             `json:"updatedAt"`
	Master          MasterStats        `json:"master"`
	Sheet           parser.ParseResult `json:"sheet"`
	Summary         model.Summary      `json:"summary"`
	Symbols         int                `json:"symbols"`         // 记号别汇总条数
	DistinctSymbols int                `json:"distinctSymbols"` // 实际解码的不同记号串数（含空串）
	ReportPath      string             `json:"reportPath,omitempty"`
	Duration        time.Duration      `json:"duration"`
}

// MasterStats 主表构建统计
type MasterStats struct {
	SheetName string         `json:"sheetName"`
	Records   int            `json:"records"`
	Codes     map[string]int `json:"codes"` // 分类键 → 记号数
	Machines  int            `json:"machines"`
}

// importContext 单次构建的上下文
type importContext struct {
	opts      ImportOptions
	runID     string
	startTime time.Time
	progress  chan<- ProgressEvent
	logger    *logging.Logger
}

// Import 异步执行构建，返回进度通道（完成或失败后关闭）
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		if _, err := c.doImport(ctx, opts, progressChan); err != nil {
			c.sendProgress(progressChan, ProgressEvent{
				Type:      EventError,
				Message:   err.Error(),
				Timestamp: time.Now(),
			})
		}
	}()

	return progressChan
}

// Run 同步执行构建
func (c *Coordinator) Run(ctx context.Context, opts ImportOptions) (*ImportReport, error) {
	return c.doImport(ctx, opts, nil)
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan<- ProgressEvent) (*ImportReport, error) {
	if strings.TrimSpace(opts.DBLocation) == "" {
		return nil, ErrNoSources
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	ic := &importContext{
		opts:      opts,
		runID:     uuid.NewString(),
		startTime: time.Now(),
		progress:  progressChan,
	}
	ic.logger = c.logger.With("run_id", ic.runID)

	c.sendProgress(progressChan, ProgressEvent{
		Type:    EventStart,
		Message: "开始构建",
		Data: map[string]string{
			"run_id": ic.runID,
			"db":     opts.DBLocation,
			"master": opts.MasterLocation,
		},
		Timestamp: time.Now(),
	})

	dbTables, masterTables, err := c.fetchSources(ctx, ic)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{
		RunID:     ic.runID,
		UpdatedAt: now.UTC().Format(time.RFC3339),
	}

	master, stats := c.buildMaster(ic, masterTables)
	report.Master = stats

	dbTable, err := c.selectSheet(ic, parser.SheetTypeDB, dbTables, opts.DBSheet)
	if err != nil {
		return nil, err
	}
	c.sendProgress(progressChan, ProgressEvent{
		Type:      EventSheetStart,
		Message:   fmt.Sprintf("正在解析明细: %s", dbTable.Name),
		Data:      map[string]string{"sheet_name": dbTable.Name},
		Timestamp: time.Now(),
	})

	symbols := symbol.NewParser(master)
	dbParser := parser.NewDBParser(c.mapper, symbols)
	rows, result := dbParser.ParseSheet(dbTable.Name, dbTable.Headers, dbTable.Records)
	report.Sheet = result
	report.DistinctSymbols = symbols.CacheSize()
	if len(result.Missing) > 0 {
		ic.logger.Warn("db columns missing", "fields", result.Missing)
		c.sendProgress(progressChan, ProgressEvent{
			Type:      EventWarning,
			Message:   fmt.Sprintf("明细缺少列: %v", result.Missing),
			Data:      result.Missing,
			Timestamp: time.Now(),
		})
	}
	if result.Undecoded > 0 {
		ic.logger.Warn("undecoded symbols", "count", result.Undecoded)
	}
	ic.logger.Info("db parsed",
		"sheet", dbTable.Name,
		"rows", result.ImportedRows,
		"skipped", result.SkippedRows,
		"strategies", result.Strategies,
		"distinct_symbols", report.DistinctSymbols,
	)

	totals := calculator.ComputeTotals(rows)
	report.Summary = model.Summary{
		RunID:        ic.runID,
		UpdatedAt:    report.UpdatedAt,
		RowCount:     totals.RowCount,
		TotalSales:   totals.Sales,
		TotalClaw:    totals.Claw,
		CostRate:     totals.CostRate,
		MachineCount: totals.MachineCount,
	}
	bySymbol, aggSummary := calculator.SymbolRollup(rows, report.UpdatedAt)
	report.Symbols = len(bySymbol)

	if err := c.save(rows, report.Summary, master, bySymbol, aggSummary); err != nil {
		return nil, err
	}
	c.sendProgress(progressChan, ProgressEvent{
		Type:      EventInfo,
		Message:   fmt.Sprintf("已写出 %d 行快照到 %s", len(rows), c.store.Dir()),
		Timestamp: time.Now(),
	})

	if opts.ReportPath != "" {
		err := exporter.WriteReport(opts.ReportPath, exporter.ReportData{
			UpdatedAt: report.UpdatedAt,
			Rows:      rows,
		}, func(e exporter.ProgressEvent) {
			c.sendProgress(progressChan, ProgressEvent{
				Type:      EventInfo,
				Message:   fmt.Sprintf("报表 %d%% %s", e.Percent, e.Label()),
				Data:      e,
				Timestamp: time.Now(),
			})
		})
		if err != nil {
			return nil, fmt.Errorf("生成报表失败: %w", err)
		}
		report.ReportPath = opts.ReportPath
	}

	report.Duration = time.Since(ic.startTime)
	ic.logger.Info("build done",
		"rows", report.Summary.RowCount,
		"total_sales", report.Summary.TotalSales,
		"machines", report.Summary.MachineCount,
		"duration", report.Duration,
	)

	c.sendProgress(progressChan, ProgressEvent{
		Type:      EventDone,
		Message:   "构建完成",
		Data:      report,
		Timestamp: time.Now(),
	})
	return report, nil
}

// fetchSources 并发读取明细与主表
func (c *Coordinator) fetchSources(ctx context.Context, ic *importContext) ([]*source.Table, []*source.Table, error) {
	var dbTables, masterTables []*source.Table

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tables, err := c.fetcher.Load(gctx, ic.opts.DBLocation)
		if err != nil {
			return fmt.Errorf("读取明细失败: %w", err)
		}
		dbTables = tables
		return nil
	})
	if strings.TrimSpace(ic.opts.MasterLocation) != "" {
		g.Go(func() error {
			tables, err := c.fetcher.Load(gctx, ic.opts.MasterLocation)
			if err != nil {
				return fmt.Errorf("读取记号主表失败: %w", err)
			}
			masterTables = tables
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	c.sendProgress(ic.progress, ProgressEvent{
		Type:    EventInfo,
		Message: fmt.Sprintf("读取完成: 明细 %d 张表, 主表 %d 张表", len(dbTables), len(masterTables)),
		Data: map[string]interface{}{
			"db_tables":     len(dbTables),
			"master_tables": len(masterTables),
		},
		Timestamp: time.Now(),
	})
	return dbTables, masterTables, nil
}

// buildMaster 构建记号主表；没有主表来源时返回空主表
func (c *Coordinator) buildMaster(ic *importContext, tables []*source.Table) (*model.SymbolMaster, MasterStats) {
	stats := MasterStats{Codes: map[string]int{}}
	if len(tables) == 0 {
		ic.logger.Warn("no symbol master; all categories will be unmatched")
		c.sendProgress(ic.progress, ProgressEvent{
			Type:      EventWarning,
			Message:   "未配置记号主表，所有分类都无法解析",
			Timestamp: time.Now(),
		})
		return symbol.BuildMaster(nil, nil), stats
	}

	t, err := c.selectSheet(ic, parser.SheetTypeMaster, tables, ic.opts.MasterSheet)
	if err != nil {
		ic.logger.Warn("master sheet not found", "error", err)
		return symbol.BuildMaster(nil, nil), stats
	}
	c.sendProgress(ic.progress, ProgressEvent{
		Type:      EventSheetStart,
		Message:   fmt.Sprintf("正在构建记号主表: %s", t.Name),
		Data:      map[string]string{"sheet_name": t.Name},
		Timestamp: time.Now(),
	})

	master := symbol.BuildMaster(t.Records, nil)
	stats.SheetName = t.Name
	stats.Records = len(t.Records)
	for _, spec := range master.Specs {
		stats.Codes[spec.Key] = len(master.Dict[spec.Key])
	}
	stats.Machines = len(master.MachinesByBooth)
	ic.logger.Info("symbol master built", "sheet", t.Name, "records", stats.Records, "machines", stats.Machines)
	return master, stats
}

// selectSheet 选出指定类型的表：单表直接使用；指定了名称则按名称；否则按表头识别
func (c *Coordinator) selectSheet(ic *importContext, want parser.SheetType, tables []*source.Table, name string) (*source.Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("%s: %w", want, source.ErrEmptyTable)
	}
	if name = strings.TrimSpace(name); name != "" {
		for _, t := range tables {
			if t.Name == name {
				return t, nil
			}
		}
		return nil, fmt.Errorf("sheet %q not found", name)
	}
	if len(tables) == 1 {
		return tables[0], nil
	}

	headers := make(map[string][]string, len(tables))
	order := make([]string, 0, len(tables))
	byName := make(map[string]*source.Table, len(tables))
	for _, t := range tables {
		headers[t.Name] = t.Headers
		order = append(order, t.Name)
		byName[t.Name] = t
	}
	if picked, ok := c.recognizer.Pick(want, headers, order); ok {
		c.sendProgress(ic.progress, ProgressEvent{
			Type:    EventInfo,
			Message: fmt.Sprintf("Sheet \"%s\" 识别为: %s", picked, want),
			Data: map[string]interface{}{
				"sheet_name": picked,
				"sheet_type": want,
			},
			Timestamp: time.Now(),
		})
		return byName[picked], nil
	}
	ic.logger.Warn("sheet not recognized, using first", "want", want, "sheet", tables[0].Name)
	return tables[0], nil
}

// save 写出全部快照
func (c *Coordinator) save(rows []*model.Row, summary model.Summary, master *model.SymbolMaster, bySymbol []model.SymbolAgg, aggSummary model.AggSummary) error {
	if err := c.store.SaveRows(rows); err != nil {
		return err
	}
	if err := c.store.SaveSummary(summary); err != nil {
		return err
	}
	if err := c.store.SaveMaster(master); err != nil {
		return err
	}
	return c.store.SaveBySymbol(bySymbol, aggSummary)
}

// sendProgress 发送进度事件；未订阅时忽略
func (c *Coordinator) sendProgress(progressChan chan<- ProgressEvent, event ProgressEvent) {
	if progressChan == nil {
		return
	}
	progressChan <- event
}
