package exporter

// ReportStage 工作簿生成阶段
type ReportStage string

const (
	StagePrepare     ReportStage = "prepare"
	StageSummary     ReportStage = "summary"
	StageComposition ReportStage = "composition"
	StageBySymbol    ReportStage = "by_symbol"
	StageSaved       ReportStage = "saved"
)

var stageLabels = map[ReportStage]string{
	StagePrepare:     "准备报表",
	StageSummary:     "指标汇总",
	StageComposition: "构成表",
	StageBySymbol:    "记号别汇总",
	StageSaved:       "已保存",
}

// ProgressEvent 报表进度；Sheet 为刚写完的工作表
type ProgressEvent struct {
	Percent int         `json:"percent"`
	Stage   ReportStage `json:"stage"`
	Sheet   string      `json:"sheet,omitempty"`
}

// Label 进度描述：阶段名，有工作表时附上表名
func (e ProgressEvent) Label() string {
	label, ok := stageLabels[e.Stage]
	if !ok {
		label = string(e.Stage)
	}
	if e.Sheet != "" {
		return label + " " + e.Sheet
	}
	return label
}

// 构成表占 20%..80%
const (
	compositionFrom = 20
	compositionSpan = 60
)

// reportProgress 按阶段推进进度；fn 为 nil 时不回调
type reportProgress struct {
	fn     func(ProgressEvent)
	sheets int // 构成表数量
}

func (p reportProgress) emit(percent int, stage ReportStage, sheet string) {
	if p.fn == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	p.fn(ProgressEvent{Percent: percent, Stage: stage, Sheet: sheet})
}

// composition 第 done 张构成表写完
func (p reportProgress) composition(done int, sheet string) {
	percent := compositionFrom + compositionSpan
	if p.sheets > 0 {
		percent = compositionFrom + compositionSpan*done/p.sheets
	}
	p.emit(percent, StageComposition, sheet)
}
