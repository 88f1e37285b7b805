package parser

import "time"

// SheetType 表格类型
type SheetType string

const (
	SheetTypeDB      SheetType = "db"     // 展位明细（DB 导出）
	SheetTypeMaster  SheetType = "master" // 记号主表
	SheetTypeUnknown SheetType = "unknown"
)

// SheetRecognitionResult Sheet 识别结果
type SheetRecognitionResult struct {
	SheetName  string    `json:"sheetName"`
	SheetType  SheetType `json:"sheetType"`
	Confidence float64   `json:"confidence"` // 置信度 0-1
}

// ParseResult 解析结果
type ParseResult struct {
	SheetName    string         `json:"sheetName"`
	SheetType    SheetType      `json:"sheetType"`
	Status       string         `json:"status"` // imported/skipped/error
	ImportedRows int            `json:"importedRows"`
	SkippedRows  int            `json:"skippedRows"`
	Strategies   map[string]int `json:"strategies,omitempty"` // 记号解析策略分布
	Undecoded    int            `json:"undecoded"`            // 记号非空但一个分类都没解析出
	Missing      []Field        `json:"missing,omitempty"`    // 表头中找不到的字段
	Errors       []string       `json:"errors,omitempty"`
	Duration     time.Duration  `json:"duration"`
}
