package parser

import (
	"strings"

	"clawboard/internal/normalize"
)

// 识别所需的最低置信度
const minConfidence = 0.5

// SheetRecognizer Sheet 类型识别器
type SheetRecognizer struct{}

// NewSheetRecognizer 创建识别器
func NewSheetRecognizer() *SheetRecognizer {
	return &SheetRecognizer{}
}

// Recognize 识别 Sheet 类型
func (r *SheetRecognizer) Recognize(sheetName string, columnNames []string) SheetRecognitionResult {
	normalized := make([]string, len(columnNames))
	for i, col := range columnNames {
		normalized[i] = normalize.ColumnName(col)
	}

	master := r.recognizeMaster(sheetName, normalized)
	db := r.recognizeDB(sheetName, normalized)

	switch {
	case master.Confidence >= minConfidence && master.Confidence >= db.Confidence:
		return master
	case db.Confidence >= minConfidence:
		return db
	}

	return SheetRecognitionResult{
		SheetName:  sheetName,
		SheetType:  SheetTypeUnknown,
		Confidence: 0,
	}
}

// Pick 从多个 Sheet 中选出指定类型置信度最高的一个
func (r *SheetRecognizer) Pick(want SheetType, headersBySheet map[string][]string, order []string) (string, bool) {
	best := ""
	bestConf := 0.0
	for _, name := range order {
		res := r.Recognize(name, headersBySheet[name])
		if res.SheetType == want && res.Confidence > bestConf {
			best, bestConf = name, res.Confidence
		}
	}
	return best, best != ""
}

// recognizeMaster 识别记号主表：以“～記号”列为主要特征
func (r *SheetRecognizer) recognizeMaster(sheetName string, columns []string) SheetRecognitionResult {
	keyFields := []string{
		`^料金記号$`,
		`^回数記号$`,
		`^投入法記号$`,
		`^景品ジャンル記号$`,
		`^ターゲット記号$`,
		`^年代記号$`,
		`^キャラ記号$`,
		`記号$`,
	}
	confidence := matchRatio(columns, keyFields)

	if normalize.ContainsAny(sheetName, "マスタ", "master", "記号") {
		confidence += 0.2
	}
	return SheetRecognitionResult{
		SheetName:  sheetName,
		SheetType:  SheetTypeMaster,
		Confidence: clamp01(confidence),
	}
}

// recognizeDB 识别展位明细表
func (r *SheetRecognizer) recognizeDB(sheetName string, columns []string) SheetRecognitionResult {
	keyFields := []string{
		`^(記号|symbol|記号ID)$`,
		`^(総売上|総売り上げ|売上|売上合計|sales)$`,
		`^(消化額|消化金額|原価|claw)$`,
		`ブースID|booth_id`,
		`^(景品名|item_name)$`,
		`^(消化数|消化回数)$`,
	}
	confidence := matchRatio(columns, keyFields)

	lower := strings.ToLower(sheetName)
	if strings.Contains(lower, "db") || strings.Contains(sheetName, "売上") {
		confidence += 0.1
	}
	return SheetRecognitionResult{
		SheetName:  sheetName,
		SheetType:  SheetTypeDB,
		Confidence: clamp01(confidence),
	}
}

func matchRatio(columns, patterns []string) float64 {
	if len(patterns) == 0 {
		return 0
	}
	matchCount := 0
	for _, p := range patterns {
		for _, col := range columns {
			if MatchPattern(col, p) {
				matchCount++
				break
			}
		}
	}
	return float64(matchCount) / float64(len(patterns))
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
