package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"clawboard/internal/normalize"
)

// ErrEmptyTable 没有表头
var ErrEmptyTable = errors.New("table has no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table 一张表：表头 + 按列名索引的记录
type Table struct {
	Name    string
	Headers []string
	Records []map[string]string
}

// DecodeText 统一为 UTF-8：去除 BOM；不是合法 UTF-8 时按 Shift_JIS 解码（Excel 另存的 CSV）
func DecodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode shift_jis: %w", err)
	}
	return out, nil
}

// ParseCSV 解析 CSV 文本（支持双引号、字段内换行、行长不一致）
func ParseCSV(name string, data []byte) (*Table, error) {
	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", name, err)
		}
		rows = append(rows, rec)
	}
	return NewTable(name, rows)
}

// NewTable 由二维单元格构造表：第一行为表头
// 表头为空的列忽略；全部为空的行丢弃；同名列取第一个非空值
func NewTable(name string, rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyTable)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = normalize.ColumnName(h)
	}

	t := &Table{Name: name, Headers: headers}
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(headers))
		hasValue := false
		for j, key := range headers {
			if key == "" {
				continue
			}
			v := ""
			if j < len(row) {
				v = strings.TrimSpace(row[j])
			}
			if prev, ok := rec[key]; ok && prev != "" {
				continue
			}
			rec[key] = v
			if v != "" {
				hasValue = true
			}
		}
		if hasValue {
			t.Records = append(t.Records, rec)
		}
	}
	return t, nil
}
