package symbol

import (
	"clawboard/internal/model"
	"clawboard/internal/normalize"
)

// 主表中ブース → マシン对应关系的列名候选
var (
	boothColumns   = []string{"ブースID", "マシン名（ブースID）", "booth_id", "boothId"}
	machineColumns = []string{"対応マシン名", "対応マシン", "machine_name", "machine"}
)

// BuildMaster 从主表记录构建记号字典
//
// 每条记录按分类定义取“记号列 / 名称列”，两者都非空才登记；同一记号先出现者优先。
// 字典为空的分类合法，只是永远不会命中。
func BuildMaster(records []map[string]string, specs []model.CategorySpec) *model.SymbolMaster {
	if len(specs) == 0 {
		specs = model.DefaultCategorySpecs()
	}
	m := model.NewSymbolMaster(specs)

	for _, rec := range records {
		for _, spec := range specs {
			code := pick(rec, spec.CodeColumns)
			label := pick(rec, spec.LabelColumns)
			if code == "" || label == "" {
				continue
			}
			dict := m.Dict[spec.Key]
			if _, exists := dict[code]; exists {
				continue
			}
			dict[code] = label
		}

		booth := pick(rec, boothColumns)
		machine := pick(rec, machineColumns)
		if booth == "" || machine == "" {
			continue
		}
		key := normalize.Key(booth)
		if _, exists := m.MachinesByBooth[key]; !exists {
			m.MachinesByBooth[key] = machine
		}
	}

	for _, spec := range specs {
		dict := m.Dict[spec.Key]
		codes := make([]string, 0, len(dict))
		for code := range dict {
			codes = append(codes, code)
		}
		model.SortCodes(codes)
		m.Order[spec.Key] = codes
	}
	return m
}

// pick 按候选列名顺序取第一个非空值
func pick(rec map[string]string, columns []string) string {
	for _, col := range columns {
		if v := normalize.Text(rec[col]); v != "" {
			return v
		}
	}
	return ""
}
