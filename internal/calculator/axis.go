package calculator

import (
	"errors"
	"fmt"
	"strings"

	"clawboard/internal/model"
)

var (
	// ErrFlagKeyRequired 按促销标记聚合却没有指定是哪一个标记
	ErrFlagKeyRequired = errors.New("flag axis requires a flag key")
	// ErrUnknownAxis 不支持的聚合轴
	ErrUnknownAxis = errors.New("unknown aggregation axis")
)

// AxisType 聚合轴类型
type AxisType string

const (
	AxisGenre          AxisType = "genre"
	AxisSubGenre       AxisType = "sub_genre"
	AxisTarget         AxisType = "target"
	AxisAge            AxisType = "age"
	AxisCharacter      AxisType = "character"
	AxisCharacterGenre AxisType = "character_genre"
	AxisMethod         AxisType = "method"
	AxisPriceBand      AxisType = "price_band"
	AxisSize           AxisType = "size"
	AxisMachine        AxisType = "machine"
	AxisUpdatedDate    AxisType = "updated_date"
	AxisSymbol         AxisType = "symbol"
	AxisCategory       AxisType = "category" // 任意解码分类，Category 指定分类键
	AxisFlag           AxisType = "flag"     // 促销标记，FlagKey 指定标记
)

// Axis 聚合轴（不可变值）
type Axis struct {
	Type     AxisType
	FlagKey  model.FlagKey
	Category string
}

// 看板上使用的日文轴名
var axisAliases = map[string]AxisType{
	"景品ジャンル":  AxisGenre,
	"ジャンル":    AxisGenre,
	"サブジャンル":  AxisSubGenre,
	"ターゲット":   AxisTarget,
	"性別":      AxisTarget,
	"年代":      AxisAge,
	"キャラ":     AxisCharacter,
	"キャラジャンル": AxisCharacterGenre,
	"投入法":     AxisMethod,
	"料金帯":     AxisPriceBand,
	"サイズ":     AxisSize,
	"マシン":     AxisMachine,
	"更新日":     AxisUpdatedDate,
	"記号":      AxisSymbol,
}

// ParseAxis 解析轴名：genre / flag:reservation / category:年代 / 景品ジャンル 等
func ParseAxis(s string) (Axis, error) {
	s = strings.TrimSpace(s)
	name, arg, _ := strings.Cut(s, ":")

	if t, ok := axisAliases[name]; ok && arg == "" {
		return Axis{Type: t}, nil
	}

	t := AxisType(strings.ToLower(name))
	axis := Axis{Type: t}
	switch t {
	case AxisFlag:
		axis.FlagKey = model.FlagKey(strings.ToLower(arg))
	case AxisCategory:
		axis.Category = arg
	case AxisGenre, AxisSubGenre, AxisTarget, AxisAge, AxisCharacter, AxisCharacterGenre,
		AxisMethod, AxisPriceBand, AxisSize, AxisMachine, AxisUpdatedDate, AxisSymbol:
		if arg != "" {
			return Axis{}, fmt.Errorf("%w: %q", ErrUnknownAxis, s)
		}
	default:
		return Axis{}, fmt.Errorf("%w: %q", ErrUnknownAxis, s)
	}
	return axis, axis.Validate()
}

// Validate 校验轴配置；配置错误属于调用方错误，必须显式返回
func (a Axis) Validate() error {
	switch a.Type {
	case AxisFlag:
		if a.FlagKey == "" {
			return ErrFlagKeyRequired
		}
		if !a.FlagKey.Valid() {
			return fmt.Errorf("%w: flag %q", ErrUnknownAxis, a.FlagKey)
		}
	case AxisCategory:
		if a.Category == "" {
			return fmt.Errorf("%w: category axis without category key", ErrUnknownAxis)
		}
	case AxisGenre, AxisSubGenre, AxisTarget, AxisAge, AxisCharacter, AxisCharacterGenre,
		AxisMethod, AxisPriceBand, AxisSize, AxisMachine, AxisUpdatedDate, AxisSymbol:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAxis, a.Type)
	}
	return nil
}

// String 轴名（与 CompositionItem.AxisType 一致）
func (a Axis) String() string {
	switch a.Type {
	case AxisFlag:
		return string(AxisFlag) + ":" + string(a.FlagKey)
	case AxisCategory:
		return string(AxisCategory) + ":" + a.Category
	}
	return string(a.Type)
}

// KeyFunc 返回该轴的取值函数；ok=false 表示该行在此轴上缺失
func (a Axis) KeyFunc() func(*model.Row) (string, bool) {
	if a.Type == AxisFlag {
		flag := a.FlagKey
		return func(r *model.Row) (string, bool) {
			if r.Flags.Get(flag) {
				return string(flag) + ":ON", true
			}
			return string(flag) + ":OFF", true
		}
	}
	return func(r *model.Row) (string, bool) {
		v := a.value(r)
		return v, v != ""
	}
}

func (a Axis) value(r *model.Row) string {
	switch a.Type {
	case AxisGenre:
		return r.Genre
	case AxisSubGenre:
		return r.SubGenre
	case AxisTarget:
		return r.Target
	case AxisAge:
		return r.Age
	case AxisCharacter:
		return r.Character
	case AxisCharacterGenre:
		return r.CharacterGenre
	case AxisMethod:
		return r.ClawMethod
	case AxisPriceBand:
		return r.PriceBand
	case AxisSize:
		return r.Size
	case AxisMachine:
		return r.MachineName
	case AxisUpdatedDate:
		return datePart(r.UpdatedAt)
	case AxisSymbol:
		return r.SymbolRaw
	case AxisCategory:
		return r.Decoded.Label(a.Category)
	}
	return ""
}

// datePart 取更新日时的日期部分（"2025/01/02 10:00" → "2025/01/02"）
func datePart(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i > 0 {
		return s[:i]
	}
	return s
}
