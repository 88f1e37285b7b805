package symbol

import (
	"regexp"
	"strings"
	"sync"

	"clawboard/internal/model"
)

// tokenSplitter 分隔符：ASCII 字母数字、汉字、平假名、片假名以外的连续字符
var tokenSplitter = regexp.MustCompile(`[^0-9A-Za-z\p{Han}\p{Hiragana}\p{Katakana}]+`)

// 令牌方式至少需要的令牌数与命中分类数
const (
	minTokens    = 2
	minTokenHits = 2
)

// Parse 解析记号串
//
// 先尝试令牌方式（带分隔符的记号，如 "1-A-3"）；命中分类不足两个时，
// 回退为按分类声明顺序从头逐位最长匹配。逐位方式未命中的分类不前进游标，
// 末尾剩余字符不视为错误。
func Parse(raw string, master *model.SymbolMaster) model.Decoded {
	s := strings.TrimSpace(raw)
	if master == nil {
		master = model.NewSymbolMaster(model.DefaultCategorySpecs())
	}

	if d, ok := parseTokens(s, master); ok {
		return d
	}
	return parsePositional(s, master)
}

func parseTokens(s string, master *model.SymbolMaster) (model.Decoded, bool) {
	tokens := splitTokens(s)
	if len(tokens) < minTokens {
		return model.Decoded{}, false
	}

	d := newDecoded(model.StrategyToken, master.Specs)
	hits := 0
	for _, spec := range master.Specs {
		dict := master.Dict[spec.Key]
		for _, tok := range tokens {
			if label, ok := dict[tok]; ok {
				d.Values[spec.Key] = model.Match{Label: label, Code: tok}
				hits++
				break
			}
		}
	}
	if hits < minTokenHits {
		return model.Decoded{}, false
	}
	return d, true
}

func parsePositional(s string, master *model.SymbolMaster) model.Decoded {
	d := newDecoded(model.StrategyPositional, master.Specs)
	cursor := 0
	for _, spec := range master.Specs {
		rest := s[cursor:]
		if rest == "" {
			break
		}
		for _, code := range master.Order[spec.Key] {
			if strings.HasPrefix(rest, code) {
				d.Values[spec.Key] = model.Match{Label: master.Dict[spec.Key][code], Code: code}
				cursor += len(code)
				break
			}
		}
	}
	return d
}

func splitTokens(s string) []string {
	parts := tokenSplitter.Split(s, -1)
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// newDecoded 所有分类先置为未命中
func newDecoded(strategy model.DecodeStrategy, specs []model.CategorySpec) model.Decoded {
	d := model.Decoded{
		Strategy: strategy,
		Values:   make(map[string]model.Match, len(specs)),
	}
	for _, spec := range specs {
		d.Values[spec.Key] = model.Match{}
	}
	return d
}

// Parser 带缓存的解析器；同一记号串在大批量数据里反复出现
// 返回的 Decoded 在调用方之间共享，不可修改
type Parser struct {
	master *model.SymbolMaster

	mu    sync.RWMutex
	cache map[string]model.Decoded
}

// NewParser 创建解析器
func NewParser(master *model.SymbolMaster) *Parser {
	return &Parser{
		master: master,
		cache:  make(map[string]model.Decoded),
	}
}

// Master 返回解析使用的主表
func (p *Parser) Master() *model.SymbolMaster {
	return p.master
}

// Parse 解析记号串（命中缓存时直接返回）
func (p *Parser) Parse(raw string) model.Decoded {
	key := strings.TrimSpace(raw)

	p.mu.RLock()
	d, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return d
	}

	d = Parse(key, p.master)

	p.mu.Lock()
	p.cache[key] = d
	p.mu.Unlock()
	return d
}

// CacheSize 已缓存的记号串数量
func (p *Parser) CacheSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.cache)
}
