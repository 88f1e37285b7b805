package parser

import (
	"regexp"
	"sync"
)

var patternCache sync.Map // pattern -> *regexp.Regexp

// MatchPattern 使用正则匹配（编译结果缓存）；非法正则视为不匹配
func MatchPattern(text, pattern string) bool {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp).MatchString(text)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	patternCache.Store(pattern, re)
	return re.MatchString(text)
}
