package simplify

import (
	"fmt"
	"reflect"
	"unicode/utf8"

	"github.com/BaSui01/toolgate/capability"
)

// Level 简化力度
type Level int

const (
	LevelNone Level = iota
	LevelModerate
	LevelAggressive
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelModerate:
		return "moderate"
	case LevelAggressive:
		return "aggressive"
	default:
		return fmt.Sprintf("Level(%d)", l)
	}
}

const ellipsis = "..."

// levelRule 单个力度下的截断规则
type levelRule struct {
	maxStringRunes int
	maxItems       int
	allowKeys      map[string]struct{} // nil 表示保留全部键
}

var rules = map[Level]levelRule{
	LevelAggressive: {
		maxStringRunes: 100,
		maxItems:       5,
		allowKeys: map[string]struct{}{
			"id": {}, "name": {}, "status": {}, "result": {}, "count": {},
		},
	},
	LevelModerate: {
		maxStringRunes: 200,
		maxItems:       10,
	},
}

// LevelFor 按工具容量选择力度：≤10 激进，11–20 适中，其余不处理
func LevelFor(p capability.Profile) Level {
	switch {
	case p.MaxTools <= 10:
		return LevelAggressive
	case p.MaxTools <= 20:
		return LevelModerate
	default:
		return LevelNone
	}
}

// Simplifier 响应简化器，构造后只读
type Simplifier struct {
	registry *capability.Registry
}

// New 创建简化器
func New(registry *capability.Registry) *Simplifier {
	return &Simplifier{registry: registry}
}

// Level 返回模型对应的简化力度
func (s *Simplifier) Level(model string) Level {
	return LevelFor(s.registry.Resolve(model))
}

// Simplify 按模型的简化力度处理响应，不修改入参
func (s *Simplifier) Simplify(response any, model string) any {
	return Apply(response, s.Level(model))
}

// Apply 以指定力度处理响应。
// 映射只处理顶层的键与字符串值，序列只截断长度；字节切片与其它类型原样返回。
func Apply(response any, level Level) any {
	rule, ok := rules[level]
	if !ok || response == nil {
		return response
	}

	switch v := response.(type) {
	case map[string]any:
		return simplifyMap(v, rule)
	case []any:
		return truncateItems(v, rule.maxItems)
	}

	rv := reflect.ValueOf(response)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return response
		}
		return simplifyReflectMap(rv, rule)
	case reflect.Slice, reflect.Array:
		// []byte 是二进制数据，不是条目序列
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return response
		}
		return truncateReflectSeq(rv, rule.maxItems)
	default:
		return response
	}
}

func simplifyMap(m map[string]any, rule levelRule) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if !rule.allows(k) {
			continue
		}
		out[k] = truncateValue(v, rule.maxStringRunes)
	}
	return out
}

func simplifyReflectMap(rv reflect.Value, rule levelRule) any {
	out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key()
		if !rule.allows(key.String()) {
			continue
		}
		val := iter.Value()
		if s, ok := stringOf(val); ok && utf8.RuneCountInString(s) > rule.maxStringRunes {
			truncated := reflect.ValueOf(truncateString(s, rule.maxStringRunes))
			if truncated.Type().AssignableTo(rv.Type().Elem()) {
				val = truncated
			} else if truncated.Type().ConvertibleTo(rv.Type().Elem()) {
				val = truncated.Convert(rv.Type().Elem())
			}
		}
		out.SetMapIndex(key, val)
	}
	return out.Interface()
}

func stringOf(v reflect.Value) (string, bool) {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() != reflect.String {
		return "", false
	}
	return v.String(), true
}

func (r levelRule) allows(key string) bool {
	if r.allowKeys == nil {
		return true
	}
	_, ok := r.allowKeys[key]
	return ok
}

func truncateValue(v any, maxRunes int) any {
	s, ok := v.(string)
	if !ok || utf8.RuneCountInString(s) <= maxRunes {
		return v
	}
	return truncateString(s, maxRunes)
}

func truncateString(s string, maxRunes int) string {
	return string([]rune(s)[:maxRunes]) + ellipsis
}

func truncateItems(items []any, n int) []any {
	if len(items) < n {
		n = len(items)
	}
	out := make([]any, n)
	copy(out, items[:n])
	return out
}

func truncateReflectSeq(rv reflect.Value, n int) any {
	if rv.Len() < n {
		n = rv.Len()
	}
	// 数组不可寻址，不能直接切片
	out := reflect.MakeSlice(reflect.SliceOf(rv.Type().Elem()), n, n)
	for i := 0; i < n; i++ {
		out.Index(i).Set(rv.Index(i))
	}
	return out.Interface()
}
