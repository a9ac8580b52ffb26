package macro

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// ═══════════════════════════════════════════════════════════════════════════
// 环境变量快照
// ═══════════════════════════════════════════════════════════════════════════

// EnvLookup 基于环境变量快照的 [Lookup]，支持 Shell 参数展开语法。
//
// 支持语法（标签即花括号内的表达式）：
//   - NAME - 变量替换，未设置时视为未命中
//   - NAME:-word / NAME-word - fallback
//   - NAME:+word / NAME+word - 替代值
//   - NAME:?msg / NAME?msg - 必填校验，失败时返回 error
//   - NAME:=word / NAME=word - 赋值，仅写入快照
//
// word 原样返回，由展开器继续展开。
type EnvLookup struct {
	mu        sync.Mutex
	vars      map[string]string
	colonOnly bool
}

// EnvOption 环境变量快照选项。
type EnvOption func(*EnvLookup)

// ColonOperators 只识别带冒号的操作符 (:- :+ :? :=)。
//
// 宏名常含 "-"，如 ${build-type}；启用后这类标签不再被解析为
// "build" 的 fallback，而是按普通未命中处理。
func ColonOperators() EnvOption {
	return func(l *EnvLookup) {
		l.colonOnly = true
	}
}

// Env 生成当前进程环境变量的快照。
func Env(opts ...EnvOption) *EnvLookup {
	vars := make(map[string]string)
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if ok {
			vars[name] = value
		}
	}

	return newEnvLookup(vars, opts)
}

// EnvFrom 基于给定变量表创建快照，vars 会被复制。
func EnvFrom(vars map[string]string, opts ...EnvOption) *EnvLookup {
	cp := make(map[string]string, len(vars))
	for k, v := range vars {
		cp[k] = v
	}

	return newEnvLookup(cp, opts)
}

func newEnvLookup(vars map[string]string, opts []EnvOption) *EnvLookup {
	l := &EnvLookup{vars: vars}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Lookup 实现 [Lookup]。
//
// 无法解析为参数表达式的标签视为未命中。
func (l *EnvLookup) Lookup(key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	name, op, word, ok := parseShellParameter(key)
	if !ok || (l.colonOnly && len(op) == 1) {
		return "", false, nil
	}

	val, isSet := l.vars[name]
	switch op {
	case "":
		return val, isSet, nil
	case ":-":
		if !isSet || val == "" {
			return word, true, nil
		}
	case "-":
		if !isSet {
			return word, true, nil
		}
	case ":+":
		if isSet && val != "" {
			return word, true, nil
		}
		return "", true, nil
	case "+":
		if isSet {
			return word, true, nil
		}
		return "", true, nil
	case ":?":
		if !isSet || val == "" {
			return "", false, requiredError(name, word)
		}
	case "?":
		if !isSet {
			return "", false, requiredError(name, word)
		}
	case ":=":
		if !isSet || val == "" {
			l.vars[name] = word
			return word, true, nil
		}
	case "=":
		if !isSet {
			l.vars[name] = word
			return word, true, nil
		}
	}

	return val, true, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Shell Parameter Expansion
// ═══════════════════════════════════════════════════════════════════════════

func isVarNameStart(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || ch == '_'
}

func isVarNameChar(ch byte) bool {
	return isVarNameStart(ch) || (ch >= '0' && ch <= '9')
}

// parseShellParameter 将表达式拆分为变量名、操作符与 word。
func parseShellParameter(expr string) (name, op, word string, ok bool) {
	if expr == "" || !isVarNameStart(expr[0]) {
		return "", "", "", false
	}

	i := 1
	for i < len(expr) && isVarNameChar(expr[i]) {
		i++
	}

	name = expr[:i]
	rest := expr[i:]
	if rest == "" {
		return name, "", "", true
	}

	if len(rest) >= 2 && rest[0] == ':' {
		switch rest[1] {
		case '-', '+', '?', '=':
			return name, rest[:2], rest[2:], true
		}
	}

	switch rest[0] {
	case '-', '+', '?', '=':
		return name, rest[:1], rest[1:], true
	}

	return "", "", "", false
}

func requiredError(name, word string) error {
	if word == "" {
		return fmt.Errorf("macro: %s: parameter null or not set", name)
	}

	return fmt.Errorf("macro: %s: %s", name, word)
}

// ExpandEnv 按 Shell 规则展开 text 中的环境变量。
//
// 与 Expand(text, Env()) 不同，ExpandEnv 匹配嵌套花括号，
// 因此支持 ${A:-${B}} 这样的嵌套 fallback；未设置的变量展开为空，
// "$$" 输出单个 "$"。仅在必填校验失败时返回 error。
func ExpandEnv(text string) (string, error) {
	return expandShell(text, Env())
}

func expandShell(text string, env *EnvLookup) (string, error) {
	if !strings.Contains(text, "$") {
		return text, nil
	}

	var buf strings.Builder
	buf.Grow(len(text))

	for i := 0; i < len(text); {
		ch := text[i]
		if ch != '$' || i+1 >= len(text) {
			buf.WriteByte(ch)
			i++
			continue
		}

		switch text[i+1] {
		case '$':
			buf.WriteByte('$')
			i += 2
			continue
		case '{':
		default:
			buf.WriteByte(ch)
			i++
			continue
		}

		end := findMatchingBrace(text, i+2)
		if end == -1 {
			buf.WriteByte(ch)
			i++
			continue
		}

		expr := text[i+2 : end]
		if _, _, _, ok := parseShellParameter(expr); !ok {
			buf.WriteString(text[i : end+1])
			i = end + 1
			continue
		}

		value, _, err := env.Lookup(expr)
		if err != nil {
			return "", err
		}
		expanded, err := expandShell(value, env)
		if err != nil {
			return "", err
		}
		buf.WriteString(expanded)

		i = end + 1
	}

	return buf.String(), nil
}

func findMatchingBrace(text string, start int) int {
	depth := 0
	for i := start; i < len(text); i++ {
		if text[i] == '$' && i+1 < len(text) && text[i+1] == '{' {
			depth++
			i++
			continue
		}
		if text[i] == '}' {
			if depth == 0 {
				return i
			}
			depth--
		}
	}

	return -1
}
