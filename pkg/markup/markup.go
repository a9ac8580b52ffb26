package markup

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Delimiters 标记定界符，三者须为互不相同的单个字符。
type Delimiters struct {
	First rune // 标记开始
	Start rune // 名称结束、参数开始
	End   rune // 调用结束
}

// DefaultDelimiters 默认定界符 '?'、'|'、'*'。
var DefaultDelimiters = Delimiters{First: '?', Start: '|', End: '*'}

// ═══════════════════════════════════════════════════════════════════════════
// 状态机
// ═══════════════════════════════════════════════════════════════════════════

type state int

const (
	stateLiteral state = iota
	stateName
	stateParams
)

// frame 一次尚未完成的函数调用。
type frame struct {
	name   strings.Builder
	params strings.Builder
}

// Expand 使用给定定界符与解析器链展开 source。
//
// 解析器按传入顺序尝试。返回的 error 只可能来自解析器。
func Expand(source string, d Delimiters, resolvers ...Resolver) (string, error) {
	if source == "" || !strings.ContainsRune(source, d.First) {
		return source, nil
	}

	chain := Chain(resolvers)

	var (
		out   strings.Builder
		raw   strings.Builder // 自上次顶层解析以来在 NAME/PARAMS 中读入的字符
		stack []*frame
		cur   *frame
		st    = stateLiteral
	)
	out.Grow(len(source))

	for i := 0; i < len(source); {
		ch, size := utf8.DecodeRuneInString(source[i:])
		text := source[i : i+size]
		i += size

		switch st {
		case stateLiteral:
			if ch == d.First {
				cur = &frame{}
				st = stateName
				continue
			}
			out.WriteString(text)

		case stateName:
			raw.WriteString(text)
			if ch == d.Start {
				st = stateParams
				continue
			}
			cur.name.WriteString(text)

		case stateParams:
			raw.WriteString(text)
			switch ch {
			case d.End:
				result, _, err := chain.Resolve(cur.name.String(), splitArgs(cur.params.String()))
				if err != nil {
					return "", err
				}

				if n := len(stack); n > 0 {
					cur = stack[n-1]
					stack = stack[:n-1]
					cur.params.WriteString(result)
					continue
				}

				out.WriteString(result)
				cur = nil
				raw.Reset()
				st = stateLiteral
			case d.First:
				stack = append(stack, cur)
				cur = &frame{}
				st = stateName
			default:
				cur.params.WriteString(text)
			}
		}
	}

	if raw.Len() > 0 {
		slog.Debug("markup: unterminated call", "depth", len(stack)+1, "raw", raw.String())
		out.WriteString(raw.String())
	}

	return out.String(), nil
}

// ExpandDefault 使用默认定界符与 [Builtin] 展开 source。
func ExpandDefault(source string) (string, error) {
	return Expand(source, DefaultDelimiters, Builtin)
}

// ExpandWith 使用默认定界符展开 source，解析器链为 [Builtin] 加上 ext。
//
// 内置名称无法被扩展解析器覆盖，ext 只处理 Builtin 不认识的名称。
func ExpandWith(source string, ext ...Resolver) (string, error) {
	resolvers := make([]Resolver, 0, len(ext)+1)
	resolvers = append(resolvers, Builtin)
	resolvers = append(resolvers, ext...)

	return Expand(source, DefaultDelimiters, resolvers...)
}

// splitArgs 以 ',' 拆分参数文本并去掉末尾的空参数。
//
// 空文本得到一个空参数；只含逗号的文本得到零个参数。
func splitArgs(params string) []string {
	if params == "" {
		return []string{""}
	}

	args := strings.Split(params, ",")
	n := len(args)
	for n > 0 && args[n-1] == "" {
		n--
	}

	return args[:n]
}
