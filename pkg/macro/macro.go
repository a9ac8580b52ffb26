package macro

import (
	"fmt"
	"io"
	"strings"
)

// 默认定界符。
const (
	DefaultStart = "${"
	DefaultEnd   = "}"

	// DefaultNamespaceSep 为 [WithNamespace] 未指定分隔符时使用的分隔符。
	DefaultNamespaceSep = "."
)

// ═══════════════════════════════════════════════════════════════════════════
// 展开器
// ═══════════════════════════════════════════════════════════════════════════

// Expander 宏展开器。
//
// 创建后只读，可在多个 goroutine 间共享；并发安全性取决于传入的 Lookup。
type Expander struct {
	start      string
	end        string
	prefix     string // 命名空间前缀（含分隔符），为空表示不过滤
	invalid    string
	hasInvalid bool
}

// Option 展开器选项函数。
type Option func(*Expander)

// WithDelimiters 设置起始与结束定界符，二者都必须非空。
func WithDelimiters(start, end string) Option {
	return func(e *Expander) {
		e.start = start
		e.end = end
	}
}

// WithNamespace 只展开位于命名空间 ns 内的标签。
//
// 标签需以 ns+sep 开头，其余标签以 start+label+end 原样输出。
// sep 为空时使用 [DefaultNamespaceSep]；ns 为空表示不过滤。
// 传给 Lookup 的标签包含命名空间前缀。
func WithNamespace(ns, sep string) Option {
	return func(e *Expander) {
		if ns == "" {
			e.prefix = ""

			return
		}
		if sep == "" {
			sep = DefaultNamespaceSep
		}
		e.prefix = ns + sep
	}
}

// WithInvalid 设置 Lookup 未命中时输出的替代文本。
func WithInvalid(s string) Option {
	return func(e *Expander) {
		e.invalid = s
		e.hasInvalid = true
	}
}

// New 创建展开器，默认使用 [DefaultStart] 与 [DefaultEnd]。
func New(opts ...Option) *Expander {
	e := &Expander{
		start: DefaultStart,
		end:   DefaultEnd,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

var defaultExpander = New()

// Expand 使用默认定界符展开 source。
func Expand(source string, lookup Lookup) (string, error) {
	return defaultExpander.Expand(source, lookup)
}

// ExpandDelims 使用指定定界符展开 source。
func ExpandDelims(source, start, end string, lookup Lookup) (string, error) {
	return New(WithDelimiters(start, end)).Expand(source, lookup)
}

// Expand 展开 source 中的宏。
//
// 返回的 error 只可能来自 lookup。
func (e *Expander) Expand(source string, lookup Lookup) (string, error) {
	if source == "" || e.start == "" || e.end == "" || !strings.Contains(source, e.start) {
		return source, nil
	}

	var buf strings.Builder
	buf.Grow(len(source))

	cursor := 0
	for cursor < len(source) {
		i := strings.Index(source[cursor:], e.start)
		if i < 0 {
			break
		}
		open := cursor + i
		buf.WriteString(source[cursor:open])

		labelStart := open + len(e.start)
		j := strings.Index(source[labelStart:], e.end)
		if j < 0 {
			// 未闭合：保留起始定界符及其后全部文本
			buf.WriteString(source[open:])

			return buf.String(), nil
		}

		label := source[labelStart : labelStart+j]
		cursor = labelStart + j + len(e.end)

		if err := e.substitute(&buf, label, lookup); err != nil {
			return "", err
		}
	}
	buf.WriteString(source[cursor:])

	return buf.String(), nil
}

// ExpandReader 读取 r 的全部内容，展开后写入 w。
func (e *Expander) ExpandReader(r io.Reader, w io.Writer, lookup Lookup) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("macro: read input: %w", err)
	}

	out, err := e.Expand(string(content), lookup)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("macro: write output: %w", err)
	}

	return nil
}

// substitute 解析单个标签并把结果写入 buf。
func (e *Expander) substitute(buf *strings.Builder, label string, lookup Lookup) error {
	if e.prefix != "" && !strings.HasPrefix(label, e.prefix) {
		buf.WriteString(e.start)
		buf.WriteString(label)
		buf.WriteString(e.end)

		return nil
	}
	if lookup == nil {
		return nil
	}

	value, ok, err := lookup.Lookup(label)
	if err != nil {
		return err
	}
	if !ok {
		if e.hasInvalid {
			buf.WriteString(e.invalid)
		}

		return nil
	}

	expanded, err := e.Expand(value, lookup)
	if err != nil {
		return err
	}
	buf.WriteString(expanded)

	return nil
}
