// Package engine 根据配置组装宏来源与解析器链，执行宏与标记展开。
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/lwmacct/251218-go-pkg-markup/internal/config"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/fsprobe"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/macro"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/macrosrc"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/markup"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/script"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/telemetry"
)

// Engine 组装好的展开器。
type Engine struct {
	fs      afero.Fs
	defines macro.Map
	extra   []markup.Resolver

	expander  *macro.Expander
	lookup    macro.Lookup
	delims    markup.Delimiters
	resolvers []markup.Resolver
}

// Option 引擎选项函数。
type Option func(*Engine)

// WithFs 设置读取宏文件、脚本与探测路径使用的文件系统。
func WithFs(fs afero.Fs) Option {
	return func(e *Engine) {
		e.fs = fs
	}
}

// WithDefines 添加优先级最高的宏定义。
func WithDefines(defines macro.Map) Option {
	return func(e *Engine) {
		e.defines = defines
	}
}

// WithResolvers 在脚本解析器之后追加解析器。
func WithResolvers(resolvers ...markup.Resolver) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, resolvers...)
	}
}

// New 根据配置创建引擎。
//
// 宏来源优先级 (从高到低)：defines → 宏文件 → 数据库 → 环境变量。
// 解析器顺序：内置函数 → 扩展函数 → 脚本 → WithResolvers。
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}

	if err := e.setupMacro(ctx, &cfg.Macro); err != nil {
		return nil, err
	}
	if err := e.setupMarkup(&cfg.Markup); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) setupMacro(ctx context.Context, cfg *config.MacroConfig) error {
	if cfg.Start == "" || cfg.End == "" {
		return fmt.Errorf("engine: macro delimiters must not be empty (start=%q end=%q)", cfg.Start, cfg.End)
	}

	opts := []macro.Option{
		macro.WithDelimiters(cfg.Start, cfg.End),
		macro.WithNamespace(cfg.Namespace, ""),
	}
	if cfg.Invalid != "" {
		opts = append(opts, macro.WithInvalid(cfg.Invalid))
	}
	e.expander = macro.New(opts...)

	var (
		chain   macro.Chain
		sources []string
	)
	add := func(source string, l macro.Lookup) {
		chain = append(chain, telemetry.InstrumentLookup(source, l))
		sources = append(sources, source)
	}

	if len(e.defines) > 0 {
		add("define", e.defines)
	}

	if len(cfg.Files) > 0 {
		vars, err := macrosrc.LoadFiles(e.fs, cfg.Files...)
		if err != nil {
			return err
		}
		add("file", vars)
	}

	if cfg.DBDSN != "" {
		vars, err := loadStore(ctx, cfg)
		if err != nil {
			return err
		}
		add("db", vars)
	}

	if cfg.Env {
		add("env", macro.Env(macro.ColonOperators()))
	}

	e.lookup = chain
	slog.Debug("engine: macro sources", "sources", sources)

	return nil
}

func loadStore(ctx context.Context, cfg *config.MacroConfig) (macro.Map, error) {
	store, err := macrosrc.OpenStore(ctx, cfg.DBDriver, cfg.DBDSN, cfg.DBTable)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	if err := store.EnsureTable(ctx); err != nil {
		return nil, err
	}

	return store.Load(ctx)
}

func (e *Engine) setupMarkup(cfg *config.MarkupConfig) error {
	first, err := singleRune("markup.first", cfg.First)
	if err != nil {
		return err
	}
	start, err := singleRune("markup.start", cfg.Start)
	if err != nil {
		return err
	}
	end, err := singleRune("markup.end", cfg.End)
	if err != nil {
		return err
	}
	if first == start || first == end || start == end {
		return fmt.Errorf("engine: markup delimiters must be distinct (%q %q %q)", first, start, end)
	}
	e.delims = markup.Delimiters{First: first, Start: start, End: end}

	e.resolvers = append(e.resolvers,
		telemetry.InstrumentResolver("builtin", markup.NewBuiltin(fsprobe.New(e.fs))))
	if cfg.Extras {
		e.resolvers = append(e.resolvers, telemetry.InstrumentResolver("extras", markup.Extras))
	}

	for _, path := range cfg.Scripts {
		r, err := script.Load(e.fs, path, script.WithTimeout(cfg.ScriptTimeout))
		if err != nil {
			return err
		}
		e.resolvers = append(e.resolvers, telemetry.InstrumentResolver("script", r))
	}

	for _, r := range e.extra {
		e.resolvers = append(e.resolvers, telemetry.InstrumentResolver("custom", r))
	}

	slog.Debug("engine: markup resolvers", "count", len(e.resolvers), "scripts", len(cfg.Scripts))

	return nil
}

func singleRune(key, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("engine: %s must be a single character, got %q", key, s)
	}
	r, _ := utf8.DecodeRuneInString(s)

	return r, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 展开
// ═══════════════════════════════════════════════════════════════════════════

// Macro 执行宏展开。
func (e *Engine) Macro(source string) (string, error) {
	return e.expander.Expand(source, e.lookup)
}

// Markup 执行标记展开。
func (e *Engine) Markup(source string) (string, error) {
	return markup.Expand(source, e.delims, e.resolvers...)
}

// Render 先执行宏展开，再对结果执行标记展开。
func (e *Engine) Render(source string) (string, error) {
	out, err := e.Macro(source)
	if err != nil {
		return "", err
	}

	return e.Markup(out)
}
