// Package command 提供各子命令共用的 flags 与执行流程。
package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251218-go-pkg-markup/internal/config"
	"github.com/lwmacct/251218-go-pkg-markup/internal/engine"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/macro"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/telemetry"
)

// Defaults 为默认配置的单一来源。
var Defaults = config.DefaultConfig()

// ═══════════════════════════════════════════════════════════════════════════
// Flags
// ═══════════════════════════════════════════════════════════════════════════

// ConfigFlags 返回与配置 key 对应的 flags，名称为 key 中 "." 替换为 "-"。
//
// 每次调用返回新的 flag 实例，可安全地用于多个命令。
func ConfigFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件路径"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "输出文件，默认标准输出"},

		&cli.StringFlag{Name: "macro-start", Value: Defaults.Macro.Start, Usage: "宏起始定界符"},
		&cli.StringFlag{Name: "macro-end", Value: Defaults.Macro.End, Usage: "宏结束定界符"},
		&cli.StringFlag{Name: "macro-namespace", Usage: "只展开该命名空间内的宏"},
		&cli.StringFlag{Name: "macro-invalid", Usage: "未定义宏的替代文本"},
		&cli.StringSliceFlag{Name: "macro-files", Aliases: []string{"f"}, Usage: "宏定义文件 (.properties/.yaml/.json)"},
		&cli.BoolFlag{Name: "macro-env", Value: Defaults.Macro.Env, Usage: "使用环境变量作为宏来源，支持 ${NAME:-word} 等带冒号的操作符"},
		&cli.StringFlag{Name: "macro-db-driver", Value: Defaults.Macro.DBDriver, Usage: "宏定义数据库驱动 (sqlite/postgres)"},
		&cli.StringFlag{Name: "macro-db-dsn", Usage: "宏定义数据库连接串"},
		&cli.StringFlag{Name: "macro-db-table", Value: Defaults.Macro.DBTable, Usage: "宏定义表名"},

		&cli.StringFlag{Name: "markup-first", Value: Defaults.Markup.First, Usage: "标记开始字符"},
		&cli.StringFlag{Name: "markup-start", Value: Defaults.Markup.Start, Usage: "参数开始字符"},
		&cli.StringFlag{Name: "markup-end", Value: Defaults.Markup.End, Usage: "调用结束字符"},
		&cli.StringSliceFlag{Name: "markup-scripts", Aliases: []string{"s"}, Usage: "JavaScript 解析器脚本"},
		&cli.BoolFlag{Name: "markup-extras", Value: Defaults.Markup.Extras, Usage: "启用扩展函数"},
		&cli.DurationFlag{Name: "markup-script-timeout", Value: Defaults.Markup.ScriptTimeout, Usage: "单次脚本调用超时"},

		&cli.StringFlag{Name: "log-level", Value: Defaults.Log.Level, Usage: "日志级别 (debug/info/warn/error)"},
		&cli.BoolFlag{Name: "log-stats", Usage: "结束时输出解析统计"},
	}
}

// DefineFlag 返回 --define/-D flag，值为 key=value，可重复。
func DefineFlag() cli.Flag {
	return &cli.StringMapFlag{Name: "define", Aliases: []string{"D"}, Usage: "定义宏 (key=value)，优先级最高"}
}

// ═══════════════════════════════════════════════════════════════════════════
// 执行流程
// ═══════════════════════════════════════════════════════════════════════════

// Pass 一次展开。
type Pass func(e *engine.Engine, source string) (string, error)

// Run 加载配置、读取输入、执行 pass 并写出结果。
//
// 输入为第一个参数指定的文件，未指定时读取标准输入。
func Run(ctx context.Context, cmd *cli.Command, pass Pass) error {
	cfg, err := config.LoadCmd(cmd)
	if err != nil {
		return err
	}
	if err := SetupLogging(cfg.Log.Level, cmd.Root().ErrWriter); err != nil {
		return err
	}

	var stats *telemetry.Stats
	if cfg.Log.Stats {
		stats = telemetry.NewStats()
		defer func() {
			if err := stats.Shutdown(ctx); err != nil {
				slog.Warn("Stats shutdown failed", "error", err)
			}
		}()
	}

	opts := []engine.Option{}
	if defines := cmd.StringMap("define"); len(defines) > 0 {
		opts = append(opts, engine.WithDefines(macro.Map(defines)))
	}
	e, err := engine.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	source, err := readInput(cmd)
	if err != nil {
		return err
	}

	out, err := pass(e, source)
	if err != nil {
		return err
	}

	if err := writeOutput(cmd, out); err != nil {
		return err
	}

	if stats != nil {
		return stats.Fprint(ctx, cmd.Root().ErrWriter)
	}

	return nil
}

// SetupLogging 安装输出到 w 的文本日志处理器。
func SetupLogging(level string, w io.Writer) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if w == nil {
		w = os.Stderr
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))

	return nil
}

func readInput(cmd *cli.Command) (string, error) {
	path := cmd.Args().First()
	if path == "" || path == "-" {
		r := cmd.Root().Reader
		if r == nil {
			r = os.Stdin
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}

		return string(content), nil
	}

	content, err := afero.ReadFile(afero.NewOsFs(), path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	return string(content), nil
}

func writeOutput(cmd *cli.Command, out string) error {
	if path := cmd.String("output"); path != "" && path != "-" {
		if err := afero.WriteFile(afero.NewOsFs(), path, []byte(out), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		return nil
	}

	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
