package config

import (
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

// options 配置加载选项。
type options struct {
	appName     string // 应用名称，用于生成默认配置路径
	cmd         *cli.Command
	configPaths []string
	baseDir     string // 路径基准目录，用于将相对路径转换为绝对路径
	envPrefix   string
	noExpansion bool // 是否禁用配置文件展开（默认启用）
	required    bool
	fs          afero.Fs
}

// Option 配置加载选项函数。
type Option func(*options)

// WithCommand 绑定 CLI 命令，读取显式设置的 flags 以覆盖配置（最高优先级）。
func WithCommand(cmd *cli.Command) Option {
	return func(o *options) {
		o.cmd = cmd
	}
}

// WithAppName 设置应用名称，用于生成默认搜索路径（见 [DefaultPaths]）。
func WithAppName(name string) Option {
	return func(o *options) {
		o.appName = name
	}
}

// WithConfigPaths 设置配置文件搜索路径。
//
// 按顺序查找，命中首个文件即停止；相对路径会基于 [WithBaseDir] 解析。
func WithConfigPaths(paths ...string) Option {
	return func(o *options) {
		o.configPaths = paths
	}
}

// WithBaseDir 设置配置路径的解析基准，默认为当前工作目录。
// 注意：绝对路径不受影响。
func WithBaseDir(path string) Option {
	return func(o *options) {
		o.baseDir = path
	}
}

// WithEnvPrefix 启用环境变量前缀解析。
//
// 环境变量命名规则：
//   - 前缀 + 大写的配置 key
//   - 点号 (.) 和连字符 (-) 转为下划线 (_)
//
// 示例 (前缀为 "MARKUP_")：
//   - MARKUP_LOG_LEVEL → log.level
//   - MARKUP_MACRO_DB_DSN → macro.db-dsn
//
// 切片字段使用逗号分隔：MARKUP_MACRO_FILES=a.yaml,b.properties
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithoutExpansion 禁用配置文件的 Shell 参数展开，保留原始 ${...} 字符串。
func WithoutExpansion() Option {
	return func(o *options) {
		o.noExpansion = true
	}
}

// WithFs 设置读取配置文件使用的文件系统，默认为真实文件系统。
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithRequired 要求至少找到一个配置文件，否则 [Load] 返回 error。
func WithRequired() Option {
	return func(o *options) {
		o.required = true
	}
}
