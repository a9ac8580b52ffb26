// Package config 提供应用配置管理。
//
// 配置加载优先级 (从低到高)：
//  1. 默认值 - DefaultConfig() 函数中定义
//  2. 配置文件 - 通过 WithAppName / WithConfigPaths 选项设置
//  3. 环境变量 - 通过 WithEnvPrefix 选项启用
//  4. CLI flags - 通过 WithCommand 选项设置
//
// 配置文件在解析前会进行 Shell 参数展开，见 [macro.ExpandEnv]。
package config

import (
	"time"
)

// AppName 应用名称，用于默认配置路径。
const AppName = "markup"

// EnvPrefix 环境变量前缀。
const EnvPrefix = "MARKUP_"

// Config 应用配置。
type Config struct {
	Macro  MacroConfig  `json:"macro" desc:"宏展开配置"`
	Markup MarkupConfig `json:"markup" desc:"标记展开配置"`
	Log    LogConfig    `json:"log" desc:"日志配置"`
}

// MacroConfig 宏展开配置。
type MacroConfig struct {
	Start     string   `json:"start" desc:"起始定界符"`
	End       string   `json:"end" desc:"结束定界符"`
	Namespace string   `json:"namespace" desc:"只展开该命名空间内的宏，空表示全部"`
	Invalid   string   `json:"invalid" desc:"未定义宏的替代文本，空表示删除"`
	Files     []string `json:"files" desc:"宏定义文件 (.properties/.yaml/.json)，后者覆盖前者"`
	Env       bool     `json:"env" desc:"使用环境变量作为宏来源"`
	DBDriver  string   `json:"db-driver" desc:"宏定义数据库驱动 (sqlite/postgres)"`
	DBDSN     string   `json:"db-dsn" desc:"宏定义数据库连接串，空表示不使用数据库"`
	DBTable   string   `json:"db-table" desc:"宏定义表名"`
}

// MarkupConfig 标记展开配置。
type MarkupConfig struct {
	First         string        `json:"first" desc:"标记开始字符"`
	Start         string        `json:"start" desc:"参数开始字符"`
	End           string        `json:"end" desc:"调用结束字符"`
	Scripts       []string      `json:"scripts" desc:"JavaScript 解析器脚本"`
	Extras        bool          `json:"extras" desc:"启用扩展函数 (env/uuid/upper/...)"`
	ScriptTimeout time.Duration `json:"script-timeout" desc:"单次脚本调用超时"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level string `json:"level" desc:"日志级别 (debug/info/warn/error)"`
	Stats bool   `json:"stats" desc:"结束时输出解析统计"`
}

// DefaultConfig 返回默认配置。
// 注意：internal/command/command.go 中的 Defaults 变量引用此函数以实现单一配置来源。
func DefaultConfig() Config {
	return Config{
		Macro: MacroConfig{
			Start:    "${",
			End:      "}",
			Env:      true,
			DBDriver: "sqlite",
			DBTable:  "macros",
		},
		Markup: MarkupConfig{
			First:         "?",
			Start:         "|",
			End:           "*",
			Extras:        true,
			ScriptTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
