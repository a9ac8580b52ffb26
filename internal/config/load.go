package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251218-go-pkg-markup/pkg/macro"
)

// DefaultPaths 返回默认配置文件的搜索顺序。
//
// appName 可选，提供后会追加应用专属路径。
// 返回顺序即查找顺序，先命中的文件生效。
//
// 优先级 (从高到低)：
//  1. ./.appname.yaml - 当前目录应用配置
//  2. ~/.appname.yaml - 用户主目录配置
//  3. /etc/appname/config.yaml - 系统级配置
//  4. config.yaml - 当前目录通用配置
//  5. config/config.yaml - 子目录通用配置
func DefaultPaths(appName ...string) []string {
	var paths []string

	if len(appName) > 0 && appName[0] != "" {
		name := appName[0]
		paths = append(paths, "."+name+".yaml")
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, "."+name+".yaml"))
		}
		paths = append(paths, "/etc/"+name+"/config.yaml")
	}

	paths = append(paths, "config.yaml", "config/config.yaml")

	return paths
}

// Load 读取配置并按优先级合并。
//
// 优先级 (从低到高)：
//  1. 默认值 - defaultConfig
//  2. 配置文件 - [WithConfigPaths] / [WithAppName]
//  3. 环境变量(前缀) - [WithEnvPrefix]
//  4. CLI flags - [WithCommand]
//
// 配置 key 由 json tag 定义，YAML 与 JSON 共享同一套 key。
// 配置文件按顺序查找，命中首个文件即停止。
func Load[T any](defaultConfig T, opts ...Option) (*T, error) {
	options := &options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.fs == nil {
		options.fs = afero.NewOsFs()
	}

	if len(options.configPaths) == 0 {
		options.configPaths = DefaultPaths(options.appName)
	}

	configMap := treeOf(defaultConfig)
	keys := collectConfigKeys(defaultConfig)

	// 2️⃣ 配置文件 (按顺序搜索，找到第一个即停止)
	loaded := false
	for _, path := range resolvePaths(options.baseDir, options.configPaths) {
		content, err := afero.ReadFile(options.fs, path)
		if err != nil {
			continue
		}

		if !options.noExpansion {
			expanded, expandErr := macro.ExpandEnv(string(content))
			if expandErr != nil {
				return nil, fmt.Errorf("expand config %s: %w", path, expandErr)
			}
			content = []byte(expanded)
		}

		fileMap, err := parseTree(path, content)
		if err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if unknown := unknownKeys(fileMap, keys); len(unknown) > 0 {
			slog.Warn("Unknown config keys ignored", "path", path, "keys", unknown)
		}
		configMap.merge(fileMap)

		slog.Debug("Loaded config from file", "path", path, "expansion", !options.noExpansion)
		loaded = true

		break
	}
	if !loaded {
		if options.required {
			return nil, fmt.Errorf("config file not found: %s", strings.Join(options.configPaths, ", "))
		}
		slog.Debug("No config file found, using defaults")
	}

	// 3️⃣ 环境变量绑定 (基于配置结构体的 key)
	if options.envPrefix != "" {
		for envKey, configPath := range generateEnvBindings(options.envPrefix, keys) {
			if val := os.Getenv(envKey); val != "" {
				configMap.set(configPath, val)
				slog.Debug("Loaded env binding", "env", envKey, "path", configPath)
			}
		}
	}

	// 4️⃣ CLI flags (最高优先级，仅当用户明确指定时)
	if options.cmd != nil {
		applyCLIFlags(options.cmd, configMap, reflect.TypeOf(defaultConfig), "")
	}

	var cfg T
	if err := configMap.decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadCmd 是 [Load] 的便捷版本，适用于 CLI 场景。
//
// 注入 [WithCommand]、[WithAppName] 与 [WithEnvPrefix]，
// 命令设置了 --config 时以其值作为唯一的配置文件路径，且文件必须存在。
func LoadCmd(cmd *cli.Command, opts ...Option) (*Config, error) {
	baseOpts := []Option{
		WithCommand(cmd),
		WithAppName(AppName),
		WithEnvPrefix(EnvPrefix),
	}
	if path := cmd.String("config"); path != "" {
		baseOpts = append(baseOpts, WithConfigPaths(path), WithRequired())
	}

	return Load(DefaultConfig(), append(baseOpts, opts...)...)
}

// resolvePaths 将相对路径转换为基于 baseDir 的路径。
func resolvePaths(baseDir string, paths []string) []string {
	if baseDir == "" {
		return paths
	}

	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = p
		} else {
			out[i] = filepath.Join(baseDir, p)
		}
	}

	return out
}

// collectConfigKeys 递归收集配置结构体的 key 列表。
//
// 以 json tag 为准，返回叶子路径（如 macro.db-dsn）。
func collectConfigKeys[T any](defaultConfig T) []string {
	var keys []string
	walkConfigFields(reflect.TypeOf(defaultConfig), "", func(fullKey string, _ reflect.Type) {
		keys = append(keys, fullKey)
	})

	return keys
}

// walkConfigFields 递归遍历叶子字段，fn 接收完整 key 与字段类型。
func walkConfigFields(typ reflect.Type, prefix string, fn func(fullKey string, typ reflect.Type)) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return
	}

	for i := range typ.NumField() {
		field := typ.Field(i)

		key := configTagName(field)
		if key == "" {
			continue
		}

		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if isSection(field.Type) {
			walkConfigFields(field.Type, fullKey, fn)

			continue
		}

		fn(fullKey, field.Type)
	}
}

// generateEnvBindings 根据配置 key 生成环境变量映射。
//
// 转换规则：
//   - key 中的 "." 和 "-" 转为 "_"
//   - 转为大写
//   - 添加前缀
//
// 示例 (前缀 "MARKUP_")：
//   - macro.db-dsn → MARKUP_MACRO_DB_DSN
//   - markup.script-timeout → MARKUP_MARKUP_SCRIPT_TIMEOUT
func generateEnvBindings(prefix string, keys []string) map[string]string {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	bindings := make(map[string]string, len(keys))
	for _, key := range keys {
		bindings[prefix+strings.ToUpper(replacer.Replace(key))] = key
	}

	return bindings
}

// unknownKeys 返回配置文件中未在结构体中定义的 key，按字典序排列。
func unknownKeys(fileMap tree, known []string) []string {
	knownSet := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownSet[k] = struct{}{}
	}

	var unknown []string
	for _, k := range fileMap.leaves() {
		if _, ok := knownSet[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)

	return unknown
}

// applyCLIFlags 将用户显式设置的 CLI flags 写入配置 map。
//
// 根据 json tag 生成 CLI flag 名称，仅替换 "." 为 "-"：
//   - macro.start → --macro-start
//   - markup.script-timeout → --markup-script-timeout
func applyCLIFlags(cmd *cli.Command, config tree, typ reflect.Type, prefix string) {
	walkConfigFields(typ, prefix, func(fullKey string, fieldType reflect.Type) {
		cliFlag := strings.ReplaceAll(fullKey, ".", "-")
		if !cmd.IsSet(cliFlag) {
			return
		}
		if value, ok := cliFlagValue(cmd, cliFlag, fieldType); ok {
			config.set(fullKey, value)
		}
	})
}

// cliFlagValue 按字段类型读取 CLI 值，不支持的类型返回 false。
func cliFlagValue(cmd *cli.Command, cliFlag string, fieldType reflect.Type) (any, bool) {
	if fieldType == durationType {
		return cmd.Duration(cliFlag), true
	}

	switch fieldType.Kind() {
	case reflect.String:
		return cmd.String(cliFlag), true
	case reflect.Bool:
		return cmd.Bool(cliFlag), true
	case reflect.Int:
		return cmd.Int(cliFlag), true
	case reflect.Slice:
		if fieldType.Elem().Kind() == reflect.String {
			return cmd.StringSlice(cliFlag), true
		}
	case reflect.Map:
		if fieldType.Key().Kind() == reflect.String && fieldType.Elem().Kind() == reflect.String {
			return cmd.StringMap(cliFlag), true
		}
	}

	return nil, false
}
