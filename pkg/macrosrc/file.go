// Package macrosrc 从文件与数据库加载宏定义。
//
// 所有来源都返回 macro.Map，键为宏标签，值为未展开的原始文本；
// 展开统一交给 macro 包完成，因此来源之间可以互相引用。
//
// 支持的文件格式：
//   - .properties / .props - Java properties（关闭内置的 ${} 展开）
//   - .yaml / .yml - 嵌套映射展平为以 "." 连接的键
//   - .json - 同上
package macrosrc

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/itsatony/go-cuserr"
	"github.com/magiconair/properties"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/lwmacct/251218-go-pkg-markup/pkg/macro"
)

// 错误码与元数据键。
const (
	ErrCodeSource = "MARKUP_SOURCE"

	MetaKeyPath   = "path"
	MetaKeyFormat = "format"
	MetaKeyTable  = "table"
)

// ═══════════════════════════════════════════════════════════════════════════
// 文件来源
// ═══════════════════════════════════════════════════════════════════════════

// LoadFiles 按顺序加载多个文件并合并，后加载的文件覆盖同名键。
func LoadFiles(fs afero.Fs, paths ...string) (macro.Map, error) {
	maps := make([]macro.Map, 0, len(paths))
	for _, path := range paths {
		m, err := LoadFile(fs, path)
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}

	return macro.Merge(maps...), nil
}

// LoadFile 根据扩展名解析宏定义文件，fs 为 nil 时使用真实文件系统。
func LoadFile(fs afero.Fs, path string) (macro.Map, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	format := strings.ToLower(filepath.Ext(path))
	parse, ok := parsers[format]
	if !ok {
		return nil, cuserr.NewValidationError(ErrCodeSource, "unsupported macro file format").
			WithMetadata(MetaKeyPath, path).
			WithMetadata(MetaKeyFormat, format)
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeSource, "read macro file failed").
			WithMetadata(MetaKeyPath, path)
	}

	m, err := parse(content)
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeSource, "parse macro file failed").
			WithMetadata(MetaKeyPath, path).
			WithMetadata(MetaKeyFormat, format)
	}

	return m, nil
}

var parsers = map[string]func([]byte) (macro.Map, error){
	".properties": parseProperties,
	".props":      parseProperties,
	".yaml":       parseYAML,
	".yml":        parseYAML,
	".json":       parseJSON,
}

func parseProperties(content []byte) (macro.Map, error) {
	loader := properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(content)
	if err != nil {
		return nil, err
	}

	return macro.Map(p.Map()), nil
}

func parseYAML(content []byte) (macro.Map, error) {
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}

	return Flatten(data), nil
}

func parseJSON(content []byte) (macro.Map, error) {
	var data map[string]any
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, err
	}

	return Flatten(data), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 展平
// ═══════════════════════════════════════════════════════════════════════════

// Flatten 将嵌套映射展平为以 "." 连接的键。
//
// 标量按 fmt.Sprint 格式化，nil 为空串，列表元素以 "," 连接。
func Flatten(data map[string]any) macro.Map {
	out := make(macro.Map)
	flattenInto(out, "", data)

	return out
}

func flattenInto(out macro.Map, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for k, child := range v {
			flattenInto(out, joinKey(prefix, k), child)
		}
	case map[any]any:
		for k, child := range v {
			flattenInto(out, joinKey(prefix, fmt.Sprint(k)), child)
		}
	default:
		if prefix != "" {
			out[prefix] = scalar(v)
		}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}

func scalar(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = scalar(item)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + scalar(v[k])
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
