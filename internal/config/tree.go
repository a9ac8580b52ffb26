package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	yamlv3 "go.yaml.in/yaml/v3"
)

// tree 以 json tag 为 key 的嵌套配置，叶子为最终值。
type tree map[string]any

// ═══════════════════════════════════════════════════════════════════════════
// 构建
// ═══════════════════════════════════════════════════════════════════════════

// treeOf 将配置结构体的叶子字段写入 tree，time.Duration 视为叶子。
func treeOf(cfg any) tree {
	t := tree{}

	val := reflect.ValueOf(cfg)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return t
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return t
	}

	walkConfigFields(val.Type(), "", func(key string, _ reflect.Type) {
		t.set(key, val.FieldByIndex(fieldIndex(val.Type(), key)).Interface())
	})

	return t
}

// fieldIndex 将 "macro.db-dsn" 形式的 key 解析为嵌套字段下标。
func fieldIndex(typ reflect.Type, key string) []int {
	var index []int
	for part := range strings.SplitSeq(key, ".") {
		for i := range typ.NumField() {
			if configTagName(typ.Field(i)) == part {
				index = append(index, i)
				typ = typ.Field(i).Type

				break
			}
		}
	}

	return index
}

// parseTree 解析配置文件内容，.json 使用 encoding/json，其余按 YAML 解析。
func parseTree(path string, content []byte) (tree, error) {
	var raw any
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(content, &raw)
	default:
		err = yamlv3.Unmarshal(content, &raw)
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return tree{}, nil
	}

	t, ok := asTree(raw)
	if !ok {
		return nil, errors.New("config root must be object")
	}

	return t, nil
}

// asTree 将解码得到的 map 统一为 tree，非 map 返回 false。
func asTree(v any) (tree, bool) {
	out := tree{}
	switch m := v.(type) {
	case map[string]any:
		for k, child := range m {
			out[k] = normalize(child)
		}
	case map[any]any:
		for k, child := range m {
			out[fmt.Sprint(k)] = normalize(child)
		}
	default:
		return nil, false
	}

	return out, true
}

func normalize(v any) any {
	if t, ok := asTree(v); ok {
		return t
	}
	if list, ok := v.([]any); ok {
		for i, item := range list {
			list[i] = normalize(item)
		}
	}

	return v
}

// ═══════════════════════════════════════════════════════════════════════════
// 操作
// ═══════════════════════════════════════════════════════════════════════════

// merge 将 src 深度合并到 t，同名叶子以 src 为准。
func (t tree) merge(src tree) {
	for k, v := range src {
		sub, isTree := v.(tree)
		dst, hasTree := t[k].(tree)
		if isTree && hasTree {
			dst.merge(sub)

			continue
		}
		t[k] = v
	}
}

// set 按点分路径写入叶子，沿途缺失或非 tree 的节点被替换。
func (t tree) set(key string, value any) {
	parent, leaf, found := strings.Cut(key, ".")
	if !found {
		t[key] = value

		return
	}

	child, ok := t[parent].(tree)
	if !ok {
		child = tree{}
		t[parent] = child
	}
	child.set(leaf, value)
}

// leaves 返回所有叶子的点分路径，按字典序排列。空 tree 节点视为叶子。
func (t tree) leaves() []string {
	var keys []string
	for k, v := range t {
		if sub, ok := v.(tree); ok && len(sub) > 0 {
			for _, leaf := range sub.leaves() {
				keys = append(keys, k+"."+leaf)
			}

			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// decode 将 tree 解码到 out。
//
// 字符串按 "," 拆分为切片，用于环境变量设置的列表字段。
func (t tree) decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return err
	}

	return decoder.Decode(map[string]any(t))
}

// ═══════════════════════════════════════════════════════════════════════════
// 字段元信息
// ═══════════════════════════════════════════════════════════════════════════

var durationType = reflect.TypeFor[time.Duration]()

// configTagName 返回字段的 json key，"-" 或空 tag 返回 ""。
func configTagName(field reflect.StructField) string {
	if !field.IsExported() {
		return ""
	}
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}

	return name
}

// isSection 判断字段是否为嵌套配置段。
func isSection(typ reflect.Type) bool {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	return typ.Kind() == reflect.Struct && typ != durationType
}
