package macro

// Lookup 根据标签返回宏的值。
//
// ok 为 false 表示未命中：该标签不产生输出。
// 返回的 error 会中止本次展开并原样返回给调用方。
type Lookup interface {
	Lookup(key string) (value string, ok bool, err error)
}

// LookupFunc 将普通函数适配为 [Lookup]。
type LookupFunc func(key string) (string, bool, error)

// Lookup 实现 [Lookup]。
func (f LookupFunc) Lookup(key string) (string, bool, error) {
	return f(key)
}

// Map 基于键值表的 [Lookup]。
type Map map[string]string

// Lookup 实现 [Lookup]。
func (m Map) Lookup(key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

// Merge 返回合并后的新表，后出现的表覆盖先出现的同名键。
func Merge(maps ...Map) Map {
	n := 0
	for _, m := range maps {
		n += len(m)
	}

	out := make(Map, n)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}

	return out
}

// Chain 按顺序尝试多个 Lookup，第一个命中的结果生效。
type Chain []Lookup

// Lookup 实现 [Lookup]。
func (c Chain) Lookup(key string) (string, bool, error) {
	for _, l := range c {
		if l == nil {
			continue
		}
		v, ok, err := l.Lookup(key)
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}

	return "", false, nil
}
