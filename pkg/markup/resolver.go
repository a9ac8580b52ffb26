package markup

// Resolver 解析一次函数调用。
//
// ok 为 false 表示未处理该名称，交给链中下一个解析器。
// 返回的 error 会中止本次展开并原样返回给调用方。
type Resolver interface {
	Resolve(name string, args []string) (value string, ok bool, err error)
}

// ResolverFunc 将普通函数适配为 [Resolver]。
type ResolverFunc func(name string, args []string) (string, bool, error)

// Resolve 实现 [Resolver]。
func (f ResolverFunc) Resolve(name string, args []string) (string, bool, error) {
	return f(name, args)
}

// Chain 按顺序尝试多个解析器，第一个命中的结果生效。
type Chain []Resolver

// Resolve 实现 [Resolver]。
func (c Chain) Resolve(name string, args []string) (string, bool, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		v, ok, err := r.Resolve(name, args)
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}

	return "", false, nil
}
