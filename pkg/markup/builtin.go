package markup

import (
	"github.com/lwmacct/251218-go-pkg-markup/pkg/fsprobe"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/pathutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// 内置函数
// ═══════════════════════════════════════════════════════════════════════════

// Builtin 基于真实文件系统的内置解析器，包初始化时构造，无状态，可并发使用。
var Builtin = NewBuiltin(fsprobe.OS)

// Builtins 内置函数集：
//
//	if|cond,then[,else]   cond 非空且至少两个参数时返回 then，否则返回 else
//	dir|path              path 存在时返回其父目录
//	file|path             path 存在时返回清理后的路径
//	filename|path         path 存在时返回其名称
//	relative|root,path    path 相对 root 的路径
//	select|v1,v2,...      第一个非空参数
//
// 其他名称视为未命中。内置函数从不返回 error。
type Builtins struct {
	probe *fsprobe.Probe
}

// NewBuiltin 创建使用 probe 探测文件系统的内置解析器，probe 为 nil 时使用 [fsprobe.OS]。
func NewBuiltin(probe *fsprobe.Probe) *Builtins {
	if probe == nil {
		probe = fsprobe.OS
	}

	return &Builtins{probe: probe}
}

// Resolve 实现 [Resolver]。
func (b *Builtins) Resolve(name string, args []string) (string, bool, error) {
	if len(args) == 0 {
		return "", false, nil
	}

	switch name {
	case "if":
		if args[0] != "" && len(args) >= 2 {
			return args[1], true, nil
		}
		if len(args) >= 3 {
			return args[2], true, nil
		}
	case "dir":
		v, ok := b.probe.Parent(args[0])
		return v, ok, nil
	case "file":
		v, ok := b.probe.Canonical(args[0])
		return v, ok, nil
	case "filename":
		v, ok := b.probe.Name(args[0])
		return v, ok, nil
	case "relative":
		if len(args) >= 2 {
			return pathutil.Relative(args[0], args[1]), true, nil
		}
	case "select":
		for _, a := range args {
			if a != "" {
				return a, true, nil
			}
		}
	}

	return "", false, nil
}
