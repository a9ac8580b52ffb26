// Package script 提供基于 JavaScript 的标记解析器。
//
// 脚本在独立的 goja 运行时中执行，不暴露任何宿主 I/O。
// 标记调用 ?name|a,b* 会调用脚本中的全局函数 name("a", "b")：
//
//	function greet(who) { return "hello " + who; }
//
// 只有脚本顶层以 function 或 var 声明的函数可被调用，
// eval、Function 等运行时内置对象不会被分派。
//
// 函数不存在、返回 undefined/null、抛出异常或超时都视为未命中，
// 交给解析器链中的下一个解析器，不返回 error。
package script

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/itsatony/go-cuserr"
	"github.com/spf13/afero"
)

// 错误码与元数据键。
const (
	ErrCodeScript = "MARKUP_SCRIPT"

	MetaKeyScript = "script"
	MetaKeyPath   = "path"
)

// Resolver 基于 goja 运行时的解析器，实现 markup.Resolver。
//
// goja 运行时不支持并发，调用通过互斥锁串行执行。
type Resolver struct {
	name    string
	timeout time.Duration

	mu    sync.Mutex
	vm    *goja.Runtime
	funcs map[string]bool
}

// Option 解析器选项函数。
type Option func(*Resolver)

// WithTimeout 限制单次函数调用的执行时间，d <= 0 表示不限制。
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// New 执行 source 并返回解析器，name 用于错误信息与日志。
//
// 语法错误或顶层代码抛出的异常返回 error。
func New(name, source string, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		name: name,
		vm:   goja.New(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := r.run(func() (goja.Value, error) {
		return r.vm.RunScript(name, source)
	}); err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeScript, "script evaluation failed").
			WithMetadata(MetaKeyScript, name)
	}
	r.funcs = r.exported()

	return r, nil
}

// exported 收集脚本定义的全局函数名。内置对象不可枚举，不会出现在 Keys 中。
func (r *Resolver) exported() map[string]bool {
	global := r.vm.GlobalObject()
	funcs := make(map[string]bool)
	for _, key := range global.Keys() {
		if _, ok := goja.AssertFunction(global.Get(key)); ok {
			funcs[key] = true
		}
	}

	return funcs
}

// Load 从 fs 读取脚本文件并创建解析器，fs 为 nil 时使用真实文件系统。
func Load(fs afero.Fs, path string, opts ...Option) (*Resolver, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeScript, "read script failed").
			WithMetadata(MetaKeyPath, path)
	}

	return New(path, string(content), opts...)
}

// Name 返回脚本名称。
func (r *Resolver) Name() string {
	return r.name
}

// Resolve 实现 markup.Resolver，调用脚本中名为 name 的全局函数。
func (r *Resolver) Resolve(name string, args []string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.funcs[name] {
		return "", false, nil
	}
	fn, ok := goja.AssertFunction(r.vm.Get(name))
	if !ok {
		return "", false, nil
	}

	values := make([]goja.Value, len(args))
	for i, a := range args {
		values[i] = r.vm.ToValue(a)
	}

	v, err := r.run(func() (goja.Value, error) {
		return fn(goja.Undefined(), values...)
	})
	if err != nil {
		slog.Warn("script: call failed", "script", r.name, "func", name, "error", err)

		return "", false, nil
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", false, nil
	}

	return v.String(), true, nil
}

// run 在超时限制下执行 call，调用方需持有锁或处于构造阶段。
func (r *Resolver) run(call func() (goja.Value, error)) (goja.Value, error) {
	if r.timeout <= 0 {
		return call()
	}

	fired := make(chan struct{})
	timer := time.AfterFunc(r.timeout, func() {
		r.vm.Interrupt(fmt.Sprintf("timeout after %s", r.timeout))
		close(fired)
	})
	defer func() {
		// 等待已触发的回调完成 Interrupt 后再清除
		if !timer.Stop() {
			<-fired
		}
		r.vm.ClearInterrupt()
	}()

	return call()
}
