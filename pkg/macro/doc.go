// Package macro 提供基于定界符的宏展开。
//
// 默认定界符为 "${" 与 "}"，标签值由 [Lookup] 提供。
// 解析得到的值会用同样的定界符与 Lookup 再次展开，因此宏可以引用其他宏。
//
// # 语义说明
//
//  1. 源串为空或不含起始定界符时原样返回
//  2. 起始定界符之后找不到结束定界符时停止扫描，剩余文本原样输出（保留起始定界符）
//  3. Lookup 未命中时该标签输出为空，可用 [WithInvalid] 指定替代文本
//  4. 不检测循环引用，调用方需保证解析关系无环
//  5. 语法错误不会返回 error；只有 Lookup 返回的 error 会中止展开
//
// # 快速开始
//
//	out, err := macro.Expand("Hello ${name}!", macro.Map{"name": "World"})
//	// out: "Hello World!"
//
// 自定义定界符：
//
//	out, err := macro.ExpandDelims("Hello @name@", "@", "@", lookup)
//
// 使用环境变量与 Shell 参数展开语法：
//
//	out, err := macro.Expand(`model: "${LLM_MODEL:-gpt-4}"`, macro.Env())
//
// # 命名空间
//
// [WithNamespace] 只处理以 "ns." 开头的标签，其他标签原样保留，
// 便于对同一文本分多轮、由不同来源分别展开。
package macro
