// Package markup 实现嵌套函数调用式的标记展开。
//
// 标记语法为 first NAME start PARAMS end，默认定界符为 '?'、'|'、'*'：
//
//	?if|${debug},-g,-O2*
//	?select|,?dir|/etc/hosts*,fallback*
//
// PARAMS 以 ',' 分隔，参数内可以继续嵌套标记。展开是单次从左到右扫描，
// 每个调用在扫描到它的 end 时立即解析，因此内层调用先于外层解析，
// 结果直接拼接到外层调用的参数文本中。
//
// # 解析器链
//
// 名称与参数交给 [Resolver] 链依次尝试，第一个命中的结果生效；
// 全部未命中时该调用输出为空。常规顺序为 [Builtin] 在前，
// 扩展解析器在后作为未知名称的兜底，见 [ExpandWith]。
//
// # 畸形输入
//
// 输入在 NAME 或 PARAMS 状态结束时（标记未闭合），自上一次顶层解析以来
// 读入的原始字符会原样输出，但触发该标记的 first 字符本身不输出：
//
//	out, _ := markup.ExpandDefault("?name|abc")
//	// out: "name|abc"
//
// 语法问题不会返回 error；只有解析器返回的 error 会中止展开。
package markup
