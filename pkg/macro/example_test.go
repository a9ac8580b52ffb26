package macro_test

import (
	"fmt"
	"os"

	"github.com/lwmacct/251218-go-pkg-markup/pkg/macro"
)

func ExampleExpand() {
	result, _ := macro.Expand("Hello ${name}!", macro.Map{"name": "World"})
	fmt.Println(result)

	// Output:
	// Hello World!
}

// ExampleExpand_recursive 演示解析值会被再次展开。
func ExampleExpand_recursive() {
	lookup := macro.Map{
		"greeting": "Hello ${name}",
		"name":     "${first} ${last}",
		"first":    "Ada",
		"last":     "Lovelace",
	}

	result, _ := macro.Expand("${greeting}.", lookup)
	fmt.Println(result)

	// Output:
	// Hello Ada Lovelace.
}

func ExampleNew_namespace() {
	e := macro.New(macro.WithNamespace("db", ""), macro.WithInvalid("?"))

	result, _ := e.Expand("${db.host}:${db.port} ${app.name}", macro.Map{"db.host": "localhost"})
	fmt.Println(result)

	// Output:
	// localhost:? ${app.name}
}

// Example_shellExpansion 演示 Shell 参数展开。
func Example_shellExpansion() {
	_ = os.Setenv("API_KEY", "sk-12345")
	defer func() { _ = os.Unsetenv("API_KEY") }()

	result, _ := macro.Expand(`key=${API_KEY} host=${HOST_FOR_EXAMPLE:-localhost}`, macro.Env())
	fmt.Println(result)

	// Output:
	// key=sk-12345 host=localhost
}

// Example_shellAssign 演示 := 赋值仅在当前快照内生效。
func Example_shellAssign() {
	result, _ := macro.ExpandEnv(`${MODEL_FOR_EXAMPLE:=gpt-4}-${MODEL_FOR_EXAMPLE}`)
	fmt.Println(result)

	// Output:
	// gpt-4-gpt-4
}
