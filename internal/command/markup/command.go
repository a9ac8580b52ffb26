// Package markup 提供标记展开命令。
package markup

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251218-go-pkg-markup/internal/command"
	"github.com/lwmacct/251218-go-pkg-markup/internal/engine"
)

// Command 标记展开命令
var Command = &cli.Command{
	Name:      "markup",
	Usage:     "展开 ?name|args* 形式的函数调用",
	ArgsUsage: "[file]",
	Flags:     command.ConfigFlags(),
	Action:    action,
}

func action(ctx context.Context, cmd *cli.Command) error {
	return command.Run(ctx, cmd, (*engine.Engine).Markup)
}
