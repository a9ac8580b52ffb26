// Package render 提供宏与标记的组合展开命令。
package render

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251218-go-pkg-markup/internal/command"
	"github.com/lwmacct/251218-go-pkg-markup/internal/engine"
)

// Command 渲染命令：先展开宏，再展开标记。
var Command = &cli.Command{
	Name:      "render",
	Usage:     "先展开宏，再展开标记",
	ArgsUsage: "[file]",
	Flags:     append(command.ConfigFlags(), command.DefineFlag()),
	Action:    action,
}

func action(ctx context.Context, cmd *cli.Command) error {
	return command.Run(ctx, cmd, (*engine.Engine).Render)
}
