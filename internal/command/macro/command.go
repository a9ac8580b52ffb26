// Package macro 提供宏展开命令。
package macro

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251218-go-pkg-markup/internal/command"
	"github.com/lwmacct/251218-go-pkg-markup/internal/engine"
)

// Command 宏展开命令
var Command = &cli.Command{
	Name:      "macro",
	Usage:     "展开 ${name} 形式的宏",
	ArgsUsage: "[file]",
	Flags:     append(command.ConfigFlags(), command.DefineFlag()),
	Action:    action,
}

func action(ctx context.Context, cmd *cli.Command) error {
	return command.Run(ctx, cmd, (*engine.Engine).Macro)
}
