package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251218-go-pkg-markup/internal/command/macro"
	"github.com/lwmacct/251218-go-pkg-markup/internal/command/markup"
	"github.com/lwmacct/251218-go-pkg-markup/internal/command/render"
	"github.com/lwmacct/251218-go-pkg-markup/internal/command/version"
	"github.com/lwmacct/251218-go-pkg-markup/internal/config"
)

func main() {
	app := &cli.Command{
		Name:    config.AppName,
		Usage:   "宏与标记模板展开工具",
		Version: version.Version,
		Commands: []*cli.Command{
			version.Command,
			macro.Command,
			markup.Command,
			render.Command,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("应用程序运行失败", "error", err)
		os.Exit(1)
	}
}
