// Package version 提供版本信息命令。
package version

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251218-go-pkg-markup/internal/config"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/versionutil"
)

// 构建时通过 -ldflags "-X ..." 注入。
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Command 版本命令
var Command = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "显示版本信息",
		Action: action,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "require",
				Usage: "要求的最低版本，低于该版本时返回错误",
			},
			&cli.IntFlag{
				Name:  "depth",
				Value: 3,
				Usage: "比较的版本段数",
			},
		},
	}
}

func action(_ context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer
	if _, err := fmt.Fprintf(w, "%s %s (commit %s, built %s)\n", config.AppName, Version, Commit, BuildTime); err != nil {
		return err
	}

	required := cmd.String("require")
	if required == "" {
		return nil
	}

	cmp, err := versionutil.Compare(strings.TrimPrefix(Version, "v"), strings.TrimPrefix(required, "v"), int(cmd.Int("depth")))
	if err != nil {
		return fmt.Errorf("compare version: %w", err)
	}
	if cmp < 0 {
		return fmt.Errorf("version %s is older than required %s", Version, required)
	}

	return nil
}
