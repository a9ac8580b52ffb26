package markup

import (
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/lwmacct/251218-go-pkg-markup/pkg/pathutil"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/versionutil"
)

// Extras 扩展函数集，通常放在 [Builtin] 之后：
//
//	env|NAME[,default]            环境变量，未设置时返回 default
//	uuid|                         随机 UUID (v4)
//	upper|s  lower|s  trim|s      大小写转换与去除首尾空白
//	full|root,path                path 基于 root 的完整路径
//	isabs|path                    绝对路径时返回 "true"
//	newer|version,base[,depth]    version 比 base 新时返回 "true"
//	join|sep,v1,v2,...            以 sep 连接其余参数
//	path|base,p1,p2,...           以系统路径分隔符拼接路径
//	trimdir|dir                   去除目录末尾的分隔符与 "."
var Extras Resolver = ResolverFunc(resolveExtra)

func resolveExtra(name string, args []string) (string, bool, error) {
	if name == "uuid" {
		return uuid.NewString(), true, nil
	}
	if len(args) == 0 {
		return "", false, nil
	}

	switch name {
	case "env":
		if args[0] == "" {
			break
		}
		if v, ok := os.LookupEnv(args[0]); ok {
			return v, true, nil
		}
		if len(args) >= 2 {
			return args[1], true, nil
		}
	case "upper":
		return strings.ToUpper(args[0]), true, nil
	case "lower":
		return strings.ToLower(args[0]), true, nil
	case "trim":
		return strings.TrimSpace(args[0]), true, nil
	case "full":
		if len(args) >= 2 {
			return pathutil.Full(args[0], args[1]), true, nil
		}
	case "isabs":
		if pathutil.IsAbs(args[0]) {
			return "true", true, nil
		}
	case "newer":
		if len(args) < 2 {
			break
		}
		depth := 0
		if len(args) >= 3 {
			d, err := strconv.Atoi(args[2])
			if err != nil {
				break
			}
			depth = d
		}
		if versionutil.Newer(args[0], args[1], depth) {
			return "true", true, nil
		}
	case "join":
		if len(args) >= 2 {
			return strings.Join(args[1:], args[0]), true, nil
		}
	case "path":
		return pathutil.Join(args[0], args[1:]...), true, nil
	case "trimdir":
		return pathutil.Trim(args[0]), true, nil
	}

	return "", false, nil
}
