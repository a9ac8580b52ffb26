// Package pathutil 提供模板函数使用的路径计算工具。
//
// 所有函数只做字符串层面的计算，不访问文件系统。
// 反斜杠统一视为分隔符，便于处理 Windows 风格的工程文件路径。
package pathutil

import (
	"path/filepath"
	"strings"
)

const sep = "/"

// IsAbs 判断 path 是否为绝对路径。
func IsAbs(path string) bool {
	return filepath.IsAbs(path) || strings.HasPrefix(normalize(path), sep)
}

// Full 以 root 为基准返回 path 的完整路径。
//
// root 为空时返回 path；path 为空时返回 root；path 已是绝对路径时原样返回。
func Full(root, path string) string {
	if root == "" {
		return path
	}
	if path == "" {
		return root
	}
	if IsAbs(path) {
		return path
	}

	return filepath.Join(root, path)
}

// Relative 计算 path 相对于 root 的路径。
//
// 比较各段时忽略大小写，结果统一使用 "/" 分隔：
//   - Relative("/a/b/c", "/a/b/d/e.txt") → "../d/e.txt"
//   - Relative("/a/b", "/a/b") → "."
//
// root 为空时返回 path；path 为空时返回 root。
func Relative(root, path string) string {
	if root == "" {
		return path
	}
	if path == "" {
		return root
	}

	root = normalize(root)
	path = normalize(path)
	if root == path {
		return "."
	}

	rootParts := strings.Split(root, sep)
	pathParts := strings.Split(path, sep)

	common := 0
	for common < len(rootParts) && common < len(pathParts) {
		if !strings.EqualFold(rootParts[common], pathParts[common]) {
			break
		}
		common++
	}

	parts := make([]string, 0, len(rootParts)-common+len(pathParts)-common)
	for range len(rootParts) - common {
		parts = append(parts, "..")
	}
	parts = append(parts, pathParts[common:]...)
	if len(parts) == 0 {
		return "."
	}

	return strings.Join(parts, sep)
}

// Trim 去掉目录末尾的 "/." 与多余分隔符。
func Trim(dir string) string {
	if strings.HasSuffix(dir, "/.") || strings.HasSuffix(dir, `\.`) {
		dir = dir[:len(dir)-2]
	}
	if len(dir) > 1 && (strings.HasSuffix(dir, "/") || strings.HasSuffix(dir, `\`)) {
		dir = dir[:len(dir)-1]
	}

	return dir
}

// Join 依次拼接路径片段，使用系统分隔符。
func Join(path string, parts ...string) string {
	for _, p := range parts {
		path += string(filepath.Separator) + p
	}

	return path
}

// normalize 统一分隔符并去掉末尾的分隔符。
func normalize(path string) string {
	path = strings.ReplaceAll(path, `\`, sep)
	if len(path) > 1 {
		path = strings.TrimRight(path, sep)
		if path == "" {
			return sep
		}
	}

	return path
}
