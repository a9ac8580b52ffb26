// Package versionutil 比较以 "." 分隔的数字版本号。
package versionutil

import (
	"fmt"
	"strconv"
	"strings"
)

// Compare 比较 version 与 base。
//
// 返回 -1、0、1 分别表示 version 小于、等于、大于 base。
// 缺失或为空的段按 0 处理；depth > 0 时只比较前 depth 段。
// 段中出现非数字或负数时返回 error。
func Compare(version, base string, depth int) (int, error) {
	left := strings.Split(version, ".")
	right := strings.Split(base, ".")

	n := max(len(left), len(right))
	if depth > 0 && n > depth {
		n = depth
	}

	for i := range n {
		a, err := segment(left, i)
		if err != nil {
			return 0, fmt.Errorf("versionutil: %q: %w", version, err)
		}
		b, err := segment(right, i)
		if err != nil {
			return 0, fmt.Errorf("versionutil: %q: %w", base, err)
		}

		switch {
		case a > b:
			return 1, nil
		case a < b:
			return -1, nil
		}
	}

	return 0, nil
}

// Newer 判断 version 是否比 base 新；无法解析时返回 false。
func Newer(version, base string, depth int) bool {
	c, err := Compare(version, base, depth)
	return err == nil && c > 0
}

func segment(parts []string, i int) (int, error) {
	if i >= len(parts) || parts[i] == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(parts[i])
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative segment %d", v)
	}

	return v, nil
}
