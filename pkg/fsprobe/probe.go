// Package fsprobe 提供模板函数使用的文件系统探测。
//
// 探测失败（权限、I/O 错误等）一律视为 "不存在"，不返回 error。
// 底层文件系统由 afero 提供，测试时可替换为内存文件系统。
package fsprobe

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Probe 基于 afero.Fs 的文件系统探测器。
type Probe struct {
	fs afero.Fs
}

// OS 为基于真实文件系统的探测器。
var OS = New(afero.NewOsFs())

// New 创建探测器，fs 为 nil 时使用真实文件系统。
func New(fs afero.Fs) *Probe {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &Probe{fs: fs}
}

// Fs 返回底层文件系统。
func (p *Probe) Fs() afero.Fs {
	return p.fs
}

// Exists 判断 path 是否存在（文件或目录）。
func (p *Probe) Exists(path string) bool {
	if path == "" {
		return false
	}
	ok, err := afero.Exists(p.fs, path)
	if err != nil {
		slog.Debug("fsprobe: stat failed", "path", path, "error", err)

		return false
	}

	return ok
}

// Parent 返回 path 的父目录；path 不存在或没有父目录时返回 false。
func (p *Probe) Parent(path string) (string, bool) {
	if !p.Exists(path) {
		return "", false
	}

	return parentOf(path)
}

// Name 返回 path 的最后一段名称；path 不存在时返回 false。
func (p *Probe) Name(path string) (string, bool) {
	if !p.Exists(path) {
		return "", false
	}

	return filepath.Base(filepath.Clean(path)), true
}

// Canonical 返回清理后的 path；path 不存在时返回 false。
func (p *Probe) Canonical(path string) (string, bool) {
	if !p.Exists(path) {
		return "", false
	}

	return filepath.Clean(path), true
}

// parentOf 计算父目录。单段相对路径与根目录没有父目录。
func parentOf(path string) (string, bool) {
	cleaned := filepath.Clean(path)
	if !strings.ContainsRune(cleaned, filepath.Separator) {
		return "", false
	}
	dir := filepath.Dir(cleaned)
	if dir == cleaned {
		return "", false
	}

	return dir, true
}
