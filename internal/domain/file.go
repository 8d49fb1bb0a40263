package domain

import (
	"path/filepath"
	"strings"
)

// FileDescriptor 描述一次扫描得到的候选图片文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - Extension 为大写且不含 '.'，例如 "ARW"
// - 每次扫描重新生成，生成后不再修改
type FileDescriptor struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
}

// Stem 返回去掉扩展名的文件名，即分组主键。
func (f FileDescriptor) Stem() string {
	return strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
}
