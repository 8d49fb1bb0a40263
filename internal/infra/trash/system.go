package trash

import (
	"os"
	"path/filepath"

	"github.com/Bios-Marcel/wastebasket/v2"
)

// 通过可替换的函数指针，让测试不触碰真实的系统回收站。
var systemTrash = wastebasket.Trash

// System 是操作系统回收站：
// Linux/BSD 为 freedesktop.org 规范（含挂载点下的 .Trash-$uid），macOS 为访达废纸篓，Windows 为回收站。
type System struct{}

// Trash 把 path 移入系统回收站；path 不存在时直接返回 not-exist 错误。
func (System) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}
	return systemTrash(abs)
}
