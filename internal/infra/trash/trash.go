// Package trash 把文件移入回收站（可恢复删除）。
//
// 未配置 trash_dir 时使用操作系统回收站（System）；配置后使用该目录下的 freedesktop.org 布局（Home）。
package trash

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/culler/internal/infra/fsx"
)

// ErrNoDir 表示 Home 未指定回收站目录。
var ErrNoDir = errors.New("未指定回收站目录")

// Trasher 把单个文件移入回收站。
type Trasher interface {
	Trash(path string) error
}

// New 按配置选择回收站：dir 为空时使用操作系统回收站。
func New(dir string) Trasher {
	if dir == "" {
		return System{}
	}
	return NewHome(dir)
}

// maxNameAttempts 是回收站内重名时的最大重试次数。
const maxNameAttempts = 16

// layout 是 freedesktop.org 回收站的目录结构（files/ + info/*.trashinfo）。
type layout struct {
	Files string
	Info  string
}

// Home 是 Dir 下的 freedesktop.org 布局回收站，任何平台都可用。
type Home struct {
	Dir string

	now func() time.Time
}

func NewHome(dir string) *Home {
	return &Home{Dir: dir, now: time.Now}
}

// Trash 把 path 移入回收站。
//
// 规则：
// - 回收站中已有同名文件时，名字追加 uuid 片段，不覆盖任何已有条目
// - 先以 O_EXCL 写 .trashinfo 占名，再移动文件；移动失败时删除该 .trashinfo
// - 跨盘时由 fsx.MoveFile 回退为 copy+remove
func (h *Home) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}

	if h.Dir == "" {
		return ErrNoDir
	}
	lay := freedesktop(h.Dir)
	if err := os.MkdirAll(lay.Files, 0o700); err != nil {
		return err
	}
	if err := os.MkdirAll(lay.Info, 0o700); err != nil {
		return err
	}

	base := filepath.Base(abs)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := candidateName(base, attempt)
		dst := filepath.Join(lay.Files, name)

		infoPath := filepath.Join(lay.Info, name+".trashinfo")
		if err := fsx.WriteFileExclusive(infoPath, h.trashInfo(abs), 0o600); err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return err
		}

		err := fsx.MoveFile(abs, dst)
		if err == nil {
			return nil
		}
		_ = os.Remove(infoPath)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		return err
	}
	return fmt.Errorf("回收站中同名文件过多：%q", base)
}

func (h *Home) trashInfo(abs string) []byte {
	now := time.Now
	if h.now != nil {
		now = h.now
	}
	// Path 按 RFC 2396 转义；DeletionDate 为本地时间，不带时区。
	return []byte(fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		(&url.URL{Path: filepath.ToSlash(abs)}).EscapedPath(),
		now().Format("2006-01-02T15:04:05"),
	))
}

func freedesktop(root string) layout {
	return layout{
		Files: filepath.Join(root, "files"),
		Info:  filepath.Join(root, "info"),
	}
}

// candidateName：第一次尝试原名，之后为 <stem>_<uuid 前 8 位><ext>。
func candidateName(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + "_" + uuid.NewString()[:8] + ext
}
