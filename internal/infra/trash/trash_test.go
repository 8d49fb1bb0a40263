package trash

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedHome(dir string) *Home {
	h := NewHome(dir)
	h.now = func() time.Time { return time.Date(2024, 6, 1, 8, 30, 0, 0, time.Local) }
	return h
}

func TestHome_TrashWritesInfoAndMovesFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Trash")
	src := filepath.Join(t.TempDir(), "my photo.ARW")
	if err := os.WriteFile(src, []byte("raw"), 0o644); err != nil {
		t.Fatalf("写入失败：%v", err)
	}

	if err := fixedHome(root).Trash(src); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("源文件应已移走")
	}
	b, err := os.ReadFile(filepath.Join(root, "files", "my photo.ARW"))
	if err != nil || string(b) != "raw" {
		t.Fatalf("回收站文件不符合预期：%q %v", b, err)
	}

	info, err := os.ReadFile(filepath.Join(root, "info", "my photo.ARW.trashinfo"))
	if err != nil {
		t.Fatalf("读取 trashinfo 失败：%v", err)
	}
	s := string(info)
	if !strings.HasPrefix(s, "[Trash Info]\n") {
		t.Fatalf("trashinfo 头部错误：%q", s)
	}
	if !strings.Contains(s, "my%20photo.ARW\n") {
		t.Fatalf("Path 未转义：%q", s)
	}
	if !strings.Contains(s, "DeletionDate=2024-06-01T08:30:00\n") {
		t.Fatalf("DeletionDate 错误：%q", s)
	}
}

func TestHome_TrashNameCollision(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Trash")
	h := fixedHome(root)

	var srcs []string
	for _, d := range []string{t.TempDir(), t.TempDir()} {
		p := filepath.Join(d, "IMG_1.JPG")
		if err := os.WriteFile(p, []byte(d), 0o644); err != nil {
			t.Fatalf("写入失败：%v", err)
		}
		srcs = append(srcs, p)
	}
	for _, p := range srcs {
		if err := h.Trash(p); err != nil {
			t.Fatalf("不期望错误：%v", err)
		}
	}

	files, err := os.ReadDir(filepath.Join(root, "files"))
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	infos, err := os.ReadDir(filepath.Join(root, "info"))
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	if len(files) != 2 || len(infos) != 2 {
		t.Fatalf("期望 2 个条目，实际 files=%d info=%d", len(files), len(infos))
	}
	for _, f := range files {
		if f.Name() == "IMG_1.JPG" {
			continue
		}
		if !strings.HasPrefix(f.Name(), "IMG_1_") || !strings.HasSuffix(f.Name(), ".JPG") {
			t.Fatalf("重名文件命名不符合预期：%q", f.Name())
		}
		if _, err := os.Stat(filepath.Join(root, "info", f.Name()+".trashinfo")); err != nil {
			t.Fatalf("缺少对应的 trashinfo：%v", err)
		}
	}
}

func TestHome_TrashMissingFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Trash")
	err := fixedHome(root).Trash(filepath.Join(t.TempDir(), "nope.JPG"))
	if !os.IsNotExist(err) {
		t.Fatalf("期望 not-exist，实际：%v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "info")); !os.IsNotExist(err) {
		t.Fatalf("失败时不应创建回收站目录")
	}
}

func TestHome_TrashRequiresDir(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.JPG")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入失败：%v", err)
	}
	if err := NewHome("").Trash(src); !errors.Is(err, ErrNoDir) {
		t.Fatalf("期望 ErrNoDir，实际：%v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("源文件不应改变：%v", err)
	}
}

func TestNew_SelectsTrasher(t *testing.T) {
	if _, ok := New("").(System); !ok {
		t.Fatalf("未配置目录时应使用系统回收站")
	}
	h, ok := New("/tmp/culler-trash").(*Home)
	if !ok || h.Dir != "/tmp/culler-trash" {
		t.Fatalf("配置目录时应使用 Home：%#v", h)
	}
}
