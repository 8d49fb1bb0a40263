package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/culler/internal/domain"
)

// ScanDir 列出 dir 下（不递归）扩展名在白名单内的普通文件。
//
// 规则（硬约束）：
// - dir 不存在或不是目录：*domain.ValidationError，整体失败
// - 目录无法读取：*domain.IOError，整体失败
// - 只做 stat（DirEntry.Info），不读文件内容
func ScanDir(dir string, exts domain.Extensions) ([]domain.FileDescriptor, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.ValidationError{Path: dir, Reason: "目录不存在"}
		}
		return nil, &domain.IOError{Op: "stat", Path: dir, Err: err}
	}
	if !fi.IsDir() {
		return nil, &domain.ValidationError{Path: dir, Reason: "路径不是目录"}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.IOError{Op: "read-dir", Path: dir, Err: err}
	}

	files := make([]domain.FileDescriptor, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		kind := classify(name, exts)
		if kind == domain.KindNone {
			continue
		}

		path := filepath.Join(dir, name)
		// DirEntry.Type 不跟随符号链接；这里用 Stat 与“是否是普通文件”的语义保持一致。
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		files = append(files, describe(name, path, info.Size()))
	}

	sortByName(files)
	return files, nil
}

// ScanPaths 从显式路径列表中保留当前存在且扩展名在白名单内的普通文件。
//
// 与 ScanDir 不同：单个路径缺失/不可访问只会被排除，永远不会整体失败。
// Path 字段保留调用方给出的原始字符串。
func ScanPaths(paths []string, exts domain.Extensions) []domain.FileDescriptor {
	files := make([]domain.FileDescriptor, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		name := filepath.Base(p)
		if classify(name, exts) == domain.KindNone {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, describe(name, p, info.Size()))
	}

	sortByName(files)
	return files
}

func classify(name string, exts domain.Extensions) domain.Kind {
	ext := filepath.Ext(name)
	// ".jpg" 这类只有扩展名的隐藏文件没有 stem，不参与分组。
	if ext == "" || ext == name {
		return domain.KindNone
	}
	return exts.Classify(ext)
}

func describe(name, path string, size int64) domain.FileDescriptor {
	return domain.FileDescriptor{
		Name:      name,
		Extension: domain.NormalizeExt(filepath.Ext(name)),
		Path:      path,
		Size:      size,
	}
}

// 强制稳定输出：同一 stem 的槽位冲突按文件名字节序决出，不依赖文件系统枚举顺序。
func sortByName(files []domain.FileDescriptor) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Name != files[j].Name {
			return files[i].Name < files[j].Name
		}
		return files[i].Path < files[j].Path
	})
}
