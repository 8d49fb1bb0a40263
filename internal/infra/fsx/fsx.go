// Package fsx 封装导出与回收站需要的文件系统原语：不覆盖的复制、可跨盘的移动、原子写入。
package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 EXDEV 等错误。
var (
	renameFunc = os.Rename
	linkFunc   = os.Link
)

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示跨盘（EXDEV）导致的 rename 失败。
// MoveFile 会自行回退为 copy+remove；直接调用 Rename 的一方需要自己处理。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨盘移动失败（EXDEV）：%q -> %q：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 os.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// CheckAbsent 确认 dst 当前不存在。
//
// - 已存在的普通文件：返回 os.ErrExist
// - 已存在的目录/其它类型：返回 PathTypeConflictError（同样满足 errors.Is(err, os.ErrExist)）
func CheckAbsent(dst string) error {
	fi, err := os.Lstat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if fi.IsDir() {
		return &existConflict{&PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}}
	}
	if !fi.Mode().IsRegular() {
		return &existConflict{&PathTypeConflictError{Path: dst, Want: "regular file", Got: fi.Mode().Type().String()}}
	}
	return os.ErrExist
}

// existConflict 让类型冲突同时可被识别为“目标已存在”。
type existConflict struct{ *PathTypeConflictError }

func (e *existConflict) Unwrap() []error { return []error{e.PathTypeConflictError, os.ErrExist} }

// CopyFileNoOverwrite 把 src 复制到 dst；dst 已存在时失败，绝不覆盖。
//
// 约束：
// - 目标以 O_EXCL 创建：检查与创建之间不存在竞态
// - 数据落盘（fsync）后才算成功；失败时删除写了一半的目标文件
// - 保留源文件的权限位与修改时间
func CopyFileNoOverwrite(src, dst string) (err error) {
	if err := CheckAbsent(dst); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return &PathTypeConflictError{Path: src, Want: "regular file", Got: fi.Mode().Type().String()}
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fi.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}

	// 修改时间是照片排序的常用依据；失败不影响数据正确性。
	_ = os.Chtimes(dst, fi.ModTime(), fi.ModTime())
	return nil
}

// MoveFile 把 src 移动到 dst；dst 已存在时失败，绝不覆盖。
//
// 同盘优先使用 link+remove：目标在检查后才出现时 link 返回 EEXIST，不会被替换。
// 文件系统不支持硬链接（FAT/exFAT 等）时退回 rename。
// 跨盘（EXDEV）回退为 CopyFileNoOverwrite + 删除源文件。
// 删除源文件失败时，目标保留并返回错误（数据不会丢失）。
func MoveFile(src, dst string) error {
	if err := CheckAbsent(dst); err != nil {
		return err
	}

	err := linkFunc(src, dst)
	switch {
	case err == nil:
		return removeSource(src, dst)
	case errors.Is(err, os.ErrExist):
		return err
	case isEXDEV(err):
		return copyThenRemove(src, dst)
	}

	err = Rename(src, dst)
	if err == nil {
		return nil
	}
	if !IsCrossDevice(err) {
		return err
	}
	return copyThenRemove(src, dst)
}

func copyThenRemove(src, dst string) error {
	if err := CopyFileNoOverwrite(src, dst); err != nil {
		return err
	}
	return removeSource(src, dst)
}

func removeSource(src, dst string) error {
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("已写入 %q 但删除源文件失败：%w", dst, err)
	}
	return nil
}

// WriteFileExclusive 以 O_EXCL 创建 path 并写入 data；文件已存在时返回 os.ErrExist。
// 用于“先占名再使用”的场景（例如回收站的 .trashinfo）。
func WriteFileExclusive(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if err := writeAll(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

// WriteFileAtomicReplace 在 dir 下原子写入 name（临时文件 + rename），覆盖同名文件。
// 用于报告等输出产物（Windows 上为 best-effort）。
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	return writeFileAtomic(dir, name, data, 0o644)
}

func writeFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)
	if fi, err := os.Lstat(dst); err == nil && fi.IsDir() {
		return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
	}

	// 同目录临时文件（前缀带 '.'，避免出现在照片浏览视图里）。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := Rename(tmpName, dst); err != nil {
		return err
	}

	// 目录 fsync：best-effort（不同平台/文件系统的语义差异很大）。
	_ = syncDirBestEffort(dir)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
