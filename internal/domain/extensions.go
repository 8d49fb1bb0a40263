package domain

import (
	"sort"
	"strings"
)

// Kind 是文件在分组中占用的槽位。
type Kind int

const (
	KindNone Kind = iota
	KindJPEG
	KindRAW
)

// 默认扩展名白名单。作为配置数据集中维护，不要在各处散落字面量。
var (
	DefaultJPEGExtensions = []string{"JPG", "JPEG"}
	DefaultRAWExtensions  = []string{"ARW", "CR2", "NEF", "DNG", "ORF", "RAF", "SRW"}
)

// Extensions 是规范化（大写、无 '.'）后的扩展名白名单。
type Extensions struct {
	jpeg map[string]struct{}
	raw  map[string]struct{}
}

// DefaultExtensions 返回内置白名单。
func DefaultExtensions() Extensions {
	return NewExtensions(DefaultJPEGExtensions, DefaultRAWExtensions)
}

// NewExtensions 构造白名单；某一侧为空时使用该侧的默认值。
// 同一扩展名同时出现在两侧时按 JPEG 处理（配置层会提前拒绝这种输入）。
func NewExtensions(jpeg, raw []string) Extensions {
	if len(jpeg) == 0 {
		jpeg = DefaultJPEGExtensions
	}
	if len(raw) == 0 {
		raw = DefaultRAWExtensions
	}
	e := Extensions{
		jpeg: make(map[string]struct{}, len(jpeg)),
		raw:  make(map[string]struct{}, len(raw)),
	}
	for _, x := range jpeg {
		if n := NormalizeExt(x); n != "" {
			e.jpeg[n] = struct{}{}
		}
	}
	for _, x := range raw {
		n := NormalizeExt(x)
		if n == "" {
			continue
		}
		if _, dup := e.jpeg[n]; dup {
			continue
		}
		e.raw[n] = struct{}{}
	}
	return e
}

// NormalizeExt 把 ".arw" / "arw" / " ARW " 统一为 "ARW"。
func NormalizeExt(ext string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Classify 判断扩展名属于哪个槽位（大小写不敏感）。
func (e Extensions) Classify(ext string) Kind {
	if e.jpeg == nil && e.raw == nil {
		e = DefaultExtensions()
	}
	n := NormalizeExt(ext)
	if _, ok := e.jpeg[n]; ok {
		return KindJPEG
	}
	if _, ok := e.raw[n]; ok {
		return KindRAW
	}
	return KindNone
}

// JPEG 返回排序后的 JPEG 扩展名列表（用于展示）。
func (e Extensions) JPEG() []string { return sortedKeys(e.jpeg) }

// RAW 返回排序后的 RAW 扩展名列表（用于展示）。
func (e Extensions) RAW() []string { return sortedKeys(e.raw) }

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
