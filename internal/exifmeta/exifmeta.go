// Package exifmeta 从单个图片文件中提取固定的一组 EXIF 字段，并规范化为可直接展示的字符串。
//
// 只建模七个字段（快门、光圈、ISO、焦距、拍摄时间、机型、镜头），不是通用 EXIF 库；
// 也不读取任何像素数据。
package exifmeta

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/John-Robertt/culler/internal/domain"
)

// Extract 打开 path 并解码 EXIF。
//
// 错误：
// - 打开失败：*domain.IOError
// - EXIF 缺失/损坏：*domain.DecodeError（调用方应视为“没有元数据”，而不是致命错误）
//
// 单个字段缺失或格式异常不会报错，只是该字段留空。
func Extract(path string) (domain.MetadataRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.MetadataRecord{}, &domain.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	rec, err := Decode(f)
	if err != nil {
		return domain.MetadataRecord{}, &domain.DecodeError{Path: path, Err: err}
	}
	return rec, nil
}

// Decode 从 JPEG 或 TIFF 容器（多数 RAW 格式）中解码 EXIF。
// 子目录（GPS/Interop 等）的非关键错误会被忽略，只要主目录可用就继续提取。
func Decode(r io.Reader) (domain.MetadataRecord, error) {
	x, err := exif.Decode(r)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return domain.MetadataRecord{}, err
	}
	return fromExif(x), nil
}

type tagSource interface {
	Get(name exif.FieldName) (*tiff.Tag, error)
}

func fromExif(x tagSource) domain.MetadataRecord {
	var m domain.MetadataRecord

	if t := lookup(x, exif.ExposureTime); t != nil {
		m.ShutterSpeed = shutterSpeed(t)
	}
	if t := lookup(x, exif.FNumber); t != nil {
		if num, den, ok := rational(t); ok {
			m.Aperture, _ = FormatAperture(num, den)
		}
	}
	if t := lookup(x, exif.ISOSpeedRatings); t != nil {
		m.ISO = displayValue(t)
	}
	if t := lookup(x, exif.FocalLength); t != nil {
		if num, den, ok := rational(t); ok {
			m.FocalLength, _ = FormatFocalLength(num, den)
		}
	}

	// 优先原始拍摄时间；部分机型/导出工具只写 IFD0 的 DateTime。
	if t := lookup(x, exif.DateTimeOriginal); t != nil {
		m.DateTime = displayValue(t)
	}
	if m.DateTime == "" {
		if t := lookup(x, exif.DateTime); t != nil {
			m.DateTime = displayValue(t)
		}
	}

	if t := lookup(x, exif.Model); t != nil {
		m.Model = displayValue(t)
	}
	if t := lookup(x, exif.LensModel); t != nil {
		m.Lens = lensModel(t)
	}
	return m
}

func lookup(x tagSource, name exif.FieldName) *tiff.Tag {
	t, err := x.Get(name)
	if err != nil {
		return nil
	}
	return t
}

func rational(t *tiff.Tag) (num, den int64, ok bool) {
	if t.Format() != tiff.RatVal || t.Count == 0 {
		return 0, 0, false
	}
	num, den, err := t.Rat2(0)
	if err != nil {
		return 0, 0, false
	}
	return num, den, true
}

func shutterSpeed(t *tiff.Tag) string {
	if t.Format() != tiff.RatVal {
		// 非有理数编码：退化为通用展示值。
		return displayValue(t)
	}
	num, den, ok := rational(t)
	if !ok {
		return ""
	}
	s, _ := FormatShutterSpeed(num, den)
	return s
}

// displayValue 是字段的通用展示值（去掉两侧引号）。
func displayValue(t *tiff.Tag) string {
	return strings.TrimSpace(TrimQuotes(t.String()))
}

// lensModel 处理部分厂商把镜头写成 "<lens>","","" 的情况：只取第一个非空片段。
func lensModel(t *tiff.Tag) string {
	if t.Format() == tiff.StringVal {
		return FirstASCIIEntry(t.Val)
	}
	return FirstDisplaySegment(t.String())
}

// FirstASCIIEntry 把以 NUL 分隔的 ASCII 值拆开，去掉 NUL/空白/引号后返回第一个非空项。
func FirstASCIIEntry(raw []byte) string {
	for _, part := range bytes.Split(raw, []byte{0}) {
		s := strings.Trim(string(part), "\x00")
		s = TrimQuotes(strings.TrimSpace(s))
		if s != "" {
			return s
		}
	}
	return ""
}

// FirstDisplaySegment 去掉引号与空白后按逗号切分，返回第一段。
func FirstDisplaySegment(display string) string {
	s := strings.TrimSpace(TrimQuotes(display))
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return TrimQuotes(strings.TrimSpace(s))
}

// TrimQuotes 去掉两侧所有的双引号。
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}
