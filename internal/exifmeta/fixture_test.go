package exifmeta

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// 测试用的最小 TIFF/EXIF 构造器（little-endian），只覆盖本包用到的数据类型。

const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

const (
	tagModel            = 0x0110
	tagDateTime         = 0x0132
	tagExifIFDPointer   = 0x8769
	tagExposureTime     = 0x829A
	tagFNumber          = 0x829D
	tagISOSpeedRatings  = 0x8827
	tagDateTimeOriginal = 0x9003
	tagFocalLength      = 0x920A
	tagLensModel        = 0xA434
)

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, s string) entry {
	b := append([]byte(s), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

// rawASCIIEntry 原样写入字节（用于构造内部带 NUL 分隔的值）。
func rawASCIIEntry(tag uint16, b []byte) entry {
	return entry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

func shortEntry(tag uint16, v uint16) entry {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return entry{tag: tag, typ: typeShort, count: 1, data: b}
}

func longEntry(tag uint16, v uint32) entry {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return entry{tag: tag, typ: typeLong, count: 1, data: b}
}

func rationalEntry(tag uint16, num, den uint32) entry {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:4], num)
	binary.LittleEndian.PutUint32(b[4:8], den)
	return entry{tag: tag, typ: typeRational, count: 1, data: b}
}

func ifdSize(n int) uint32 { return uint32(2 + 12*n + 4) }

// buildTIFF 生成：header | IFD0 | Exif IFD | 数据区。
// exifEntries 非空时自动在 IFD0 中追加 ExifIFDPointer。
func buildTIFF(t *testing.T, ifd0, exifEntries []entry) []byte {
	t.Helper()

	n0 := len(ifd0)
	if len(exifEntries) > 0 {
		n0++
	}
	ifd0Off := uint32(8)
	exifOff := ifd0Off + ifdSize(n0)
	dataOff := exifOff
	if len(exifEntries) > 0 {
		dataOff += ifdSize(len(exifEntries))
	}

	if len(exifEntries) > 0 {
		ifd0 = append(append([]entry(nil), ifd0...), longEntry(tagExifIFDPointer, exifOff))
	}

	var data bytes.Buffer
	writeIFD := func(buf *bytes.Buffer, entries []entry) {
		_ = binary.Write(buf, binary.LittleEndian, uint16(len(entries)))
		for _, e := range entries {
			_ = binary.Write(buf, binary.LittleEndian, e.tag)
			_ = binary.Write(buf, binary.LittleEndian, e.typ)
			_ = binary.Write(buf, binary.LittleEndian, e.count)
			if len(e.data) <= 4 {
				v := make([]byte, 4)
				copy(v, e.data)
				buf.Write(v)
				continue
			}
			_ = binary.Write(buf, binary.LittleEndian, dataOff+uint32(data.Len()))
			data.Write(e.data)
			if data.Len()%2 == 1 {
				data.WriteByte(0)
			}
		}
		_ = binary.Write(buf, binary.LittleEndian, uint32(0))
	}

	var out bytes.Buffer
	out.WriteString("II")
	_ = binary.Write(&out, binary.LittleEndian, uint16(42))
	_ = binary.Write(&out, binary.LittleEndian, ifd0Off)
	writeIFD(&out, ifd0)
	if len(exifEntries) > 0 {
		writeIFD(&out, exifEntries)
	}
	if uint32(out.Len()) != dataOff {
		t.Fatalf("TIFF 布局计算错误：header+IFD=%d，期望数据区偏移 %d", out.Len(), dataOff)
	}
	out.Write(data.Bytes())
	return out.Bytes()
}

// wrapJPEG 把 TIFF 数据包进 JPEG 的 APP1（Exif）段。
func wrapJPEG(tiffData []byte) []byte {
	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(2+6+len(tiffData)))
	out.WriteString("Exif\x00\x00")
	out.Write(tiffData)
	out.Write([]byte{0xFF, 0xD9})
	return out.Bytes()
}
