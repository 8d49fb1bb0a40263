package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/culler/internal/domain"
)

func fd(dir, name string, size int64) domain.FileDescriptor {
	ext := domain.NormalizeExt(filepath.Ext(name))
	return domain.FileDescriptor{Name: name, Extension: ext, Path: filepath.Join(dir, name), Size: size}
}

func TestGroupPhotos_CompletePairUsesJPGMetadata(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "shoot")
	files := []domain.FileDescriptor{
		fd(dir, "IMG_01.ARW", 20<<20),
		fd(dir, "IMG_01.JPG", 2<<20),
	}

	var seen []string
	extract := func(path string) (domain.MetadataRecord, error) {
		seen = append(seen, path)
		return domain.MetadataRecord{ShutterSpeed: "1/125", Aperture: "f/2.8"}, nil
	}

	groups := GroupPhotos(files, domain.DefaultExtensions(), GroupOptions{Extract: extract})
	if len(groups) != 1 {
		t.Fatalf("期望 1 个 group，实际 %d", len(groups))
	}
	g := groups[0]
	if g.ID != "IMG_01" || g.Status != domain.StatusComplete {
		t.Fatalf("group 不符合预期：%+v", g)
	}
	if g.JPG == nil || g.JPG.Size != 2<<20 || g.RAW == nil || g.RAW.Size != 20<<20 {
		t.Fatalf("成员不符合预期：jpg=%v raw=%v", g.JPG, g.RAW)
	}
	if g.Selection != domain.SelectionUnmarked {
		t.Fatalf("默认标记应为 UNMARKED，实际 %q", g.Selection)
	}
	if len(seen) != 1 || seen[0] != g.JPG.Path {
		t.Fatalf("元数据应只从 JPG 读取：%v", seen)
	}
	if g.Exif == nil || g.Exif.ShutterSpeed != "1/125" {
		t.Fatalf("元数据缺失：%+v", g.Exif)
	}
}

func TestGroupPhotos_OrphansAndOrdering(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "shoot")
	files := []domain.FileDescriptor{
		fd(dir, "b.nef", 1),
		fd(dir, "a.jpeg", 1),
		fd(dir, "C.JPG", 1),
		fd(dir, "C.dng", 1),
		fd(dir, "notes.txt", 1),
	}

	groups := GroupPhotos(files, domain.DefaultExtensions(), GroupOptions{})
	if len(groups) != 3 {
		t.Fatalf("期望 3 个 group，实际 %d：%+v", len(groups), groups)
	}
	// 字节序：大写 C 排在小写 a、b 之前。
	want := []struct {
		id string
		st domain.GroupStatus
	}{
		{"C", domain.StatusComplete},
		{"a", domain.StatusJPGOnly},
		{"b", domain.StatusRAWOnly},
	}
	for i, w := range want {
		if groups[i].ID != w.id || groups[i].Status != w.st {
			t.Fatalf("第 %d 个 group 期望 %s/%s，实际 %s/%s", i, w.id, w.st, groups[i].ID, groups[i].Status)
		}
		if groups[i].Exif != nil {
			t.Fatalf("未注入提取函数时不应有元数据")
		}
	}
}

func TestGroupPhotos_RAWOnlyFallsBackToRAWMetadata(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "shoot")
	files := []domain.FileDescriptor{fd(dir, "DSC_9.CR2", 1)}

	extract := func(path string) (domain.MetadataRecord, error) {
		if filepath.Base(path) != "DSC_9.CR2" {
			t.Fatalf("意外的提取路径：%s", path)
		}
		return domain.MetadataRecord{ISO: "400"}, nil
	}
	groups := GroupPhotos(files, domain.DefaultExtensions(), GroupOptions{Extract: extract})
	if len(groups) != 1 || groups[0].Exif == nil || groups[0].Exif.ISO != "400" {
		t.Fatalf("RAW_ONLY 应读取 RAW 元数据：%+v", groups)
	}
}

func TestGroupPhotos_ExtractErrorLeavesMetadataEmpty(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "shoot")
	files := []domain.FileDescriptor{fd(dir, "x.jpg", 1)}

	extract := func(path string) (domain.MetadataRecord, error) {
		return domain.MetadataRecord{}, &domain.DecodeError{Path: path, Err: errors.New("bad exif")}
	}
	groups := GroupPhotos(files, domain.DefaultExtensions(), GroupOptions{Extract: extract})
	if len(groups) != 1 {
		t.Fatalf("提取失败不应影响分组：%+v", groups)
	}
	if groups[0].Exif != nil {
		t.Fatalf("提取失败时元数据应为空：%+v", groups[0].Exif)
	}
}

func TestGroupPhotos_SameSlotLastWriterWins(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "shoot")
	// 输入顺序被打乱：排序后 IMG.JPG < IMG.jpeg < IMG.jpg，最后一个胜出。
	files := []domain.FileDescriptor{
		fd(dir, "IMG.jpg", 3),
		fd(dir, "IMG.JPG", 1),
		fd(dir, "IMG.jpeg", 2),
	}

	groups := GroupPhotos(files, domain.DefaultExtensions(), GroupOptions{})
	if len(groups) != 1 {
		t.Fatalf("期望 1 个 group，实际 %d", len(groups))
	}
	g := groups[0]
	if g.JPG == nil || g.JPG.Name != "IMG.jpg" {
		t.Fatalf("期望 IMG.jpg 胜出，实际 %+v", g.JPG)
	}
	if len(g.Conflicts) != 2 || g.Conflicts[0].Name != "IMG.JPG" || g.Conflicts[1].Name != "IMG.jpeg" {
		t.Fatalf("Conflicts 不符合预期：%+v", g.Conflicts)
	}
	if g.Status != domain.StatusJPGOnly {
		t.Fatalf("状态应为 JPG_ONLY，实际 %s", g.Status)
	}
}

func TestGroupPhotos_CustomExtensions(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "shoot")
	files := []domain.FileDescriptor{fd(dir, "a.RW2", 1), fd(dir, "a.jpg", 1)}

	groups := GroupPhotos(files, domain.DefaultExtensions(), GroupOptions{})
	if len(groups) != 1 || groups[0].Status != domain.StatusJPGOnly {
		t.Fatalf("默认扩展名不识别 RW2：%+v", groups)
	}

	exts := domain.NewExtensions(nil, []string{"rw2"})
	groups = GroupPhotos(files, exts, GroupOptions{})
	if len(groups) != 1 || groups[0].Status != domain.StatusComplete {
		t.Fatalf("自定义 RAW 扩展名后应为 COMPLETE：%+v", groups)
	}
}

func TestGroupPhotos_ReadXMPSelection(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"k.ARW", "k.JPG", "r.JPG"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("写入失败：%v", err)
		}
	}
	xmp := `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description xmlns:xmp="http://ns.adobe.com/xap/1.0/" xmp:Rating="{rating}"/></rdf:RDF></x:xmpmeta>`
	write := func(name, rating string) {
		data := []byte(strings.ReplaceAll(xmp, "{rating}", rating))
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("写入失败：%v", err)
		}
	}
	write("k.xmp", "4")
	write("r.xmp", "-1")

	files := []domain.FileDescriptor{fd(dir, "k.ARW", 1), fd(dir, "k.JPG", 1), fd(dir, "r.JPG", 1)}

	groups := GroupPhotos(files, domain.DefaultExtensions(), GroupOptions{})
	for _, g := range groups {
		if g.Selection != domain.SelectionUnmarked {
			t.Fatalf("未开启 XMP 时应为 UNMARKED：%+v", g)
		}
	}

	groups = GroupPhotos(files, domain.DefaultExtensions(), GroupOptions{ReadXMP: true, PickMinRating: 3})
	if len(groups) != 2 {
		t.Fatalf("期望 2 个 group，实际 %d", len(groups))
	}
	if groups[0].ID != "k" || groups[0].Selection != domain.SelectionPicked {
		t.Fatalf("k 应为 PICKED：%+v", groups[0])
	}
	if groups[1].ID != "r" || groups[1].Selection != domain.SelectionRejected {
		t.Fatalf("r 应为 REJECTED：%+v", groups[1])
	}
}
