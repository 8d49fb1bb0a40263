package app

import (
	"sort"

	"github.com/John-Robertt/culler/internal/domain"
	"github.com/John-Robertt/culler/internal/sidecar"
)

// Extractor 读取单个文件的元数据（生产环境为 exifmeta.Extract）。
type Extractor func(path string) (domain.MetadataRecord, error)

// GroupOptions 控制分组收尾阶段的附加动作。
type GroupOptions struct {
	// Extract 为 nil 时不读取元数据。
	Extract Extractor
	// ReadXMP 为 true 时从 XMP 旁车读取评分并映射为 Selection。
	ReadXMP       bool
	PickMinRating int
}

// GroupPhotos 把候选文件按 stem 分组为 PhotoGroup。
//
// - 输入先按文件名字节序稳定排序：同一槽位多次写入时“最后写入者胜出”是确定的，被覆盖者记入 Conflicts
// - 收尾：推导状态（两者皆空的 group 被丢弃）；优先用 JPG、否则用 RAW 提取元数据，失败则留空
// - 输出按 ID 字节序排序，不依赖 map 遍历顺序
func GroupPhotos(files []domain.FileDescriptor, exts domain.Extensions, opts GroupOptions) []domain.PhotoGroup {
	ordered := append([]domain.FileDescriptor(nil), files...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	index := make(map[string]int, len(ordered))
	groups := make([]domain.PhotoGroup, 0, len(ordered))

	for i := range ordered {
		f := ordered[i]
		kind := exts.Classify(f.Extension)
		if kind == domain.KindNone {
			continue
		}

		id := f.Stem()
		idx, ok := index[id]
		if !ok {
			idx = len(groups)
			index[id] = idx
			groups = append(groups, domain.PhotoGroup{ID: id})
		}

		g := &groups[idx]
		switch kind {
		case domain.KindJPEG:
			if g.JPG != nil {
				g.Conflicts = append(g.Conflicts, *g.JPG)
			}
			g.JPG = &f
		case domain.KindRAW:
			if g.RAW != nil {
				g.Conflicts = append(g.Conflicts, *g.RAW)
			}
			g.RAW = &f
		}
	}

	out := make([]domain.PhotoGroup, 0, len(groups))
	for _, g := range groups {
		st, ok := domain.DeriveStatus(g.JPG != nil, g.RAW != nil)
		if !ok {
			continue
		}
		g.Status = st
		g.Selection = domain.SelectionUnmarked
		g.Exif = readMetadata(g, opts.Extract)

		if opts.ReadXMP {
			if sel, ok := sidecar.FindSelection(g, opts.PickMinRating); ok {
				g.Selection = sel
			}
		}
		out = append(out, g)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// readMetadata 优先读 JPG；EXIF 缺失/损坏只会让元数据留空，绝不中断扫描。
func readMetadata(g domain.PhotoGroup, extract Extractor) *domain.MetadataRecord {
	if extract == nil {
		return nil
	}
	src := g.RAW
	if g.JPG != nil {
		src = g.JPG
	}
	if src == nil {
		return nil
	}
	rec, err := extract(src.Path)
	if err != nil {
		return nil
	}
	return &rec
}
