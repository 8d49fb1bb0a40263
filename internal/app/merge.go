package app

import "github.com/John-Robertt/culler/internal/domain"

// MergeImported 把新导入的 group 合并进已有列表。
//
// 规则：
// - 新 group 的任一成员路径已存在于列表中：整组跳过（重复导入）
// - 已有 JPG_ONLY/RAW_ONLY 孤儿且 ID 相同、新 group 正好补齐缺失的一侧：合并为 COMPLETE
// - 其它情况追加到末尾
//
// firstNewID 是第一个新增或被合并的 group 的 ID；没有变化时为空串。
func MergeImported(existing, incoming []domain.PhotoGroup) (merged []domain.PhotoGroup, firstNewID string) {
	paths := make(map[string]struct{}, 2*len(existing))
	for _, g := range existing {
		for _, m := range g.Members() {
			paths[m.Path] = struct{}{}
		}
	}

	merged = append(make([]domain.PhotoGroup, 0, len(existing)+len(incoming)), existing...)
	for _, ng := range incoming {
		if hasAnyPath(paths, ng) {
			continue
		}

		idx := findOrphan(merged, ng)
		if idx >= 0 {
			m := merged[idx]
			if m.JPG == nil {
				m.JPG = ng.JPG
			}
			if m.RAW == nil {
				m.RAW = ng.RAW
			}
			m.Status, _ = domain.DeriveStatus(m.JPG != nil, m.RAW != nil)
			if m.Exif == nil {
				m.Exif = ng.Exif
			}
			merged[idx] = m
		} else {
			merged = append(merged, ng)
		}

		for _, x := range ng.Members() {
			paths[x.Path] = struct{}{}
		}
		if firstNewID == "" {
			firstNewID = ng.ID
		}
	}
	return merged, firstNewID
}

func hasAnyPath(paths map[string]struct{}, g domain.PhotoGroup) bool {
	for _, m := range g.Members() {
		if _, ok := paths[m.Path]; ok {
			return true
		}
	}
	return false
}

func findOrphan(groups []domain.PhotoGroup, ng domain.PhotoGroup) int {
	for i, g := range groups {
		if g.ID != ng.ID {
			continue
		}
		switch {
		case g.Status == domain.StatusJPGOnly && ng.RAW != nil:
			return i
		case g.Status == domain.StatusRAWOnly && ng.JPG != nil:
			return i
		}
	}
	return -1
}
