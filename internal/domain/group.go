package domain

import (
	"fmt"
	"strings"
)

// GroupStatus 描述一个 group 的完整性，只能由成员是否存在推导得出。
type GroupStatus string

const (
	StatusComplete GroupStatus = "COMPLETE"
	StatusJPGOnly  GroupStatus = "JPG_ONLY"
	StatusRAWOnly  GroupStatus = "RAW_ONLY"
)

// Selection 是用户的挑片标记。
type Selection string

const (
	SelectionUnmarked Selection = "UNMARKED"
	SelectionPicked   Selection = "PICKED"
	SelectionRejected Selection = "REJECTED"
)

// PhotoGroup 是按文件名主干（stem）配对后的逻辑照片。
//
// 不变量：
// - JPG 与 RAW 至少有一个非空（两者皆空的 group 不会被产出）
// - Status 永远等于 DeriveStatus(JPG != nil, RAW != nil)
// - Conflicts 只用于展示：同一槽位上被覆盖的兄弟文件，批量操作不会处理它们
type PhotoGroup struct {
	ID        string           `json:"id"`
	JPG       *FileDescriptor  `json:"jpg"`
	RAW       *FileDescriptor  `json:"raw"`
	Status    GroupStatus      `json:"status"`
	Selection Selection        `json:"selection,omitempty"`
	Exif      *MetadataRecord  `json:"exif"`
	Conflicts []FileDescriptor `json:"conflicts,omitempty"`
}

// DeriveStatus 是 (有 JPG, 有 RAW) 到状态的纯函数；两者皆无时 ok=false。
func DeriveStatus(hasJPG, hasRAW bool) (GroupStatus, bool) {
	switch {
	case hasJPG && hasRAW:
		return StatusComplete, true
	case hasJPG:
		return StatusJPGOnly, true
	case hasRAW:
		return StatusRAWOnly, true
	default:
		return "", false
	}
}

// Members 按 JPG、RAW 的顺序返回存在的成员文件。
func (g PhotoGroup) Members() []FileDescriptor {
	out := make([]FileDescriptor, 0, 2)
	if g.JPG != nil {
		out = append(out, *g.JPG)
	}
	if g.RAW != nil {
		out = append(out, *g.RAW)
	}
	return out
}

// EffectiveSelection 把缺省值（空串）视为 UNMARKED。
func (g PhotoGroup) EffectiveSelection() Selection {
	if g.Selection == "" {
		return SelectionUnmarked
	}
	return g.Selection
}

// ParseSelection 大小写不敏感地解析挑片标记。
func ParseSelection(s string) (Selection, error) {
	switch Selection(strings.ToUpper(strings.TrimSpace(s))) {
	case SelectionUnmarked:
		return SelectionUnmarked, nil
	case SelectionPicked:
		return SelectionPicked, nil
	case SelectionRejected:
		return SelectionRejected, nil
	default:
		return "", fmt.Errorf("selection 只能是 UNMARKED、PICKED 或 REJECTED，实际是 %q", s)
	}
}

// Stats 是一组 group 的统计视图。
type Stats struct {
	Total    int `json:"total"`
	Complete int `json:"complete"`
	JPGOnly  int `json:"jpgOnly"`
	RAWOnly  int `json:"rawOnly"`
	Picked   int `json:"picked"`
	Rejected int `json:"rejected"`
	Unmarked int `json:"unmarked"`
}
