package planner

import (
	"os"
	"path/filepath"

	"github.com/John-Robertt/culler/internal/domain"
)

// DestState 是导出目标目录的现状（只做 ReadDir，不读文件内容）。
type DestState struct {
	Dir           string
	ExistingNames map[string]struct{}
}

// ReadDestState 读取目标目录中已存在的文件名。
// 若目录不存在，返回空状态且不报错（是否允许由调用方校验）。
func ReadDestState(dest string) (DestState, error) {
	st := DestState{
		Dir:           dest,
		ExistingNames: map[string]struct{}{},
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return DestState{}, err
	}
	for _, e := range entries {
		st.ExistingNames[e.Name()] = struct{}{}
	}
	return st, nil
}

// PlanExport 按导出模式为每个 group 选择成员，生成确定性的传输计划（不做任何写入/移动）。
//
// 规则：
// - JPG/RAW：对应槽位为空的 group 被跳过
// - BOTH：依次取存在的 JPG、RAW；两者皆空时跳过
// - 目标文件名沿用源文件名（含扩展名大小写），从不改名；目标目录已有同名文件时标记 Collides
// - 本批次内的同名条目不在此处判定：先写入者占位由执行阶段决定
func PlanExport(groups []domain.PhotoGroup, mode domain.ExportMode, st DestState) []domain.TransferPlan {
	plans := make([]domain.TransferPlan, 0, 2*len(groups))
	for _, g := range groups {
		for _, m := range Members(g, mode) {
			name := filepath.Base(m.Path)
			_, taken := st.ExistingNames[name]
			plans = append(plans, domain.TransferPlan{
				GroupID:  g.ID,
				Src:      m.Path,
				Dst:      filepath.Join(st.Dir, name),
				Collides: taken,
			})
		}
	}
	return plans
}

// Members 返回某个导出模式下 group 参与导出的成员。
func Members(g domain.PhotoGroup, mode domain.ExportMode) []domain.FileDescriptor {
	switch mode {
	case domain.ExportJPG:
		if g.JPG == nil {
			return nil
		}
		return []domain.FileDescriptor{*g.JPG}
	case domain.ExportRAW:
		if g.RAW == nil {
			return nil
		}
		return []domain.FileDescriptor{*g.RAW}
	case domain.ExportBoth:
		return g.Members()
	default:
		return nil
	}
}
