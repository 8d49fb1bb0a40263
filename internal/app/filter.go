package app

import "github.com/John-Robertt/culler/internal/domain"

// FilterBySelection 返回挑片标记等于 sel 的 group（缺省标记视为 UNMARKED）。
func FilterBySelection(groups []domain.PhotoGroup, sel domain.Selection) []domain.PhotoGroup {
	out := make([]domain.PhotoGroup, 0, len(groups))
	for _, g := range groups {
		if g.EffectiveSelection() == sel {
			out = append(out, g)
		}
	}
	return out
}

// FilterByStatus 返回状态等于 st 的 group（例如只处理 RAW_ONLY 孤儿）。
func FilterByStatus(groups []domain.PhotoGroup, st domain.GroupStatus) []domain.PhotoGroup {
	out := make([]domain.PhotoGroup, 0, len(groups))
	for _, g := range groups {
		if g.Status == st {
			out = append(out, g)
		}
	}
	return out
}

func Summarize(groups []domain.PhotoGroup) domain.Stats {
	s := domain.Stats{Total: len(groups)}
	for _, g := range groups {
		switch g.Status {
		case domain.StatusComplete:
			s.Complete++
		case domain.StatusJPGOnly:
			s.JPGOnly++
		case domain.StatusRAWOnly:
			s.RAWOnly++
		}
		switch g.EffectiveSelection() {
		case domain.SelectionPicked:
			s.Picked++
		case domain.SelectionRejected:
			s.Rejected++
		default:
			s.Unmarked++
		}
	}
	return s
}
