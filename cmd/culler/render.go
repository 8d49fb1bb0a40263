package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/John-Robertt/culler/internal/domain"
)

func printMetadata(w io.Writer, rec domain.MetadataRecord) {
	rows := []struct{ k, v string }{
		{"shutter", rec.ShutterSpeed},
		{"aperture", rec.Aperture},
		{"iso", rec.ISO},
		{"focal", rec.FocalLength},
		{"date", rec.DateTime},
		{"model", rec.Model},
		{"lens", rec.Lens},
	}
	for _, r := range rows {
		v := r.v
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(w, "%-9s %s\n", r.k+":", v)
	}
}

func printGroups(w io.Writer, out scanOutput) {
	for _, g := range out.Groups {
		fmt.Fprintf(w, "%-24s %-9s %-9s %s\n", g.ID, g.Status, g.EffectiveSelection(), memberNames(g))
		if g.Exif != nil {
			if line := exifLine(*g.Exif); line != "" {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
		for _, c := range g.Conflicts {
			fmt.Fprintf(w, "  冲突（未处理）：%s\n", c.Path)
		}
	}
	fmt.Fprintln(w, formatStats(out.Stats))
}

func printReport(w io.Writer, rep domain.BatchReport, err error) {
	fmt.Fprintln(w, formatSummary(rep))
	if err == nil {
		return
	}
	for _, m := range rep.FailedMessages() {
		fmt.Fprintf(w, "  %s\n", m)
	}
}

func memberNames(g domain.PhotoGroup) string {
	names := make([]string, 0, 2)
	for _, m := range g.Members() {
		names = append(names, m.Name)
	}
	return strings.Join(names, " + ")
}

// exifLine 只拼接存在的字段：1/125 f/2.8 ISO 400 35mm
func exifLine(rec domain.MetadataRecord) string {
	parts := make([]string, 0, 5)
	for _, v := range []string{rec.ShutterSpeed, rec.Aperture} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if rec.ISO != "" {
		parts = append(parts, "ISO "+rec.ISO)
	}
	if rec.FocalLength != "" {
		parts = append(parts, rec.FocalLength)
	}
	if rec.Model != "" {
		parts = append(parts, rec.Model)
	}
	return strings.Join(parts, " ")
}

func formatStats(s domain.Stats) string {
	return fmt.Sprintf("完成：groups=%d complete=%d jpg_only=%d raw_only=%d picked=%d rejected=%d",
		s.Total, s.Complete, s.JPGOnly, s.RAWOnly, s.Picked, s.Rejected,
	)
}

func formatSummary(rep domain.BatchReport) string {
	return fmt.Sprintf("完成：%s succeeded=%d failed=%d skipped=%d",
		rep.Op, rep.Summary.Succeeded, rep.Summary.Failed, rep.Summary.Skipped,
	)
}
