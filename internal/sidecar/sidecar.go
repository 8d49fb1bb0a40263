// Package sidecar 从 XMP 旁车文件读取评分，并映射为挑片标记。
package sidecar

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/culler/internal/domain"
)

// DefaultPickMinRating 是评分映射为 PICKED 的默认下限。
const DefaultPickMinRating = 1

// ErrNoRating 表示 XMP 中没有 xmp:Rating。
var ErrNoRating = errors.New("xmp: 未找到 Rating")

// Candidates 返回某个成员文件可能的旁车路径（按优先级）：
// IMG_01.xmp、IMG_01.XMP（Lightroom/Capture One）、IMG_01.ARW.xmp（darktable）。
func Candidates(memberPath string) []string {
	stem := strings.TrimSuffix(memberPath, filepath.Ext(memberPath))
	return []string{stem + ".xmp", stem + ".XMP", memberPath + ".xmp"}
}

// FindSelection 依次尝试 group 各成员的旁车文件，返回第一个可解析评分的映射结果。
// 找不到任何旁车或都无法解析时 ok=false（调用方保持 UNMARKED）。
func FindSelection(g domain.PhotoGroup, minRating int) (sel domain.Selection, ok bool) {
	seen := make(map[string]struct{}, 6)
	for _, m := range g.Members() {
		for _, p := range Candidates(m.Path) {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}

			b, err := os.ReadFile(p)
			if err != nil {
				continue
			}
			rating, err := ParseRating(b)
			if err != nil {
				continue
			}
			return SelectionFromRating(rating, minRating), true
		}
	}
	return "", false
}

// ParseRating 从 XMP 包中读取 xmp:Rating。
//
// 兼容两种写法：
// - 属性：<rdf:Description xmp:Rating="5"/>
// - 元素：<xmp:Rating>5</xmp:Rating>
//
// XMP 按 HTML 解析：标签名与属性名都会被转为小写，冒号作为名称的一部分保留。
func ParseRating(xmp []byte) (int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(xmp))
	if err != nil {
		return 0, err
	}

	raw := ""
	doc.Find(`rdf\:description`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("xmp:rating"); ok {
			raw = v
			return false
		}
		return true
	})
	if strings.TrimSpace(raw) == "" {
		raw = doc.Find(`xmp\:rating`).First().Text()
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrNoRating
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SelectionFromRating：-1 为拒绝（Lightroom/darktable 约定），>= minRating 为选中，其它为未标记。
func SelectionFromRating(rating, minRating int) domain.Selection {
	if minRating < 1 {
		minRating = DefaultPickMinRating
	}
	switch {
	case rating < 0:
		return domain.SelectionRejected
	case rating >= minRating:
		return domain.SelectionPicked
	default:
		return domain.SelectionUnmarked
	}
}
