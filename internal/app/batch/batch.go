// Package batch 对一组 PhotoGroup 执行批量文件操作（移入回收站、导出）。
//
// 两个操作都是“尽力而为”：单个文件失败不会中断整批，已成功的文件不回滚；
// 所有失败在批次结束时通过 *domain.AggregateError 一次性返回。
package batch

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/culler/internal/app/planner"
	"github.com/John-Robertt/culler/internal/domain"
	"github.com/John-Robertt/culler/internal/infra/fsx"
	"github.com/John-Robertt/culler/internal/infra/trash"
)

// 通过可替换的函数指针，让测试能稳定模拟复制/移动失败。
var (
	copyFunc = fsx.CopyFileNoOverwrite
	moveFunc = fsx.MoveFile
)

// Trash 把每个 group 的 JPG、RAW 成员依次移入回收站。
//
// 规则：
// - 成员在磁盘上已不存在：记为 skipped，不算失败
// - Conflicts 中的文件不处理
// - 任一失败：返回 *domain.AggregateError（包含全部失败文本）
func Trash(groups []domain.PhotoGroup, t trash.Trasher, obs Observer) (domain.BatchReport, error) {
	rep := newReport(domain.BatchTrash, "")

	total := 0
	for _, g := range groups {
		total += len(g.Members())
	}
	if obs != nil {
		obs.OnStart(domain.BatchTrash, total)
	}

	var errs []error
	idx := 0
	for _, g := range groups {
		for _, m := range g.Members() {
			idx++
			res := domain.FileResult{GroupID: g.ID, Src: m.Path}

			if _, err := os.Stat(m.Path); err != nil && os.IsNotExist(err) {
				res.Status = domain.FileStatusSkipped
				res.Message = "文件已不存在"
			} else if err := t.Trash(m.Path); err != nil {
				e := &domain.IOError{Op: "移入回收站", Path: m.Path, Err: err}
				errs = append(errs, e)
				res.Status = domain.FileStatusFailed
				res.Message = e.Error()
			} else {
				res.Status = domain.FileStatusDone
				res.Message = fmt.Sprintf("已移入回收站：%s", m.Path)
			}

			rep.Files = append(rep.Files, res)
			if obs != nil {
				obs.OnFileDone(idx, total, res)
			}
		}
	}

	rep.FinishedAt = time.Now().UTC()
	rep.Finalize()
	if ae := domain.NewAggregateError(domain.BatchTrash, rep.Summary.Succeeded, errs); ae != nil {
		return rep, ae
	}
	return rep, nil
}

// Export 按导出模式把 group 成员复制或移动到 dest。
//
// 规则：
// - dest 不存在/不是目录：返回 *domain.ValidationError，不产生任何副作用
// - 源文件不存在、目标已存在：该文件失败（绝不覆盖），继续处理其它文件
// - 任一失败：返回 *domain.AggregateError（携带成功数）
// - 没有成功也没有失败：返回 domain.ErrNothingExported
func Export(groups []domain.PhotoGroup, mode domain.ExportMode, op domain.Operation, dest string, obs Observer) (domain.BatchReport, error) {
	opName, transfer, err := operation(op)
	if err != nil {
		return domain.BatchReport{}, err
	}
	mode, err = domain.ParseExportMode(string(mode))
	if err != nil {
		return domain.BatchReport{}, &domain.ValidationError{Reason: err.Error()}
	}
	if err := validateDest(dest); err != nil {
		return domain.BatchReport{}, err
	}

	st, err := planner.ReadDestState(dest)
	if err != nil {
		return domain.BatchReport{}, &domain.IOError{Op: "read-dir", Path: dest, Err: err}
	}
	plans := planner.PlanExport(groups, mode, st)

	rep := newReport(opName, dest)
	if obs != nil {
		obs.OnStart(opName, len(plans))
	}

	// written 只记录本批次真正写入成功的目标名：前一个同名文件失败时，后者仍可写入。
	written := make(map[string]struct{}, len(plans))
	var errs []error
	for i, p := range plans {
		res := domain.FileResult{GroupID: p.GroupID, Src: p.Src, Dst: p.Dst}

		if err := exportOne(p, opName, transfer, written); err != nil {
			errs = append(errs, err)
			res.Status = domain.FileStatusFailed
			res.Message = err.Error()
		} else {
			written[p.Dst] = struct{}{}
			res.Status = domain.FileStatusDone
			res.Message = successMessage(opName, p)
		}

		rep.Files = append(rep.Files, res)
		if obs != nil {
			obs.OnFileDone(i+1, len(plans), res)
		}
	}

	rep.FinishedAt = time.Now().UTC()
	rep.Finalize()

	if ae := domain.NewAggregateError(opName, rep.Summary.Succeeded, errs); ae != nil {
		return rep, ae
	}
	if rep.Summary.Succeeded == 0 {
		return rep, domain.ErrNothingExported
	}
	return rep, nil
}

func exportOne(p domain.TransferPlan, opName string, transfer func(src, dst string) error, written map[string]struct{}) error {
	if _, err := os.Stat(p.Src); err != nil {
		if os.IsNotExist(err) {
			return &domain.IOError{Op: opName, Path: p.Src, Err: domain.ErrSourceMissing}
		}
		return &domain.IOError{Op: opName, Path: p.Src, Err: err}
	}
	if _, ok := written[p.Dst]; ok || p.Collides {
		return &domain.IOError{Op: opName, Path: p.Dst, Err: domain.ErrTargetExists}
	}

	if err := transfer(p.Src, p.Dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			return &domain.IOError{Op: opName, Path: p.Dst, Err: domain.ErrTargetExists}
		}
		return &domain.IOError{Op: opName, Path: p.Src, Err: err}
	}
	return nil
}

func operation(op domain.Operation) (string, func(src, dst string) error, error) {
	parsed, err := domain.ParseOperation(string(op))
	if err != nil {
		return "", nil, &domain.ValidationError{Reason: err.Error()}
	}
	if parsed == domain.OpMove {
		return domain.BatchMove, moveFunc, nil
	}
	return domain.BatchCopy, copyFunc, nil
}

func validateDest(dest string) error {
	if dest == "" {
		return &domain.ValidationError{Reason: "目标目录为空"}
	}
	fi, err := os.Stat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return &domain.ValidationError{Path: dest, Reason: "目标目录不存在"}
		}
		return &domain.IOError{Op: "stat", Path: dest, Err: err}
	}
	if !fi.IsDir() {
		return &domain.ValidationError{Path: dest, Reason: "目标路径不是目录"}
	}
	return nil
}

func successMessage(opName string, p domain.TransferPlan) string {
	if opName == domain.BatchMove {
		return fmt.Sprintf("已移动 %s 到 %s", p.Src, p.Dst)
	}
	return fmt.Sprintf("已复制 %s 到 %s", p.Src, p.Dst)
}

func newReport(op, dest string) domain.BatchReport {
	return domain.BatchReport{
		ID:          uuid.NewString(),
		Op:          op,
		Destination: dest,
		StartedAt:   time.Now().UTC(),
		Files:       make([]domain.FileResult, 0, 16),
	}
}
