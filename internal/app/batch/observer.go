package batch

import "github.com/John-Robertt/culler/internal/domain"

// Observer 用于把批量操作的进度从执行流程中解耦出来。
//
// 约束：
// - batch 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）
// - 事件按处理顺序在调用方 goroutine 上同步发出
type Observer interface {
	// OnStart 在处理第一个文件之前调用；total 为计划处理的文件数。
	OnStart(op string, total int)
	// OnFileDone 在每个文件处理完成（成功/跳过/失败）后调用，idx 从 1 开始。
	OnFileDone(idx, total int, res domain.FileResult)
}
