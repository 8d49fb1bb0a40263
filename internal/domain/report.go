package domain

import (
	"encoding/json"
	"time"
)

const (
	BatchTrash = "trash"
	BatchCopy  = "copy"
	BatchMove  = "move"
)

const (
	FileStatusDone    = "done"
	FileStatusSkipped = "skipped"
	FileStatusFailed  = "failed"
)

// BatchReport 是一次批量操作（回收站/导出）的结构化结果。
//
// 与“把成功数和失败文本拼进一条消息”不同，调用方可以直接拿到成功与失败两部分，
// 再自行决定如何展示。
type BatchReport struct {
	ID          string `json:"id"`
	Op          string `json:"op"`
	Destination string `json:"destination,omitempty"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Summary BatchSummary `json:"summary"`
	Files   []FileResult `json:"files"`
}

type BatchSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// FileResult 是批量操作中单个文件的结果。
// Message：成功时是可读的结果描述，失败时是错误文本。
type FileResult struct {
	GroupID string `json:"groupId"`
	Src     string `json:"src"`
	Dst     string `json:"dst,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 files 计算得出
//
// files 保持处理顺序，不重新排序：失败文本需要与实际执行顺序一致。
func (r *BatchReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Files == nil {
		r.Files = []FileResult{}
	}

	var s BatchSummary
	for _, f := range r.Files {
		switch f.Status {
		case FileStatusDone:
			s.Succeeded++
		case FileStatusFailed:
			s.Failed++
		case FileStatusSkipped:
			s.Skipped++
		}
	}
	r.Summary = s
}

// SucceededSrcs 返回成功处理的源路径（按处理顺序）。
func (r BatchReport) SucceededSrcs() []string {
	return r.collect(FileStatusDone, func(f FileResult) string { return f.Src })
}

// SucceededMessages 返回成功条目的描述（按处理顺序）。
func (r BatchReport) SucceededMessages() []string {
	return r.collect(FileStatusDone, func(f FileResult) string { return f.Message })
}

// FailedMessages 返回失败条目的错误文本（按处理顺序）。
func (r BatchReport) FailedMessages() []string {
	return r.collect(FileStatusFailed, func(f FileResult) string { return f.Message })
}

func (r BatchReport) collect(status string, pick func(FileResult) string) []string {
	out := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		if f.Status == status {
			out = append(out, pick(f))
		}
	}
	return out
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r BatchReport) MarshalJSON() ([]byte, error) {
	type Alias BatchReport
	return json.Marshal(Alias(r))
}
