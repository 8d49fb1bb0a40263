package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const (
	ErrCodeIOFailed        = "io_failed"
	ErrCodeDecodeFailed    = "decode_failed"
	ErrCodeValidation      = "validation_failed"
	ErrCodePartialFailure  = "partial_failure"
	ErrCodeNothingExported = "nothing_exported"
)

var (
	// ErrNothingExported 表示导出没有处理任何文件，也没有任何失败（例如全部 group 被模式过滤掉）。
	ErrNothingExported = errors.New("没有导出任何文件")

	ErrSourceMissing = errors.New("源文件不存在")
	ErrTargetExists  = errors.New("目标文件已存在")
)

// IOError 是文件系统访问失败（open/read-dir/copy/rename/stat/trash）。
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %q 失败：%v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// DecodeError 表示 EXIF 段缺失或无法解析。对 group 而言永远不是致命错误。
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("读取 EXIF 失败 %q：%v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError 表示在任何破坏性动作之前就不满足的前置条件。
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s：%q", e.Reason, e.Path)
}

// AggregateError 汇总一次批量操作中的所有单项失败，只在批次结束时抛出一次。
//
// 约束：已成功的条目不回滚；Succeeded 记录成功数量，便于上层给出提示。
type AggregateError struct {
	Op        string
	Succeeded int
	Errs      *multierror.Error
}

// NewAggregateError 用 go-multierror 累积失败项；errs 为空时返回 nil。
func NewAggregateError(op string, succeeded int, errs []error) *AggregateError {
	var merr *multierror.Error
	for _, e := range errs {
		merr = multierror.Append(merr, e)
	}
	if merr == nil {
		return nil
	}
	merr.ErrorFormat = joinLines
	return &AggregateError{Op: op, Succeeded: succeeded, Errs: merr}
}

func (e *AggregateError) Error() string {
	switch e.Op {
	case BatchTrash:
		return "部分文件移入回收站失败：\n" + e.Errs.Error()
	default:
		return fmt.Sprintf("导出完成但有错误：\n%s\n\n成功处理 %d 个文件", e.Errs.Error(), e.Succeeded)
	}
}

func (e *AggregateError) Unwrap() error { return e.Errs }

// Messages 返回每个失败项的文本。
func (e *AggregateError) Messages() []string {
	out := make([]string, 0, e.Errs.Len())
	for _, x := range e.Errs.Errors {
		out = append(out, x.Error())
	}
	return out
}

func joinLines(es []error) string {
	lines := make([]string, 0, len(es))
	for _, e := range es {
		lines = append(lines, e.Error())
	}
	return strings.Join(lines, "\n")
}

// Code 从 error 中提取稳定的 error_code；无法识别时返回空串。
func Code(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNothingExported) {
		return ErrCodeNothingExported
	}
	var (
		ae *AggregateError
		ve *ValidationError
		de *DecodeError
		ie *IOError
	)
	switch {
	case errors.As(err, &ae):
		return ErrCodePartialFailure
	case errors.As(err, &ve):
		return ErrCodeValidation
	case errors.As(err, &de):
		return ErrCodeDecodeFailed
	case errors.As(err, &ie):
		return ErrCodeIOFailed
	default:
		return ""
	}
}
