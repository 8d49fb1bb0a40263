package domain

import (
	"fmt"
	"strings"
)

// ExportMode 决定导出 group 的哪些成员。
type ExportMode string

const (
	ExportJPG  ExportMode = "JPG"
	ExportRAW  ExportMode = "RAW"
	ExportBoth ExportMode = "BOTH"
)

// Operation 决定导出时保留还是移走源文件。
type Operation string

const (
	OpCopy Operation = "COPY"
	OpMove Operation = "MOVE"
)

func ParseExportMode(s string) (ExportMode, error) {
	switch m := ExportMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ExportJPG, ExportRAW, ExportBoth:
		return m, nil
	default:
		return "", fmt.Errorf("导出模式只能是 JPG、RAW 或 BOTH，实际是 %q", s)
	}
}

func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToUpper(strings.TrimSpace(s))); op {
	case OpCopy, OpMove:
		return op, nil
	default:
		return "", fmt.Errorf("操作只能是 COPY 或 MOVE，实际是 %q", s)
	}
}

// TransferPlan 描述一次导出中的单个文件（只描述 src/dst，不做任何 IO）。
//
// Collides=true 表示规划时目标目录已有同名文件。
type TransferPlan struct {
	GroupID  string
	Src      string
	Dst      string
	Collides bool
}
