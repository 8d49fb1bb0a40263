package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/John-Robertt/culler/internal/api"
	"github.com/John-Robertt/culler/internal/app"
	"github.com/John-Robertt/culler/internal/config"
	"github.com/John-Robertt/culler/internal/domain"
	"github.com/John-Robertt/culler/internal/infra/fsx"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(os.Stdout)
		return
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if code := run(cmd, args[1:]); code != 0 {
		os.Exit(code)
	}
}

// command 描述一个子命令：positional 是位置参数的数量约束（-1 表示至少一个）。
type command struct {
	usage      string
	positional int
	exec       func(svc *api.Service, ca cliArgs) int
}

var commands = map[string]command{
	"exif":       {usage: "culler exif <file>", positional: 1, exec: exifCmd},
	"scan":       {usage: "culler scan <dir> [--xmp[=true|false]]", positional: 1, exec: scanCmd},
	"scan-files": {usage: "culler scan-files <path>... [--xmp[=true|false]]", positional: -1, exec: scanFilesCmd},
	"trash":      {usage: "culler trash [--from <dir>] [--rejected|--picked] [--orphans jpg|raw] [--trash-dir <dir>] [--report <file>]", positional: 0, exec: trashCmd},
	"export":     {usage: "culler export <dest> [--from <dir>] [--mode JPG|RAW|BOTH] [--op COPY|MOVE] [--rejected|--picked] [--orphans jpg|raw] [--report <file>]", positional: 1, exec: exportCmd},
	"serve":      {usage: "culler serve", positional: 0, exec: serveCmd},
}

func run(cmd command, args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printCommandUsage(os.Stdout, cmd)
			return 0
		}
	}

	ca, err := parseArgs(args)
	if err == nil {
		err = checkPositional(cmd, ca)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printCommandUsage(os.Stderr, cmd)
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		ConfigPath:    ca.ConfigPath,
		ExportMode:    ca.Mode,
		ExportModeSet: ca.ModeSet,
		Operation:     ca.Op,
		OperationSet:  ca.OpSet,
		ReadXMP:       ca.XMP,
		ReadXMPSet:    ca.XMPSet,
		TrashDir:      ca.TrashDir,
		TrashDirSet:   ca.TrashDirSet,
	})
	if err != nil {
		emitError(err)
		return 1
	}

	return cmd.exec(api.New(eff), ca)
}

type cliArgs struct {
	Positional []string

	ConfigPath string

	Mode    string
	ModeSet bool
	Op      string
	OpSet   bool

	XMP    bool
	XMPSet bool

	TrashDir    string
	TrashDirSet bool

	From     string
	Rejected bool
	Picked   bool
	Orphans  string
	Report   string
}

// valueFlags 是需要取值的参数（支持 --x v 与 --x=v 两种写法）。
var valueFlags = map[string]func(ca *cliArgs, v string){
	"--config":    func(ca *cliArgs, v string) { ca.ConfigPath = v },
	"--mode":      func(ca *cliArgs, v string) { ca.Mode, ca.ModeSet = v, true },
	"--op":        func(ca *cliArgs, v string) { ca.Op, ca.OpSet = v, true },
	"--trash-dir": func(ca *cliArgs, v string) { ca.TrashDir, ca.TrashDirSet = v, true },
	"--from":      func(ca *cliArgs, v string) { ca.From = v },
	"--orphans":   func(ca *cliArgs, v string) { ca.Orphans = v },
	"--report":    func(ca *cliArgs, v string) { ca.Report = v },
}

func parseArgs(args []string) (cliArgs, error) {
	ca := cliArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		name, value, hasValue := strings.Cut(a, "=")

		if set, ok := valueFlags[name]; ok {
			if !hasValue {
				if i+1 >= len(args) {
					return cliArgs{}, fmt.Errorf("%s 需要一个值", name)
				}
				i++
				value = args[i]
			}
			if strings.TrimSpace(value) == "" {
				return cliArgs{}, fmt.Errorf("%s 不能为空", name)
			}
			set(&ca, value)
			continue
		}

		switch {
		case name == "--xmp":
			ca.XMP = true
			if hasValue {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return cliArgs{}, fmt.Errorf("--xmp 只能是 true 或 false，实际是 %q", value)
				}
				ca.XMP = b
			}
			ca.XMPSet = true
		case a == "--rejected":
			ca.Rejected = true
		case a == "--picked":
			ca.Picked = true
		case a == "--":
			ca.Positional = append(ca.Positional, args[i+1:]...)
			i = len(args)
		case strings.HasPrefix(a, "-"):
			return cliArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			ca.Positional = append(ca.Positional, a)
		}
	}

	if ca.Rejected && ca.Picked {
		return cliArgs{}, fmt.Errorf("--rejected 与 --picked 不能同时使用")
	}
	switch strings.ToLower(ca.Orphans) {
	case "", "jpg", "raw":
	default:
		return cliArgs{}, fmt.Errorf("--orphans 只能是 jpg 或 raw，实际是 %q", ca.Orphans)
	}
	return ca, nil
}

func checkPositional(cmd command, ca cliArgs) error {
	n := len(ca.Positional)
	switch {
	case cmd.positional < 0 && n == 0:
		return fmt.Errorf("至少需要一个路径")
	case cmd.positional >= 0 && n != cmd.positional:
		return fmt.Errorf("需要 %d 个位置参数，实际 %d 个", cmd.positional, n)
	}
	return nil
}

func exifCmd(svc *api.Service, ca cliArgs) int {
	rec, err := svc.ReadMetadata(ca.Positional[0])
	if err != nil {
		emitError(err)
		return 1
	}
	emit(rec, func(w io.Writer) { printMetadata(w, rec) }, "完成：exif")
	return 0
}

// scanOutput 是 scan/scan-files 的 JSON 输出；trash/export 也从 stdin 接受同样的结构。
type scanOutput struct {
	Groups []domain.PhotoGroup `json:"groups"`
	Stats  domain.Stats        `json:"stats"`
}

func scanCmd(svc *api.Service, ca cliArgs) int {
	groups, err := svc.ScanDirectory(ca.Positional[0])
	if err != nil {
		emitError(err)
		return 1
	}
	emitGroups(svc, groups)
	return 0
}

func scanFilesCmd(svc *api.Service, ca cliArgs) int {
	emitGroups(svc, svc.ScanFiles(ca.Positional))
	return 0
}

func emitGroups(svc *api.Service, groups []domain.PhotoGroup) {
	out := scanOutput{Groups: groups, Stats: svc.Stats(groups)}
	emit(out, func(w io.Writer) { printGroups(w, out) }, formatStats(out.Stats))
}

func trashCmd(svc *api.Service, ca cliArgs) int {
	groups, err := loadGroups(svc, ca)
	if err != nil {
		emitError(err)
		return 1
	}

	progressW, interactive := pickProgressWriter()
	if interactive {
		svc.Observer = newProgressUI(progressW, svc.Config)
	}
	rep, err := svc.TrashGroups(groups)
	return finishBatch(rep, err, ca.Report)
}

func exportCmd(svc *api.Service, ca cliArgs) int {
	groups, err := loadGroups(svc, ca)
	if err != nil {
		emitError(err)
		return 1
	}

	progressW, interactive := pickProgressWriter()
	if interactive {
		svc.Observer = newProgressUI(progressW, svc.Config)
	}
	rep, err := svc.ExportGroups(groups, svc.Config.ExportMode, svc.Config.Operation, ca.Positional[0])
	if rep.ID == "" {
		// 前置校验失败：没有任何文件被处理。
		emitError(err)
		return 1
	}
	return finishBatch(rep, err, ca.Report)
}

func serveCmd(svc *api.Service, _ cliArgs) int {
	if err := svc.Serve(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "serve 结束：%v\n", err)
		return 1
	}
	return 0
}

// loadGroups：--from 给出时扫描该目录；否则从 stdin 读取 scan 的 JSON 输出（或 group 数组）。
// 随后按 --rejected/--picked/--orphans 过滤。
func loadGroups(svc *api.Service, ca cliArgs) ([]domain.PhotoGroup, error) {
	var groups []domain.PhotoGroup
	if ca.From != "" {
		gs, err := svc.ScanDirectory(ca.From)
		if err != nil {
			return nil, err
		}
		groups = gs
	} else {
		if isTTY(os.Stdin) {
			return nil, &domain.ValidationError{Reason: "没有输入：请通过 stdin 传入 scan 的输出，或使用 --from <dir>"}
		}
		gs, err := readGroups(os.Stdin)
		if err != nil {
			return nil, err
		}
		groups = gs
	}

	switch {
	case ca.Rejected:
		groups = app.FilterBySelection(groups, domain.SelectionRejected)
	case ca.Picked:
		groups = app.FilterBySelection(groups, domain.SelectionPicked)
	}
	switch strings.ToLower(ca.Orphans) {
	case "jpg":
		groups = app.FilterByStatus(groups, domain.StatusJPGOnly)
	case "raw":
		groups = app.FilterByStatus(groups, domain.StatusRAWOnly)
	}
	return groups, nil
}

func readGroups(r io.Reader) ([]domain.PhotoGroup, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, &domain.IOError{Op: "read", Path: "stdin", Err: err}
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, &domain.ValidationError{Path: "stdin", Reason: "没有输入：请通过 stdin 传入 scan 的输出，或使用 --from <dir>"}
	}

	if b[0] == '[' {
		var gs []domain.PhotoGroup
		if err := json.Unmarshal(b, &gs); err != nil {
			return nil, &domain.ValidationError{Path: "stdin", Reason: fmt.Sprintf("group 列表无法解析：%v", err)}
		}
		return gs, nil
	}
	var out scanOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, &domain.ValidationError{Path: "stdin", Reason: fmt.Sprintf("scan 输出无法解析：%v", err)}
	}
	return out.Groups, nil
}

func finishBatch(rep domain.BatchReport, err error, reportPath string) int {
	code := 0
	if err != nil {
		code = 1
	}

	if reportPath != "" {
		if werr := writeReportFile(reportPath, rep); werr != nil {
			fmt.Fprintf(os.Stderr, "写入报告失败：%v\n", werr)
			code = 1
		}
	}

	emit(rep, func(w io.Writer) { printReport(w, rep, err) }, formatSummary(rep))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", api.ErrorOf(err).Code, err.Error())
	}
	if reportPath != "" {
		fmt.Fprintf(os.Stderr, "report: %s\n", reportPath)
	}
	return code
}

func writeReportFile(path string, rep domain.BatchReport) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(filepath.Dir(abs), filepath.Base(abs), b)
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  culler <命令> [参数]

命令：
  exif        读取单个文件的拍摄参数
  scan        扫描目录（非递归），按文件名配对 JPG/RAW
  scan-files  对显式给出的文件配对
  trash       把 group 的所有成员移入回收站
  export      按模式复制/移动 group 成员到目标目录
  serve       在 stdin/stdout 上运行 JSON 行协议

通用参数：
  --config <file>  指定配置文件（默认读取 ./culler.json，可选）

使用 "culler <命令> --help" 查看详细说明。
`)
}

func printCommandUsage(w io.Writer, cmd command) {
	fmt.Fprintf(w, `用法：
  %s

参数：
  --config     指定配置文件（默认 ./culler.json）
  --xmp        从 XMP 旁车读取评分作为挑片标记；支持 --xmp=false 覆盖配置
  --from       先扫描该目录，而不是从 stdin 读取 scan 的 JSON 输出
  --rejected   只处理 REJECTED 的 group
  --picked     只处理 PICKED 的 group
  --orphans    只处理孤儿：jpg（JPG_ONLY）或 raw（RAW_ONLY）
  --mode       导出模式：JPG|RAW|BOTH（默认读配置；最终默认 BOTH）
  --op         导出操作：COPY|MOVE（默认读配置；最终默认 COPY）
  --trash-dir  使用指定目录作为回收站（freedesktop 布局）
  --report     把批量操作报告（JSON）写入该文件
  -h, --help   显示帮助
`, cmd.usage)
}

// emit 遵守输出契约：stdout 是 TTY 时输出人类可读内容；否则 stdout 只输出一个 JSON 文档，摘要走 stderr。
func emit(v any, human func(io.Writer), summary string) {
	if isTTY(os.Stdout) {
		human(os.Stdout)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	if summary != "" {
		fmt.Fprintln(os.Stderr, summary)
	}
}

func emitError(err error) {
	body := api.ErrorOf(err)
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", body.Code, body.Message)
		return
	}
	_ = json.NewEncoder(os.Stdout).Encode(struct {
		Error *api.ErrorBody `json:"error"`
	}{body})
	fmt.Fprintf(os.Stderr, "%s: %s\n", body.Code, body.Message)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
