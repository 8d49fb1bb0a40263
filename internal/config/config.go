package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/John-Robertt/culler/internal/domain"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件/.env/环境变量无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是在 cwd 下自动发现的配置文件名（可选）。
	FileName = "culler.json"
	// EnvPrefix 是环境变量覆盖的前缀。
	EnvPrefix = "CULLER_"

	DefaultExportMode = domain.ExportBoth
	DefaultOperation  = domain.OpCopy
)

// CLIArgs 是 CLI 暴露的配置项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --xmp=false 必须能覆盖 read_xmp=true。
type CLIArgs struct {
	// ConfigPath 显式指定配置文件；为空时尝试 <cwd>/culler.json（可选）。
	ConfigPath string

	ExportMode    string
	ExportModeSet bool

	Operation    string
	OperationSet bool

	ReadXMP    bool
	ReadXMPSet bool

	TrashDir    string
	TrashDirSet bool
}

// FileConfig 对应 culler.json 的解析结构。
type FileConfig struct {
	RawExtensions  []string `json:"raw_extensions"`
	JPEGExtensions []string `json:"jpeg_extensions"`
	ReadXMP        *bool    `json:"read_xmp"`
	PickMinRating  int      `json:"pick_min_rating"`
	ExportMode     string   `json:"export_mode"`
	Operation      string   `json:"operation"`
	TrashDir       string   `json:"trash_dir"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取到的配置文件；未读取任何文件时为空。
	ConfigPath string

	Extensions    domain.Extensions
	ReadXMP       bool
	PickMinRating int
	ExportMode    domain.ExportMode
	Operation     domain.Operation
	// TrashDir 为空表示使用系统回收站。
	TrashDir string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Default 返回不读取任何来源时的配置。
func Default() EffectiveConfig {
	return EffectiveConfig{
		Extensions:    domain.DefaultExtensions(),
		PickMinRating: 1,
		ExportMode:    DefaultExportMode,
		Operation:     DefaultOperation,
	}
}

// LoadEffective 发现并读取配置，然后与 CLI 参数合并为最终配置。
//
// 来源（全部可选）：
// 1) 配置文件：CLI --config 指定（必须存在），否则 <cwd>/culler.json
// 2) <cwd>/.env：只补充进程环境中未设置的 CULLER_* 变量
// 3) 进程环境变量 CULLER_*
//
// 覆盖优先级（固定）：CLI > 环境变量（含 .env）> 配置文件 > 内置默认。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	required := false
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		required = true
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists && required {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if !exists {
		cfgPath = ""
	}

	envPath := filepath.Join(cwdAbs, ".env")
	dotenv, err := readDotenv(envPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: err}
	}
	env := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+key]
		return v, ok
	}

	if err := applyEnv(&fc, env); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: "env", Err: err}
	}

	eff, err := merge(cwdAbs, cli, fc)
	if err != nil {
		path := cfgPath
		if path == "" {
			path = cwdAbs
		}
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	eff.ConfigPath = cfgPath
	return eff, nil
}

// applyEnv 用 CULLER_* 覆盖文件配置中的同名字段。
func applyEnv(fc *FileConfig, env func(string) (string, bool)) error {
	if v, ok := env("RAW_EXTENSIONS"); ok {
		fc.RawExtensions = splitList(v)
	}
	if v, ok := env("JPEG_EXTENSIONS"); ok {
		fc.JPEGExtensions = splitList(v)
	}
	if v, ok := env("READ_XMP"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sREAD_XMP 不是布尔值：%q", EnvPrefix, v)
		}
		fc.ReadXMP = &b
	}
	if v, ok := env("PICK_MIN_RATING"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sPICK_MIN_RATING 不是整数：%q", EnvPrefix, v)
		}
		fc.PickMinRating = n
	}
	if v, ok := env("EXPORT_MODE"); ok {
		fc.ExportMode = v
	}
	if v, ok := env("OPERATION"); ok {
		fc.Operation = v
	}
	if v, ok := env("TRASH_DIR"); ok {
		fc.TrashDir = v
	}
	return nil
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig) (EffectiveConfig, error) {
	eff := Default()

	if err := checkExtensions(fc.JPEGExtensions, fc.RawExtensions); err != nil {
		return EffectiveConfig{}, err
	}
	eff.Extensions = domain.NewExtensions(fc.JPEGExtensions, fc.RawExtensions)

	// read_xmp：CLI > config > 默认 false
	if cli.ReadXMPSet {
		eff.ReadXMP = cli.ReadXMP
	} else if fc.ReadXMP != nil {
		eff.ReadXMP = *fc.ReadXMP
	}

	// 评分范围 0..5；0 视为未配置。
	switch {
	case fc.PickMinRating == 0:
	case fc.PickMinRating < 1 || fc.PickMinRating > 5:
		return EffectiveConfig{}, fmt.Errorf("pick_min_rating 只能是 1..5，实际是 %d", fc.PickMinRating)
	default:
		eff.PickMinRating = fc.PickMinRating
	}

	mode := fc.ExportMode
	if cli.ExportModeSet {
		mode = cli.ExportMode
	}
	if strings.TrimSpace(mode) != "" {
		m, err := domain.ParseExportMode(mode)
		if err != nil {
			return EffectiveConfig{}, err
		}
		eff.ExportMode = m
	}

	op := fc.Operation
	if cli.OperationSet {
		op = cli.Operation
	}
	if strings.TrimSpace(op) != "" {
		o, err := domain.ParseOperation(op)
		if err != nil {
			return EffectiveConfig{}, err
		}
		eff.Operation = o
	}

	trashDir := fc.TrashDir
	if cli.TrashDirSet {
		trashDir = cli.TrashDir
	}
	eff.TrashDir = absCleanFrom(cwdAbs, trashDir)

	return eff, nil
}

// checkExtensions 拒绝同时出现在 JPEG 与 RAW 列表中的扩展名。
func checkExtensions(jpeg, raw []string) error {
	seen := make(map[string]struct{}, len(jpeg))
	for _, e := range jpeg {
		n := domain.NormalizeExt(e)
		if n == "" {
			return fmt.Errorf("jpeg_extensions 含空扩展名")
		}
		seen[n] = struct{}{}
	}
	for _, e := range raw {
		n := domain.NormalizeExt(e)
		if n == "" {
			return fmt.Errorf("raw_extensions 含空扩展名")
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("扩展名 %q 不能同时属于 JPEG 与 RAW", n)
		}
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute；p 为空时返回空串。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// readDotenv 读取 .env（不修改进程环境）；文件不存在时返回空表。
func readDotenv(path string) (map[string]string, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return m, nil
}
