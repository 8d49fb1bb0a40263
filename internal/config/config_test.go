package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/culler/internal/domain"
)

func TestLoadEffective_NoSourcesUsesDefaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigPath != "" {
		t.Fatalf("不应读取任何配置文件：%q", eff.ConfigPath)
	}
	if eff.ExportMode != domain.ExportBoth || eff.Operation != domain.OpCopy {
		t.Fatalf("默认值不符合预期：%+v", eff)
	}
	if eff.ReadXMP || eff.PickMinRating != 1 || eff.TrashDir != "" {
		t.Fatalf("默认值不符合预期：%+v", eff)
	}
	if eff.Extensions.Classify("nef") != domain.KindRAW {
		t.Fatalf("默认扩展名应包含 NEF")
	}
}

func TestLoadEffective_ExplicitConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{ConfigPath: "missing.json"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_FileConfig(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{
		"raw_extensions": ["rw2", ".ARW"],
		"read_xmp": true,
		"pick_min_rating": 3,
		"export_mode": "raw",
		"operation": "move",
		"trash_dir": "trash"
	}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigPath != filepath.Join(cwd, FileName) {
		t.Fatalf("ConfigPath 不符合预期：%q", eff.ConfigPath)
	}
	if eff.Extensions.Classify("RW2") != domain.KindRAW || eff.Extensions.Classify("NEF") != domain.KindNone {
		t.Fatalf("raw_extensions 应替换默认 RAW 列表：%v", eff.Extensions.RAW())
	}
	if !eff.ReadXMP || eff.PickMinRating != 3 {
		t.Fatalf("xmp 配置不符合预期：%+v", eff)
	}
	if eff.ExportMode != domain.ExportRAW || eff.Operation != domain.OpMove {
		t.Fatalf("模式不符合预期：%+v", eff)
	}
	if eff.TrashDir != filepath.Join(cwd, "trash") {
		t.Fatalf("trash_dir 应相对 cwd 解析：%q", eff.TrashDir)
	}
}

func TestLoadEffective_MergeOrder(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"export_mode":"JPG","operation":"COPY","read_xmp":true}`))
	writeFile(t, filepath.Join(cwd, ".env"), []byte("CULLER_EXPORT_MODE=RAW\nCULLER_OPERATION=MOVE\n"))
	t.Setenv("CULLER_OPERATION", "COPY")

	// .env 覆盖配置文件；进程环境优先于 .env。
	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ExportMode != domain.ExportRAW {
		t.Fatalf("期望 .env 覆盖 export_mode，实际=%q", eff.ExportMode)
	}
	if eff.Operation != domain.OpCopy {
		t.Fatalf("期望进程环境优先，实际=%q", eff.Operation)
	}

	// CLI 显式指定时覆盖一切（包括 --xmp=false）。
	eff, err = LoadEffective(cwd, CLIArgs{
		ExportMode: "both", ExportModeSet: true,
		ReadXMP: false, ReadXMPSet: true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ExportMode != domain.ExportBoth || eff.ReadXMP {
		t.Fatalf("CLI 覆盖失败：%+v", eff)
	}
}

func TestLoadEffective_EnvLists(t *testing.T) {
	cwd := t.TempDir()
	t.Setenv("CULLER_JPEG_EXTENSIONS", "jpg, jpeg ,heic")
	t.Setenv("CULLER_READ_XMP", "1")

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Extensions.Classify("HEIC") != domain.KindJPEG {
		t.Fatalf("环境变量列表未生效：%v", eff.Extensions.JPEG())
	}
	if !eff.ReadXMP {
		t.Fatalf("CULLER_READ_XMP=1 应开启 XMP")
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := map[string]string{
		"json":    `{`,
		"overlap": `{"jpeg_extensions":["JPG"],"raw_extensions":["jpg"]}`,
		"mode":    `{"export_mode":"TIFF"}`,
		"op":      `{"operation":"LINK"}`,
		"rating":  `{"pick_min_rating":9}`,
	}
	for name, content := range cases {
		cwd := t.TempDir()
		writeFile(t, filepath.Join(cwd, FileName), []byte(content))

		_, err := LoadEffective(cwd, CLIArgs{})
		if Code(err) != ErrCodeInvalid {
			t.Fatalf("%s：期望 %q，实际 err=%v (code=%q)", name, ErrCodeInvalid, err, Code(err))
		}
	}
}

func TestLoadEffective_InvalidEnv(t *testing.T) {
	cwd := t.TempDir()
	t.Setenv("CULLER_PICK_MIN_RATING", "high")

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
