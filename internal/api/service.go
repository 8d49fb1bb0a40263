// Package api 是面向 UI 外壳/CLI 的门面：把配置、分组、批量操作组装为少数几个入口。
package api

import (
	"github.com/John-Robertt/culler/internal/app"
	"github.com/John-Robertt/culler/internal/app/batch"
	"github.com/John-Robertt/culler/internal/config"
	"github.com/John-Robertt/culler/internal/domain"
	"github.com/John-Robertt/culler/internal/exifmeta"
	"github.com/John-Robertt/culler/internal/infra/trash"
	"github.com/John-Robertt/culler/internal/scan"
)

// Service 不持有任何跨调用的状态：每次调用都从磁盘重新构建工作集。
type Service struct {
	Config   config.EffectiveConfig
	Extract  app.Extractor
	Trasher  trash.Trasher
	Observer batch.Observer
}

// New 用生产实现（goexif 提取、系统回收站）组装 Service。
func New(cfg config.EffectiveConfig) *Service {
	return &Service{
		Config:  cfg,
		Extract: exifmeta.Extract,
		Trasher: trash.New(cfg.TrashDir),
	}
}

// MergeResult 是 Merge 的返回值；FirstNewID 为空表示没有新增。
type MergeResult struct {
	Groups     []domain.PhotoGroup `json:"groups"`
	FirstNewID string              `json:"firstNewId,omitempty"`
}

func (s *Service) ReadMetadata(path string) (domain.MetadataRecord, error) {
	return s.extract()(path)
}

// ScanDirectory 非递归扫描 dir 并分组。
func (s *Service) ScanDirectory(dir string) ([]domain.PhotoGroup, error) {
	files, err := scan.ScanDir(dir, s.Config.Extensions)
	if err != nil {
		return nil, err
	}
	return app.GroupPhotos(files, s.Config.Extensions, s.groupOptions()), nil
}

// ScanFiles 对显式给出的路径分组；不存在/不是普通文件的路径被静默忽略。
func (s *Service) ScanFiles(paths []string) []domain.PhotoGroup {
	files := scan.ScanPaths(paths, s.Config.Extensions)
	return app.GroupPhotos(files, s.Config.Extensions, s.groupOptions())
}

func (s *Service) TrashGroups(groups []domain.PhotoGroup) (domain.BatchReport, error) {
	t := s.Trasher
	if t == nil {
		t = trash.New(s.Config.TrashDir)
	}
	return batch.Trash(groups, t, s.Observer)
}

// ExportGroups 的 mode/op 为空时使用配置中的默认值。
func (s *Service) ExportGroups(groups []domain.PhotoGroup, mode domain.ExportMode, op domain.Operation, dest string) (domain.BatchReport, error) {
	if mode == "" {
		mode = s.Config.ExportMode
	}
	if op == "" {
		op = s.Config.Operation
	}
	return batch.Export(groups, mode, op, dest, s.Observer)
}

func (s *Service) Stats(groups []domain.PhotoGroup) domain.Stats {
	return app.Summarize(groups)
}

func (s *Service) Merge(existing, incoming []domain.PhotoGroup) MergeResult {
	merged, first := app.MergeImported(existing, incoming)
	return MergeResult{Groups: merged, FirstNewID: first}
}

func (s *Service) extract() app.Extractor {
	if s.Extract != nil {
		return s.Extract
	}
	return exifmeta.Extract
}

func (s *Service) groupOptions() app.GroupOptions {
	return app.GroupOptions{
		Extract:       s.extract(),
		ReadXMP:       s.Config.ReadXMP,
		PickMinRating: s.Config.PickMinRating,
	}
}
