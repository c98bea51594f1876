package service

import (
	"context"
	"fmt"
	"sort"

	"calibops-data/internal/domain"
	"calibops-data/internal/repository"

	"go.uber.org/zap"
)

// UpdateService 固件升级链计算
// 返回从 current（不含）到 target（含，缺省为最新）之间按版本升序的完整安装序列，
// 设备按序逐级升级，跨版本直跳不安全
type UpdateService interface {
	CheckForUpdates(ctx context.Context, req CheckForUpdatesRequest) (*UpdateCheckResult, error)
}

type updateService struct {
	repo   repository.FirmwareRepository
	logger *zap.Logger
}

func NewUpdateService(repo repository.FirmwareRepository, logger *zap.Logger) UpdateService {
	return &updateService{repo: repo, logger: logger}
}

// CheckForUpdatesRequest 升级检查请求
type CheckForUpdatesRequest struct {
	FirmwareType   string // 必填
	SubType        string // 必填
	CurrentVersion string // 必填，X.Y.Z
	TargetVersion  string // 可选，X.Y.Z，必须严格大于 CurrentVersion
}

// UpdateFirmware 升级序列中的一个固件发布
type UpdateFirmware struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	SubType     string `json:"subType"`
	Description string `json:"description"`
	DownloadURL string `json:"download_url"`
	FileSize    int64  `json:"file_size"`
}

// UpdateCheckResult 升级检查结果
type UpdateCheckResult struct {
	HasUpdates     bool             `json:"has_updates"`
	Message        string           `json:"message,omitempty"`
	Firmwares      []UpdateFirmware `json:"firmwares,omitempty"`
	UpdatesCount   int              `json:"updates_count,omitempty"`
	LatestVersion  string           `json:"latest_version,omitempty"`
	CurrentVersion string           `json:"current_version,omitempty"`
	TargetVersion  string           `json:"target_version,omitempty"`
}

func (s *updateService) CheckForUpdates(ctx context.Context, req CheckForUpdatesRequest) (*UpdateCheckResult, error) {
	// 1. 必填检查先行，再做格式检查，最后做区间检查
	if req.FirmwareType == "" {
		return nil, validationErrorf("firmware type is required")
	}
	if req.SubType == "" {
		return nil, validationErrorf("subType is required for all firmware types")
	}
	if req.CurrentVersion == "" {
		return nil, validationErrorf("current_version is required")
	}

	current, err := domain.ParseVersion(req.CurrentVersion)
	if err != nil {
		return nil, validationErrorf("invalid current_version format: %s, use X.Y.Z", req.CurrentVersion)
	}
	var target domain.Version
	hasTarget := req.TargetVersion != ""
	if hasTarget {
		target, err = domain.ParseVersion(req.TargetVersion)
		if err != nil {
			return nil, validationErrorf("invalid target_version format: %s, use X.Y.Z", req.TargetVersion)
		}
		// target 必须严格大于 current
		if current.Compare(target) >= 0 {
			return nil, validationErrorf("target_version must be greater than current_version")
		}
	}

	// 2. 取出 (type, subType) 的全部发布，应用层排序过滤
	all, err := s.repo.ListByTypeSubType(ctx, req.FirmwareType, req.SubType)
	if err != nil {
		s.logger.Error("check for updates failed",
			zap.String("type", req.FirmwareType), zap.String("sub_type", req.SubType), zap.Error(err))
		return nil, fmt.Errorf("failed to check for updates")
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].VersionParsed.Compare(all[j].VersionParsed) < 0
	})

	// 3. 半开区间 (current, target]；无 target 时上界不限
	filtered := []*domain.Firmware{}
	for _, fw := range all {
		if fw.VersionParsed.Compare(current) <= 0 {
			continue
		}
		if hasTarget && fw.VersionParsed.Compare(target) > 0 {
			continue
		}
		filtered = append(filtered, fw)
	}

	if len(filtered) == 0 {
		message := "no updates required"
		if hasTarget {
			message = "no firmware releases between current_version and target_version"
		}
		return &UpdateCheckResult{HasUpdates: false, Message: message}, nil
	}

	releases := make([]UpdateFirmware, 0, len(filtered))
	for _, fw := range filtered {
		releases = append(releases, UpdateFirmware{
			ID:          fw.ID,
			Name:        fw.Name,
			Version:     fw.Version,
			SubType:     fw.SubType,
			Description: fw.Description,
			DownloadURL: "/api/firmware/download/" + fw.ID,
			FileSize:    fw.FileSize,
		})
	}
	result := &UpdateCheckResult{
		HasUpdates:     true,
		Firmwares:      releases,
		UpdatesCount:   len(releases),
		LatestVersion:  filtered[len(filtered)-1].Version,
		CurrentVersion: req.CurrentVersion,
	}
	if hasTarget {
		result.TargetVersion = req.TargetVersion
	}
	return result, nil
}
