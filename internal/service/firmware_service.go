package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"calibops-data/internal/domain"
	"calibops-data/internal/repository"
	"calibops-data/internal/store"

	"go.uber.org/zap"
)

// FirmwareService 固件库服务接口
// blob 先写、元数据后写；元数据落库失败时遗留的孤儿 blob 只记日志不回滚（已知缺口）
type FirmwareService interface {
	Upload(ctx context.Context, req UploadFirmwareRequest) (*domain.Firmware, error)
	List(ctx context.Context, req ListFirmwaresRequest) (*ListFirmwaresResponse, error)
	Get(ctx context.Context, id string) (*domain.Firmware, error)
	// Download 返回元数据和 blob 读取流，调用方负责 Close
	Download(ctx context.Context, id string) (*domain.Firmware, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

type firmwareService struct {
	repo   repository.FirmwareRepository
	blobs  store.BlobStore
	logger *zap.Logger
}

func NewFirmwareService(repo repository.FirmwareRepository, blobs store.BlobStore, logger *zap.Logger) FirmwareService {
	return &firmwareService{repo: repo, blobs: blobs, logger: logger}
}

// UploadFirmwareRequest 固件上传请求（multipart 表单字段 + 文件流）
type UploadFirmwareRequest struct {
	Name        string
	Version     string
	Type        string
	SubType     string
	Description string
	CreatedDate string // 上传方声明的构建日期
	FileName    string
	File        io.Reader
}

func (s *firmwareService) Upload(ctx context.Context, req UploadFirmwareRequest) (*domain.Firmware, error) {
	// 1. 必填字段
	if req.Name == "" || req.Version == "" || req.Type == "" || req.SubType == "" || req.CreatedDate == "" {
		return nil, validationErrorf("required fields: name, version, type, subType, created_date")
	}
	if req.File == nil {
		return nil, validationErrorf("firmware file is not attached")
	}
	if !domain.ValidFirmwareType(req.Type) {
		return nil, validationErrorf("invalid firmware type: %s", req.Type)
	}
	if !domain.ValidFirmwareSubType(req.Type, req.SubType) {
		return nil, validationErrorf("invalid subType %q for type %q", req.SubType, req.Type)
	}

	// 2. 版本号解析
	parsed, err := domain.ParseVersion(req.Version)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	// 3. 构建日期必须是 1970 年之后的合法日期
	createdDate, err := parseCreatedDate(req.CreatedDate)
	if err != nil {
		return nil, validationErrorf("invalid created_date")
	}

	// 4. 唯一键预检（并发窗口由存储层唯一约束兜底）
	_, err = s.repo.GetByKey(ctx, req.Type, req.SubType, req.Version)
	if err == nil {
		return nil, s.duplicateError(req.Type, req.SubType, req.Version)
	}
	if err != repository.ErrNotFound {
		return nil, fmt.Errorf("check existing firmware: %w", err)
	}

	// 5. blob 先写
	blobPath := firmwareBlobPath(req.Type, req.Name, req.Version, req.FileName)
	size, err := s.blobs.Save(blobPath, req.File)
	if err != nil {
		s.logger.Error("firmware blob write failed",
			zap.String("path", blobPath), zap.Error(err))
		return nil, fmt.Errorf("store firmware file: %w", err)
	}

	// 6. 元数据后写；失败时 blob 成为孤儿，记录后原样返回错误
	fw := &domain.Firmware{
		Name:          req.Name,
		Version:       req.Version,
		Type:          req.Type,
		SubType:       req.SubType,
		VersionParsed: parsed,
		FilePath:      blobPath,
		FileSize:      size,
		Description:   req.Description,
		CreatedDate:   createdDate,
	}
	id, err := s.repo.Insert(ctx, fw)
	if err != nil {
		s.logger.Error("firmware metadata write failed, blob left orphaned",
			zap.String("path", blobPath), zap.Error(err))
		if err == repository.ErrDuplicate {
			return nil, s.duplicateError(req.Type, req.SubType, req.Version)
		}
		return nil, fmt.Errorf("save firmware metadata: %w", err)
	}

	saved, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload firmware: %w", err)
	}
	return saved, nil
}

func (s *firmwareService) duplicateError(typ, subType, version string) error {
	return fmt.Errorf("firmware with type %q, subType %q and version %q already exists: %w",
		typ, subType, version, repository.ErrDuplicate)
}

// ListFirmwaresRequest 固件列表请求
type ListFirmwaresRequest struct {
	Type          string
	SubType       string
	Version       string
	Name          string // 子串匹配，大小写不敏感
	MinUploadDate string // YYYY-MM-DD，含当日 00:00:00
	MaxUploadDate string // YYYY-MM-DD，含当日 23:59:59
	Sort          string
	Page          int
	Limit         int
}

// ListFirmwaresResponse 固件列表响应
type ListFirmwaresResponse struct {
	Firmwares   []*domain.Firmware
	Total       int
	TotalPages  int
	CurrentPage int
}

func (s *firmwareService) List(ctx context.Context, req ListFirmwaresRequest) (*ListFirmwaresResponse, error) {
	filters := repository.FirmwareFilters{
		Type:    strings.TrimSpace(req.Type),
		SubType: strings.TrimSpace(req.SubType),
		Version: strings.TrimSpace(req.Version),
		Name:    strings.TrimSpace(req.Name),
	}
	if req.MinUploadDate != "" {
		if t, err := time.Parse("2006-01-02", req.MinUploadDate); err == nil {
			filters.MinUploadDate = &t
		}
	}
	if req.MaxUploadDate != "" {
		if t, err := time.Parse("2006-01-02", req.MaxUploadDate); err == nil {
			end := endOfDay(t)
			filters.MaxUploadDate = &end
		}
	}

	page, limit := normalizePage(req.Page, req.Limit, 10)
	items, total, err := s.repo.List(ctx, filters, req.Sort, page, limit)
	if err != nil {
		s.logger.Error("list firmwares failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list firmwares")
	}
	return &ListFirmwaresResponse{
		Firmwares:   items,
		Total:       total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

func (s *firmwareService) Get(ctx context.Context, id string) (*domain.Firmware, error) {
	fw, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, repository.ErrNotFound
		}
		s.logger.Error("get firmware failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get firmware")
	}
	return fw, nil
}

func (s *firmwareService) Download(ctx context.Context, id string) (*domain.Firmware, io.ReadCloser, error) {
	fw, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(fw.FilePath)
	if err != nil {
		s.logger.Warn("firmware blob missing",
			zap.String("id", id), zap.String("path", fw.FilePath), zap.Error(err))
		return nil, nil, repository.ErrNotFound
	}
	return fw, rc, nil
}

func (s *firmwareService) Delete(ctx context.Context, id string) error {
	fw, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return err
		}
		s.logger.Error("delete firmware failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete firmware")
	}
	// blob 删除尽力而为，文件缺失不算错误
	if err := s.blobs.Remove(fw.FilePath); err != nil {
		s.logger.Warn("firmware blob cleanup failed",
			zap.String("id", id), zap.String("path", fw.FilePath), zap.Error(err))
	}
	return nil
}

// firmwareBlobPath blob 存储路径：firmware/<type>/<name>_<version><ext>
func firmwareBlobPath(typ, name, version, fileName string) string {
	ext := filepath.Ext(fileName)
	safeName := strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return fmt.Sprintf("firmware/%s/%s_%s%s", typ, safeName, version, ext)
}

// DownloadFileName 下载时恢复的文件名 <name>_<version><ext>
func DownloadFileName(fw *domain.Firmware) string {
	ext := filepath.Ext(fw.FilePath)
	return fmt.Sprintf("%s_%s%s", fw.Name, fw.Version, ext)
}

// parseCreatedDate 接受 YYYY-MM-DD 或 RFC3339；年份必须大于 1970
func parseCreatedDate(s string) (time.Time, error) {
	var t time.Time
	var err error
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err = time.Parse(layout, s); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, err
	}
	if t.Year() <= 1970 {
		return time.Time{}, fmt.Errorf("created date before 1971")
	}
	return t, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999000000, t.Location())
}

func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return page, limit
}

func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
