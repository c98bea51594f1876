package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"calibops-data/internal/domain"
	"calibops-data/internal/repository"

	"go.uber.org/zap"
)

// StandService 台架档案服务接口
// 来自遥测的 upsert 是 last-write-wins，同一 stand_id 的并发摄取不做冲突检测
type StandService interface {
	List(ctx context.Context, req ListStandsRequest) (*ListStandsResponse, error)
	Get(ctx context.Context, id string) (*domain.Stand, error)
	GetByStandID(ctx context.Context, standID string) (*domain.Stand, error)
	Create(ctx context.Context, req CreateStandRequest) (*domain.Stand, error)
	Update(ctx context.Context, id string, req UpdateStandRequest) (*domain.Stand, error)
	// AddRepairRecord 追加维修记录；repair_status = completed 时父状态回到 active，
	// 其它一律置 in-repair（业务规则，不是巧合）
	AddRepairRecord(ctx context.Context, id string, req RepairRecordRequest) (*domain.Stand, error)
	Delete(ctx context.Context, id string) error
	// UpsertFromTelemetry 摄取管线回调：未知 stand_id 懒创建，已知则覆盖版本与使用时间
	UpsertFromTelemetry(ctx context.Context, standID, softwareVersion, hardwareVersion, serial string) (*domain.Stand, error)
	// ExportAll 导出全部台架（Excel 导出用）
	ExportAll(ctx context.Context) ([]*domain.Stand, error)
}

type standService struct {
	repo   repository.StandsRepository
	logger *zap.Logger
}

func NewStandService(repo repository.StandsRepository, logger *zap.Logger) StandService {
	return &standService{repo: repo, logger: logger}
}

// ListStandsRequest 台架列表请求（只按 status 过滤）
type ListStandsRequest struct {
	Status string
	Sort   string
	Page   int
	Limit  int
}

// ListStandsResponse 台架列表响应
type ListStandsResponse struct {
	Stands      []*domain.Stand
	Total       int
	TotalPages  int
	CurrentPage int
}

func (s *standService) List(ctx context.Context, req ListStandsRequest) (*ListStandsResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit, 10)
	items, total, err := s.repo.List(ctx, req.Status, req.Sort, page, limit)
	if err != nil {
		s.logger.Error("list stands failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list stands")
	}
	return &ListStandsResponse{
		Stands:      items,
		Total:       total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

func (s *standService) Get(ctx context.Context, id string) (*domain.Stand, error) {
	stand, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, err
		}
		s.logger.Error("get stand failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get stand")
	}
	return stand, nil
}

func (s *standService) GetByStandID(ctx context.Context, standID string) (*domain.Stand, error) {
	stand, err := s.repo.GetByStandID(ctx, standID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, err
		}
		s.logger.Error("get stand by stand_id failed", zap.String("stand_id", standID), zap.Error(err))
		return nil, fmt.Errorf("failed to get stand")
	}
	return stand, nil
}

// CreateStandRequest 手工创建台架请求
type CreateStandRequest struct {
	StandID              string          `json:"stand_id"`
	SoftwareVersionStand string          `json:"software_version_stand"`
	HardwareVersionStand string          `json:"hardware_version_stand"`
	SerialNumberObJlink  string          `json:"serial_number_ob_jlink"`
	Status               string          `json:"status"`
	AdditionalNotes      string          `json:"additional_notes"`
	ScheduledMaintenance json.RawMessage `json:"scheduled_maintenance"`
	AdditionalData       json.RawMessage `json:"additional_data"`
}

func (s *standService) Create(ctx context.Context, req CreateStandRequest) (*domain.Stand, error) {
	if req.StandID == "" {
		return nil, validationErrorf("stand_id is required")
	}
	status := req.Status
	if status == "" {
		status = domain.StandStatusActive
	}
	if !domain.ValidStandStatus(status) {
		return nil, validationErrorf("invalid stand status: %s", status)
	}

	stand := &domain.Stand{
		StandID:              req.StandID,
		SoftwareVersionStand: req.SoftwareVersionStand,
		HardwareVersionStand: req.HardwareVersionStand,
		SerialNumberObJlink:  req.SerialNumberObJlink,
		Status:               status,
		LastUsed:             time.Now(),
		ScheduledMaintenance: req.ScheduledMaintenance,
		AdditionalNotes:      req.AdditionalNotes,
		AdditionalData:       req.AdditionalData,
	}
	id, err := s.repo.Insert(ctx, stand)
	if err != nil {
		if err == repository.ErrDuplicate {
			return nil, fmt.Errorf("stand with this ID already exists: %w", repository.ErrDuplicate)
		}
		s.logger.Error("create stand failed", zap.String("stand_id", req.StandID), zap.Error(err))
		return nil, fmt.Errorf("failed to create stand")
	}
	return s.Get(ctx, id)
}

// UpdateStandRequest 台架编辑请求；nil 字段不修改
type UpdateStandRequest struct {
	SoftwareVersionStand *string         `json:"software_version_stand"`
	HardwareVersionStand *string         `json:"hardware_version_stand"`
	SerialNumberObJlink  *string         `json:"serial_number_ob_jlink"`
	Status               *string         `json:"status"`
	AdditionalNotes      *string         `json:"additional_notes"`
	ScheduledMaintenance json.RawMessage `json:"scheduled_maintenance"`
	AdditionalData       json.RawMessage `json:"additional_data"`
}

func (s *standService) Update(ctx context.Context, id string, req UpdateStandRequest) (*domain.Stand, error) {
	stand, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.SoftwareVersionStand != nil {
		stand.SoftwareVersionStand = *req.SoftwareVersionStand
	}
	if req.HardwareVersionStand != nil {
		stand.HardwareVersionStand = *req.HardwareVersionStand
	}
	if req.SerialNumberObJlink != nil {
		stand.SerialNumberObJlink = *req.SerialNumberObJlink
	}
	if req.Status != nil {
		if !domain.ValidStandStatus(*req.Status) {
			return nil, validationErrorf("invalid stand status: %s", *req.Status)
		}
		stand.Status = *req.Status
	}
	if req.AdditionalNotes != nil {
		stand.AdditionalNotes = *req.AdditionalNotes
	}
	if req.ScheduledMaintenance != nil {
		stand.ScheduledMaintenance = req.ScheduledMaintenance
	}
	if req.AdditionalData != nil {
		stand.AdditionalData = req.AdditionalData
	}

	if err := s.repo.Update(ctx, stand); err != nil {
		if err == repository.ErrNotFound {
			return nil, err
		}
		s.logger.Error("update stand failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update stand")
	}
	return s.Get(ctx, id)
}

// RepairRecordRequest 维修记录请求
type RepairRecordRequest struct {
	RepairDate        *time.Time `json:"repair_date"`
	RepairDescription string     `json:"repair_description"`
	RepairedBy        string     `json:"repaired_by"`
	RepairStatus      string     `json:"repair_status"`
}

func (s *standService) AddRepairRecord(ctx context.Context, id string, req RepairRecordRequest) (*domain.Stand, error) {
	if req.RepairDescription == "" {
		return nil, validationErrorf("repair_description is required")
	}
	if req.RepairedBy == "" {
		return nil, validationErrorf("repaired_by is required")
	}
	status := req.RepairStatus
	if status == "" {
		status = domain.RepairStatusPlanned
	}

	stand, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	date := time.Now()
	if req.RepairDate != nil {
		date = *req.RepairDate
	}
	stand.RepairHistory = append(stand.RepairHistory, domain.RepairRecord{
		RepairDate:        date,
		RepairDescription: req.RepairDescription,
		RepairedBy:        req.RepairedBy,
		RepairStatus:      status,
	})
	if status == domain.RepairStatusCompleted {
		stand.Status = domain.StandStatusActive
	} else {
		stand.Status = domain.StandStatusInRepair
	}

	if err := s.repo.Update(ctx, stand); err != nil {
		s.logger.Error("add repair record failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to add repair record")
	}
	return s.Get(ctx, id)
}

func (s *standService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return err
		}
		s.logger.Error("delete stand failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete stand")
	}
	return nil
}

func (s *standService) UpsertFromTelemetry(ctx context.Context, standID, softwareVersion, hardwareVersion, serial string) (*domain.Stand, error) {
	existing, err := s.repo.GetByStandID(ctx, standID)
	if err != nil && err != repository.ErrNotFound {
		return nil, fmt.Errorf("lookup stand: %w", err)
	}

	if err == repository.ErrNotFound {
		stand := &domain.Stand{
			StandID:              standID,
			SoftwareVersionStand: softwareVersion,
			HardwareVersionStand: hardwareVersion,
			SerialNumberObJlink:  serial,
			Status:               domain.StandStatusActive,
			LastUsed:             time.Now(),
		}
		id, err := s.repo.Insert(ctx, stand)
		if err != nil {
			return nil, fmt.Errorf("create stand from telemetry: %w", err)
		}
		s.logger.Info("stand created from telemetry", zap.String("stand_id", standID))
		stand.ID = id
		return stand, nil
	}

	existing.SoftwareVersionStand = softwareVersion
	existing.HardwareVersionStand = hardwareVersion
	existing.SerialNumberObJlink = serial
	existing.LastUsed = time.Now()
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update stand from telemetry: %w", err)
	}
	s.logger.Info("stand updated from telemetry", zap.String("stand_id", standID))
	return existing, nil
}

func (s *standService) ExportAll(ctx context.Context) ([]*domain.Stand, error) {
	// 导出不分页，一次取全量
	items, _, err := s.repo.List(ctx, "", "stand_id", 1, 100000)
	if err != nil {
		s.logger.Error("export stands failed", zap.Error(err))
		return nil, fmt.Errorf("failed to export stands")
	}
	return items, nil
}
