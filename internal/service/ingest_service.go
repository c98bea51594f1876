package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"calibops-data/internal/domain"
	"calibops-data/internal/repository"

	"go.uber.org/zap"
)

// IngestService 测试台遥测摄取管线
// 会话落库是唯一硬依赖；字典注册、条目落库、错误日志、台架 upsert
// 都是机会主义步骤，失败记日志但不拦截响应
type IngestService interface {
	Ingest(ctx context.Context, req CreateLogRequest) (*IngestResult, error)
}

type ingestService struct {
	sessions repository.SessionsRepository
	entries  repository.EntriesRepository
	errLogs  repository.ErrorLogsRepository
	lookups  LookupService
	stands   StandService
	logger   *zap.Logger
}

func NewIngestService(
	sessions repository.SessionsRepository,
	entries repository.EntriesRepository,
	errLogs repository.ErrorLogsRepository,
	lookups LookupService,
	stands StandService,
	logger *zap.Logger,
) IngestService {
	return &ingestService{
		sessions: sessions,
		entries:  entries,
		errLogs:  errLogs,
		lookups:  lookups,
		stands:   stands,
		logger:   logger,
	}
}

// OperatorSettingsInput 一次测试会话的操作员/台架设置
type OperatorSettingsInput struct {
	OperatorName          string   `json:"operator_name"`
	ComPorts              []string `json:"com_ports"`
	ApplicationStartTime  string   `json:"application_start_time"`
	SoftwareVersionStand  string   `json:"software_version_stand"`
	HardwareVersionStand  string   `json:"hardware_version_stand"`
	SerialNumberObJlink   string   `json:"serial_number_ob_jlink"`
	StandID               string   `json:"stand_id"`
	DeviceType            string   `json:"device_type"`
	DeviceFirmwareVersion string   `json:"device_firmware_version"`
}

// CalibrationEntryInput 单个设备的标定记录
type CalibrationEntryInput struct {
	StartTime             string          `json:"start_time"`
	ReferenceVoltageSteps json.RawMessage `json:"reference_voltage_steps"`
	DacSteps              json.RawMessage `json:"dac_steps"`
	CalibrationSteps      json.RawMessage `json:"calibration_steps"`
	EndOfCalibration      json.RawMessage `json:"end_of_calibration"`
	DacMinSteps           []int64         `json:"dac_min_steps"`
	DacMaxSteps           []int64         `json:"dac_max_steps"`
	ActiveModeCurrent     *float64        `json:"active_mode_current"`
	AverageSleepMode      *float64        `json:"average_sleep_mode_current"`
	SleepModeCurrent      []float64       `json:"sleep_mode_current"`
	SerialNumber          string          `json:"serial_number"`
	ErrorDetected         bool            `json:"error_detected"`
	ErrorNumber           string          `json:"error_number"`
	TestDuration          string          `json:"test_duration"`
	CalibrationSuccessful bool            `json:"calibration_successful"`
	CalibrationSource     string          `json:"calibration_source"`
}

// CreateLogRequest 摄取请求：一份会话设置 + 一批标定条目
type CreateLogRequest struct {
	OperatorSettings   OperatorSettingsInput   `json:"operator_settings"`
	CalibrationEntries []CalibrationEntryInput `json:"calibration_entries"`
}

// IngestResult 摄取结果，附带入库统计
type IngestResult struct {
	Session      *domain.Session `json:"session"`
	EntriesCount int             `json:"entriesCount"`
	HasErrors    bool            `json:"hasErrors"`
}

func (s *ingestService) Ingest(ctx context.Context, req CreateLogRequest) (*IngestResult, error) {
	os := req.OperatorSettings

	// 1. 规范化：时间戳宽松解析，固件版本尽力解析（失败不拦截摄取）
	appStart := parseLooseTimestamp(os.ApplicationStartTime)
	var fwParsed []int64
	if v, err := domain.ParseVersion(os.DeviceFirmwareVersion); err == nil {
		fwParsed = v.Array()
	}

	session := &domain.Session{
		OperatorName:                nullString(os.OperatorName),
		ComPorts:                    os.ComPorts,
		ApplicationStartTime:        nullTime(appStart),
		SoftwareVersionStand:        nullString(os.SoftwareVersionStand),
		HardwareVersionStand:        nullString(os.HardwareVersionStand),
		SerialNumberObJlink:         nullString(os.SerialNumberObJlink),
		StandID:                     nullString(os.StandID),
		DeviceType:                  nullString(os.DeviceType),
		DeviceFirmwareVersion:       nullString(os.DeviceFirmwareVersion),
		DeviceFirmwareVersionParsed: fwParsed,
	}

	// 2. 会话落库，失败即整个摄取失败
	id, err := s.sessions.Insert(ctx, session)
	if err != nil {
		s.logger.Error("session insert failed", zap.Error(err))
		return nil, fmt.Errorf("save session: %w", err)
	}

	// 3. 字典注册，机会主义
	if os.OperatorName != "" {
		if err := s.lookups.RegisterOperatorName(ctx, os.OperatorName); err != nil {
			s.logger.Warn("operator name registration failed",
				zap.String("operator_name", os.OperatorName), zap.Error(err))
		}
	}
	if os.StandID != "" {
		if err := s.lookups.RegisterStandID(ctx, os.StandID); err != nil {
			s.logger.Warn("stand id registration failed",
				zap.String("stand_id", os.StandID), zap.Error(err))
		}
	}

	// 4. 标定条目批量落库（冗余写入会话级字段，列表页免 join）
	entriesCount := 0
	hasErrors := false
	if len(req.CalibrationEntries) > 0 {
		entries := make([]*domain.CalibrationEntry, 0, len(req.CalibrationEntries))
		for _, in := range req.CalibrationEntries {
			if in.ErrorDetected {
				hasErrors = true
			}
			entries = append(entries, &domain.CalibrationEntry{
				SessionID:                   id,
				StandID:                     nullString(os.StandID),
				DeviceType:                  nullString(os.DeviceType),
				OperatorName:                nullString(os.OperatorName),
				DeviceFirmwareVersionParsed: fwParsed,
				StartTime:                   nullTime(parseLooseTimestamp(in.StartTime)),
				ReferenceVoltageSteps:       in.ReferenceVoltageSteps,
				DacSteps:                    in.DacSteps,
				CalibrationSteps:            in.CalibrationSteps,
				EndOfCalibration:            in.EndOfCalibration,
				DacMinSteps:                 in.DacMinSteps,
				DacMaxSteps:                 in.DacMaxSteps,
				ActiveModeCurrent:           nullFloat(in.ActiveModeCurrent),
				AverageSleepModeCurrent:     nullFloat(in.AverageSleepMode),
				SleepModeCurrent:            in.SleepModeCurrent,
				SerialNumber:                nullString(in.SerialNumber),
				ErrorDetected:               in.ErrorDetected,
				ErrorNumber:                 nullString(in.ErrorNumber),
				TestDuration:                nullString(in.TestDuration),
				CalibrationSuccessful:       in.CalibrationSuccessful,
				CalibrationSource:           nullString(in.CalibrationSource),
			})
		}
		if err := s.entries.BulkInsert(ctx, entries); err != nil {
			s.logger.Warn("calibration entries insert failed",
				zap.String("session_id", id), zap.Int("count", len(entries)), zap.Error(err))
			entriesCount = 0
			hasErrors = false
		} else {
			entriesCount = len(entries)
		}

		// 5. 从 error_detected 条目派生错误日志
		if entriesCount > 0 {
			s.deriveErrorLogs(ctx, id, os, fwParsed, req.CalibrationEntries)
		}
	}

	// 6. 台架档案 upsert，机会主义
	if os.StandID != "" {
		if _, err := s.stands.UpsertFromTelemetry(ctx,
			os.StandID, os.SoftwareVersionStand, os.HardwareVersionStand, os.SerialNumberObJlink); err != nil {
			s.logger.Warn("stand upsert from telemetry failed",
				zap.String("stand_id", os.StandID), zap.Error(err))
		}
	}

	saved, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload session: %w", err)
	}
	return &IngestResult{Session: saved, EntriesCount: entriesCount, HasErrors: hasErrors}, nil
}

// deriveErrorLogs 为每条 error_detected 条目生成一条未读错误日志
func (s *ingestService) deriveErrorLogs(ctx context.Context, sessionID string, os OperatorSettingsInput, fwParsed []int64, inputs []CalibrationEntryInput) {
	logs := []*domain.ErrorLog{}
	for _, in := range inputs {
		if !in.ErrorDetected {
			continue
		}
		logs = append(logs, &domain.ErrorLog{
			ParentLogID:                 sessionID,
			Viewed:                      false,
			StartTime:                   nullTime(parseLooseTimestamp(in.StartTime)),
			CalibrationSource:           nullString(in.CalibrationSource),
			ErrorNumber:                 nullString(in.ErrorNumber),
			OperatorName:                nullString(os.OperatorName),
			StandID:                     nullString(os.StandID),
			DeviceType:                  nullString(os.DeviceType),
			SoftwareVersionStand:        nullString(os.SoftwareVersionStand),
			HardwareVersionStand:        nullString(os.HardwareVersionStand),
			SerialNumberObJlink:         nullString(os.SerialNumberObJlink),
			DeviceFirmwareVersion:       nullString(os.DeviceFirmwareVersion),
			DeviceFirmwareVersionParsed: fwParsed,
		})
	}
	if len(logs) == 0 {
		return
	}
	if err := s.errLogs.BulkInsert(ctx, logs); err != nil {
		s.logger.Warn("error logs insert failed",
			zap.String("session_id", sessionID), zap.Int("count", len(logs)), zap.Error(err))
	}
}

// parseLooseTimestamp 解析台架软件上报的 "DD.MM.YYYY HH:MM:SS"
// 各段只要是数字就接受，越界值交给 time.Date 归一化（与历史数据保持兼容），
// 解析不出来返回 nil
func parseLooseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return nil
	}
	dateParts := strings.Split(parts[0], ".")
	timeParts := strings.Split(parts[1], ":")
	if len(dateParts) != 3 || len(timeParts) != 3 {
		return nil
	}
	nums := make([]int, 0, 6)
	for _, p := range append(dateParts, timeParts...) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		nums = append(nums, n)
	}
	t := time.Date(nums[2], time.Month(nums[1]), nums[0], nums[3], nums[4], nums[5], 0, time.UTC)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
