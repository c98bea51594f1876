package domain

import (
	"encoding/json"
	"time"
)

// 台架状态（stands.status）
const (
	StandStatusActive       = "active"
	StandStatusNeedsService = "needs-service"
	StandStatusInRepair     = "in-repair"
	StandStatusInactive     = "inactive"
)

// ValidStandStatus 校验台架状态
func ValidStandStatus(s string) bool {
	switch s {
	case StandStatusActive, StandStatusNeedsService, StandStatusInRepair, StandStatusInactive:
		return true
	}
	return false
}

// 维修状态（repair_history[].repair_status）
const (
	RepairStatusPlanned    = "planned"
	RepairStatusInProgress = "in-progress"
	RepairStatusCompleted  = "completed"
)

// RepairRecord 维修记录（stands.repair_history jsonb 数组的元素）
type RepairRecord struct {
	RepairDate        time.Time `json:"repair_date"`
	RepairDescription string    `json:"repair_description"`
	RepairedBy        string    `json:"repaired_by"`
	RepairStatus      string    `json:"repair_status"`
}

// Stand 物理标定台架（stands 表，唯一键 stand_id）
// 首次出现在遥测里的 stand_id 会懒创建一条记录，此后每次摄取 last-write-wins 覆盖
type Stand struct {
	ID                   string          `db:"id"`
	StandID              string          `db:"stand_id"`
	SoftwareVersionStand string          `db:"software_version_stand"`
	HardwareVersionStand string          `db:"hardware_version_stand"`
	SerialNumberObJlink  string          `db:"serial_number_ob_jlink"`
	Status               string          `db:"status"`
	LastUsed             time.Time       `db:"last_used"`
	RepairHistory        []RepairRecord  `db:"repair_history"` // jsonb，只追加
	ScheduledMaintenance json.RawMessage `db:"scheduled_maintenance"`
	AdditionalNotes      string          `db:"additional_notes"`
	AdditionalData       json.RawMessage `db:"additional_data"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

// ToJSON 转换为 JSON 格式（用于 HTTP 响应）
func (s *Stand) ToJSON() map[string]any {
	history := s.RepairHistory
	if history == nil {
		history = []RepairRecord{}
	}
	m := map[string]any{
		"_id":                    s.ID,
		"stand_id":               s.StandID,
		"software_version_stand": s.SoftwareVersionStand,
		"hardware_version_stand": s.HardwareVersionStand,
		"serial_number_ob_jlink": s.SerialNumberObJlink,
		"status":                 s.Status,
		"last_used":              s.LastUsed,
		"repair_history":         history,
		"additional_notes":       s.AdditionalNotes,
		"created_at":             s.CreatedAt,
		"updated_at":             s.UpdatedAt,
	}
	putRawJSON(m, "scheduled_maintenance", s.ScheduledMaintenance)
	putRawJSON(m, "additional_data", s.AdditionalData)
	return m
}
