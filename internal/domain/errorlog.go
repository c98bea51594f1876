package domain

import (
	"database/sql"
	"time"
)

// ErrorLog 错误记录（error_logs 表）
// 摄取时从每条 error_detected = true 的测量派生一条；
// 除批量标记已读外不再修改
type ErrorLog struct {
	ID                          string         `db:"error_id"`
	ParentLogID                 string         `db:"parent_log_id"` // 所属 session
	Viewed                      bool           `db:"viewed"`
	StartTime                   sql.NullTime   `db:"start_time"`
	CalibrationSource           sql.NullString `db:"calibration_source"`
	ErrorNumber                 sql.NullString `db:"error_number"`
	OperatorName                sql.NullString `db:"operator_name"`
	SoftwareVersionStand        sql.NullString `db:"software_version_stand"`
	HardwareVersionStand        sql.NullString `db:"hardware_version_stand"`
	SerialNumberObJlink         sql.NullString `db:"serial_number_ob_jlink"`
	StandID                     sql.NullString `db:"stand_id"`
	DeviceType                  sql.NullString `db:"device_type"`
	DeviceFirmwareVersion       sql.NullString `db:"device_firmware_version"`
	DeviceFirmwareVersionParsed []int64        `db:"device_firmware_version_parsed"`
	CreatedAt                   time.Time      `db:"created_at"`
}

// ToJSON 转换为 JSON 格式（用于 HTTP 响应）
func (e *ErrorLog) ToJSON() map[string]any {
	m := map[string]any{
		"_id":           e.ID,
		"parent_log_id": e.ParentLogID,
		"viewed":        e.Viewed,
		"createdAt":     e.CreatedAt,
	}
	putNullString(m, "calibration_source", e.CalibrationSource)
	putNullString(m, "error_number", e.ErrorNumber)
	putNullString(m, "operator_name", e.OperatorName)
	putNullString(m, "software_version_stand", e.SoftwareVersionStand)
	putNullString(m, "hardware_version_stand", e.HardwareVersionStand)
	putNullString(m, "serial_number_ob_jlink", e.SerialNumberObJlink)
	putNullString(m, "stand_id", e.StandID)
	putNullString(m, "device_type", e.DeviceType)
	putNullString(m, "device_firmware_version", e.DeviceFirmwareVersion)
	if e.StartTime.Valid {
		m["start_time"] = e.StartTime.Time
	}
	if e.DeviceFirmwareVersionParsed != nil {
		m["device_firmware_version_parsed"] = e.DeviceFirmwareVersionParsed
	}
	return m
}
