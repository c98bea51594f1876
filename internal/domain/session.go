package domain

import (
	"database/sql"
	"time"
)

// Session 遥测会话（sessions 表，原 operator_settings）
// 每次标定运行产生一条；创建后不再修改，只随级联删除一起移除
type Session struct {
	ID                          string         `db:"session_id"`
	OperatorName                sql.NullString `db:"operator_name"`
	ComPorts                    []string       `db:"com_ports"` // text[]
	ApplicationStartTime        sql.NullTime   `db:"application_start_time"`
	SoftwareVersionStand        sql.NullString `db:"software_version_stand"`
	HardwareVersionStand        sql.NullString `db:"hardware_version_stand"`
	SerialNumberObJlink         sql.NullString `db:"serial_number_ob_jlink"`
	StandID                     sql.NullString `db:"stand_id"`
	DeviceType                  sql.NullString `db:"device_type"`
	DeviceFirmwareVersion       sql.NullString `db:"device_firmware_version"`
	DeviceFirmwareVersionParsed []int64        `db:"device_firmware_version_parsed"` // nullable integer[]
	CreatedAt                   time.Time      `db:"created_at"`
	UpdatedAt                   time.Time      `db:"updated_at"`
}

// ToJSON 转换为 JSON 格式（用于 HTTP 响应）
func (s *Session) ToJSON() map[string]any {
	m := map[string]any{
		"_id":       s.ID,
		"com_ports": s.ComPorts,
		"createdAt": s.CreatedAt,
		"updatedAt": s.UpdatedAt,
	}
	putNullString(m, "operator_name", s.OperatorName)
	putNullString(m, "software_version_stand", s.SoftwareVersionStand)
	putNullString(m, "hardware_version_stand", s.HardwareVersionStand)
	putNullString(m, "serial_number_ob_jlink", s.SerialNumberObJlink)
	putNullString(m, "stand_id", s.StandID)
	putNullString(m, "device_type", s.DeviceType)
	putNullString(m, "device_firmware_version", s.DeviceFirmwareVersion)
	if s.ApplicationStartTime.Valid {
		m["application_start_time"] = s.ApplicationStartTime.Time
	}
	if s.DeviceFirmwareVersionParsed != nil {
		m["device_firmware_version_parsed"] = s.DeviceFirmwareVersionParsed
	}
	return m
}

func putNullString(m map[string]any, key string, v sql.NullString) {
	if v.Valid {
		m[key] = v.String
	}
}
