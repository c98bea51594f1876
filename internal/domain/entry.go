package domain

import (
	"database/sql"
	"encoding/json"
	"time"
)

// CalibrationEntry 单次标定测量（calibration_entries 表）
// 属于且仅属于一个 Session；写入时从父记录冗余 operator/stand/device/固件版本字段，
// 以便独立查询（父记录不可变，冗余是安全的）
type CalibrationEntry struct {
	ID                          string          `db:"entry_id"`
	SessionID                   string          `db:"session_id"`
	StandID                     sql.NullString  `db:"stand_id"`
	DeviceType                  sql.NullString  `db:"device_type"`
	OperatorName                sql.NullString  `db:"operator_name"`
	DeviceFirmwareVersionParsed []int64         `db:"device_firmware_version_parsed"`
	StartTime                   sql.NullTime    `db:"start_time"`
	ReferenceVoltageSteps       json.RawMessage `db:"reference_voltage_steps"` // jsonb
	DacMinSteps                 []int64         `db:"dac_min_steps"`
	DacMaxSteps                 []int64         `db:"dac_max_steps"`
	DacSteps                    json.RawMessage `db:"dac_steps"`          // jsonb
	CalibrationSteps            json.RawMessage `db:"calibration_steps"`  // jsonb（寄存器名 → 步进数组）
	EndOfCalibration            json.RawMessage `db:"end_of_calibration"` // jsonb
	ActiveModeCurrent           sql.NullFloat64 `db:"active_mode_current"`
	SleepModeCurrent            []float64       `db:"sleep_mode_current"`
	AverageSleepModeCurrent     sql.NullFloat64 `db:"average_sleep_mode_current"`
	SerialNumber                sql.NullString  `db:"serial_number"`
	ErrorDetected               bool            `db:"error_detected"`
	ErrorNumber                 sql.NullString  `db:"error_number"`
	TestDuration                sql.NullString  `db:"test_duration"`
	CalibrationSuccessful       bool            `db:"calibration_successful"`
	CalibrationSource           sql.NullString  `db:"calibration_source"`
	CreatedAt                   time.Time       `db:"created_at"`
}

// ToJSON 转换为 JSON 格式（用于 HTTP 响应）
func (e *CalibrationEntry) ToJSON() map[string]any {
	m := map[string]any{
		"_id":                    e.ID,
		"operator_settings_id":   e.SessionID,
		"error_detected":         e.ErrorDetected,
		"calibration_successful": e.CalibrationSuccessful,
		"createdAt":              e.CreatedAt,
	}
	putNullString(m, "stand_id", e.StandID)
	putNullString(m, "device_type", e.DeviceType)
	putNullString(m, "operator_name", e.OperatorName)
	putNullString(m, "serial_number", e.SerialNumber)
	putNullString(m, "error_number", e.ErrorNumber)
	putNullString(m, "test_duration", e.TestDuration)
	putNullString(m, "calibration_source", e.CalibrationSource)
	if e.StartTime.Valid {
		m["start_time"] = e.StartTime.Time
	}
	if e.DeviceFirmwareVersionParsed != nil {
		m["device_firmware_version_parsed"] = e.DeviceFirmwareVersionParsed
	}
	if e.ActiveModeCurrent.Valid {
		m["active_mode_current"] = e.ActiveModeCurrent.Float64
	}
	if e.AverageSleepModeCurrent.Valid {
		m["average_sleep_mode_current"] = e.AverageSleepModeCurrent.Float64
	}
	if e.SleepModeCurrent != nil {
		m["sleep_mode_current"] = e.SleepModeCurrent
	}
	if e.DacMinSteps != nil {
		m["dac_min_steps"] = e.DacMinSteps
	}
	if e.DacMaxSteps != nil {
		m["dac_max_steps"] = e.DacMaxSteps
	}
	putRawJSON(m, "reference_voltage_steps", e.ReferenceVoltageSteps)
	putRawJSON(m, "dac_steps", e.DacSteps)
	putRawJSON(m, "calibration_steps", e.CalibrationSteps)
	putRawJSON(m, "end_of_calibration", e.EndOfCalibration)
	return m
}

func putRawJSON(m map[string]any, key string, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		m[key] = v
	} else {
		m[key] = string(raw)
	}
}
