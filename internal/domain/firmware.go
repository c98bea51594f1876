package domain

import (
	"time"
)

// 固件类型与子类型约束（对应 firmwares 表的 CHECK 约束）
const (
	FirmwareTypeDevice  = "device"
	FirmwareTypeStand   = "stand"
	FirmwareTypeDesktop = "desktop"
)

// ValidFirmwareType 校验固件类型
func ValidFirmwareType(t string) bool {
	switch t {
	case FirmwareTypeDevice, FirmwareTypeStand, FirmwareTypeDesktop:
		return true
	}
	return false
}

// ValidFirmwareSubType 子类型受类型约束：
// device → express/voice/online；stand/desktop → test-strips/devices
func ValidFirmwareSubType(t, subType string) bool {
	if t == FirmwareTypeDevice {
		switch subType {
		case "express", "voice", "online":
			return true
		}
		return false
	}
	switch subType {
	case "test-strips", "devices":
		return true
	}
	return false
}

// Firmware 固件制品（firmwares 表）
// 唯一键 (type, sub_type, version)；上传后不可变，只能整体删除
type Firmware struct {
	ID            string    `db:"firmware_id"`
	Name          string    `db:"name"`
	Version       string    `db:"version"`
	Type          string    `db:"type"`
	SubType       string    `db:"sub_type"`
	VersionParsed Version   `db:"version_parsed"` // integer[3]
	FilePath      string    `db:"file_path"`      // blob store 内的相对路径
	FileSize      int64     `db:"file_size"`
	Description   string    `db:"description"`
	CreatedDate   time.Time `db:"created_date"` // 上传方声明的构建日期
	UploadDate    time.Time `db:"upload_date"`  // 服务端落库时间
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// ToJSON 转换为 JSON 格式（用于 HTTP 响应）
func (f *Firmware) ToJSON() map[string]any {
	return map[string]any{
		"_id":            f.ID,
		"name":           f.Name,
		"version":        f.Version,
		"type":           f.Type,
		"subType":        f.SubType,
		"version_parsed": f.VersionParsed.Array(),
		"file_path":      f.FilePath,
		"file_size":      f.FileSize,
		"description":    f.Description,
		"created_date":   f.CreatedDate,
		"upload_date":    f.UploadDate,
		"createdAt":      f.CreatedAt,
		"updatedAt":      f.UpdatedAt,
	}
}
