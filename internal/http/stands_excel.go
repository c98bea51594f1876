package httpapi

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"calibops-data/internal/domain"

	"github.com/xuri/excelize/v2"
)

// StandsExportHeader 台架导出表头
var StandsExportHeader = []string{
	"Stand ID",
	"Status",
	"Software Version",
	"Hardware Version",
	"J-Link Serial",
	"Last Used",
	"Repairs",
	"Last Repair Status",
	"Notes",
}

var standsColumnWidths = []float64{18, 15, 18, 18, 22, 20, 10, 18, 40}

// GenerateStandsExport 生成台架清单 Excel 文件
// stands 为空时只生成表头
func GenerateStandsExport(stands []*domain.Stand) ([]byte, error) {
	f := excelize.NewFile()

	sheetName := "Stands"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range StandsExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i := range StandsExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, standsColumnWidths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, stand := range stands {
		row := rowIdx + 2
		values := []any{
			stand.StandID,
			stand.Status,
			stand.SoftwareVersionStand,
			stand.HardwareVersionStand,
			stand.SerialNumberObJlink,
			formatExportTime(stand.LastUsed),
			len(stand.RepairHistory),
			lastRepairStatus(stand),
			stand.AdditionalNotes,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func formatExportTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func lastRepairStatus(stand *domain.Stand) string {
	if len(stand.RepairHistory) == 0 {
		return ""
	}
	return strings.TrimSpace(stand.RepairHistory[len(stand.RepairHistory)-1].RepairStatus)
}
