package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"iot-console/internal/domain"
	"iot-console/internal/repository"
	"iot-console/internal/service"
)

// DeviceExportHeader 导出表头
var DeviceExportHeader = []string{
	"Device ID",
	"Name",
	"Location",
	"Type",
	"Status",
	"Last Updated",
	"Details",
}

// GenerateDeviceExport builds the .xlsx inventory download.
func GenerateDeviceExport(devices []*domain.Device) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Devices"
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
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range DeviceExportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "C", 24)
	_ = f.SetColWidth(sheetName, "F", "G", 28)

	for i, d := range devices {
		row := i + 2
		values := []any{
			d.DeviceID,
			d.DeviceName,
			d.Location,
			string(d.Type),
			string(d.Status),
			d.LastUpdated.UTC().Format(time.RFC3339),
			deviceDetails(d),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	_ = f.Close()
	return buf.Bytes(), nil
}

// deviceDetails one-cell summary of the variant payload.
func deviceDetails(d *domain.Device) string {
	switch d.Type {
	case domain.DeviceTypeCamera:
		if d.Camera == nil {
			return ""
		}
		s := "ip=" + d.Camera.IPAddress
		if d.Camera.Resolution != "" {
			s += " resolution=" + d.Camera.Resolution
		}
		if d.Camera.StorageRetention > 0 {
			s += fmt.Sprintf(" retention=%dd", d.Camera.StorageRetention)
		}
		return s
	case domain.DeviceTypeMicroscope:
		if d.Microscope == nil {
			return ""
		}
		return fmt.Sprintf("model=%s magnification=%dx digital=%t",
			d.Microscope.Model, d.Microscope.Magnification, d.Microscope.DigitalOutput)
	case domain.DeviceTypeSensor:
		if d.Sensor == nil {
			return ""
		}
		return fmt.Sprintf("sensor_type=%s unit=%s",
			d.Sensor.SensorType, d.Sensor.MeasurementUnit)
	}
	return ""
}

func (h *DevicesHandler) export(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.ListDevices(r.Context(), service.ListDevicesRequest{
		Filters: repository.DeviceFilters{},
		Page:    1,
		Size:    10000,
	})
	if err != nil {
		h.logger.Error("failed to export devices", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to export devices"))
		return
	}
	data, err := GenerateDeviceExport(resp.Items)
	if err != nil {
		h.logger.Error("failed to build device workbook", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to build device workbook"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="devices.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
