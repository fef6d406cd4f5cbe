package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"iot-console/internal/domain"
	"iot-console/internal/repository"
	"iot-console/internal/service"
)

// DevicesHandler serves the device collection pages of the console.
type DevicesHandler struct {
	svc    service.DeviceService
	logger *zap.Logger
}

func NewDevicesHandler(svc service.DeviceService, logger *zap.Logger) *DevicesHandler {
	return &DevicesHandler{svc: svc, logger: logger}
}

// devicePayload flat form fields; pointers distinguish absent from zero.
type devicePayload struct {
	DeviceName *string `json:"device_name"`
	Location   *string `json:"location"`
	Type       *string `json:"type"`
	Status     *string `json:"status"`

	IPAddress        *string `json:"ip_address"`
	Resolution       *string `json:"resolution"`
	StorageRetention *int    `json:"storage_retention"`

	Model           *string `json:"model"`
	Magnification   *int    `json:"magnification"`
	DigitalOutput   *bool   `json:"digital_output"`
	CalibrationDate *string `json:"calibration_date"`

	SensorType      *string  `json:"sensor_type"`
	MeasurementUnit *string  `json:"measurement_unit"`
	MinValue        *float64 `json:"min_value"`
	MaxValue        *float64 `json:"max_value"`
	AlertThreshold  *float64 `json:"alert_threshold"`
	BatteryLevel    *int     `json:"battery_level"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (p *devicePayload) toDevice() (*domain.Device, error) {
	if p.Type == nil {
		return nil, fmt.Errorf("type is required")
	}
	d := &domain.Device{
		DeviceName: str(p.DeviceName),
		Location:   str(p.Location),
		Type:       domain.DeviceType(*p.Type),
		Status:     domain.DeviceStatusOffline,
	}
	if p.Status != nil {
		d.Status = domain.DeviceStatus(*p.Status)
	}
	switch d.Type {
	case domain.DeviceTypeCamera:
		spec := &domain.CameraSpec{
			IPAddress:  str(p.IPAddress),
			Resolution: str(p.Resolution),
		}
		if p.StorageRetention != nil {
			spec.StorageRetention = *p.StorageRetention
		}
		d.Camera = spec
	case domain.DeviceTypeMicroscope:
		spec := &domain.MicroscopeSpec{
			Model:           str(p.Model),
			CalibrationDate: str(p.CalibrationDate),
		}
		if p.Magnification != nil {
			spec.Magnification = *p.Magnification
		}
		if p.DigitalOutput != nil {
			spec.DigitalOutput = *p.DigitalOutput
		}
		d.Microscope = spec
	case domain.DeviceTypeSensor:
		spec := &domain.SensorSpec{
			SensorType:      domain.SensorType(str(p.SensorType)),
			MeasurementUnit: str(p.MeasurementUnit),
			MinValue:        p.MinValue,
			MaxValue:        p.MaxValue,
			AlertThreshold:  p.AlertThreshold,
			BatteryLevel:    p.BatteryLevel,
		}
		d.Sensor = spec
	default:
		return nil, fmt.Errorf("unknown device type %q", *p.Type)
	}
	return d, nil
}

func (p *devicePayload) toPatch(deviceType domain.DeviceType) repository.DevicePatch {
	patch := repository.DevicePatch{
		DeviceName: p.DeviceName,
		Location:   p.Location,
	}
	if p.Status != nil {
		s := domain.DeviceStatus(*p.Status)
		patch.Status = &s
	}
	switch deviceType {
	case domain.DeviceTypeCamera:
		if p.IPAddress != nil {
			spec := &domain.CameraSpec{
				IPAddress:  *p.IPAddress,
				Resolution: str(p.Resolution),
			}
			if p.StorageRetention != nil {
				spec.StorageRetention = *p.StorageRetention
			}
			patch.Camera = spec
		}
	case domain.DeviceTypeMicroscope:
		if p.Model != nil {
			spec := &domain.MicroscopeSpec{
				Model:           *p.Model,
				CalibrationDate: str(p.CalibrationDate),
			}
			if p.Magnification != nil {
				spec.Magnification = *p.Magnification
			}
			if p.DigitalOutput != nil {
				spec.DigitalOutput = *p.DigitalOutput
			}
			patch.Microscope = spec
		}
	case domain.DeviceTypeSensor:
		if p.SensorType != nil || p.MeasurementUnit != nil {
			spec := &domain.SensorSpec{
				SensorType:      domain.SensorType(str(p.SensorType)),
				MeasurementUnit: str(p.MeasurementUnit),
				MinValue:        p.MinValue,
				MaxValue:        p.MaxValue,
				AlertThreshold:  p.AlertThreshold,
				BatteryLevel:    p.BatteryLevel,
			}
			patch.Sensor = spec
		}
	}
	return patch
}

func (h *DevicesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/admin/api/v1/devices":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return

	case r.URL.Path == "/admin/api/v1/devices/stats":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.dashboard(w, r)
		return

	case r.URL.Path == "/admin/api/v1/devices/export":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.export(w, r)
		return

	case strings.HasPrefix(r.URL.Path, "/admin/api/v1/devices/"):
		id := strings.TrimPrefix(r.URL.Path, "/admin/api/v1/devices/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (h *DevicesHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := repository.DeviceFilters{
		DeviceType:    q.Get("type"),
		SearchKeyword: q.Get("search"),
	}
	if status := q.Get("status"); status != "" {
		filters.Status = strings.Split(status, ",")
	}
	resp, err := h.svc.ListDevices(r.Context(), service.ListDevicesRequest{
		Filters: filters,
		Page:    parseInt(q.Get("page"), 1),
		Size:    parseInt(q.Get("size"), 50),
	})
	if err != nil {
		h.logger.Error("failed to list devices", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list devices"))
		return
	}
	items := make([]any, 0, len(resp.Items))
	for _, d := range resp.Items {
		items = append(items, d.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items, "total": resp.Total}))
}

func (h *DevicesHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	d, err := h.svc.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail("device not found"))
			return
		}
		writeJSON(w, http.StatusOK, Fail("failed to get device"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(d.ToJSON()))
}

func (h *DevicesHandler) create(w http.ResponseWriter, r *http.Request) {
	var payload devicePayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	device, err := payload.toDevice()
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	id, err := h.svc.AddDevice(r.Context(), device)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"device_id": id}))
}

func (h *DevicesHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	cur, err := h.svc.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail("device not found"))
			return
		}
		writeJSON(w, http.StatusOK, Fail("failed to get device"))
		return
	}
	var payload devicePayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	d, err := h.svc.UpdateDevice(r.Context(), id, payload.toPatch(cur.Type))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail("device not found"))
			return
		}
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(d.ToJSON()))
}

func (h *DevicesHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.DeleteDevice(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, Fail("device not found"))
			return
		}
		writeJSON(w, http.StatusOK, Fail("failed to delete device"))
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *DevicesHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to build dashboard"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
