package service

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"iot-console/internal/domain"
	"iot-console/internal/repository"
)

// DeviceService 设备管理服务接口
type DeviceService interface {
	ListDevices(ctx context.Context, req ListDevicesRequest) (*ListDevicesResponse, error)
	GetDevice(ctx context.Context, deviceID string) (*domain.Device, error)
	AddDevice(ctx context.Context, device *domain.Device) (string, error)
	UpdateDevice(ctx context.Context, deviceID string, patch repository.DevicePatch) (*domain.Device, error)
	DeleteDevice(ctx context.Context, deviceID string) error
	// Dashboard returns the freshly recomputed stats plus the randomized
	// data-transmission series shown on the console home page.
	Dashboard(ctx context.Context) (*DashboardResponse, error)
}

// ListDevicesRequest 查询设备列表请求
type ListDevicesRequest struct {
	Filters repository.DeviceFilters
	Page    int // 默认 1
	Size    int // 默认 50
}

// ListDevicesResponse 查询设备列表响应
type ListDevicesResponse struct {
	Items []*domain.Device
	Total int
}

// TransmissionPoint one bucket of the dashboard throughput chart (GB/s).
type TransmissionPoint struct {
	Time        string  `json:"time"`
	Cameras     float64 `json:"cameras"`
	Microscopes float64 `json:"microscopes"`
	Sensors     float64 `json:"sensors"`
}

// DashboardResponse 仪表盘响应
type DashboardResponse struct {
	Stats        domain.DeviceStats  `json:"stats"`
	Transmission []TransmissionPoint `json:"transmission"`
}

type deviceService struct {
	repo   repository.DevicesRepository
	logger *zap.Logger
}

// NewDeviceService 创建 DeviceService 实例
func NewDeviceService(repo repository.DevicesRepository, logger *zap.Logger) DeviceService {
	return &deviceService{repo: repo, logger: logger}
}

func (s *deviceService) ListDevices(ctx context.Context, req ListDevicesRequest) (*ListDevicesResponse, error) {
	items, total, err := s.repo.ListDevices(ctx, req.Filters, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return &ListDevicesResponse{Items: items, Total: total}, nil
}

func (s *deviceService) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	return s.repo.GetDevice(ctx, deviceID)
}

func (s *deviceService) AddDevice(ctx context.Context, device *domain.Device) (string, error) {
	id, err := s.repo.CreateDevice(ctx, device)
	if err != nil {
		return "", err
	}
	s.logger.Info("device added",
		zap.String("device_id", id),
		zap.String("type", string(device.Type)),
		zap.String("device_name", device.DeviceName),
	)
	return id, nil
}

func (s *deviceService) UpdateDevice(ctx context.Context, deviceID string, patch repository.DevicePatch) (*domain.Device, error) {
	d, err := s.repo.UpdateDevice(ctx, deviceID, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("device updated", zap.String("device_id", deviceID))
	return d, nil
}

func (s *deviceService) DeleteDevice(ctx context.Context, deviceID string) error {
	if err := s.repo.DeleteDevice(ctx, deviceID); err != nil {
		return err
	}
	s.logger.Info("device deleted", zap.String("device_id", deviceID))
	return nil
}

func (s *deviceService) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return &DashboardResponse{
		Stats:        stats,
		Transmission: generateTransmission(),
	}, nil
}

// transmission buckets and value ranges mirror the console dashboard:
// traffic ramps up toward midday and falls off in the evening.
var transmissionBuckets = []struct {
	time                  string
	camBase, camSpread    float64
	micBase, micSpread    float64
	senBase, senSpread    float64
}{
	{"00:00", 1, 3, 2, 5, 0.2, 1},
	{"04:00", 1, 3, 2, 5, 0.2, 1},
	{"08:00", 2, 4, 3, 6, 0.3, 1.5},
	{"12:00", 3, 5, 4, 7, 0.4, 2},
	{"16:00", 3, 5, 4, 7, 0.4, 2},
	{"20:00", 2, 4, 3, 6, 0.3, 1.5},
	{"Now", 2, 5, 4, 8, 0.5, 2},
}

func generateTransmission() []TransmissionPoint {
	out := make([]TransmissionPoint, 0, len(transmissionBuckets))
	for _, b := range transmissionBuckets {
		out = append(out, TransmissionPoint{
			Time:        b.time,
			Cameras:     round2(b.camBase + rand.Float64()*b.camSpread),
			Microscopes: round2(b.micBase + rand.Float64()*b.micSpread),
			Sensors:     round2(b.senBase + rand.Float64()*b.senSpread),
		})
	}
	return out
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
