package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"iot-console/internal/domain"
)

// PostgresDevicesRepo 设备Repository实现（强类型版本）
// Variant payloads live in nullable columns of the devices table.
type PostgresDevicesRepo struct {
	db *sql.DB
}

func NewPostgresDevicesRepo(db *sql.DB) *PostgresDevicesRepo {
	return &PostgresDevicesRepo{db: db}
}

var _ DevicesRepository = (*PostgresDevicesRepo)(nil)

const deviceColumns = `
	device_id::text,
	device_name,
	COALESCE(location, '') as location,
	device_type,
	status,
	last_updated,
	ip_address,
	resolution,
	storage_retention,
	model,
	magnification,
	digital_output,
	calibration_date,
	sensor_type,
	measurement_unit,
	min_value,
	max_value,
	alert_threshold,
	battery_level`

func scanDevice(scan func(dest ...any) error) (*domain.Device, error) {
	var d domain.Device
	var (
		ipAddress        sql.NullString
		resolution       sql.NullString
		storageRetention sql.NullInt64
		model            sql.NullString
		magnification    sql.NullInt64
		digitalOutput    sql.NullBool
		calibrationDate  sql.NullString
		sensorType       sql.NullString
		measurementUnit  sql.NullString
		minValue         sql.NullFloat64
		maxValue         sql.NullFloat64
		alertThreshold   sql.NullFloat64
		batteryLevel     sql.NullInt64
	)
	err := scan(
		&d.DeviceID,
		&d.DeviceName,
		&d.Location,
		&d.Type,
		&d.Status,
		&d.LastUpdated,
		&ipAddress,
		&resolution,
		&storageRetention,
		&model,
		&magnification,
		&digitalOutput,
		&calibrationDate,
		&sensorType,
		&measurementUnit,
		&minValue,
		&maxValue,
		&alertThreshold,
		&batteryLevel,
	)
	if err != nil {
		return nil, err
	}

	switch d.Type {
	case domain.DeviceTypeCamera:
		spec := &domain.CameraSpec{IPAddress: ipAddress.String}
		if resolution.Valid {
			spec.Resolution = resolution.String
		}
		if storageRetention.Valid {
			spec.StorageRetention = int(storageRetention.Int64)
		}
		d.Camera = spec
	case domain.DeviceTypeMicroscope:
		spec := &domain.MicroscopeSpec{
			Model:         model.String,
			Magnification: int(magnification.Int64),
			DigitalOutput: digitalOutput.Bool,
		}
		if calibrationDate.Valid {
			spec.CalibrationDate = calibrationDate.String
		}
		d.Microscope = spec
	case domain.DeviceTypeSensor:
		spec := &domain.SensorSpec{
			SensorType:      domain.SensorType(sensorType.String),
			MeasurementUnit: measurementUnit.String,
		}
		if minValue.Valid {
			v := minValue.Float64
			spec.MinValue = &v
		}
		if maxValue.Valid {
			v := maxValue.Float64
			spec.MaxValue = &v
		}
		if alertThreshold.Valid {
			v := alertThreshold.Float64
			spec.AlertThreshold = &v
		}
		if batteryLevel.Valid {
			v := int(batteryLevel.Int64)
			spec.BatteryLevel = &v
		}
		d.Sensor = spec
	}
	return &d, nil
}

func deviceVariantArgs(d *domain.Device) []any {
	var (
		ipAddress        sql.NullString
		resolution       sql.NullString
		storageRetention sql.NullInt64
		model            sql.NullString
		magnification    sql.NullInt64
		digitalOutput    sql.NullBool
		calibrationDate  sql.NullString
		sensorType       sql.NullString
		measurementUnit  sql.NullString
		minValue         sql.NullFloat64
		maxValue         sql.NullFloat64
		alertThreshold   sql.NullFloat64
		batteryLevel     sql.NullInt64
	)
	switch d.Type {
	case domain.DeviceTypeCamera:
		ipAddress = sql.NullString{String: d.Camera.IPAddress, Valid: true}
		if d.Camera.Resolution != "" {
			resolution = sql.NullString{String: d.Camera.Resolution, Valid: true}
		}
		if d.Camera.StorageRetention > 0 {
			storageRetention = sql.NullInt64{Int64: int64(d.Camera.StorageRetention), Valid: true}
		}
	case domain.DeviceTypeMicroscope:
		model = sql.NullString{String: d.Microscope.Model, Valid: true}
		magnification = sql.NullInt64{Int64: int64(d.Microscope.Magnification), Valid: true}
		digitalOutput = sql.NullBool{Bool: d.Microscope.DigitalOutput, Valid: true}
		if d.Microscope.CalibrationDate != "" {
			calibrationDate = sql.NullString{String: d.Microscope.CalibrationDate, Valid: true}
		}
	case domain.DeviceTypeSensor:
		sensorType = sql.NullString{String: string(d.Sensor.SensorType), Valid: true}
		measurementUnit = sql.NullString{String: d.Sensor.MeasurementUnit, Valid: true}
		if d.Sensor.MinValue != nil {
			minValue = sql.NullFloat64{Float64: *d.Sensor.MinValue, Valid: true}
		}
		if d.Sensor.MaxValue != nil {
			maxValue = sql.NullFloat64{Float64: *d.Sensor.MaxValue, Valid: true}
		}
		if d.Sensor.AlertThreshold != nil {
			alertThreshold = sql.NullFloat64{Float64: *d.Sensor.AlertThreshold, Valid: true}
		}
		if d.Sensor.BatteryLevel != nil {
			batteryLevel = sql.NullInt64{Int64: int64(*d.Sensor.BatteryLevel), Valid: true}
		}
	}
	return []any{
		ipAddress, resolution, storageRetention,
		model, magnification, digitalOutput, calibrationDate,
		sensorType, measurementUnit, minValue, maxValue, alertThreshold, batteryLevel,
	}
}

func (r *PostgresDevicesRepo) ListDevices(ctx context.Context, filters DeviceFilters, page, size int) ([]*domain.Device, int, error) {
	where := []string{"1=1"}
	args := []any{}
	idx := 1

	if len(filters.Status) > 0 {
		placeholders := make([]string, 0, len(filters.Status))
		for _, s := range filters.Status {
			placeholders = append(placeholders, fmt.Sprintf("$%d", idx))
			args = append(args, s)
			idx++
		}
		where = append(where, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filters.DeviceType != "" {
		where = append(where, fmt.Sprintf("device_type = $%d", idx))
		args = append(args, filters.DeviceType)
		idx++
	}
	if kw := strings.TrimSpace(filters.SearchKeyword); kw != "" {
		where = append(where, fmt.Sprintf("(device_name ILIKE $%d OR location ILIKE $%d)", idx, idx))
		args = append(args, "%"+kw+"%")
		idx++
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM devices WHERE " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count devices: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	query := fmt.Sprintf(
		"SELECT %s FROM devices WHERE %s ORDER BY device_name LIMIT $%d OFFSET $%d",
		deviceColumns, whereClause, idx, idx+1,
	)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	out := []*domain.Device{}
	for rows.Next() {
		d, err := scanDevice(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan device: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return out, total, nil
}

func (r *PostgresDevicesRepo) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	query := fmt.Sprintf("SELECT %s FROM devices WHERE device_id = $1::uuid", deviceColumns)
	d, err := scanDevice(r.db.QueryRowContext(ctx, query, deviceID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return d, nil
}

func (r *PostgresDevicesRepo) CreateDevice(ctx context.Context, device *domain.Device) (string, error) {
	if err := device.Validate(); err != nil {
		return "", err
	}

	id := device.DeviceID
	if id == "" {
		id = uuid.NewString()
	}
	lastUpdated := device.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = time.Now().UTC()
	}

	query := `
		INSERT INTO devices (
			device_id, device_name, location, device_type, status, last_updated,
			ip_address, resolution, storage_retention,
			model, magnification, digital_output, calibration_date,
			sensor_type, measurement_unit, min_value, max_value, alert_threshold, battery_level
		) VALUES (
			$1::uuid, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19
		)`
	args := []any{id, device.DeviceName, device.Location, device.Type, device.Status, lastUpdated}
	args = append(args, deviceVariantArgs(device)...)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return "", ErrDuplicateID
		}
		return "", fmt.Errorf("failed to create device: %w", err)
	}
	return id, nil
}

func (r *PostgresDevicesRepo) UpdateDevice(ctx context.Context, deviceID string, patch DevicePatch) (*domain.Device, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf("SELECT %s FROM devices WHERE device_id = $1::uuid FOR UPDATE", deviceColumns)
	cur, err := scanDevice(tx.QueryRowContext(ctx, query, deviceID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load device: %w", err)
	}

	applyDevicePatch(cur, patch)
	cur.LastUpdated = time.Now().UTC()
	if err := cur.Validate(); err != nil {
		return nil, err
	}

	update := `
		UPDATE devices SET
			device_name = $2, location = $3, status = $4, last_updated = $5,
			ip_address = $6, resolution = $7, storage_retention = $8,
			model = $9, magnification = $10, digital_output = $11, calibration_date = $12,
			sensor_type = $13, measurement_unit = $14, min_value = $15, max_value = $16,
			alert_threshold = $17, battery_level = $18
		WHERE device_id = $1::uuid`
	args := []any{deviceID, cur.DeviceName, cur.Location, cur.Status, cur.LastUpdated}
	args = append(args, deviceVariantArgs(cur)...)
	if _, err := tx.ExecContext(ctx, update, args...); err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return cur, nil
}

func (r *PostgresDevicesRepo) DeleteDevice(ctx context.Context, deviceID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE device_id = $1::uuid`, deviceID)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresDevicesRepo) SetDeviceStatus(ctx context.Context, deviceID string, status domain.DeviceStatus) error {
	if !domain.ValidDeviceStatus(status) {
		return ErrInvalidStatus
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE devices SET status = $2, last_updated = NOW() WHERE device_id = $1::uuid`,
		deviceID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to set device status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresDevicesRepo) Stats(ctx context.Context) (domain.DeviceStats, error) {
	// full recomputation, same contract as the memory repo
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'online'),
			COUNT(*) FILTER (WHERE status = 'offline'),
			COUNT(*) FILTER (WHERE status = 'maintenance'),
			COUNT(*) FILTER (WHERE device_type = 'camera'),
			COUNT(*) FILTER (WHERE device_type = 'microscope'),
			COUNT(*) FILTER (WHERE device_type = 'sensor')
		FROM devices`
	var stats domain.DeviceStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Total, &stats.Online, &stats.Offline, &stats.Maintenance,
		&stats.Cameras, &stats.Microscopes, &stats.Sensors,
	)
	if err != nil {
		return domain.DeviceStats{}, fmt.Errorf("failed to compute device stats: %w", err)
	}
	return stats, nil
}
