// internal/repository/influxDB_repository.go

package repository

import (
	"context"
	"fmt"
	"time"

	"CapIot.portal/internal/models"
	"github.com/charmbracelet/log"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const measurement = "test_datapoints"

// Mirror keeps a local copy of datapoints accepted by the remote API.
type Mirror interface {
	WriteDatapoint(ctx context.Context, dp models.Datapoint, at time.Time) error
	Close()
}

// NoopMirror discards everything. Used when InfluxDB is not configured.
type NoopMirror struct{}

func (NoopMirror) WriteDatapoint(context.Context, models.Datapoint, time.Time) error { return nil }
func (NoopMirror) Close()                                                           {}

// InfluxDBRepository writes test datapoints to InfluxDB.
type InfluxDBRepository struct {
	client influxdb2.Client
	org    string
	bucket string
}

// NewInfluxDBRepository creates a new InfluxDBRepository.
func NewInfluxDBRepository(url, token, org, bucket string) *InfluxDBRepository {
	client := influxdb2.NewClient(url, token)
	return &InfluxDBRepository{
		client: client,
		org:    org,
		bucket: bucket,
	}
}

// WriteDatapoint writes one datapoint, tagged with its device.
func (r *InfluxDBRepository) WriteDatapoint(ctx context.Context, dp models.Datapoint, at time.Time) error {
	writeAPI := r.client.WriteAPIBlocking(r.org, r.bucket)
	if err := writeAPI.WritePoint(ctx, datapointPoint(dp, at)); err != nil {
		return fmt.Errorf("error writing to InfluxDB: %w", err)
	}
	log.Debug("Datapoint mirrored to InfluxDB", "bucket", r.bucket, "device", dp.DeviceHashedMACAddress, "value", dp.Value)
	return nil
}

func datapointPoint(dp models.Datapoint, at time.Time) *write.Point {
	return influxdb2.NewPoint(
		measurement,
		map[string]string{"device": dp.DeviceHashedMACAddress},
		map[string]interface{}{
			"value":         dp.Value,
			"battery":       dp.Battery,
			"session_start": dp.IsSessionStart(),
		},
		at,
	)
}

// EnsureBucket creates the mirror bucket when it does not exist yet.
func (r *InfluxDBRepository) EnsureBucket(ctx context.Context) error {
	exists, err := r.BucketExists(ctx, r.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	log.Info("Bucket does not exist, creating it", "bucket", r.bucket)
	return r.CreateBucket(ctx, r.bucket)
}

// BucketExists checks if a bucket exists in InfluxDB.
func (r *InfluxDBRepository) BucketExists(ctx context.Context, name string) (bool, error) {
	_, err := r.client.BucketsAPI().FindBucketByName(ctx, name)
	if err != nil {
		if err.Error() == "not found" || err.Error() == fmt.Sprintf("bucket '%s' not found", name) {
			return false, nil
		}
		return false, fmt.Errorf("error checking bucket existence: %w", err)
	}
	return true, nil
}

// CreateBucket creates a new bucket in InfluxDB.
func (r *InfluxDBRepository) CreateBucket(ctx context.Context, name string) error {
	org, err := r.client.OrganizationsAPI().FindOrganizationByName(ctx, r.org)
	if err != nil {
		return fmt.Errorf("error finding organization '%s': %w", r.org, err)
	}
	if org == nil {
		return fmt.Errorf("organization '%s' not found", r.org)
	}

	if _, err = r.client.BucketsAPI().CreateBucketWithName(ctx, org, name); err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", name, err)
	}
	log.Info("Bucket created", "bucket", name, "org", r.org)
	return nil
}

func (r *InfluxDBRepository) Close() {
	r.client.Close()
}
