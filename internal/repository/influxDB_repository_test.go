package repository

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CapIot.portal/internal/models"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatapointPoint(t *testing.T) {
	at := time.Unix(1700000000, 0)
	line := write.PointToLineProtocol(datapointPoint(models.Datapoint{
		Value:                  1200,
		Battery:                80,
		DeviceHashedMACAddress: "abc",
	}, at), time.Second)

	assert.Contains(t, line, "test_datapoints,device=abc ")
	assert.Contains(t, line, "value=1200i")
	assert.Contains(t, line, "battery=80i")
	assert.Contains(t, line, "session_start=false")
	assert.Contains(t, line, " 1700000000")
}

func TestDatapointPointSessionStart(t *testing.T) {
	line := write.PointToLineProtocol(datapointPoint(models.Datapoint{
		Value:                  models.SessionStartValue,
		Battery:                100,
		DeviceHashedMACAddress: "abc",
	}, time.Now()), time.Second)

	assert.Contains(t, line, "value=-1i")
	assert.Contains(t, line, "session_start=true")
}

func TestWriteDatapoint(t *testing.T) {
	var gotPath, gotBody string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	repo := NewInfluxDBRepository(srv.URL, "token", "Technopure", "testing")
	defer repo.Close()

	err := repo.WriteDatapoint(context.Background(), models.Datapoint{
		Value:                  10,
		Battery:                50,
		DeviceHashedMACAddress: "dev-1",
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "/api/v2/write", gotPath)
	assert.Equal(t, []string{"Technopure"}, gotQuery["org"])
	assert.Equal(t, []string{"testing"}, gotQuery["bucket"])
	assert.Contains(t, gotBody, "device=dev-1")
}

func TestWriteDatapointServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"code":"unauthorized","message":"unauthorized access"}`)
	}))
	defer srv.Close()

	repo := NewInfluxDBRepository(srv.URL, "bad", "Technopure", "testing")
	defer repo.Close()

	err := repo.WriteDatapoint(context.Background(), models.Datapoint{DeviceHashedMACAddress: "dev-1"}, time.Now())
	assert.ErrorContains(t, err, "error writing to InfluxDB")
}

func TestNoopMirror(t *testing.T) {
	var m Mirror = NoopMirror{}
	assert.NoError(t, m.WriteDatapoint(context.Background(), models.Datapoint{}, time.Now()))
	m.Close()
}
