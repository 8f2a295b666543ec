package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CapIot.portal/internal/client"
	"CapIot.portal/internal/forms"
	"CapIot.portal/internal/models"
	"CapIot.portal/internal/repository"
	"CapIot.portal/internal/storage"
	"github.com/charmbracelet/log"
)

// Local storage keys shared with the login flow.
const (
	AuthTokenKey        = "authToken"
	lastDatapointPrefix = "lastDatapoint_"
)

// LastDatapointKey is the storage key of the cached datapoint of a device.
func LastDatapointKey(deviceID string) string {
	return lastDatapointPrefix + deviceID
}

var (
	// ErrNotLoggedIn is returned when no auth token is stored for the session.
	ErrNotLoggedIn = errors.New("no auth token in session")
	// ErrInvalidInput is returned when the form fails local validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Outcome is the settled result of a datapoint action.
type Outcome struct {
	Notice *models.Notice
	// Sent is the datapoint accepted by the remote API, nil otherwise.
	Sent *models.Datapoint
	// Last is the last datapoint to display for the device after the action.
	Last  *models.LastDatapoint
	Phase forms.Phase
	Err   error
}

// DatapointService backs the add-datapoints testing page.
type DatapointService struct {
	api    client.API
	mirror repository.Mirror
	now    func() time.Time
}

// NewDatapointService creates a new DatapointService. A nil mirror disables mirroring.
func NewDatapointService(api client.API, mirror repository.Mirror) *DatapointService {
	if mirror == nil {
		mirror = repository.NoopMirror{}
	}
	return &DatapointService{api: api, mirror: mirror, now: time.Now}
}

// storedDatapoint is the cached form of a LastDatapoint. Fields may be
// missing from entries written by other clients.
type storedDatapoint struct {
	Value   *int `json:"value"`
	Battery *int `json:"battery"`
}

// LastDatapoint returns the cached datapoint of a device, or nil when there
// is none. Unreadable or malformed entries count as absent, and an entry
// without a battery level reports the default level.
func (s *DatapointService) LastDatapoint(ctx context.Context, store storage.LocalStorage, deviceID string) *models.LastDatapoint {
	raw, err := store.GetItem(ctx, LastDatapointKey(deviceID))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Error("Error reading stored datapoint", "device", deviceID, "err", err)
		}
		return nil
	}
	if raw == "" {
		return nil
	}
	var stored *storedDatapoint
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Error("Error parsing stored datapoint", "device", deviceID, "err", err)
		return nil
	}
	if stored == nil {
		return nil
	}
	last := &models.LastDatapoint{Battery: models.DefaultBattery}
	if stored.Value != nil {
		last.Value = *stored.Value
	}
	if stored.Battery != nil {
		last.Battery = *stored.Battery
	}
	return last
}

// SubmitDatapoint parses and clamps the form, sends the datapoint and on
// success caches it as the device's last datapoint.
func (s *DatapointService) SubmitDatapoint(ctx context.Context, store storage.LocalStorage, form forms.DatapointForm) Outcome {
	var act forms.Action
	fail := func(notice string, err error) Outcome {
		if serr := settle(&act, forms.Failed); serr != nil {
			err = errors.Join(err, serr)
		}
		return Outcome{
			Notice: models.Failure(notice),
			Last:   s.LastDatapoint(ctx, store, form.DeviceID),
			Phase:  act.Phase(),
			Err:    err,
		}
	}
	if err := act.Advance(forms.Validating); err != nil {
		return fail("Failed to generate datapoint", err)
	}

	token, err := s.token(ctx, store)
	if err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			return fail("Please log in first", err)
		}
		log.Error("Failed to generate datapoint", "err", err)
		return fail("Failed to generate datapoint", err)
	}
	if form.DeviceID == "" {
		return fail("Device ID is required", fmt.Errorf("%w: missing device id", ErrInvalidInput))
	}
	dp, err := form.Datapoint()
	if err != nil {
		return fail("Value and battery must be numbers", fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}

	if err := act.Advance(forms.Submitting); err != nil {
		return fail("Failed to generate datapoint", err)
	}
	if _, err := s.api.CreateDatapoint(ctx, token, dp); err != nil {
		log.Error("Failed to generate datapoint", "device", dp.DeviceHashedMACAddress, "err", err)
		return fail("Failed to generate datapoint", err)
	}
	if err := settle(&act, forms.Succeeded); err != nil {
		return fail("Failed to generate datapoint", err)
	}

	last := &models.LastDatapoint{Value: dp.Value, Battery: dp.Battery}
	if raw, err := json.Marshal(last); err == nil {
		if err := store.SetItem(ctx, LastDatapointKey(dp.DeviceHashedMACAddress), string(raw)); err != nil {
			log.Warn("Failed to cache last datapoint", "device", dp.DeviceHashedMACAddress, "err", err)
		}
	}
	s.mirrorDatapoint(ctx, dp)

	return Outcome{
		Notice: models.Success(fmt.Sprintf("Created datapoint: Value = %d, Battery = %d%%", dp.Value, dp.Battery)),
		Sent:   &dp,
		Last:   last,
		Phase:  act.Phase(),
	}
}

// StartSession sends the session sentinel for a device with the cached
// battery level, or 100 when nothing is cached. Only the auth token is
// required: an empty device ID is sent as is. The cache is left as is.
func (s *DatapointService) StartSession(ctx context.Context, store storage.LocalStorage, deviceID string) Outcome {
	var act forms.Action
	last := s.LastDatapoint(ctx, store, deviceID)
	fail := func(notice string, err error) Outcome {
		if serr := settle(&act, forms.Failed); serr != nil {
			err = errors.Join(err, serr)
		}
		return Outcome{Notice: models.Failure(notice), Last: last, Phase: act.Phase(), Err: err}
	}
	if err := act.Advance(forms.Validating); err != nil {
		return fail("Failed to start session", err)
	}

	token, err := s.token(ctx, store)
	if err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			return fail("Please log in first", err)
		}
		log.Error("Failed to start session", "err", err)
		return fail("Failed to start session", err)
	}

	dp := models.Datapoint{
		Value:                  models.SessionStartValue,
		Battery:                models.DefaultBattery,
		DeviceHashedMACAddress: deviceID,
	}
	if last != nil {
		dp.Battery = last.Battery
	}

	if err := act.Advance(forms.Submitting); err != nil {
		return fail("Failed to start session", err)
	}
	if _, err := s.api.CreateDatapoint(ctx, token, dp); err != nil {
		log.Error("Failed to start session", "device", deviceID, "err", err)
		return fail("Failed to start session", err)
	}
	if err := settle(&act, forms.Succeeded); err != nil {
		return fail("Failed to start session", err)
	}
	s.mirrorDatapoint(ctx, dp)

	return Outcome{
		Notice: models.Success("Started new session with value: -1"),
		Sent:   &dp,
		Last:   last,
		Phase:  act.Phase(),
	}
}

// settle moves act to a final phase. A rejected transition is logged and
// returned so the caller reports the action as failed.
func settle(act *forms.Action, to forms.Phase) error {
	if err := act.Advance(to); err != nil {
		log.Error("Action left its lifecycle", "phase", act.Phase(), "to", to, "err", err)
		return err
	}
	return nil
}

func (s *DatapointService) token(ctx context.Context, store storage.LocalStorage) (string, error) {
	token, err := store.GetItem(ctx, AuthTokenKey)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && token == "") {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("read auth token: %w", err)
	}
	return token, nil
}

func (s *DatapointService) mirrorDatapoint(ctx context.Context, dp models.Datapoint) {
	if err := s.mirror.WriteDatapoint(ctx, dp, s.now()); err != nil {
		log.Warn("Failed to mirror datapoint", "device", dp.DeviceHashedMACAddress, "err", err)
	}
}
