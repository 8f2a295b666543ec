package service

import (
	"context"
	"errors"
	"testing"

	"CapIot.portal/internal/forms"
	"CapIot.portal/internal/models"
	"CapIot.portal/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedIn(t *testing.T) storage.LocalStorage {
	t.Helper()
	store := storage.Scoped(storage.NewMemoryBackend(), "s1")
	require.NoError(t, store.SetItem(context.Background(), AuthTokenKey, "tok"))
	return store
}

func TestSubmitDatapointClampsAndCaches(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	mirror := &fakeMirror{}
	svc := NewDatapointService(api, mirror)
	store := loggedIn(t)

	out := svc.SubmitDatapoint(ctx, store, forms.DatapointForm{DeviceID: "abc", Value: "5000", Battery: "150"})
	require.NoError(t, out.Err)

	want := models.Datapoint{Value: 3300, Battery: 100, DeviceHashedMACAddress: "abc"}
	assert.Equal(t, []models.Datapoint{want}, api.datapoints)
	assert.Equal(t, []string{"tok"}, api.tokens)
	assert.Equal(t, &models.LastDatapoint{Value: 3300, Battery: 100}, out.Last)
	assert.Equal(t, models.Success("Created datapoint: Value = 3300, Battery = 100%"), out.Notice)
	assert.Equal(t, forms.Succeeded, out.Phase)
	assert.Equal(t, []models.Datapoint{want}, mirror.written)

	assert.Equal(t, &models.LastDatapoint{Value: 3300, Battery: 100}, svc.LastDatapoint(ctx, store, "abc"))
}

func TestSubmitDatapointRequiresToken(t *testing.T) {
	api := &fakeAPI{}
	svc := NewDatapointService(api, nil)
	store := storage.Scoped(storage.NewMemoryBackend(), "s1")

	out := svc.SubmitDatapoint(context.Background(), store, forms.NewDatapointForm("abc"))
	assert.ErrorIs(t, out.Err, ErrNotLoggedIn)
	assert.Equal(t, models.Failure("Please log in first"), out.Notice)
	assert.Empty(t, api.datapoints)
}

func TestSubmitDatapointEmptyTokenIsMissing(t *testing.T) {
	api := &fakeAPI{}
	svc := NewDatapointService(api, nil)
	store := storage.Scoped(storage.NewMemoryBackend(), "s1")
	require.NoError(t, store.SetItem(context.Background(), AuthTokenKey, ""))

	out := svc.SubmitDatapoint(context.Background(), store, forms.NewDatapointForm("abc"))
	assert.ErrorIs(t, out.Err, ErrNotLoggedIn)
	assert.Empty(t, api.datapoints)
}

func TestSubmitDatapointRejectsNonNumbers(t *testing.T) {
	api := &fakeAPI{}
	svc := NewDatapointService(api, nil)

	out := svc.SubmitDatapoint(context.Background(), loggedIn(t), forms.DatapointForm{DeviceID: "abc", Value: "lots", Battery: "10"})
	assert.ErrorIs(t, out.Err, ErrInvalidInput)
	assert.ErrorIs(t, out.Err, forms.ErrNotANumber)
	assert.Equal(t, models.Failure("Value and battery must be numbers"), out.Notice)
	assert.Equal(t, forms.Failed, out.Phase)
	assert.Empty(t, api.datapoints)
}

func TestSubmitDatapointRequiresDevice(t *testing.T) {
	api := &fakeAPI{}
	svc := NewDatapointService(api, nil)

	out := svc.SubmitDatapoint(context.Background(), loggedIn(t), forms.NewDatapointForm(""))
	assert.ErrorIs(t, out.Err, ErrInvalidInput)
	assert.Equal(t, models.Failure("Device ID is required"), out.Notice)
	assert.Empty(t, api.datapoints)
}

func TestSubmitDatapointAcceptsBlankDevice(t *testing.T) {
	api := &fakeAPI{}
	svc := NewDatapointService(api, nil)

	// A blank but non-empty ID passes the page's required input.
	out := svc.SubmitDatapoint(context.Background(), loggedIn(t), forms.NewDatapointForm("  "))
	require.NoError(t, out.Err)
	assert.Equal(t, []models.Datapoint{{Value: 3300, Battery: 100, DeviceHashedMACAddress: "  "}}, api.datapoints)
}

func TestSubmitDatapointFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	mirror := &fakeMirror{}
	svc := NewDatapointService(api, mirror)
	store := loggedIn(t)

	require.NoError(t, svc.SubmitDatapoint(ctx, store, forms.DatapointForm{DeviceID: "abc", Value: "10", Battery: "20"}).Err)

	api.datapointErr = errors.New("network down")
	out := svc.SubmitDatapoint(ctx, store, forms.DatapointForm{DeviceID: "abc", Value: "30", Battery: "40"})
	assert.Error(t, out.Err)
	assert.Equal(t, models.Failure("Failed to generate datapoint"), out.Notice)
	assert.Nil(t, out.Sent)
	assert.Equal(t, &models.LastDatapoint{Value: 10, Battery: 20}, out.Last)
	assert.Equal(t, &models.LastDatapoint{Value: 10, Battery: 20}, svc.LastDatapoint(ctx, store, "abc"))
	assert.Len(t, mirror.written, 1)
}

func TestSubmitDatapointMirrorFailureIsIgnored(t *testing.T) {
	svc := NewDatapointService(&fakeAPI{}, &fakeMirror{err: errors.New("influx down")})

	out := svc.SubmitDatapoint(context.Background(), loggedIn(t), forms.NewDatapointForm("abc"))
	assert.NoError(t, out.Err)
	assert.Equal(t, models.NoticeSuccess, out.Notice.Kind)
}

func TestStartSessionUsesCachedBattery(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	svc := NewDatapointService(api, nil)
	store := loggedIn(t)

	require.NoError(t, svc.SubmitDatapoint(ctx, store, forms.DatapointForm{DeviceID: "abc", Value: "1200", Battery: "42"}).Err)

	out := svc.StartSession(ctx, store, "abc")
	require.NoError(t, out.Err)
	assert.Equal(t, models.Datapoint{Value: -1, Battery: 42, DeviceHashedMACAddress: "abc"}, *out.Sent)
	assert.Equal(t, models.Success("Started new session with value: -1"), out.Notice)

	// The cache still holds the real reading, not the sentinel.
	assert.Equal(t, &models.LastDatapoint{Value: 1200, Battery: 42}, svc.LastDatapoint(ctx, store, "abc"))
}

func TestStartSessionDefaultsBattery(t *testing.T) {
	api := &fakeAPI{}
	svc := NewDatapointService(api, nil)
	store := loggedIn(t)

	out := svc.StartSession(context.Background(), store, "fresh")
	require.NoError(t, out.Err)
	assert.Equal(t, models.Datapoint{Value: -1, Battery: 100, DeviceHashedMACAddress: "fresh"}, *out.Sent)
	assert.Nil(t, out.Last)
	assert.Nil(t, svc.LastDatapoint(context.Background(), store, "fresh"))
}

func TestStartSessionWithoutDevice(t *testing.T) {
	api := &fakeAPI{}
	svc := NewDatapointService(api, nil)

	out := svc.StartSession(context.Background(), loggedIn(t), "")
	require.NoError(t, out.Err)
	assert.Equal(t, forms.Succeeded, out.Phase)
	assert.Equal(t, models.Success("Started new session with value: -1"), out.Notice)
	assert.Equal(t, []models.Datapoint{{Value: -1, Battery: 100, DeviceHashedMACAddress: ""}}, api.datapoints)
}

func TestStartSessionFailures(t *testing.T) {
	ctx := context.Background()

	api := &fakeAPI{}
	svc := NewDatapointService(api, nil)
	out := svc.StartSession(ctx, storage.Scoped(storage.NewMemoryBackend(), "s"), "abc")
	assert.ErrorIs(t, out.Err, ErrNotLoggedIn)
	assert.Equal(t, models.Failure("Please log in first"), out.Notice)
	assert.Equal(t, forms.Failed, out.Phase)
	assert.Empty(t, api.datapoints)

	api.datapointErr = errors.New("boom")
	out = svc.StartSession(ctx, loggedIn(t), "abc")
	assert.Equal(t, models.Failure("Failed to start session"), out.Notice)
	assert.Equal(t, forms.Failed, out.Phase)
}

func TestLastDatapointFailsOpen(t *testing.T) {
	ctx := context.Background()
	svc := NewDatapointService(&fakeAPI{}, nil)
	store := storage.Scoped(storage.NewMemoryBackend(), "s")

	assert.Nil(t, svc.LastDatapoint(ctx, store, "abc"))

	require.NoError(t, store.SetItem(ctx, LastDatapointKey("abc"), "{not json"))
	assert.Nil(t, svc.LastDatapoint(ctx, store, "abc"))

	require.NoError(t, store.SetItem(ctx, LastDatapointKey("abc"), "null"))
	assert.Nil(t, svc.LastDatapoint(ctx, store, "abc"))

	require.NoError(t, store.SetItem(ctx, LastDatapointKey("abc"), `{"value":7,"battery":8}`))
	assert.Equal(t, &models.LastDatapoint{Value: 7, Battery: 8}, svc.LastDatapoint(ctx, store, "abc"))

	// A malformed entry for the session sentinel battery falls back to 100.
	require.NoError(t, store.SetItem(ctx, AuthTokenKey, "tok"))
	require.NoError(t, store.SetItem(ctx, LastDatapointKey("bad"), "[]"))
	out := svc.StartSession(ctx, store, "bad")
	require.NoError(t, out.Err)
	assert.Equal(t, 100, out.Sent.Battery)
}

func TestLastDatapointMissingBattery(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	svc := NewDatapointService(api, nil)
	store := loggedIn(t)

	for _, raw := range []string{`{"value":5}`, `{}`, `{"value":5,"battery":null}`} {
		t.Run(raw, func(t *testing.T) {
			require.NoError(t, store.SetItem(ctx, LastDatapointKey("abc"), raw))
			assert.Equal(t, 100, svc.LastDatapoint(ctx, store, "abc").Battery)
		})
	}

	require.NoError(t, store.SetItem(ctx, LastDatapointKey("abc"), `{"value":5}`))
	assert.Equal(t, &models.LastDatapoint{Value: 5, Battery: 100}, svc.LastDatapoint(ctx, store, "abc"))

	out := svc.StartSession(ctx, store, "abc")
	require.NoError(t, out.Err)
	assert.Equal(t, models.Datapoint{Value: -1, Battery: 100, DeviceHashedMACAddress: "abc"}, *out.Sent)

	// A stored zero is a real reading, not a missing one.
	require.NoError(t, store.SetItem(ctx, LastDatapointKey("abc"), `{"value":5,"battery":0}`))
	out = svc.StartSession(ctx, store, "abc")
	require.NoError(t, out.Err)
	assert.Equal(t, 0, out.Sent.Battery)
}

func TestSettleRejectsSkippedPhases(t *testing.T) {
	var act forms.Action
	assert.Error(t, settle(&act, forms.Succeeded))
	assert.Equal(t, forms.Idle, act.Phase())

	require.NoError(t, act.Advance(forms.Validating))
	require.NoError(t, settle(&act, forms.Failed))
	assert.Equal(t, forms.Failed, act.Phase())
}

func TestLastDatapointKey(t *testing.T) {
	assert.Equal(t, "lastDatapoint_abc", LastDatapointKey("abc"))
}
