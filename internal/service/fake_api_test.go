package service

import (
	"context"
	"sync"
	"time"

	"CapIot.portal/internal/models"
)

type fakeAPI struct {
	mu           sync.Mutex
	users        []models.NewUser
	datapoints   []models.Datapoint
	tokens       []string
	userErr      error
	datapointErr error
	loginToken   string
	loginErr     error
}

func (f *fakeAPI) CreateUser(_ context.Context, u models.NewUser) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, u)
	if f.userErr != nil {
		return models.User{}, f.userErr
	}
	return models.User{ID: "u-1", Username: u.Username}, nil
}

func (f *fakeAPI) CreateDatapoint(_ context.Context, token string, dp models.Datapoint) (models.Datapoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.datapoints = append(f.datapoints, dp)
	f.tokens = append(f.tokens, token)
	if f.datapointErr != nil {
		return models.Datapoint{}, f.datapointErr
	}
	return dp, nil
}

func (f *fakeAPI) Login(_ context.Context, _ models.LoginRequest) (models.LoginResponse, error) {
	if f.loginErr != nil {
		return models.LoginResponse{}, f.loginErr
	}
	return models.LoginResponse{Token: f.loginToken}, nil
}

type fakeMirror struct {
	written []models.Datapoint
	err     error
}

func (m *fakeMirror) WriteDatapoint(_ context.Context, dp models.Datapoint, _ time.Time) error {
	m.written = append(m.written, dp)
	return m.err
}

func (m *fakeMirror) Close() {}
