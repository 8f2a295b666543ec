// Package client talks to the remote CapIot API that owns users and
// datapoints. Each call is a single attempt; nothing is retried.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"CapIot.portal/internal/models"
	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
)

// ErrMissingToken is returned when an authenticated call is made without a token.
var ErrMissingToken = errors.New("auth token is required")

// ResponseError is a non-2xx answer from the remote API. Message holds the
// body's "message" field and is empty when the API did not send one.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote API responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote API responded with status %d: %s", e.StatusCode, e.Message)
}

// MessageOr returns the server supplied message carried by err, or fallback
// when there is none.
func MessageOr(err error, fallback string) string {
	var respErr *ResponseError
	if errors.As(err, &respErr) && respErr.Message != "" {
		return respErr.Message
	}
	return fallback
}

// API is the set of remote calls the portal makes.
type API interface {
	CreateUser(ctx context.Context, user models.NewUser) (models.User, error)
	CreateDatapoint(ctx context.Context, token string, dp models.Datapoint) (models.Datapoint, error)
	Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error)
}

type errorBody struct {
	Message string `json:"message"`
}

// FrontendAPI is the resty backed implementation of API.
type FrontendAPI struct {
	client *resty.Client
}

// NewFrontendAPI creates a client for the API rooted at baseURL.
func NewFrontendAPI(baseURL string, timeout time.Duration) *FrontendAPI {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &FrontendAPI{client: client}
}

// CreateUser registers a new account.
func (a *FrontendAPI) CreateUser(ctx context.Context, user models.NewUser) (models.User, error) {
	var created models.User
	req := a.client.R().SetContext(ctx).SetBody(user).SetResult(&created)
	if err := a.do(req, http.MethodPost, "/users"); err != nil {
		return models.User{}, fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return created, nil
}

// CreateDatapoint stores a datapoint on behalf of the token's owner.
func (a *FrontendAPI) CreateDatapoint(ctx context.Context, token string, dp models.Datapoint) (models.Datapoint, error) {
	if token == "" {
		return models.Datapoint{}, ErrMissingToken
	}
	var created models.Datapoint
	req := a.client.R().SetContext(ctx).SetAuthToken(token).SetBody(dp).SetResult(&created)
	if err := a.do(req, http.MethodPost, "/datapoints"); err != nil {
		return models.Datapoint{}, fmt.Errorf("create datapoint for device %q: %w", dp.DeviceHashedMACAddress, err)
	}
	return created, nil
}

// Login exchanges credentials for an auth token.
func (a *FrontendAPI) Login(ctx context.Context, creds models.LoginRequest) (models.LoginResponse, error) {
	var out models.LoginResponse
	req := a.client.R().SetContext(ctx).SetBody(creds).SetResult(&out)
	if err := a.do(req, http.MethodPost, "/auth/login"); err != nil {
		return models.LoginResponse{}, fmt.Errorf("login %q: %w", creds.Username, err)
	}
	if out.Token == "" {
		return models.LoginResponse{}, fmt.Errorf("login %q: response carried no token", creds.Username)
	}
	return out, nil
}

func (a *FrontendAPI) do(req *resty.Request, method, path string) error {
	req.SetError(&errorBody{})
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	log.Debug("remote API call", "method", method, "path", path, "status", resp.StatusCode(), "took", resp.Time())
	if !resp.IsError() {
		return nil
	}
	respErr := &ResponseError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		respErr.Message = body.Message
	}
	return respErr
}
