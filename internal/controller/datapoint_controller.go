package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"CapIot.portal/internal/forms"
	"CapIot.portal/internal/models"
	"CapIot.portal/internal/service"
	"CapIot.portal/internal/utils"
	"CapIot.portal/internal/views"
	"github.com/gorilla/mux"
)

// DatapointController serves the add-datapoints testing page and its JSON twin.
type DatapointController struct {
	service *service.DatapointService
	auth    *service.AuthService
}

// NewDatapointController creates a new DatapointController.
func NewDatapointController(service *service.DatapointService, auth *service.AuthService) *DatapointController {
	return &DatapointController{service: service, auth: auth}
}

// ShowPage renders the form. ?deviceId= selects a device and shows its
// last datapoint, when one is cached.
func (c *DatapointController) ShowPage(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}
	deviceID := r.URL.Query().Get("deviceId")
	render(w, http.StatusOK, "add_datapoints", views.DatapointsPage{
		Form:     forms.NewDatapointForm(deviceID),
		Last:     c.service.LastDatapoint(r.Context(), store, deviceID),
		LoggedIn: c.auth.LoggedIn(r.Context(), store),
	})
}

// HandlePage runs one of the form's actions: select, start-session or submit.
func (c *DatapointController) HandlePage(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok || !parseForm(w, r) {
		return
	}
	form := forms.DatapointForm{
		DeviceID: r.PostForm.Get("deviceId"),
		Value:    r.PostForm.Get("value"),
		Battery:  r.PostForm.Get("battery"),
	}
	page := views.DatapointsPage{Form: form}

	switch action := r.PostForm.Get("action"); action {
	case "select", "":
		page.Last = c.service.LastDatapoint(r.Context(), store, form.DeviceID)
	case "start-session":
		out := c.service.StartSession(r.Context(), store, form.DeviceID)
		page.Notice, page.Last, page.SessionPhase = out.Notice, out.Last, out.Phase
	case "submit":
		out := c.service.SubmitDatapoint(r.Context(), store, form)
		page.Notice, page.Last, page.SubmitPhase = out.Notice, out.Last, out.Phase
	default:
		http.Error(w, fmt.Sprintf("unknown action %q", action), http.StatusBadRequest)
		return
	}
	page.LoggedIn = c.auth.LoggedIn(r.Context(), store)
	render(w, http.StatusOK, "add_datapoints", page)
}

// numberInput accepts a JSON string or number and keeps its text so that
// it goes through the same parsing as the HTML form.
type numberInput string

func (n *numberInput) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = numberInput(s)
		return nil
	}
	var v *json.Number
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("expected a string or a number, got %s", b)
	}
	if v == nil {
		*n = ""
		return nil
	}
	if f, err := v.Float64(); err == nil && strings.ContainsAny(v.String(), "eE") {
		*n = numberInput(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	*n = numberInput(v.String())
	return nil
}

type datapointRequest struct {
	DeviceID string      `json:"deviceHashedMACAddress"`
	Value    numberInput `json:"value"`
	Battery  numberInput `json:"battery"`
}

type sessionRequest struct {
	DeviceID string `json:"deviceHashedMACAddress"`
}

type outcomeResponse struct {
	Notice        *models.Notice        `json:"notice"`
	Datapoint     *models.Datapoint     `json:"datapoint,omitempty"`
	LastDatapoint *models.LastDatapoint `json:"lastDatapoint,omitempty"`
}

// HandleLastDatapoint returns the cached datapoint of a device.
func (c *DatapointController) HandleLastDatapoint(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}
	deviceID := mux.Vars(r)["deviceId"]
	last := c.service.LastDatapoint(r.Context(), store, deviceID)
	if last == nil {
		apiErr := models.NewAPIError(models.ErrorCodeNotFound, fmt.Sprintf("no datapoint cached for device %s", deviceID), nil, http.StatusNotFound)
		utils.RespondWithError(w, apiErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, last)
}

// HandleSubmitDatapoint is the scriptable form of the Submit Datapoint action.
func (c *DatapointController) HandleSubmitDatapoint(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}
	var req datapointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErr := models.NewAPIError(models.ErrorCodeInvalidFormat, fmt.Sprintf("error unmarshalling JSON: %v", err), nil, http.StatusBadRequest)
		utils.RespondWithError(w, apiErr)
		return
	}
	defer r.Body.Close()

	out := c.service.SubmitDatapoint(r.Context(), store, forms.DatapointForm{
		DeviceID: req.DeviceID,
		Value:    string(req.Value),
		Battery:  string(req.Battery),
	})
	respondWithOutcome(w, out)
}

// HandleStartSession is the scriptable form of the Start Session action.
func (c *DatapointController) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErr := models.NewAPIError(models.ErrorCodeInvalidFormat, fmt.Sprintf("error unmarshalling JSON: %v", err), nil, http.StatusBadRequest)
		utils.RespondWithError(w, apiErr)
		return
	}
	defer r.Body.Close()

	respondWithOutcome(w, c.service.StartSession(r.Context(), store, req.DeviceID))
}

func respondWithOutcome(w http.ResponseWriter, out service.Outcome) {
	if out.Err != nil {
		respondWithOutcomeError(w, out.Err, out.Notice, nil)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, outcomeResponse{
		Notice:        out.Notice,
		Datapoint:     out.Sent,
		LastDatapoint: out.Last,
	})
}
