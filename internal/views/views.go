// Package views renders the portal's HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"time"

	"CapIot.portal/internal/forms"
	"CapIot.portal/internal/models"
)

//go:embed templates/*.html
var files embed.FS

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"signup", "login", "add_datapoints"} {
		pages[name] = template.Must(template.New("layout.html").
			Funcs(template.FuncMap{"inputType": inputType}).
			ParseFS(files, "templates/layout.html", "templates/"+name+".html"))
	}
}

func inputType(visible bool) string {
	if visible {
		return "text"
	}
	return "password"
}

// SignupPage is the view model of /signup.
type SignupPage struct {
	Form     forms.SignupForm
	Errors   forms.FieldErrors
	Notice   *models.Notice
	Phase    forms.Phase
	Redirect string
	// RedirectSeconds is the delay before the browser follows Redirect.
	RedirectSeconds int
}

// LoginPage is the view model of /login.
type LoginPage struct {
	Username string
	Notice   *models.Notice
	LoggedIn bool
}

// DatapointsPage is the view model of the add-datapoints testing page.
// Each action carries its own phase so one never disables the other.
type DatapointsPage struct {
	Form         forms.DatapointForm
	Last         *models.LastDatapoint
	Notice       *models.Notice
	SubmitPhase  forms.Phase
	SessionPhase forms.Phase
	LoggedIn     bool
}

// Seconds rounds a redirect delay up to whole seconds.
func Seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// Render writes the named page with the given status.
func Render(w http.ResponseWriter, status int, name string, data any) error {
	tmpl, ok := pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
