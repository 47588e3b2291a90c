package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhishyantkhare/marathon-trainer/internal/apiclient"
	"github.com/abhishyantkhare/marathon-trainer/internal/format"
	"github.com/abhishyantkhare/marathon-trainer/internal/plandoc"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// PageData wraps what every page template needs: the title, the current path
// for nav highlighting, the signed-in user for the chrome, and the page's
// own payload.
type PageData struct {
	Title string
	Path  string
	User  *apiclient.User
	Data  any
}

type renderer struct {
	base *template.Template
}

func newRenderer() (*renderer, error) {
	base, err := template.New("").Funcs(templateFuncs()).ParseFS(templatesFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}
	return &renderer{base: base}, nil
}

// render clones the base template and parses the page into the clone, so the
// "content" blocks of different pages never collide.
func (r *renderer) render(w http.ResponseWriter, name string, data PageData) error {
	page, err := r.base.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone base template: %w", err)
	}
	if _, err := page.ParseFS(templatesFS, "templates/"+name); err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return page.ExecuteTemplate(w, "base", data)
}

func (s *Server) renderPage(c *gin.Context, name string, data PageData) {
	data.Path = c.Request.URL.Path
	if data.User == nil {
		data.User = currentUser(c)
	}
	if err := s.renderer.render(c.Writer, name, data); err != nil {
		s.logger.Error("failed to render page", "template", name, "error", err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
	}
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"distance": format.Distance,
		"pace":     format.Pace,
		"duration": format.Duration,
		"goalTime": format.GoalTime,
		"date":     format.Date,
		"label":    label,
		"timeAgo": func(t time.Time) string {
			return format.TimeAgo(t, time.Now())
		},
		"weekRange": weekRange,
		"km": func(km float64) string {
			return fmt.Sprintf("%.1f km", km)
		},
	}
}

// label turns a snake_case value into display copy: "easy_run" becomes
// "Easy Run", "beginner" becomes "Beginner".
func label(value string) string {
	words := strings.Split(value, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// weekRange renders a plan week's date window from its start date string.
func weekRange(startDate string) string {
	start, err := time.Parse(plandoc.DateLayout, startDate)
	if err != nil {
		return startDate
	}
	return format.WeekRange(start)
}

// errorMessage extracts the API's detail message for display, hiding
// transport noise behind a generic line.
func errorMessage(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "The service is unavailable right now. Please try again."
}
