package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"mia-admin/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages renders the embedded admin templates with dates in the business
// timezone.
type Pages struct {
	templates *template.Template
	location  *time.Location
}

func NewPages(location *time.Location) *Pages {
	if location == nil {
		location = time.UTC
	}
	funcs := template.FuncMap{
		"datetime": func(t time.Time) string {
			return utils.FormatLocal(t, location, utils.DisplayLayout)
		},
		"datetimePtr": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return utils.FormatLocal(*t, location, utils.DisplayLayout)
		},
		"waLink": utils.WhatsAppLink,
	}
	tmpl := template.Must(template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
	return &Pages{templates: tmpl, location: location}
}

// pageData is shared by every page. Error is shown as a banner above the
// (possibly empty) content.
type pageData struct {
	Title string
	Error string
	Data  interface{}
}

func (p *Pages) Render(w http.ResponseWriter, r *http.Request, name string, title string, data interface{}, pageErr error) {
	view := pageData{Title: title, Data: data}
	if pageErr != nil {
		view.Error = pageErr.Error()
		utils.RequestLogger(r.Context()).Errorw("erro ao carregar página", "page", name, "error", pageErr)
	}

	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, view); err != nil {
		utils.LogError("Erro ao renderizar %s: %v", name, err)
		http.Error(w, "Erro ao renderizar página", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
