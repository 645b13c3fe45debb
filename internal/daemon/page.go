package daemon

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"scankiosk/internal/epsonscan"
	"scankiosk/internal/profiles"
)

//go:embed web/index.html web/app.js web/style.css
var webAssets embed.FS

type pageData struct {
	Title          string
	Message        string
	Installed      bool
	Scanners       []epsonscan.Scanner
	ScannerError   string
	Profiles       []profiles.Profile
	DefaultProfile string
}

// EpsonStatus is the availability label shown in the page header.
func (p pageData) EpsonStatus() string {
	if p.Installed {
		return "Available"
	}
	return "Unavailable"
}

// StatusClass is the css class matching EpsonStatus.
func (p pageData) StatusClass() string {
	if p.Installed {
		return "good"
	}
	return "bad"
}

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() *pageRenderer {
	return &pageRenderer{
		tmpl: template.Must(template.ParseFS(webAssets, "web/index.html")),
	}
}

// render executes into a buffer so a template error never leaves a
// half-written page.
func (p *pageRenderer) render(w io.Writer, data pageData) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(webAssets, "web")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
