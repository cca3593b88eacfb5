package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// baseTypes are the tags offered on the submission form.
var baseTypes = []string{"war", "farm", "trophy", "hybrid", "legend", "fun"}

type indexData struct {
	Title       string
	MaxFileSize string
	Accept      string
	BaseTypes   []string
}

// handleIndex renders the submission form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Title:       s.config.Name,
		MaxFileSize: humanize.IBytes(uint64(s.config.Upload.MaxFileSize)),
		Accept:      strings.Join(s.receiver.Config().AllowedExtensions, ","),
		BaseTypes:   baseTypes,
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("render index", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
