package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/research-assistant/assistant"
)

// handleReport serves the session's most recent draft report as
// sanitized HTML.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	runs, err := s.runs.ListBySession(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("failed to list runs for session %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, "failed to load runs")
		return
	}

	var report string
	for i := len(runs) - 1; i >= 0; i-- {
		if content, ok := runs[i].Output(assistant.KeyDraftReport); ok {
			report = content
			break
		}
	}
	if report == "" {
		writeError(w, http.StatusNotFound, "no report for session")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(renderMarkdown(report))
}

func renderMarkdown(text string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(text))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)
	htmlBytes := markdown.Render(doc, renderer)

	sanitizer := bluemonday.UGCPolicy()
	return sanitizer.SanitizeBytes(htmlBytes)
}
