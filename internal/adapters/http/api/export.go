package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/skilltier/internal/app"
)

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, service.FormatCSV)
}

func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, service.FormatXLSX)
}

// export renders the whole file before writing headers so failures still
// produce a JSON error body.
func (s *Server) export(w http.ResponseWriter, r *http.Request, format string) {
	op := "api.export_" + format
	f, err := listFilter(r, op)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var buf bytes.Buffer
	res, err := s.deps.ExportCandidates(r.Context(), format, f, &buf)
	if err != nil {
		s.writeFailure(w, r, Wrap(op, err))
		return
	}
	h := w.Header()
	h.Set("Content-Type", res.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	h.Set("X-Candidates-Count", strconv.Itoa(res.Candidates))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
