package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redactyl/textredact/internal/metrics"
	"github.com/redactyl/textredact/pkg/redaction"
)

type redactRequest struct {
	Text string `json:"text"`
	Info bool   `json:"info"`
}

type redactResponse struct {
	Output   string              `json:"output"`
	Captures []redaction.Capture `json:"captures,omitempty"`
}

func (s *Server) handleRedactText(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req redactRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	res := s.redactor.Redact(req.Text, req.Info)
	metrics.ObserveRedaction(metrics.KindText, len(res.Captures), start, nil)

	resp := redactResponse{Output: res.Output}
	if req.Info {
		resp.Captures = res.Captures
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRedactJSON(w http.ResponseWriter, r *http.Request) {
	s.handleDocument(w, r, metrics.KindJSON, "application/json", s.redactor.RedactJSON)
}

func (s *Server) handleRedactYAML(w http.ResponseWriter, r *http.Request) {
	s.handleDocument(w, r, metrics.KindYAML, "application/yaml", s.redactor.RedactYAML)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request, kind, contentType string, redact func(string) (string, error)) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	start := time.Now()
	if err := redaction.CheckUTF8(body); err != nil {
		metrics.ObserveRedaction(kind, 0, start, err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := redact(string(body))
	metrics.ObserveRedaction(kind, 0, start, err)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, redaction.ErrParse) {
			status = http.StatusBadRequest
		}
		respondError(w, status, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}
