package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"scankiosk/internal/epsonscan"
	"scankiosk/internal/logging"
	"scankiosk/internal/profiles"
)

const maxScanRequestBytes = 16 << 10

type scanRequest struct {
	Scanner       string `json:"scanner"`
	Configuration string `json:"configuration"`
}

type scanResponse struct {
	Result epsonscan.Result `json:"result"`
}

type profileView struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Path        string `json:"path"`
}

func (s *httpServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *httpServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *httpServer) handleScanners(w http.ResponseWriter, r *http.Request) {
	scanners, err := s.daemon.scanning.Scanners(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, epsonscan.ErrNotInstalled) {
			status = http.StatusServiceUnavailable
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"scanners": scanners})
}

func (s *httpServer) handleProfiles(w http.ResponseWriter, _ *http.Request) {
	list, err := profiles.List(s.cfg.Paths.ProfileDir)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]profileView, 0, len(list))
	for _, p := range list {
		views = append(views, profileView{Name: p.Name, DisplayName: p.DisplayName(), Path: p.Path})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"default":  s.cfg.Paths.DefaultProfile,
		"profiles": views,
	})
}

// handleScan runs a scan to completion and reports its result. The scan is
// bound to the server lifetime rather than the request.
func (s *httpServer) handleScan(w http.ResponseWriter, r *http.Request) {
	req, err := decodeScanRequest(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Scanner = strings.TrimSpace(req.Scanner)
	req.Configuration = strings.TrimSpace(req.Configuration)
	if req.Scanner == "" {
		s.writeError(w, http.StatusBadRequest, "scanner is required")
		return
	}

	ctx, cancel := s.scanContext()
	defer cancel()

	result := s.daemon.requester.RequestScan(ctx, req.Scanner, req.Configuration, s.cfg.Paths.ProfileDir, s.cfg.Paths.DefaultProfile)
	s.writeJSON(w, scanStatusCode(result), scanResponse{Result: result})
}

func scanStatusCode(result epsonscan.Result) int {
	switch result {
	case epsonscan.ResultOK:
		return http.StatusOK
	case epsonscan.ResultNotInstalled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func decodeScanRequest(w http.ResponseWriter, r *http.Request) (scanRequest, error) {
	var req scanRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return req, errors.New("invalid form body")
		}
		req.Scanner = r.PostFormValue("scanner")
		req.Configuration = r.PostFormValue("configuration")
		return req, nil
	}

	body := http.MaxBytesReader(w, r.Body, maxScanRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, errors.New("request body is empty")
		}
		return req, errors.New("invalid JSON body")
	}
	return req, nil
}

func (s *httpServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := pageData{
		Title:          s.cfg.Server.Title,
		Message:        s.cfg.Server.Message,
		Installed:      s.daemon.scanning.Installed(ctx),
		DefaultProfile: s.cfg.Paths.DefaultProfile,
	}

	if data.Installed {
		scanners, err := s.daemon.scanning.Scanners(ctx)
		if err != nil {
			s.logger.Warn("scanner listing failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "kiosk page shows no scanners"),
			)
			data.ScannerError = err.Error()
		}
		data.Scanners = scanners
	}

	list, err := profiles.List(s.cfg.Paths.ProfileDir)
	if err != nil {
		s.logger.Warn("profile listing failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.profile_dir permissions"),
		)
	}
	data.Profiles = list

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.render(w, data); err != nil {
		s.logger.Error("render kiosk page", logging.Error(err))
	}
}
