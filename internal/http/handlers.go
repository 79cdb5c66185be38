package http

import (
	"context"
	"net/http"
	"time"

	"ledgerview/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the backend when it exposes a readiness check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleWindow resolves a window without touching the data source.
func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	req, err := ParseChartRequest(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	win, err := s.charts.Window(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window": win,
		"label":  win.Label(),
		"days":   win.Days(),
	})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	req, err := ParseChartRequest(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.charts.View(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	params, err := ParseOverviewParams(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.charts.Overview(r.Context(), params.Date, params.Months)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSnapshot reports the loaded snapshot and every rejected record.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	view, err := s.charts.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleRefresh drops the cached snapshot so the next chart request rereads
// the backend.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, http.StatusNotImplemented, "snapshot refresh not available")
		return
	}
	s.refresher.Invalidate()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "invalidated"})
}

// fail maps request errors to 400 and everything else to 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if isClientError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart request failed",
		log.NewFields().WithError(err).WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").ToSlice()...)
	writeError(w, http.StatusInternalServerError, "internal error")
}
