package dashboard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/kamilpajak/leafguard/internal/report"
	"github.com/kamilpajak/leafguard/internal/workflow"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *session)

// withSession resolves the {id} path parameter to a live session.
func (h *Handler) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid session ID")
			return
		}
		s, ok := h.sessions.get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		next(w, r, s)
	}
}

func (h *Handler) allow() bool {
	return h.limiter == nil || h.limiter.Allow()
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s := newSession(workflow.New(h.submitter, h.log))
	h.sessions.add(s)
	h.log.Debug("session created", "session", s.id)

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    s.id.String(),
		"state": newStateView(s.wf.State()),
	})
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request, s *session) {
	writeJSON(w, http.StatusOK, newStateView(s.wf.State()))
}

func (h *Handler) handleSelectImage(w http.ResponseWriter, r *http.Request, s *session) {
	if !h.allow() {
		writeError(w, http.StatusTooManyRequests, "too many uploads, try again shortly")
		return
	}

	tooLarge := fmt.Sprintf("image exceeds %d MB", h.maxUpload>>20)
	if r.ContentLength > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	img := workflow.Image{
		Name:      header.Filename,
		MediaType: declaredType(header.Header.Get("Content-Type"), data),
		Data:      data,
	}
	if err := s.wf.Select(img); err != nil {
		writeError(w, selectStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newStateView(s.wf.State()))
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request, s *session) {
	if !h.allow() {
		writeError(w, http.StatusTooManyRequests, "too many requests, try again shortly")
		return
	}
	if !s.wf.Analyze(h.ctx) {
		writeError(w, http.StatusConflict, "nothing to analyze")
		return
	}
	writeJSON(w, http.StatusAccepted, newStateView(s.wf.State()))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request, s *session) {
	s.wf.Reset()
	writeJSON(w, http.StatusOK, newStateView(s.wf.State()))
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request, s *session) {
	emitter := NewSSEEmitter(w)
	if emitter == nil {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	if err := emitter.Emit(newStateView(s.wf.State())); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case st := <-ch:
			if err := emitter.Emit(newStateView(st)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request, s *session) {
	st := s.wf.State()
	if st.Phase != workflow.PhaseSucceeded {
		writeError(w, http.StatusConflict, "no result to report")
		return
	}

	page, err := report.HTML(st.Result, time.Now())
	if err != nil {
		h.log.Error("render report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// declaredType returns the part's declared media type, sniffing the
// content only when the client sent none.
func declaredType(header string, data []byte) string {
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return mimetype.Detect(data).String()
}

func selectStatus(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNotImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, workflow.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
