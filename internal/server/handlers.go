package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stackrecipe/pkg/buildinfo"
	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/pipeline"
	"github.com/matzehuels/stackrecipe/pkg/platform"
	"github.com/matzehuels/stackrecipe/pkg/resolve"
)

// Query parameters that are not platform axes.
const (
	paramFilename = "filename"
	paramRecipe   = "recipe"
	paramRefresh  = "refresh"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type resolveResponse struct {
	Locks      []*resolve.Lock `json:"locks"`
	SourceHash string          `json:"source_hash"`
	CacheHit   bool            `json:"cache_hit"`
}

type styleResponse struct {
	Explicit map[string]map[string]any `json:"explicit"`
	Resolved map[string]map[string]any `json:"resolved"`
	CacheHit bool                      `json:"cache_hit"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	axes := make(map[string]string)
	for key := range q {
		switch key {
		case paramFilename, paramRecipe, paramRefresh:
			continue
		}
		axes[key] = q.Get(key)
	}
	p, err := platform.New(axes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	src, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := q.Get(paramFilename)
	if filename == "" {
		filename = "recipe.hcl"
	}
	result, err := s.runner.Resolve(r.Context(), pipeline.Options{
		Filename: filename,
		Source:   src,
		Platform: p,
		Recipe:   q.Get(paramRecipe),
		Refresh:  q.Get(paramRefresh) == "true",
		Logger:   s.logger.With("request_id", RequestIDFrom(r.Context())),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	for _, lock := range result.Locks {
		if err := s.store.Put(r.Context(), lock); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resolveResponse{
		Locks:      result.Locks,
		SourceHash: result.SourceHash,
		CacheHit:   result.CacheHit,
	})
}

func (s *Server) handleStyleCheck(w http.ResponseWriter, r *http.Request) {
	src, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filename := r.URL.Query().Get(paramFilename)
	if filename == "" {
		filename = "style.toml"
	}
	if err := errors.ValidateDescriptorFilename(filename); err != nil {
		s.writeError(w, r, err)
		return
	}

	settings, hit, err := s.runner.CheckStyle(r.Context(), filename, src)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, styleResponse{
		Explicit: settings.Explicit(),
		Resolved: settings.Resolved(),
		CacheHit: hit,
	})
}

func (s *Server) handleGetLock(w http.ResponseWriter, r *http.Request) {
	lock, err := s.store.Get(r.Context(), chi.URLParam(r, "digest"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lock)
}

func (s *Server) handleListLocks(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := errors.ValidateRecipeName(name); err != nil {
		s.writeError(w, r, err)
		return
	}
	locks, err := s.store.List(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if locks == nil {
		locks = []*resolve.Lock{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipe": name, "locks": locks})
}

func readBody(r *http.Request) ([]byte, error) {
	src, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(src) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "request body must contain the descriptor")
	}
	return src, nil
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	if errors.IsDescriptorError(err) {
		return http.StatusUnprocessableEntity
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeRecipeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidPackage, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", RequestIDFrom(r.Context()), "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Code: string(code), Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
