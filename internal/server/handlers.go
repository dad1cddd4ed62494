package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrWong99/scribeclean/internal/dictionary"
	"github.com/MrWong99/scribeclean/internal/observe"
	"github.com/MrWong99/scribeclean/internal/transcript"
)

// CorrectRequest is the body of POST /v1/correct.
type CorrectRequest struct {
	Text string `json:"text"`

	// Words overrides the stored dictionary for this call when non-nil.
	Words []string `json:"words,omitempty"`

	// Threshold overrides the configured threshold for this call.
	Threshold *float64 `json:"threshold,omitempty"`
}

// CorrectResponse is the body returned by POST /v1/correct.
type CorrectResponse struct {
	Text        string                  `json:"text"`
	Corrections []transcript.Correction `json:"corrections"`
}

// FilterRequest is the body of POST /v1/filter.
type FilterRequest struct {
	Text string `json:"text"`
}

// FilterResponse is the body returned by POST /v1/filter.
type FilterResponse struct {
	Text              string `json:"text"`
	FillersRemoved    int    `json:"fillers_removed"`
	StuttersCollapsed int    `json:"stutters_collapsed"`
}

// ProcessRequest is the body of POST /v1/process. Result is a
// [transcript.Result].
type ProcessRequest struct {
	Text string `json:"text"`

	// Stages overrides the configured stage order when non-nil.
	Stages []string `json:"stages,omitempty"`

	// Words overrides the stored dictionary for this call when non-nil.
	Words []string `json:"words,omitempty"`

	// Threshold overrides the configured threshold for this call.
	Threshold *float64 `json:"threshold,omitempty"`
}

// WordRequest is the body of POST /v1/words.
type WordRequest struct {
	Word string `json:"word"`
}

// WordsBody is the body of GET and PUT /v1/words.
type WordsBody struct {
	Words []string `json:"words"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// apiError is an error with an HTTP status.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &apiError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// handlerFunc returns a status, a JSON-encodable body (nil for no body) or an
// error that is mapped to a status by [statusOf].
type handlerFunc func(w http.ResponseWriter, r *http.Request) (int, any, error)

// handle adapts fn to http.HandlerFunc, writes its result as JSON and counts
// the request under endpoint.
func (s *Server) handle(endpoint string, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

		status, body, err := fn(w, r)
		if err != nil {
			status = statusOf(err)
			switch {
			case status == http.StatusServiceUnavailable:
				observe.Logger(r.Context()).Warn("request rejected", "endpoint", endpoint, "err", err)
				body = errorResponse{Error: "dictionary store unavailable"}
			case status >= http.StatusInternalServerError:
				observe.Logger(r.Context()).Error("request failed", "endpoint", endpoint, "err", err)
				body = errorResponse{Error: "internal error"}
			default:
				body = errorResponse{Error: err.Error()}
			}
		}

		if body == nil {
			w.WriteHeader(status)
		} else {
			writeJSON(w, status, body)
		}
		if s.metrics != nil {
			s.metrics.RecordRequest(r.Context(), endpoint, strconv.Itoa(status))
		}
	}
}

func statusOf(err error) int {
	var ae *apiError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &ae):
		return ae.status
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, dictionary.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dictionary.ErrInvalidWord):
		return http.StatusBadRequest
	case errors.Is(err, dictionary.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a single JSON object from r into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// pipelineFor derives a pipeline from the current one, with stages and
// threshold overridden when set.
func (s *Server) pipelineFor(stages []transcript.Stage, threshold *float64) *transcript.Pipeline {
	base := s.Pipeline()
	th := base.Threshold()
	if threshold != nil {
		th = *threshold
	}
	if stages == nil {
		stages = base.Stages()
	}
	opts := []transcript.PipelineOption{
		transcript.WithStages(stages...),
		transcript.WithThreshold(th),
	}
	if s.metrics != nil {
		opts = append(opts, transcript.WithMetrics(s.metrics))
	}
	return transcript.NewPipeline(opts...)
}

// wordsFor returns override when non-nil, otherwise the stored dictionary.
func (s *Server) wordsFor(r *http.Request, override []string) ([]string, error) {
	if override != nil {
		return override, nil
	}
	words, err := s.store.List(r.Context())
	if err != nil {
		return nil, fmt.Errorf("list dictionary: %w", err)
	}
	return words, nil
}

func (s *Server) handleCorrect(_ http.ResponseWriter, r *http.Request) (int, any, error) {
	var req CorrectRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	words, err := s.wordsFor(r, req.Words)
	if err != nil {
		return 0, nil, err
	}
	res, err := s.pipelineFor([]transcript.Stage{transcript.StageVocabulary}, req.Threshold).
		Process(r.Context(), req.Text, words)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, CorrectResponse{Text: res.Text, Corrections: res.Corrections}, nil
}

func (s *Server) handleFilter(_ http.ResponseWriter, r *http.Request) (int, any, error) {
	var req FilterRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	res, err := s.pipelineFor([]transcript.Stage{transcript.StageFilter}, nil).
		Process(r.Context(), req.Text, nil)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, FilterResponse{
		Text:              res.Text,
		FillersRemoved:    res.FillersRemoved,
		StuttersCollapsed: res.StuttersCollapsed,
	}, nil
}

func (s *Server) handleProcess(_ http.ResponseWriter, r *http.Request) (int, any, error) {
	var req ProcessRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	var stages []transcript.Stage
	if req.Stages != nil {
		parsed, err := transcript.ParseStages(req.Stages)
		if err != nil {
			return 0, nil, badRequest("%v", err)
		}
		stages = parsed
	}
	words, err := s.wordsFor(r, req.Words)
	if err != nil {
		return 0, nil, err
	}
	res, err := s.pipelineFor(stages, req.Threshold).Process(r.Context(), req.Text, words)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, res, nil
}

func (s *Server) handleListWords(_ http.ResponseWriter, r *http.Request) (int, any, error) {
	words, err := s.store.List(r.Context())
	if err != nil {
		return 0, nil, err
	}
	if words == nil {
		words = []string{}
	}
	s.reportWordCount(r.Context(), len(words))
	return http.StatusOK, WordsBody{Words: words}, nil
}

func (s *Server) handleAddWord(_ http.ResponseWriter, r *http.Request) (int, any, error) {
	var req WordRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	word, err := dictionary.Normalize(req.Word)
	if err != nil {
		return 0, nil, err
	}
	if err := s.store.Add(r.Context(), word); err != nil {
		return 0, nil, err
	}
	s.syncWordCount(r)
	return http.StatusCreated, WordRequest{Word: word}, nil
}

func (s *Server) handleReplaceWords(_ http.ResponseWriter, r *http.Request) (int, any, error) {
	var req WordsBody
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	if err := s.store.Replace(r.Context(), req.Words); err != nil {
		return 0, nil, err
	}
	return s.handleListWords(nil, r)
}

func (s *Server) handleRemoveWord(_ http.ResponseWriter, r *http.Request) (int, any, error) {
	word, err := wordParam(r)
	if err != nil {
		return 0, nil, badRequest("invalid word in path: %v", err)
	}
	if err := s.store.Remove(r.Context(), word); err != nil {
		return 0, nil, err
	}
	s.syncWordCount(r)
	return http.StatusNoContent, nil, nil
}

// wordParam returns the {word} path segment decoded exactly once. chi
// matches against the already decoded URL.Path unless the request carries a
// RawPath (an escaped "/" such as "AC%2FDC"), in which case the segment is
// still escaped.
func wordParam(r *http.Request) (string, error) {
	word := chi.URLParam(r, "word")
	if r.URL.RawPath == "" {
		return word, nil
	}
	return url.PathUnescape(word)
}

// syncWordCount refreshes the dictionary size metric after a mutation. A
// failure only affects the metric and is logged.
func (s *Server) syncWordCount(r *http.Request) {
	if s.metrics == nil {
		return
	}
	if err := s.SyncWordCount(r.Context()); err != nil {
		slog.Warn("server: refresh dictionary size", "err", err)
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("server: encode response", "err", err)
	}
}
