package plugin

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mvp-joe/csd-analyzers/internal/analyzer"
	"github.com/mvp-joe/csd-analyzers/internal/cache"
	"github.com/mvp-joe/csd-analyzers/internal/ir"
	"github.com/sirupsen/logrus"
)

// Server answers protocol messages with one analyzer.
type Server struct {
	analyzer     analyzer.Analyzer
	log          logrus.FieldLogger
	cacheDir     string
	previewBytes int
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCacheDir sets the cache directory used when an analyze request has none.
func WithCacheDir(dir string) ServerOption {
	return func(s *Server) {
		s.cacheDir = dir
	}
}

// WithPreviewBytes sets the content prefix used to pick an engine when the analyzer is a
// registry.
func WithPreviewBytes(n int) ServerOption {
	return func(s *Server) {
		s.previewBytes = n
	}
}

// NewServer creates a server for a.
func NewServer(a analyzer.Analyzer, log logrus.FieldLogger, opts ...ServerOption) *Server {
	s := &Server{
		analyzer:     a,
		log:          log,
		previewBytes: analyzer.DefaultPreviewBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve reads one message from r and writes exactly one response line to w. The returned error
// only reports a failure to write the response.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	var resp Response
	raw, err := ReadMessage(r)
	if err != nil {
		s.log.WithError(err).Error("failed to read request")
		resp = errorResponse("Failed to read input: " + err.Error())
	} else {
		resp = s.Handle(ctx, raw)
	}
	return writeResponse(w, resp)
}

func writeResponse(w io.Writer, resp Response) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}
	return nil
}

// Handle dispatches one raw message. It never panics: a panic in an engine is reported as an
// error response carrying the stack trace.
func (s *Server) Handle(ctx context.Context, raw string) (resp Response) {
	log := s.log.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"engine":     s.analyzer.Info().Name,
	})

	defer func() {
		if v := recover(); v != nil {
			stack := string(debug.Stack())
			log.WithField("panic", v).Error("request panicked")
			resp = ErrorResponse{
				Status:  StatusError,
				Message: fmt.Sprintf("Plugin error: %v", v),
				Details: &stack,
			}
		}
	}()

	raw = strings.TrimSpace(raw)
	if raw == "" {
		log.Warn(ErrEmptyInput.Error())
		return errorResponse("No input received")
	}

	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		log.WithError(err).Warn("invalid request")
		return errorResponse("Invalid JSON: " + err.Error())
	}

	log = log.WithField("type", msg.Type)
	start := time.Now()
	defer func() {
		if resp == nil {
			return
		}
		log.WithFields(logrus.Fields{
			"status":      resp.ResponseStatus(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("request handled")
	}()

	switch msg.Type {
	case TypeGetInfo:
		return s.Info()
	case TypeCanAnalyze:
		r, err := s.canAnalyze(&msg)
		if err != nil {
			return s.fail(log, err)
		}
		return r
	case TypeAnalyze:
		r, err := s.analyze(ctx, &msg)
		if err != nil {
			return s.fail(log, err)
		}
		return r
	default:
		log.Warn("unknown message type")
		return errorResponse("Unknown message type: " + msg.Type)
	}
}

func (s *Server) fail(log logrus.FieldLogger, err error) ErrorResponse {
	if IsClientError(err) {
		log.WithError(err).Warn("request rejected")
	} else {
		log.WithError(err).Error("request failed")
	}
	return errorResponse(err.Error())
}

// Info returns the get_info response.
func (s *Server) Info() InfoResponse {
	return InfoResponse{Status: StatusInfo, Info: s.analyzer.Info()}
}

// CanAnalyze returns the can_analyze response for a file.
func (s *Server) CanAnalyze(path, preview string) CanAnalyzeResponse {
	p := s.analyzer.Probe(path, preview)
	return CanAnalyzeResponse{Status: StatusCanAnalyze, CanAnalyze: p.Matches, Confidence: p.Confidence}
}

func (s *Server) canAnalyze(msg *Message) (CanAnalyzeResponse, error) {
	if msg.FilePath == nil {
		return CanAnalyzeResponse{}, &RequestError{Op: TypeCanAnalyze, Err: fmt.Errorf("%w: file_path", ErrMissingField)}
	}
	if msg.ContentPreview == nil {
		return CanAnalyzeResponse{}, &RequestError{Op: TypeCanAnalyze, Err: fmt.Errorf("%w: content_preview", ErrMissingField)}
	}
	return s.CanAnalyze(*msg.FilePath, *msg.ContentPreview), nil
}

func (s *Server) analyze(ctx context.Context, msg *Message) (SuccessResponse, error) {
	if msg.Input == nil {
		return SuccessResponse{}, &RequestError{Op: TypeAnalyze, Err: fmt.Errorf("%w: input", ErrMissingField)}
	}
	in, err := msg.Input.toInput(s.cacheDir)
	if err != nil {
		return SuccessResponse{}, &RequestError{Op: TypeAnalyze, Err: err}
	}

	res, err := AnalyzeToCache(ctx, s.analyzer, in, s.previewBytes)
	if err != nil {
		return SuccessResponse{}, &RequestError{Op: TypeAnalyze, Err: err}
	}
	return SuccessResponse{
		Status:           StatusSuccess,
		CacheFile:        res.CacheFile,
		ProcessingTimeMs: res.ProcessingTimeMs,
	}, nil
}

// Result locates a cached analysis.
type Result struct {
	Engine           string
	CacheFile        string
	ProcessingTimeMs int64
	Output           *ir.Output
}

// AnalyzeToCache analyzes in with the engine that serves it, stamps the timing, engine version
// and file hash, and writes the output to in.CacheDir.
func AnalyzeToCache(ctx context.Context, a analyzer.Analyzer, in *ir.Input, previewBytes int) (Result, error) {
	engine, ok := analyzer.Resolve(a, in, previewBytes)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNoEngine, in.RelativePath)
	}
	store, err := cache.NewStore(in.CacheDir)
	if err != nil {
		return Result{}, err
	}
	info := engine.Info()

	start := time.Now()
	out := engine.Analyze(ctx, in)
	out.ProcessingTimeMs = time.Since(start).Milliseconds()
	out.PluginVersion = info.Version
	out.FileHash = cache.FileHash(in.Content)

	name := cache.FileName(info.Name, in)
	if err := store.Write(name, out); err != nil {
		return Result{}, fmt.Errorf("failed to write cache file: %w", err)
	}
	return Result{
		Engine:           info.Name,
		CacheFile:        name,
		ProcessingTimeMs: out.ProcessingTimeMs,
		Output:           out,
	}, nil
}

// IsClientError reports whether err was caused by the request rather than the engine.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingField) || errors.Is(err, cache.ErrCacheDirRequired) || errors.Is(err, ErrNoEngine)
}
