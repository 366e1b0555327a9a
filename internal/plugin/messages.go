// Package plugin serves the single-request JSON protocol: one message is read from the input
// stream and exactly one response line is written back.
package plugin

import (
	"fmt"

	"github.com/mvp-joe/csd-analyzers/internal/analyzer"
	"github.com/mvp-joe/csd-analyzers/internal/ir"
)

// Message types.
const (
	TypeGetInfo    = "get_info"
	TypeCanAnalyze = "can_analyze"
	TypeAnalyze    = "analyze"
)

// Response statuses.
const (
	StatusInfo       = "info"
	StatusCanAnalyze = "can_analyze"
	StatusSuccess    = "success"
	StatusError      = "error"
)

// Message is a decoded request. Pointer fields distinguish a missing field from an empty one.
type Message struct {
	Type           string        `json:"type"`
	FilePath       *string       `json:"file_path,omitempty"`
	ContentPreview *string       `json:"content_preview,omitempty"`
	Input          *InputMessage `json:"input,omitempty"`
}

// InputMessage is the input object of an analyze request.
type InputMessage struct {
	FilePath     *string        `json:"file_path"`
	RelativePath *string        `json:"relative_path"`
	Content      *string        `json:"content"`
	ProjectRoot  *string        `json:"project_root"`
	CacheDir     *string        `json:"cache_dir,omitempty"`
	PluginConfig map[string]any `json:"plugin_config,omitempty"`
}

// toInput checks the required fields. A missing cache_dir falls back to defaultCacheDir.
func (m *InputMessage) toInput(defaultCacheDir string) (*ir.Input, error) {
	required := []struct {
		name  string
		value *string
	}{
		{"file_path", m.FilePath},
		{"relative_path", m.RelativePath},
		{"content", m.Content},
		{"project_root", m.ProjectRoot},
	}
	for _, f := range required {
		if f.value == nil {
			return nil, fmt.Errorf("%w: input.%s", ErrMissingField, f.name)
		}
	}

	cacheDir := defaultCacheDir
	if m.CacheDir != nil && *m.CacheDir != "" {
		cacheDir = *m.CacheDir
	}
	return &ir.Input{
		FilePath:     *m.FilePath,
		RelativePath: *m.RelativePath,
		Content:      *m.Content,
		ProjectRoot:  *m.ProjectRoot,
		CacheDir:     cacheDir,
		PluginConfig: m.PluginConfig,
	}, nil
}

// Response is one protocol reply.
type Response interface {
	ResponseStatus() string
}

// InfoResponse answers get_info. Input engines produce no output types or formats, so those
// fields are always null.
type InfoResponse struct {
	Status string `json:"status"`
	analyzer.Info
	SupportedOutputTypes []string `json:"supported_output_types"`
	SupportedFormats     []string `json:"supported_formats"`
}

// CanAnalyzeResponse answers can_analyze.
type CanAnalyzeResponse struct {
	Status     string  `json:"status"`
	CanAnalyze bool    `json:"can_analyze"`
	Confidence float64 `json:"confidence"`
}

// SuccessResponse answers analyze. The output itself is in the cache file.
type SuccessResponse struct {
	Status           string `json:"status"`
	CacheFile        string `json:"cache_file"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// ErrorResponse reports any failure.
type ErrorResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Details *string `json:"details"`
}

func (InfoResponse) ResponseStatus() string       { return StatusInfo }
func (CanAnalyzeResponse) ResponseStatus() string { return StatusCanAnalyze }
func (SuccessResponse) ResponseStatus() string    { return StatusSuccess }
func (ErrorResponse) ResponseStatus() string      { return StatusError }

func errorResponse(message string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Message: message}
}
