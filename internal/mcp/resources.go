package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/jump/internal/telemetry"
)

// MaxResourceSize is the maximum file size for resources (1MB).
const MaxResourceSize = 1024 * 1024

const (
	fileURIPrefix   = "jump://file/"
	queryMetricsURI = "jump://query_metrics"
)

// queryMetricsOutput is the JSON document of the query_metrics resource.
type queryMetricsOutput struct {
	*telemetry.Snapshot
	ZeroResultPct float64 `json:"zero_result_pct"`
}

func (s *Server) registerResources() {
	s.mcp.AddResourceTemplate(
		&mcp.ResourceTemplate{
			Name:        "project_file",
			URITemplate: fileURIPrefix + "{+path}",
			Description: "A file under the project root, e.g. a path returned by jump_files",
			MIMEType:    "text/plain",
		},
		func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return s.handleReadFile(ctx, req.Params.URI)
		},
	)

	if s.opts.Metrics != nil {
		s.mcp.AddResource(
			&mcp.Resource{
				Name:        "query_metrics",
				URI:         queryMetricsURI,
				Description: "Query telemetry of this server: latency buckets, modes and queries without results",
				MIMEType:    "application/json",
			},
			s.handleQueryMetrics,
		)
	}
}

// handleReadFile returns the content of a file under the root.
func (s *Server) handleReadFile(_ context.Context, uri string) (*mcp.ReadResourceResult, error) {
	rel, ok := strings.CutPrefix(uri, fileURIPrefix)
	if !ok {
		return nil, NewResourceNotFoundError(uri)
	}
	if !isValidPath(rel) {
		return nil, NewInvalidParamsError(fmt.Sprintf("invalid path: %s", rel))
	}

	fullPath := filepath.Join(s.root, filepath.FromSlash(rel))
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MCPError{Code: ErrCodeFileNotFound, Message: fmt.Sprintf("file not found: %s", rel)}
		}
		return nil, MapError(err)
	}
	if info.IsDir() {
		return nil, NewInvalidParamsError(fmt.Sprintf("not a file: %s", rel))
	}
	if info.Size() > MaxResourceSize {
		return nil, &MCPError{
			Code:    ErrCodeFileTooLarge,
			Message: fmt.Sprintf("file too large: %s (max %s)", humanSize(info.Size()), humanSize(MaxResourceSize)),
		}
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, MapError(err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: MimeTypeForPath(rel),
				Text:     string(content),
			},
		},
	}, nil
}

func (s *Server) handleQueryMetrics(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if s.opts.Metrics == nil {
		return nil, NewInvalidParamsError("query metrics not available")
	}

	snapshot := s.opts.Metrics.Snapshot()
	content, err := json.MarshalIndent(queryMetricsOutput{
		Snapshot:      snapshot,
		ZeroResultPct: snapshot.ZeroResultPercentage(),
	}, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      queryMetricsURI,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}

// isValidPath reports whether path is relative and stays under the root.
func isValidPath(path string) bool {
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return false
	}
	// Windows drive letters
	if len(path) >= 2 && path[1] == ':' {
		return false
	}
	for _, part := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		if part == ".." {
			return false
		}
	}
	return true
}

func humanSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
