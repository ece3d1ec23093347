// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the time machine to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/timemachine/internal/apperr"
	"github.com/starford/timemachine/internal/parser"
	"github.com/starford/timemachine/internal/storage"
	"github.com/starford/timemachine/internal/timemachine"
)

const (
	reportURI   = "timemachine://report"
	contractURI = "timemachine://date-format"
)

// Reporter runs the time machine.
type Reporter interface {
	Run(ctx context.Context) (*timemachine.Report, error)
	RunAt(ctx context.Context, now time.Time) (*timemachine.Report, error)
	Horizons() []timemachine.HorizonStatus
}

// Server wraps the MCP server with the time machine tools.
type Server struct {
	mcp      *server.MCPServer
	svc      Reporter
	store    storage.Provider
	property string
}

// New creates a new MCP server with all tools and resources registered.
func New(svc Reporter, store storage.Provider, property string, version string) *Server {
	if property == "" {
		property = parser.DefaultDateProperty
	}
	s := &Server{svc: svc, store: store, property: property}

	s.mcp = server.NewMCPServer(
		"Time Machine",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("time_machine",
		mcp.WithDescription("List the notes created closest to a week, a month, a year ago and the other "+
			"configured horizons. Notes must carry a creation date in their frontmatter; see the "+
			contractURI+" resource."),
		mcp.WithString("at", mcp.Description("Reference date YYYY-MM-DD (defaults to today)")),
		mcp.WithString("format", mcp.Description("Output format: text (default) or json")),
	), s.timeMachine)

	s.mcp.AddTool(mcp.NewTool("list_horizons",
		mcp.WithDescription("List every supported horizon and whether it is enabled."),
	), s.listHorizons)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note returned by time_machine."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. journal/note.md)")),
	), s.readNote)

	s.mcp.AddResource(
		mcp.NewResource(reportURI, "Time Machine Report",
			mcp.WithResourceDescription("Latest time machine report as JSON, computed on read."),
			mcp.WithMIMEType("application/json"),
		),
		s.readReportResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Date Format Contract",
			mcp.WithResourceDescription("How notes must record their creation date."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) timeMachine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		report *timemachine.Report
		err    error
	)
	if at := optionalString(req, "at"); at != "" {
		ref, perr := time.ParseInLocation("2006-01-02", at, time.Local)
		if perr != nil {
			return mcp.NewToolResultError("at must be YYYY-MM-DD"), nil
		}
		report, err = s.svc.RunAt(ctx, ref)
	} else {
		report, err = s.svc.Run(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch strings.ToLower(optionalString(req, "format")) {
	case "json":
		out, _ := json.MarshalIndent(report, "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	case "text", "":
		var b strings.Builder
		if err := report.WriteText(&b); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(b.String()), nil
	default:
		return mcp.NewToolResultError("format must be text or json"), nil
	}
}

func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

func (s *Server) listHorizons(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	for _, h := range s.svc.Horizons() {
		mark := " "
		if h.Enabled {
			mark = "x"
		}
		fmt.Fprintf(&b, "[%s] %s: %s (%s)\n", mark, h.Key, h.Label, h.Offset)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) readNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := timemachine.ReadNote(s.store, path, s.property)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) readReportResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	report, err := s.svc.Run(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      reportURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     DateContract(s.property),
		},
	}, nil
}
