// Package mcp exposes the fold splitter as Model Context Protocol tools.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/fold"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/aretw0/fold/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SplitArgs are the arguments of the split_html tool.
type SplitArgs struct {
	HTML         string `json:"html"`
	CriticalLine string `json:"critical_line,omitempty"`
	URL          string `json:"url,omitempty"`
	Mode         string `json:"mode,omitempty"`
}

// SplitResponse is the structured result of split_html.
type SplitResponse struct {
	Output  string          `json:"output" jsonschema_description:"The rewritten document or payload"`
	Summary *domain.Summary `json:"summary" jsonschema_description:"Regions found and payload size"`
}

// ValidateArgs are the arguments of the validate_critical_line tool.
type ValidateArgs struct {
	CriticalLine string `json:"critical_line"`
}

// ValidateResponse is the structured result of validate_critical_line.
type ValidateResponse struct {
	Valid     bool   `json:"valid"`
	Canonical string `json:"canonical,omitempty" jsonschema_description:"Normalized form of the configuration"`
	Regions   int    `json:"regions"`
	Error     string `json:"error,omitempty"`
	Position  int    `json:"position,omitempty" jsonschema_description:"Byte offset of a syntax error"`
}

// Server wraps a fold Engine and exposes it as an MCP Server.
type Server struct {
	engine    *fold.Engine
	store     ports.ConfigStore
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. store may be nil.
func NewServer(engine *fold.Engine, store ports.ConfigStore) *Server {
	s := &Server{
		engine:    engine,
		store:     store,
		mcpServer: server.NewMCPServer("fold-mcp", fold.Version),
	}
	s.registerTools()
	if store != nil {
		s.registerResources()
	}
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	splitTool := mcp.NewTool("split_html",
		mcp.WithDescription("Split an HTML document into above-the-fold markup and deferred below-the-fold regions."),
		mcp.WithString("html", mcp.Required(), mcp.Description("The HTML document")),
		mcp.WithString("critical_line", mcp.Description("Critical-line configuration, e.g. div[@id = \"main\"]/div[2]:h1 (optional)")),
		mcp.WithString("url", mcp.Description("Request path used for stored configurations and the BTF link")),
		mcp.WithString("mode", mcp.Description("inline (default), atf or btf")),
		mcp.WithOutputSchema[SplitResponse](),
	)
	s.mcpServer.AddTool(splitTool, mcp.NewStructuredToolHandler(s.handleSplit))

	validateTool := mcp.NewTool("validate_critical_line",
		mcp.WithDescription("Parse and validate a critical-line configuration."),
		mcp.WithString("critical_line", mcp.Required(), mcp.Description("The configuration text")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))
}

func (s *Server) handleSplit(ctx context.Context, request mcp.CallToolRequest, args SplitArgs) (SplitResponse, error) {
	mode, err := domain.ParseServingMode(args.Mode)
	if err != nil {
		return SplitResponse{}, err
	}
	req := domain.Request{URL: args.URL, Mode: mode}
	if strings.TrimSpace(args.CriticalLine) != "" {
		text := args.CriticalLine
		req.ConfigText = &text
	}

	var out bytes.Buffer
	summary, err := s.engine.Process(ctx, strings.NewReader(args.HTML), &out, req)
	if err != nil {
		return SplitResponse{}, fmt.Errorf("split failed: %w", err)
	}
	return SplitResponse{Output: out.String(), Summary: summary}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args ValidateArgs) (ValidateResponse, error) {
	cfg, err := fold.ParseConfig(args.CriticalLine)
	if err != nil {
		resp := ValidateResponse{Error: err.Error()}
		var perr *domain.ConfigParseError
		if errors.As(err, &perr) {
			resp.Position = perr.Pos
		}
		return resp, nil
	}
	return ValidateResponse{Valid: true, Canonical: cfg.String(), Regions: cfg.Len()}, nil
}

const storedURI = "fold://critical-lines"

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(storedURI, "Stored critical-line configurations",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := s.storedConfigs(ctx)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      storedURI,
				MIMEType: "application/json",
				Text:     text,
			},
		}, nil
	})
}

// storedConfigs renders every stored configuration as a path-to-text map.
func (s *Server) storedConfigs(ctx context.Context) (string, error) {
	keys, err := s.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list configurations: %w", err)
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		cfg, err := s.store.Load(ctx, k)
		if errors.Is(err, domain.ErrConfigNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to load %s: %w", k, err)
		}
		out[k] = cfg.String()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
