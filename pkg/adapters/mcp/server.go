package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/speriment"
	"github.com/aretw0/speriment/pkg/adapters/document"
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/aretw0/speriment/pkg/ports"
	"github.com/aretw0/speriment/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SchemaURI is the resource holding the artifact schema.
const SchemaURI = "speriment://schema"

// Server exposes the compiler as an MCP Server, so assistants can draft
// experiment documents and check them.
type Server struct {
	compiler  *speriment.Compiler
	store     ports.ArtifactStore
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. store may be nil.
func NewServer(c *speriment.Compiler, store ports.ArtifactStore) *Server {
	s := &Server{
		compiler:  c,
		store:     store,
		mcpServer: server.NewMCPServer("speriment-mcp", strings.TrimSpace(speriment.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
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
	s.mcpServer.AddTool(mcp.NewTool("compile_experiment",
		mcp.WithDescription("Compile an experiment document (YAML or JSON) into the artifact the browser runtime loads."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The authoring document")),
		mcp.WithNumber("seed", mcp.Description("First identifier minus one (default 0)"), mcp.Min(0)),
		mcp.WithString("name", mcp.Description("Store the artifact under this JavaScript variable name (optional)")),
	), s.handleCompile)

	s.mcpServer.AddTool(mcp.NewTool("validate_experiment",
		mcp.WithDescription("Check an experiment document without storing anything. Reports the first problem found."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The authoring document")),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool("list_artifacts",
		mcp.WithDescription("List the names of stored artifacts."),
	), s.handleList)
}

func parse(request mcp.CallToolRequest) (*document.Document, error) {
	src, err := request.RequireString("document")
	if err != nil {
		return nil, err
	}
	return document.Parse([]byte(src), document.WithoutTables())
}

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := parse(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name := request.GetString("name", doc.Name)

	art, err := s.compiler.Build(request.GetInt("seed", 0), doc.Build)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	if name != "" && s.store != nil {
		if err := s.store.Save(ctx, name, art.JSON); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("compiled but could not store: %v", err)), nil
		}
	}
	return mcp.NewToolResultText(string(art.JSON)), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := parse(request)
	if err == nil {
		_, err = s.compiler.Build(0, doc.Build)
	}
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	return mcp.NewToolResultText("valid"), nil
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("no artifact store configured"), nil
	}
	names, err := s.store.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

// describe adds the location of structural errors so the caller can fix the document.
func describe(err error) string {
	var se *domain.StructuralError
	if errors.As(err, &se) && se.Field != "" {
		return fmt.Sprintf("%v (kind: %s, field: %s)", err, se.Kind, se.Field)
	}
	return err.Error()
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SchemaURI, "Artifact Schema",
		mcp.WithResourceDescription("OpenAPI 3 document whose Experiment component every artifact satisfies"),
		mcp.WithMIMEType("application/yaml"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SchemaURI,
				MIMEType: "application/yaml",
				Text:     string(schema.Document()),
			},
		}, nil
	})
}
