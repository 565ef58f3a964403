package mcp

import (
	"ruleshub/internal/logging"
	"ruleshub/internal/repository"

	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Server wraps the mcp-go server with the rule tools registered.
type Server struct {
	repo      *repository.Repository
	logger    *logging.AppLogger
	mcpServer *server.MCPServer
}

// NewServer is the composition root: it creates the MCP server and wires
// every tool against the given repository. The repository must already be
// bootstrapped; handlers only read from it.
func NewServer(repo *repository.Repository, logger *logging.AppLogger) *Server {
	s := server.NewMCPServer(
		"ruleshub",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	metadataTool := NewMetadataTool(repo, logger)
	s.AddTool(metadataTool.Definition(), metadataTool.Handle)

	contentTool := NewContentTool(repo, logger)
	s.AddTool(contentTool.Definition(), contentTool.Handle)

	contextsTool := NewContextsTool(repo, logger)
	s.AddTool(contextsTool.Definition(), contextsTool.Handle)

	coreTool := NewCoreContentTool(repo, logger)
	s.AddTool(coreTool.Definition(), coreTool.Handle)

	return &Server{
		repo:      repo,
		logger:    logger,
		mcpServer: s,
	}
}

// Serve runs the server over stdio until EOF or termination.
func (s *Server) Serve() error {
	s.logger.Info("Starting MCP server on stdio", "rules", s.repo.Len())
	return server.ServeStdio(s.mcpServer)
}

// MCPServer exposes the underlying server, mainly for tests.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func serverInstructions() string {
	return `ruleshub serves agent rules: units of guidance with metadata and a text body.

Start every session by calling get_core_rules_content and applying all returned
rules; core rules always apply and never appear in the general index. Then use
get_rules_metadata to discover other rules relevant to your task, passing a
contextFilter (usually the project name, see get_contexts) to include
context-specific rules alongside the general ones. Fetch a rule's full text
with get_rule_content only when its metadata looks relevant; metadata listings
are cheap, content is loaded on demand.`
}
