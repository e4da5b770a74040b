package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/spellout"
	"github.com/aretw0/spellout/internal/logging"
	"github.com/aretw0/spellout/internal/presentation/graph"
	"github.com/aretw0/spellout/internal/presentation/tui"
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/setupfile"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionsURI is the resource listing stored sessions.
const SessionsURI = "spellout://sessions"

// Sessions is the session surface exposed as tools. *session.Manager
// implements it.
type Sessions interface {
	Create(ctx context.Context, setup *lexicon.Setup) (*domain.Progress, error)
	Load(ctx context.Context, sessionID string) (*spellout.Engine, error)
	Forward(ctx context.Context, sessionID string, alternative int) (*domain.Progress, error)
	Back(ctx context.Context, sessionID string) (*domain.Progress, error)
	Run(ctx context.Context, sessionID string, onlySuccessful bool) (*domain.Progress, error)
	List(ctx context.Context) ([]string, error)
}

// StartArgs are the arguments of start_derivation.
type StartArgs struct {
	Setup  string `json:"setup"`
	Format string `json:"format,omitempty"`
}

// SessionArgs identify a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// ForwardArgs are the arguments of go_forward.
type ForwardArgs struct {
	SessionID   string `json:"session_id"`
	Alternative *int   `json:"alternative,omitempty"`
}

// RunArgs are the arguments of run_to_end.
type RunArgs struct {
	SessionID      string `json:"session_id"`
	OnlySuccessful bool   `json:"only_successful,omitempty"`
}

// ProgressResponse is the structured result of every stepping tool.
type ProgressResponse struct {
	SessionID    string               `json:"session_id" jsonschema_description:"The session the derivation is stored under"`
	State        domain.State         `json:"state" jsonschema_description:"The current state of the derivation"`
	Round        int                  `json:"external_merge_round" jsonschema_description:"The external merge round (1-based)"`
	Alternatives []domain.Alternative `json:"alternatives,omitempty" jsonschema_description:"Choices the next step accepts"`
	Spellout     []string             `json:"spellout,omitempty" jsonschema_description:"Entry names in spell-out order, once successful"`
	Terminal     bool                 `json:"terminal" jsonschema_description:"Indicates if the derivation has ended"`
	LastMessage  string               `json:"last_message,omitempty" jsonschema_description:"The newest log message"`
}

func newProgressResponse(p *domain.Progress) ProgressResponse {
	r := ProgressResponse{
		SessionID:    p.SessionID,
		State:        p.State,
		Round:        p.Round,
		Alternatives: p.Alternatives,
		Spellout:     p.Spellout,
		Terminal:     p.State.Terminal(),
	}
	if n := len(p.Log); n > 0 {
		r.LastMessage = p.Log[n-1].Text
	}
	return r
}

// Server exposes derivation sessions as an MCP server.
type Server struct {
	sessions  Sessions
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions Sessions, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("spellout-mcp", strings.TrimSpace(spellout.Version),
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithRecovery(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. to drive it in-process.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it
// when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: start_derivation
	startTool := mcp.NewTool("start_derivation",
		mcp.WithDescription("Start a derivation from a setup document (initial node, external merges, lexicon) and store it as a new session."),
		mcp.WithString("setup", mcp.Required(), mcp.Description("The setup document, YAML or JSON")),
		mcp.WithString("format", mcp.Description("Document format: yaml (default) or json"), mcp.Enum("yaml", "json")),
		mcp.WithOutputSchema[ProgressResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	// TOOL: go_forward
	forwardTool := mcp.NewTool("go_forward",
		mcp.WithDescription("Advance the derivation by one step. At a choice point, alternative selects the lexical match."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session ID")),
		mcp.WithNumber("alternative", mcp.Description("Index of the alternative to take (optional, default path otherwise)")),
		mcp.WithOutputSchema[ProgressResponse](),
	)
	s.mcpServer.AddTool(forwardTool, mcp.NewStructuredToolHandler(s.handleForward))

	// TOOL: go_back
	backTool := mcp.NewTool("go_back",
		mcp.WithDescription("Undo the latest step of the derivation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session ID")),
		mcp.WithOutputSchema[ProgressResponse](),
	)
	s.mcpServer.AddTool(backTool, mcp.NewStructuredToolHandler(s.handleBack))

	// TOOL: run_to_end
	runTool := mcp.NewTool("run_to_end",
		mcp.WithDescription("Run the derivation to a terminal state. With only_successful, backtrack through the choices until one succeeds."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session ID")),
		mcp.WithBoolean("only_successful", mcp.Description("Search for a successful derivation")),
		mcp.WithOutputSchema[ProgressResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRun))

	// TOOL: describe_session
	s.mcpServer.AddTool(mcp.NewTool("describe_session",
		mcp.WithDescription("Describe a session in Markdown: state, tree, spell-out, log and a Mermaid graph."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session ID")),
	), s.handleDescribe)
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args StartArgs) (ProgressResponse, error) {
	format := setupfile.FormatYAML
	if strings.EqualFold(args.Format, "json") {
		format = setupfile.FormatJSON
	}
	doc, err := setupfile.Parse([]byte(args.Setup), format)
	if err != nil {
		return ProgressResponse{}, err
	}
	if doc.LexiconVault != "" {
		return ProgressResponse{}, fmt.Errorf("lexicon_vault is not supported over MCP")
	}
	setup, err := doc.Setup()
	if err != nil {
		return ProgressResponse{}, err
	}
	p, err := s.sessions.Create(ctx, setup)
	if err != nil {
		s.logger.Warn("MCP start_derivation rejected", "err", err)
		return ProgressResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return newProgressResponse(p), nil
}

func (s *Server) handleForward(ctx context.Context, request mcp.CallToolRequest, args ForwardArgs) (ProgressResponse, error) {
	alternative := domain.DefaultAlternative
	if args.Alternative != nil {
		alternative = *args.Alternative
	}
	p, err := s.sessions.Forward(ctx, args.SessionID, alternative)
	if err != nil {
		return ProgressResponse{}, fmt.Errorf("go_forward failed: %w", err)
	}
	return newProgressResponse(p), nil
}

func (s *Server) handleBack(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (ProgressResponse, error) {
	p, err := s.sessions.Back(ctx, args.SessionID)
	if err != nil {
		return ProgressResponse{}, fmt.Errorf("go_back failed: %w", err)
	}
	return newProgressResponse(p), nil
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args RunArgs) (ProgressResponse, error) {
	p, err := s.sessions.Run(ctx, args.SessionID, args.OnlySuccessful)
	if err != nil {
		return ProgressResponse{}, fmt.Errorf("run_to_end failed: %w", err)
	}
	return newProgressResponse(p), nil
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	eng, err := s.sessions.Load(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("describe failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(tui.Report(eng, true))
	sb.WriteString("\n```mermaid\n")
	sb.WriteString(graph.GenerateMermaid(eng.Tree(), graph.OverlayOf(eng)))
	sb.WriteString("```\n")
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) registerResources() {
	// EXPOSE: spellout://sessions
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Stored Derivation Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
