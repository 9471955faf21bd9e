// Package mcp exposes the generation workflow as MCP tools, so agents
// can drive sessions over stdio: start a session, submit a brief, pick
// results, expand and save them.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/adcraft-ai/adcraft/pkg/studio"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
	"github.com/adcraft-ai/adcraft/pkg/studio/workflow"
)

// settleTimeout bounds how long a handler blocks on an in-flight
// generation before returning the still-generating snapshot.
const settleTimeout = 2 * time.Minute

// session pairs a controller with its change signal. The signal carries
// at most one pending tick; waiters re-check the snapshot after every
// receive.
type session struct {
	ctrl   *workflow.Controller
	change chan struct{}
}

func (sess *session) notify(workflow.Session) {
	select {
	case sess.change <- struct{}{}:
	default:
	}
}

// settle blocks until no call is in flight, bounded by ctx and
// settleTimeout, and returns the snapshot it observed. A concurrent
// waiter can consume the change signal; the ticker re-checks.
func (sess *session) settle(ctx context.Context) workflow.Session {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()

	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		snap := sess.ctrl.Snapshot()
		if !snap.Status.Generating() {
			return snap
		}
		select {
		case <-ctx.Done():
			return sess.ctrl.Snapshot()
		case <-sess.change:
		case <-tick.C:
		}
	}
}

// Server wraps a studio and exposes its sessions as MCP tools.
type Server struct {
	studio *studio.Studio
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer creates the MCP server wrapper around the studio.
func NewServer(st *studio.Studio) *Server {
	return &Server{
		studio:   st,
		logger:   st.Logger(),
		sessions: make(map[string]*session),
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("adcraft-studio", "0.1.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listToolsTool())
	srv.AddTool(s.startSessionTool())
	srv.AddTool(s.submitBriefTool())
	srv.AddTool(s.sessionStatusTool())
	srv.AddTool(s.toggleSelectionTool())
	srv.AddTool(s.expandSelectedTool())
	srv.AddTool(s.saveSelectedTool())
	srv.AddTool(s.resetSessionTool())
	srv.AddTool(s.creditBalanceTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// Close waits for every tracked session's in-flight call to settle.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.ctrl.Close()
	}
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// studio_list_tools
func (s *Server) listToolsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("studio_list_tools",
		mcp.WithDescription("List the generation tools. Returns a JSON array with each tool's kind, title, summary, and required/optional brief parameters. Pass the kind to studio_start_session."),
	)
	return tool, s.handleListTools
}

func (s *Server) handleListTools(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(tools.Descriptors())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal tools: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// studio_start_session
func (s *Server) startSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("studio_start_session",
		mcp.WithDescription("Start a generation session for a tool. Resumes from the tool's saved draft when one exists, unless fresh is true. Returns the session snapshot as JSON; use its id with the other studio tools."),
		mcp.WithString("tool", mcp.Required(), mcp.Description("Tool kind: ad_creative, script_hook, or style_clone")),
		mcp.WithBoolean("fresh", mcp.Description("Start clean instead of resuming the saved draft")),
	)
	return tool, s.handleStartSession
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toolName, err := request.RequireString("tool")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: tool"), nil
	}
	kind, err := tools.ParseKind(toolName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown tool kind: %s", toolName)), nil
	}

	sess := &session{change: make(chan struct{}, 1)}
	hook := workflow.WithOnChange(sess.notify)

	var ctrl *workflow.Controller
	if request.GetBool("fresh", false) {
		ctrl, err = s.studio.NewSession(kind, hook)
	} else {
		ctrl, err = s.studio.ResumeSession(ctx, kind, hook)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start session: %v", err)), nil
	}
	sess.ctrl = ctrl

	s.mu.Lock()
	s.sessions[ctrl.ID()] = sess
	s.mu.Unlock()

	snap := ctrl.Snapshot()
	s.logger.Debug("mcp session started",
		"session_id", snap.ID, "tool", snap.ToolKind, "status", snap.Status)
	return statusResult(snap)
}

// studio_submit_brief
func (s *Server) submitBriefTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("studio_submit_brief",
		mcp.WithDescription("Set the session's brief and generate candidate directions. The params object must match the tool's schema from studio_list_tools. Blocks until generation settles, then returns the session snapshot; select from primaryResults with studio_toggle_selection."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from studio_start_session")),
		mcp.WithString("params", mcp.Required(), mcp.Description(`Brief as a JSON object, e.g. {"category":"fitness apps","tone":"bold"}`)),
	)
	return tool, s.handleSubmitBrief
}

func (s *Server) handleSubmitBrief(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}
	rawParams, err := request.RequireString("params")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: params"), nil
	}

	params, err := tools.UnmarshalParams(sess.ctrl.ToolKind(), []byte(rawParams))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid params: %v", err)), nil
	}
	if err := sess.ctrl.UpdateParams(params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set brief: %v", err)), nil
	}
	if err := sess.ctrl.SubmitPrimary(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start generation: %v", err)), nil
	}
	return statusResult(sess.settle(ctx))
}

// studio_session_status
func (s *Server) sessionStatusTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("studio_session_status",
		mcp.WithDescription("Get the session snapshot as JSON: status, brief, results, selections, saved ids, and last error. By default blocks until any in-flight generation settles; pass wait=false for an immediate peek."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from studio_start_session")),
		mcp.WithBoolean("wait", mcp.Description("Wait for in-flight generation to settle (default true)")),
	)
	return tool, s.handleSessionStatus
}

func (s *Server) handleSessionStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}
	if !request.GetBool("wait", true) {
		return statusResult(sess.ctrl.Snapshot())
	}
	return statusResult(sess.settle(ctx))
}

// studio_toggle_selection
func (s *Server) toggleSelectionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("studio_toggle_selection",
		mcp.WithDescription("Toggle the selection of one result in the session's current selection stage. Index is zero-based into primaryResults or secondaryResults, whichever the session is selecting. Returns the session snapshot."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from studio_start_session")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based result index to toggle")),
	)
	return tool, s.handleToggleSelection
}

func (s *Server) handleToggleSelection(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}
	index, err := request.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: index"), nil
	}
	if err := sess.ctrl.ToggleSelection(index); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to toggle selection: %v", err)), nil
	}
	return statusResult(sess.ctrl.Snapshot())
}

// studio_expand_selected
func (s *Server) expandSelectedTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("studio_expand_selected",
		mcp.WithDescription("Expand the selected primary results into full assets. Requires at least one primary selection. Blocks until generation settles, then returns the session snapshot; select from secondaryResults before saving."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from studio_start_session")),
	)
	return tool, s.handleExpandSelected
}

func (s *Server) handleExpandSelected(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}
	if err := sess.ctrl.SubmitSecondary(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start expansion: %v", err)), nil
	}
	return statusResult(sess.settle(ctx))
}

// studio_save_selected
func (s *Server) saveSelectedTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("studio_save_selected",
		mcp.WithDescription("Save the selected assets to the library. Requires at least one secondary selection. Blocks until the save settles, then returns the session snapshot; on success the status is completed and savedIds lists the stored assets."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from studio_start_session")),
	)
	return tool, s.handleSaveSelected
}

func (s *Server) handleSaveSelected(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}
	if err := sess.ctrl.PersistSelected(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start save: %v", err)), nil
	}
	return statusResult(sess.settle(ctx))
}

// studio_reset_session
func (s *Server) resetSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("studio_reset_session",
		mcp.WithDescription("Reset the session to configuring from any state, keeping the brief. Clears results, selections and the saved draft; any in-flight generation is discarded. Returns the session snapshot."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from studio_start_session")),
	)
	return tool, s.handleResetSession
}

func (s *Server) handleResetSession(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.session(request)
	if errResult != nil {
		return errResult, nil
	}
	if err := sess.ctrl.Reset(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reset session: %v", err)), nil
	}
	return statusResult(sess.ctrl.Snapshot())
}

// studio_credit_balance
func (s *Server) creditBalanceTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("studio_credit_balance",
		mcp.WithDescription("Get the account's credit balance from the backend. Returns JSON with balance, monthlyQuota, subscriptionStatus and renewalDate. Primary generation costs 5 credits, expansion costs 2 per selected result."),
	)
	return tool, s.handleCreditBalance
}

func (s *Server) handleCreditBalance(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	balance, err := s.studio.CreditBalance(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch balance: %v", err)), nil
	}
	data, err := json.Marshal(balance)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal balance: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// session resolves the request's session_id to a tracked session, or
// returns the tool error result to hand back.
func (s *Server) session(request mcp.CallToolRequest) (*session, *mcp.CallToolResult) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return nil, mcp.NewToolResultError("missing required parameter: session_id")
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, mcp.NewToolResultError(fmt.Sprintf("unknown session: %s (start one with studio_start_session)", id))
	}
	return sess, nil
}

func statusResult(snap workflow.Session) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal session: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
