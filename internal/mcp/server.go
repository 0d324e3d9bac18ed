// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the board as tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/internal/observability"
	"github.com/valter-silva-au/known-board/pkg/models"
)

// Server wraps the board engine and exposes it as MCP tools. A server is one
// long-lived session, so it keeps the most recent undo closure offered by
// the engine until it is used or replaced.
type Server struct {
	server   *gomcp.Server
	board    core.BoardManager
	ids      core.IDGenerator
	activity observability.ActivityCalculator
	now      func() time.Time

	mu       sync.Mutex
	undoMsg  string
	undoFunc core.UndoFunc
}

// NewServer creates an MCP server for board. ids may be nil to use random
// UUIDs; activity may be nil when the event log is disabled.
func NewServer(board core.BoardManager, ids core.IDGenerator, activity observability.ActivityCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if ids == nil {
		ids = core.NewIDGenerator()
	}

	s := &Server{
		board:    board,
		ids:      ids,
		activity: activity,
		now:      func() time.Time { return time.Now().UTC() },
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "kb", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type nodeIDInput struct {
	ID string `json:"id" jsonschema:"required,the node id"`
}

type episodeOutput struct {
	ID        string `json:"id"`
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Deadline  string `json:"deadline,omitempty"`
	VideoURL  string `json:"video_url,omitempty"`
}

type nodeOutput struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	ParentID    string          `json:"parent_id,omitempty"`
	Depth       int             `json:"depth"`
	Path        []string        `json:"path,omitempty"`
	Completed   bool            `json:"completed,omitempty"`
	Deadline    string          `json:"deadline,omitempty"`
	VideoURL    string          `json:"video_url,omitempty"`
	Episodes    []episodeOutput `json:"episodes,omitempty"`
	Hidden      bool            `json:"hidden,omitempty"`
	ChildIDs    []string        `json:"child_ids,omitempty"`
}

type listNodesInput struct {
	View          string `json:"view,omitempty" jsonschema:"which tasks to include: pending (default), completed, all or archived"`
	IncludeHidden bool   `json:"include_hidden,omitempty" jsonschema:"include archived task sets and everything inside them"`
}

type listNodesOutput struct {
	Nodes []nodeOutput    `json:"nodes"`
	Count int             `json:"count"`
	Stats core.BoardStats `json:"stats"`
	View  models.ViewName `json:"view"`
}

type addTaskInput struct {
	Title       string `json:"title" jsonschema:"required,the task title"`
	Description string `json:"description,omitempty" jsonschema:"optional description"`
	Deadline    string `json:"deadline,omitempty" jsonschema:"optional deadline, e.g. 2025-06-30"`
	VideoURL    string `json:"video_url,omitempty" jsonschema:"optional video link"`
	ParentID    string `json:"parent_id,omitempty" jsonschema:"task set to add into; omit for the top level"`
}

type addTaskSetInput struct {
	Title       string `json:"title" jsonschema:"required,the task set title"`
	Description string `json:"description,omitempty" jsonschema:"optional description"`
	ParentID    string `json:"parent_id,omitempty" jsonschema:"task set to add into; omit for the top level"`
}

type moveNodeInput struct {
	ID       string `json:"id" jsonschema:"required,the node to move"`
	ParentID string `json:"parent_id,omitempty" jsonschema:"destination task set; omit for the top level"`
	Index    *int   `json:"index,omitempty" jsonschema:"position among the destination's children; omit to append"`
}

type searchNodesInput struct {
	Query string `json:"query" jsonschema:"required,fuzzy text matched against node titles"`
}

type searchNodesOutput struct {
	Results []nodeOutput `json:"results"`
	Count   int          `json:"count"`
}

type getActivityInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window (e.g. 7d, 24h, 2w). Defaults to 7d."`
}

type activityOutput struct {
	EventCount     int            `json:"event_count"`
	Warnings       int            `json:"warnings"`
	NodesAdded     int            `json:"nodes_added"`
	NodesDeleted   int            `json:"nodes_deleted"`
	TasksCompleted int            `json:"tasks_completed"`
	TasksReopened  int            `json:"tasks_reopened"`
	Imports        int            `json:"imports"`
	ByType         map[string]int `json:"by_type"`
	OldestEvent    string         `json:"oldest_event,omitempty"`
	NewestEvent    string         `json:"newest_event,omitempty"`
}

type messageOutput struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type undoInput struct{}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_nodes",
		Description: "List board nodes for a view (pending, completed, all, archived) as a flat pre-order list with depth and parent ids, plus board statistics.",
	}, s.handleListNodes)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_node",
		Description: "Get one node by id, including its episodes (tasks) or child ids (task sets) and its ancestor path.",
	}, s.handleGetNode)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Add a task at the top level or inside a task set.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task_set",
		Description: "Add a task set (folder) at the top level or inside another task set.",
	}, s.handleAddTaskSet)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_task",
		Description: "Flip a task between pending and completed. Can be reverted with undo.",
	}, s.handleToggleTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_hidden",
		Description: "Archive or restore a task set. Everything inside an archived set is hidden. Can be reverted with undo.",
	}, s.handleToggleHidden)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "move_node",
		Description: "Move a node under another task set or to the top level, optionally at a given index. A set cannot be moved into itself or its descendants.",
	}, s.handleMoveNode)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_node",
		Description: "Delete a node and everything inside it.",
	}, s.handleDeleteNode)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "search_nodes",
		Description: "Fuzzy search node titles at any depth, best match first.",
	}, s.handleSearchNodes)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_activity",
		Description: "Summarise board activity from the event log: nodes added and deleted, tasks completed, imports and warnings.",
	}, s.handleGetActivity)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "undo",
		Description: "Revert the most recent toggle_task or toggle_hidden. Each change can be undone once.",
	}, s.handleUndo)
}

// --- Tool handlers ---

func (s *Server) handleListNodes(_ context.Context, _ *gomcp.CallToolRequest, input listNodesInput) (*gomcp.CallToolResult, listNodesOutput, error) {
	view, err := core.ParseView(input.View)
	if err != nil {
		return errorResult(err.Error()), listNodesOutput{}, nil
	}

	state := s.board.State()
	visible := core.ApplyView(state.Children, view, input.IncludeHidden)

	out := listNodesOutput{
		Nodes: []nodeOutput{},
		Stats: core.Stats(state.Children),
		View:  view,
	}
	core.Walk(visible, func(n models.Node, ancestors []*models.TaskSet) {
		out.Nodes = append(out.Nodes, nodeToOutput(n, ancestors))
	})
	out.Count = len(out.Nodes)

	return nil, out, nil
}

func (s *Server) handleGetNode(_ context.Context, _ *gomcp.CallToolRequest, input nodeIDInput) (*gomcp.CallToolResult, nodeOutput, error) {
	if input.ID == "" {
		return errorResult("id is required"), nodeOutput{}, nil
	}

	out, ok := s.lookup(input.ID)
	if !ok {
		return errorResult(fmt.Sprintf("node %s not found", input.ID)), nodeOutput{}, nil
	}
	return nil, out, nil
}

func (s *Server) handleAddTask(_ context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.Title == "" {
		return errorResult("title is required"), messageOutput{}, nil
	}
	node := core.NewTaskNode(s.ids.NewID(), input.Title, input.Description, input.Deadline, input.VideoURL)
	return s.addNode(input.ParentID, node)
}

func (s *Server) handleAddTaskSet(_ context.Context, _ *gomcp.CallToolRequest, input addTaskSetInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.Title == "" {
		return errorResult("title is required"), messageOutput{}, nil
	}
	node := core.NewTaskSetNode(s.ids.NewID(), input.Title, input.Description)
	return s.addNode(input.ParentID, node)
}

func (s *Server) addNode(parentID string, node models.Node) (*gomcp.CallToolResult, messageOutput, error) {
	if parentID == "" {
		if err := s.board.AddRootNode(node); err != nil {
			return errorResult(fmt.Sprintf("adding %s: %s", node.NodeType(), err)), messageOutput{}, nil
		}
		return nil, messageOutput{Message: fmt.Sprintf("added %s %q", node.NodeType(), node.NodeTitle()), ID: node.NodeID()}, nil
	}

	if msg := s.requireTaskSet(parentID); msg != "" {
		return errorResult(msg), messageOutput{}, nil
	}
	if err := s.board.AddChildNode(parentID, node); err != nil {
		return errorResult(fmt.Sprintf("adding %s under %s: %s", node.NodeType(), parentID, err)), messageOutput{}, nil
	}
	return nil, messageOutput{
		Message: fmt.Sprintf("added %s %q under %s", node.NodeType(), node.NodeTitle(), parentID),
		ID:      node.NodeID(),
	}, nil
}

func (s *Server) handleToggleTask(_ context.Context, _ *gomcp.CallToolRequest, input nodeIDInput) (*gomcp.CallToolResult, messageOutput, error) {
	n := s.board.Node(input.ID)
	if n == nil {
		return errorResult(fmt.Sprintf("node %s not found", input.ID)), messageOutput{}, nil
	}
	if _, ok := models.AsTask(n); !ok {
		return errorResult(fmt.Sprintf("%s is a task set; use toggle_hidden", input.ID)), messageOutput{}, nil
	}

	var msg string
	if err := s.board.ToggleTaskCompletion(input.ID, s.captureUndo(&msg)); err != nil {
		return errorResult(fmt.Sprintf("toggling task %s: %s", input.ID, err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: msg, ID: input.ID}, nil
}

func (s *Server) handleToggleHidden(_ context.Context, _ *gomcp.CallToolRequest, input nodeIDInput) (*gomcp.CallToolResult, messageOutput, error) {
	if msg := s.requireTaskSet(input.ID); msg != "" {
		return errorResult(msg), messageOutput{}, nil
	}

	var msg string
	if err := s.board.ToggleTaskSetHidden(input.ID, s.captureUndo(&msg)); err != nil {
		return errorResult(fmt.Sprintf("toggling task set %s: %s", input.ID, err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: msg, ID: input.ID}, nil
}

func (s *Server) handleMoveNode(_ context.Context, _ *gomcp.CallToolRequest, input moveNodeInput) (*gomcp.CallToolResult, messageOutput, error) {
	node := s.board.Node(input.ID)
	if node == nil {
		return errorResult(fmt.Sprintf("node %s not found", input.ID)), messageOutput{}, nil
	}
	if input.ParentID != "" {
		if msg := s.requireTaskSet(input.ParentID); msg != "" {
			return errorResult(msg), messageOutput{}, nil
		}
		if core.IsDescendant(node, input.ParentID) {
			return errorResult(fmt.Sprintf("cannot move %s into itself or one of its descendants", input.ID)), messageOutput{}, nil
		}
	}
	if input.Index != nil && *input.Index < 0 {
		return errorResult("index must not be negative"), messageOutput{}, nil
	}

	if err := s.board.MoveNode(input.ID, core.MovePosition{ParentID: input.ParentID, Index: input.Index}); err != nil {
		return errorResult(fmt.Sprintf("moving node %s: %s", input.ID, err)), messageOutput{}, nil
	}

	dest := "the top level"
	if input.ParentID != "" {
		dest = input.ParentID
	}
	return nil, messageOutput{Message: fmt.Sprintf("moved %q to %s", node.NodeTitle(), dest), ID: input.ID}, nil
}

func (s *Server) handleDeleteNode(_ context.Context, _ *gomcp.CallToolRequest, input nodeIDInput) (*gomcp.CallToolResult, messageOutput, error) {
	node := s.board.Node(input.ID)
	if node == nil {
		return errorResult(fmt.Sprintf("node %s not found", input.ID)), messageOutput{}, nil
	}
	removed := core.CountNodes([]models.Node{node})
	if err := s.board.DeleteNode(input.ID); err != nil {
		return errorResult(fmt.Sprintf("deleting node %s: %s", input.ID, err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: fmt.Sprintf("deleted %q (%d nodes)", node.NodeTitle(), removed), ID: input.ID}, nil
}

func (s *Server) handleSearchNodes(_ context.Context, _ *gomcp.CallToolRequest, input searchNodesInput) (*gomcp.CallToolResult, searchNodesOutput, error) {
	if input.Query == "" {
		return errorResult("query is required"), searchNodesOutput{}, nil
	}

	roots := s.board.State().Children
	results := core.SearchNodes(roots, input.Query)
	out := searchNodesOutput{Results: make([]nodeOutput, 0, len(results))}
	for _, r := range results {
		o := nodeToOutput(r.Node, nil)
		o.Path = r.Path
		o.Depth = len(r.Path)
		if parent := core.FindParent(roots, r.Node.NodeID()); parent != nil {
			o.ParentID = parent.ID
		}
		out.Results = append(out.Results, o)
	}
	out.Count = len(out.Results)
	return nil, out, nil
}

func (s *Server) handleGetActivity(_ context.Context, _ *gomcp.CallToolRequest, input getActivityInput) (*gomcp.CallToolResult, activityOutput, error) {
	if s.activity == nil {
		return errorResult("activity not available (event log may be disabled)"), emptyActivityOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}
	since, err := observability.ParseSince(sinceStr, s.now())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyActivityOutput(), nil
	}

	a, err := s.activity.Calculate(since)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating activity: %s", err)), emptyActivityOutput(), nil
	}

	out := activityOutput{
		EventCount:     a.EventCount,
		Warnings:       a.Warnings,
		NodesAdded:     a.NodesAdded,
		NodesDeleted:   a.NodesDeleted,
		TasksCompleted: a.TasksCompleted,
		TasksReopened:  a.TasksReopened,
		Imports:        a.Imports,
		ByType:         a.ByType,
	}
	if a.OldestEvent != nil {
		out.OldestEvent = a.OldestEvent.Format(time.RFC3339)
	}
	if a.NewestEvent != nil {
		out.NewestEvent = a.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleUndo(_ context.Context, _ *gomcp.CallToolRequest, _ undoInput) (*gomcp.CallToolResult, messageOutput, error) {
	s.mu.Lock()
	undo, msg := s.undoFunc, s.undoMsg
	s.undoFunc, s.undoMsg = nil, ""
	s.mu.Unlock()

	if undo == nil {
		return errorResult("nothing to undo"), messageOutput{}, nil
	}
	if err := undo(); err != nil {
		return errorResult(fmt.Sprintf("undoing %s: %s", msg, err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: "undid: " + msg}, nil
}

// --- Helpers ---

// captureUndo returns an UndoCapture that stores the closure as the
// session's pending undo and copies the message into msg.
func (s *Server) captureUndo(msg *string) core.UndoCapture {
	return func(message string, undo core.UndoFunc) {
		*msg = message
		s.mu.Lock()
		s.undoMsg, s.undoFunc = message, undo
		s.mu.Unlock()
	}
}

// requireTaskSet returns an error message unless id names a task set.
func (s *Server) requireTaskSet(id string) string {
	n := s.board.Node(id)
	if n == nil {
		return fmt.Sprintf("task set %s not found", id)
	}
	if !models.IsTaskSet(n) {
		return fmt.Sprintf("%s is a task, not a task set", id)
	}
	return ""
}

func (s *Server) lookup(id string) (nodeOutput, bool) {
	var (
		out   nodeOutput
		found bool
	)
	core.Walk(s.board.State().Children, func(n models.Node, ancestors []*models.TaskSet) {
		if found || n.NodeID() != id {
			return
		}
		out = nodeToOutput(n, ancestors)
		found = true
	})
	return out, found
}

func nodeToOutput(n models.Node, ancestors []*models.TaskSet) nodeOutput {
	out := nodeOutput{
		ID:          n.NodeID(),
		Type:        string(n.NodeType()),
		Title:       n.NodeTitle(),
		Description: models.Base(n).Description,
		Depth:       len(ancestors),
	}
	if len(ancestors) > 0 {
		out.ParentID = ancestors[len(ancestors)-1].ID
		out.Path = make([]string, len(ancestors))
		for i, a := range ancestors {
			out.Path[i] = a.Title
		}
	}

	switch v := n.(type) {
	case *models.Task:
		out.Completed = v.Completed
		out.Deadline = v.Deadline
		out.VideoURL = v.VideoURL
		for _, ep := range v.Episodes {
			out.Episodes = append(out.Episodes, episodeOutput{
				ID:        ep.ID,
				Number:    ep.Number,
				Title:     ep.DisplayTitle(),
				Completed: ep.Completed,
				Deadline:  ep.Deadline,
				VideoURL:  ep.VideoURL,
			})
		}
	case *models.TaskSet:
		out.Hidden = v.Hidden
		for _, c := range v.Children {
			out.ChildIDs = append(out.ChildIDs, c.NodeID())
		}
	}
	return out
}

func emptyActivityOutput() activityOutput {
	return activityOutput{ByType: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
