package a2a

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"

	"github.com/effective-security/weather-agent/agent"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/weather-agent", "a2a")

// Streamer produces the event stream for one user query. The agent
// implements it.
type Streamer interface {
	Stream(ctx context.Context, query, contextID string) iter.Seq[agent.Event]
}

// Server exposes the agent over the A2A JSON-RPC surface: the agent
// card, message/send, message/stream with SSE, task retrieval and push
// notification configuration.
type Server struct {
	card   AgentCard
	agent  Streamer
	tasks  *TaskStore
	push   *PushConfigStore
	sender *PushSender
}

func NewServer(card AgentCard, streamer Streamer) *Server {
	push := NewPushConfigStore()
	return &Server{
		card:   card,
		agent:  streamer,
		tasks:  NewTaskStore(),
		push:   push,
		sender: NewPushSender(push),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/agent.json", s.handleAgentCard)
	mux.HandleFunc("POST /", s.handleRPC)
	return mux
}

func (s *Server) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.card)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, codeParseError, "failed to parse request")
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeError(w, req.ID, codeInvalidRequest, "invalid request")
		return
	}

	logger.ContextKV(r.Context(), xlog.DEBUG, "method", req.Method)

	switch req.Method {
	case "message/send":
		s.handleSend(w, r, &req)
	case "message/stream":
		s.handleStream(w, r, &req)
	case "tasks/get":
		s.handleTaskGet(w, &req)
	case "tasks/pushNotificationConfig/set":
		s.handlePushSet(w, &req)
	case "tasks/pushNotificationConfig/get":
		s.handlePushGet(w, &req)
	default:
		writeError(w, req.ID, codeMethodNotFound, "method not found")
	}
}

// startTask validates the send params and records the task in submitted
// state.
func (s *Server) startTask(req *rpcRequest) (*Task, string, *rpcError) {
	var params MessageSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, "", &rpcError{Code: codeInvalidParams, Message: "invalid params"}
	}

	query := params.Message.Text()
	if query == "" {
		return nil, "", &rpcError{Code: codeInvalidParams, Message: "message has no text parts"}
	}

	taskID := values.StringsCoalesce(params.Message.TaskID, uuid.NewString())
	contextID := values.StringsCoalesce(params.Message.ContextID, uuid.NewString())

	userMsg := params.Message
	userMsg.TaskID = taskID
	userMsg.ContextID = contextID

	task := &Task{
		Kind:      "task",
		ID:        taskID,
		ContextID: contextID,
		Status:    NewTaskStatus(TaskStateSubmitted, nil),
		History:   []Message{userMsg},
	}
	s.tasks.Save(task)

	if params.Configuration != nil && params.Configuration.PushNotificationConfig != nil {
		s.push.Set(taskID, *params.Configuration.PushNotificationConfig)
	}

	return task, query, nil
}

func eventState(ev agent.Event) TaskState {
	switch {
	case ev.TaskComplete:
		return TaskStateCompleted
	case ev.RequireUserInput:
		return TaskStateInputRequired
	default:
		return TaskStateWorking
	}
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request, req *rpcRequest) {
	task, query, rpcErr := s.startTask(req)
	if rpcErr != nil {
		writeError(w, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}

	task.Status = NewTaskStatus(TaskStateWorking, nil)
	s.tasks.Save(task)

	final := agent.Event{RequireUserInput: true, Content: agent.FallbackMessage}
	for ev := range s.agent.Stream(r.Context(), query, task.ContextID) {
		if ev.Terminal() {
			final = ev
		}
	}

	msg := NewAgentMessage(final.Content, task.ID, task.ContextID)
	task.Status = NewTaskStatus(eventState(final), msg)
	task.History = append(task.History, *msg)
	s.tasks.Save(task)
	s.sender.Notify(r.Context(), task)

	writeResult(w, req.ID, task)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, req *rpcRequest) {
	task, query, rpcErr := s.startTask(req)
	if rpcErr != nil {
		writeError(w, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, req.ID, codeInternalError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(result any) bool {
		data, err := json.Marshal(rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  result,
		})
		if err != nil {
			return false
		}
		if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	// The first frame is the task snapshot in submitted state, followed by
	// one status update per progress event.
	if !send(task) {
		return
	}

	for ev := range s.agent.Stream(r.Context(), query, task.ContextID) {
		msg := NewAgentMessage(ev.Content, task.ID, task.ContextID)
		task.Status = NewTaskStatus(eventState(ev), msg)
		if ev.Terminal() {
			task.History = append(task.History, *msg)
		}
		s.tasks.Save(task)

		update := &TaskStatusUpdateEvent{
			Kind:      "status-update",
			TaskID:    task.ID,
			ContextID: task.ContextID,
			Status:    task.Status,
			Final:     ev.Terminal(),
		}
		if !send(update) {
			return
		}
		if ev.Terminal() {
			s.sender.Notify(r.Context(), task)
			return
		}
	}
}

func (s *Server) handleTaskGet(w http.ResponseWriter, req *rpcRequest) {
	var params TaskQueryParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params")
		return
	}

	task, ok := s.tasks.Get(params.ID)
	if !ok {
		writeError(w, req.ID, codeTaskNotFound, "task not found")
		return
	}
	writeResult(w, req.ID, task)
}

func (s *Server) handlePushSet(w http.ResponseWriter, req *rpcRequest) {
	var params TaskPushNotificationConfig
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params")
		return
	}
	if _, ok := s.tasks.Get(params.TaskID); !ok {
		writeError(w, req.ID, codeTaskNotFound, "task not found")
		return
	}

	s.push.Set(params.TaskID, params.PushNotificationConfig)
	writeResult(w, req.ID, &params)
}

func (s *Server) handlePushGet(w http.ResponseWriter, req *rpcRequest) {
	var params TaskQueryParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params")
		return
	}

	cfg, ok := s.push.Get(params.ID)
	if !ok {
		writeError(w, req.ID, codeTaskNotFound, "task not found")
		return
	}
	writeResult(w, req.ID, &TaskPushNotificationConfig{
		TaskID:                 params.ID,
		PushNotificationConfig: cfg,
	})
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func writeError(w http.ResponseWriter, id json.RawMessage, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &rpcError{
			Code:    code,
			Message: msg,
		},
	})
}
