package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/research-assistant/pipeline"
	"github.com/smallnest/research-assistant/session"
	"github.com/smallnest/research-assistant/store"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type chatResponse struct {
	SessionID string      `json:"session_id"`
	Events    []chatEvent `json:"events"`
}

// chatEvent is the wire shape of a pipeline event. Type is "content" for
// text fragments and "tool_call" for tool invocation notices.
type chatEvent struct {
	Type    string `json:"type"`
	Author  string `json:"author"`
	Content string `json:"content,omitempty"`
	IsFinal bool   `json:"is_final,omitempty"`
	Tool    string `json:"tool,omitempty"`
}

func toChatEvent(ev pipeline.Event) (chatEvent, bool) {
	switch e := ev.(type) {
	case pipeline.ContentEvent:
		return chatEvent{Type: "content", Author: e.Stage, Content: e.Text, IsFinal: e.Final}, true
	case pipeline.ToolCallEvent:
		return chatEvent{Type: "tool_call", Author: e.Stage, Tool: e.Tool}, true
	default:
		// Stage boundaries are not part of the wire protocol.
		return chatEvent{}, false
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.UserID == "" {
		req.UserID = defaultUserID
	}

	sess := s.sessions.GetOrCreate(req.UserID, req.SessionID)

	var events []chatEvent
	err := s.runChat(r.Context(), sess, req.Message, func(ev chatEvent) {
		events = append(events, ev)
	})
	if err != nil {
		s.logger.Error("chat run failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: sess.ID,
		Events:    events,
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	message := r.URL.Query().Get("message")
	if message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = defaultUserID
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sess := s.sessions.GetOrCreate(userID, r.URL.Query().Get("session_id"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Session-Id", sess.ID)

	err := s.runChat(r.Context(), sess, message, func(ev chatEvent) {
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	})
	if err != nil {
		s.logger.Error("chat stream failed: %v", err)
		data, _ := json.Marshal(map[string]string{"type": "error", "error": err.Error()})
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// runChat executes one pipeline run for the session, forwarding wire
// events to emit as they arrive. On success it appends the conversation
// to the session and records the run.
func (s *Server) runChat(ctx context.Context, sess *session.Session, message string, emit func(chatEvent)) error {
	history := historyMessages(s.sessions.History(sess))
	started := time.Now()

	stream := s.pipeline.Stream(ctx, message, pipeline.WithHistory(history))
	defer stream.Cancel()

	finals := make(map[string]string)
	for ev := range stream.Events {
		if ce, ok := toChatEvent(ev); ok {
			if ce.Type == "content" && ce.IsFinal {
				finals[ce.Author] = ce.Content
			}
			emit(ce)
		}
	}

	var state *pipeline.State
	select {
	case err := <-stream.Errors:
		return err
	case state = <-stream.Result:
	}

	s.sessions.AddMessage(sess, "user", "", message)
	for _, stage := range s.pipeline.Stages() {
		if content, ok := finals[stage.Name]; ok {
			s.sessions.AddMessage(sess, "assistant", stage.Name, content)
		}
	}

	run := &store.Run{
		ID:         uuid.New().String(),
		AppName:    sess.AppName,
		UserID:     sess.UserID,
		SessionID:  sess.ID,
		Input:      message,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	for _, stage := range s.pipeline.Stages() {
		if content, ok := state.Get(stage.OutputKey); ok {
			run.Outputs = append(run.Outputs, store.StageOutput{
				Stage:     stage.Name,
				OutputKey: stage.OutputKey,
				Content:   content,
			})
		}
	}
	if err := s.runs.Save(ctx, run); err != nil {
		// The response already streamed; losing the record is not fatal.
		s.logger.Warn("failed to record run %s: %v", run.ID, err)
	}

	return nil
}

func historyMessages(msgs []session.Message) []llms.MessageContent {
	var out []llms.MessageContent
	for _, m := range msgs {
		switch m.Role {
		case "user":
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case "assistant":
			out = append(out, llms.TextParts(llms.ChatMessageTypeAI, m.Content))
		}
	}
	return out
}
