package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/legallink/backend/internal/model/chat"
	"github.com/legallink/backend/internal/model/document"
	"github.com/legallink/backend/internal/service/history"
)

// Mode selects how often a turn may retrieve.
type Mode string

const (
	// ModeChain performs at most one retrieval per turn, then always
	// synthesizes the answer from the tool output.
	ModeChain Mode = "chain"
	// ModeAgent lets the model keep issuing retrieval calls until it
	// answers on its own, bounded by MaxHops.
	ModeAgent Mode = "agent"
)

// Config parametrizes the controller. One controller instance serves
// all sessions; distinct sessions run concurrently.
type Config struct {
	Mode        Mode
	MaxHops     int           // agent-mode retrieval bound
	Language    Language      // prompt and refusal wording
	CallTimeout time.Duration // per model/retrieval call, 0 disables
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeChain
	}
	if c.MaxHops <= 0 {
		c.MaxHops = 4
	}
	if c.Language == "" {
		c.Language = LanguageIndonesian
	}
}

// retrievalTool is the slice of RetrieveTool the controller needs;
// tests substitute scripted implementations.
type retrievalTool interface {
	Info(ctx context.Context) (*schema.ToolInfo, error)
	Retrieve(ctx context.Context, query string) (string, []document.RetrievedChunk, error)
}

// Controller runs the per-turn retrieval-augmented workflow:
//
//	DECIDE -> (RETRIEVE -> DECIDE)* -> ANSWER   (agent mode)
//	DECIDE -> [RETRIEVE] -> ANSWER              (chain mode)
//
// DECIDE offers the retrieval tool to the model; RETRIEVE executes it
// and links the result to the triggering call; ANSWER folds the
// trailing tool output into a system instruction and asks the bare
// model for the final reply.
type Controller struct {
	chatModel   model.ToolCallingChatModel
	decideModel model.BaseChatModel
	tool        retrievalTool
	store       history.Store
	cfg         Config
}

// NewController binds the retrieval tool schema to the model once, up
// front, so DECIDE and ANSWER use distinct model handles.
func NewController(ctx context.Context, chatModel model.ToolCallingChatModel, tool retrievalTool, store history.Store, cfg Config) (*Controller, error) {
	cfg.applyDefaults()
	info, err := tool.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe retrieval tool: %w", err)
	}
	decideModel, err := chatModel.WithTools([]*schema.ToolInfo{info})
	if err != nil {
		return nil, fmt.Errorf("bind retrieval tool: %w", err)
	}
	return &Controller{
		chatModel:   chatModel,
		decideModel: decideModel,
		tool:        tool,
		store:       store,
		cfg:         cfg,
	}, nil
}

// Mode reports the configured retrieval mode.
func (c *Controller) Mode() Mode { return c.cfg.Mode }

// TurnResult is the outcome of one completed turn.
type TurnResult struct {
	SessionID string                    `json:"sessionId"`
	Answer    string                    `json:"answer"`
	History   []chat.Message            `json:"history"`
	Sources   []document.RetrievedChunk `json:"sources,omitempty"`
}

// TurnEventType tags progress events emitted on the streaming path.
type TurnEventType string

const (
	EventStatus  TurnEventType = "status"
	EventSources TurnEventType = "sources"
	EventDelta   TurnEventType = "delta"
)

// TurnEvent is a progress notification for streaming consumers.
type TurnEvent struct {
	Type    TurnEventType             `json:"type"`
	Status  string                    `json:"status,omitempty"`
	Sources []document.RetrievedChunk `json:"sources,omitempty"`
	Delta   string                    `json:"delta,omitempty"`
}

// HandleTurn processes one user message and returns the answer plus the
// updated persisted history. Model failures abort the turn without
// mutating history; retrieval failures degrade to a no-basis answer.
func (c *Controller) HandleTurn(ctx context.Context, sessionID, userText string) (*TurnResult, error) {
	return c.run(ctx, sessionID, userText, nil)
}

// HandleTurnStream behaves like HandleTurn but emits progress events
// and streams the synthesized answer as deltas. History is persisted
// only after the final answer is complete.
func (c *Controller) HandleTurnStream(ctx context.Context, sessionID, userText string, emit func(TurnEvent)) (*TurnResult, error) {
	if emit == nil {
		return nil, fmt.Errorf("rag: emit callback is required for streaming")
	}
	return c.run(ctx, sessionID, userText, emit)
}

func (c *Controller) run(ctx context.Context, sessionID, userText string, emit func(TurnEvent)) (*TurnResult, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, ErrEmptyQuestion
	}
	if sessionID == "" {
		return nil, history.ErrEmptySessionID
	}

	prior, err := c.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", sessionID, err)
	}

	msgs := append(chat.ToSchemaMessages(prior), schema.UserMessage(userText))
	var sources []document.RetrievedChunk

	for hop := 0; ; hop++ {
		decision, err := c.generate(ctx, c.decideModel, msgs)
		if err != nil {
			return nil, fmt.Errorf("%w: decide: %v", ErrModelInvocation, err)
		}

		if len(decision.ToolCalls) == 0 {
			// The model answered without requesting retrieval. On the
			// first hop this is a direct answer; in agent mode it is
			// the model's chosen final reply.
			if emit != nil {
				emit(TurnEvent{Type: EventDelta, Delta: decision.Content})
			}
			return c.finish(ctx, sessionID, userText, decision.Content, prior, sources)
		}

		call, ok := retrievalCall(decision)
		if !ok {
			log.Printf("[rag] session=%s %v: unknown tool %q", sessionID, ErrMalformedToolCall, decision.ToolCalls[0].Function.Name)
			break
		}

		query, perr := parseRetrievalArgs(call)
		if perr != nil {
			// Malformed request: skip retrieval, go synthesize with an
			// empty context.
			log.Printf("[rag] session=%s %v", sessionID, perr)
			break
		}

		msgs = append(msgs, decision)
		if emit != nil {
			emit(TurnEvent{Type: EventStatus, Status: "retrieving"})
		}
		serialized, chunks, rerr := c.retrieve(ctx, query)
		if rerr != nil {
			// Index or embedding backend failure: the turn must still
			// reach ANSWER with an empty context block.
			log.Printf("[rag] session=%s retrieval degraded: %v", sessionID, rerr)
			msgs = append(msgs, schema.ToolMessage("", call.ID))
			break
		}
		sources = append(sources, chunks...)
		msgs = append(msgs, schema.ToolMessage(serialized, call.ID))

		if c.cfg.Mode != ModeAgent {
			break
		}
		if hop+1 >= c.cfg.MaxHops {
			log.Printf("[rag] session=%s reached max hops (%d), answering", sessionID, c.cfg.MaxHops)
			break
		}
	}

	// ANSWER: fold the trailing run of tool results into the system
	// instruction and hide the tool-call scaffolding from the model.
	docsContent := joinContents(trailingToolMessages(msgs))
	if strings.TrimSpace(docsContent) == "" {
		// Hard refusal: no usable context means the configured
		// no-basis phrase, never a fabricated citation.
		answer := NoBasisAnswer(c.cfg.Language)
		if emit != nil {
			emit(TurnEvent{Type: EventDelta, Delta: answer})
		}
		return c.finish(ctx, sessionID, userText, answer, prior, nil)
	}

	if emit != nil && len(sources) > 0 {
		emit(TurnEvent{Type: EventSources, Sources: sources})
	}

	prompt := make([]*schema.Message, 0, len(msgs)+1)
	prompt = append(prompt, schema.SystemMessage(answerSystemPrompt(c.cfg.Language, docsContent)))
	prompt = append(prompt, filterConversation(msgs)...)

	var answer string
	if emit != nil {
		answer, err = c.streamAnswer(ctx, prompt, emit)
	} else {
		var reply *schema.Message
		reply, err = c.generate(ctx, c.chatModel, prompt)
		if err == nil {
			answer = reply.Content
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: answer: %v", ErrModelInvocation, err)
	}
	return c.finish(ctx, sessionID, userText, answer, prior, sources)
}

// finish persists the completed turn (user message + final answer
// only; tool traffic never enters the durable transcript) and builds
// the result.
func (c *Controller) finish(ctx context.Context, sessionID, userText, answer string, prior []chat.Message, sources []document.RetrievedChunk) (*TurnResult, error) {
	userMsg := chat.Message{Role: chat.RoleUser, Content: userText}
	assistantMsg := chat.Message{Role: chat.RoleAssistant, Content: answer}
	if err := c.store.Append(ctx, sessionID, userMsg, assistantMsg); err != nil {
		return nil, fmt.Errorf("append history for %s: %w", sessionID, err)
	}
	updated := make([]chat.Message, 0, len(prior)+2)
	updated = append(updated, prior...)
	updated = append(updated, userMsg, assistantMsg)
	return &TurnResult{
		SessionID: sessionID,
		Answer:    answer,
		History:   updated,
		Sources:   sources,
	}, nil
}

func (c *Controller) generate(ctx context.Context, m model.BaseChatModel, msgs []*schema.Message) (*schema.Message, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	return m.Generate(ctx, msgs)
}

func (c *Controller) streamAnswer(ctx context.Context, prompt []*schema.Message, emit func(TurnEvent)) (string, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	stream, err := c.chatModel.Stream(ctx, prompt)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if chunk.Content == "" {
			continue
		}
		sb.WriteString(chunk.Content)
		emit(TurnEvent{Type: EventDelta, Delta: chunk.Content})
	}
	return sb.String(), nil
}

func (c *Controller) retrieve(ctx context.Context, query string) (string, []document.RetrievedChunk, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	return c.tool.Retrieve(ctx, query)
}

func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.CallTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.CallTimeout)
	}
	return ctx, func() {}
}

// retrievalCall returns the retrieval tool call carried by a decision
// message, if any. At most one retrieval request is honored per round.
func retrievalCall(msg *schema.Message) (*schema.ToolCall, bool) {
	for i := range msg.ToolCalls {
		if msg.ToolCalls[i].Function.Name == ToolName {
			return &msg.ToolCalls[i], true
		}
	}
	return nil, false
}

func parseRetrievalArgs(call *schema.ToolCall) (string, error) {
	var args retrieveArgs
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedToolCall, err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("%w: empty query", ErrMalformedToolCall)
	}
	return args.Query, nil
}

// trailingToolMessages returns the maximal contiguous run of tool
// messages at the end of the list, in original chronological order.
func trailingToolMessages(msgs []*schema.Message) []*schema.Message {
	start := len(msgs)
	for start > 0 && msgs[start-1].Role == schema.Tool {
		start--
	}
	return msgs[start:]
}

// filterConversation keeps user, system and plain assistant messages,
// dropping tool output and the assistant decisions that requested it.
func filterConversation(msgs []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case schema.User, schema.System:
			out = append(out, m)
		case schema.Assistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, m)
			}
		}
	}
	return out
}

func joinContents(msgs []*schema.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}
