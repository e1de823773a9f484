package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/TD21forever/buling/internal/chat"
	"github.com/TD21forever/buling/internal/db"
	"github.com/TD21forever/buling/internal/errors"
	"github.com/TD21forever/buling/internal/ops"
	"github.com/TD21forever/buling/internal/relay"
)

// conversationPrompt steers the model toward peer discussion instead of
// tutoring. Prepended to every chat request.
const conversationPrompt = `你是我平等交流的智慧朋友，而非指导者或老师，核心是围绕观点展开双向讨论，而非单向输出或引导学习。

1. 角色定位：以"朋友"身份互动，不预设知识差距，不刻意引导我得出结论，而是主动分享你的独立观点（如"我觉得这个想法的优势在于…但或许可以考虑…"），同时坦诚表达对我观点的真实看法（如"你提到的XX点很有启发，因为…；不过我对XX部分有不同感受，是因为…"）。

2. 输出长度：严格贴近真人对话篇幅，单次回复控制在3-5句话，避免长篇大论或过于简短的敷衍式回应（如"对""没错"），确保每句话都围绕观点讨论展开，有实质内容。

3. 互动逻辑：优先回应我提出的具体想法，不主动追问我的"目标"或"已有知识"；若我未明确观点，可分享你对相关话题的看法以开启讨论，但不通过提问引导我"发现答案"，而是直接参与观点碰撞。

4. 内容限制：不替我解决具体任务（如作业、问题解答），仅聚焦"想法交流"；不进行"检查强化"（如让我复述、提供总结），也不设计"互动活动"（如角色扮演、练习），保持纯粹的观点讨论节奏。

保持真诚、理性且自然，不刻意热情或使用过多感叹号/表情符号；对话中若有不同观点，以"探讨"而非"反驳"的语气表达，确保交流流畅，像朋友聊天一样轻松，避免生硬的规则感。`

// chatBody is the wire shape of both chat endpoints.
type chatBody struct {
	Messages  []chat.Turn `json:"messages"`
	SessionID string      `json:"sessionId"`
}

func (b *chatBody) validate() error {
	if len(b.Messages) == 0 {
		return errors.NewInvalidRequest("messages are required")
	}
	for _, turn := range b.Messages {
		if !chat.ValidRole(turn.Role) {
			return errors.NewInvalidRequest("unknown role: " + string(turn.Role))
		}
	}
	return nil
}

// withConversationPrompt prepends the system turn to the conversation.
func withConversationPrompt(turns []chat.Turn) []chat.Turn {
	out := make([]chat.Turn, 0, len(turns)+1)
	out = append(out, chat.Turn{Role: chat.RoleSystem, Content: conversationPrompt})
	return append(out, turns...)
}

// HandleChat serves POST /api/chat: one synchronous completion, persisted
// when a session is named.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}
	if err := body.validate(); err != nil {
		renderError(w, err)
		return
	}

	resp, err := h.api.Complete(r.Context(), withConversationPrompt(body.Messages), h.cfg.Model)
	if err != nil {
		renderError(w, err)
		return
	}

	reply := resp.Content()
	if reply == "" {
		renderError(w, errors.NewUpstreamParse("no completion choices in response"))
		return
	}

	if body.SessionID != "" {
		store := &ops.MessageStore{DB: h.db}
		if user := chat.LastUserTurn(body.Messages); user != nil {
			if err := store.AppendMessage(r.Context(), body.SessionID, chat.RoleUser, user.Content); err != nil {
				log.Printf("web: persist user message: %v", err)
			}
		}
		if err := store.AppendMessage(r.Context(), body.SessionID, chat.RoleAssistant, reply); err != nil {
			log.Printf("web: persist assistant message: %v", err)
		}
		h.maybeAutoAnalyze(r.Context(), body.SessionID)
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"message": reply,
		"usage":   resp.Usage,
	})
}

// HandleChatStream serves POST /api/chat/stream: the upstream SSE stream is
// relayed as simplified content events.
func (h *Handlers) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}
	if err := body.validate(); err != nil {
		renderError(w, err)
		return
	}

	upstreamBody, err := h.api.StreamComplete(r.Context(), withConversationPrompt(body.Messages), h.cfg.Model)
	if err != nil {
		renderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	err = relay.Run(r.Context(), upstreamBody, w, relay.Options{
		SessionID: body.SessionID,
		Turns:     body.Messages,
		Store:     &ops.MessageStore{DB: h.db},
	})
	if err != nil {
		// Headers are already sent; the broken stream is the signal.
		log.Printf("web: chat stream: %v", err)
		return
	}

	if body.SessionID != "" {
		h.maybeAutoAnalyze(r.Context(), body.SessionID)
	}
}

// HandleAnalyze serves POST /api/inspiration/analyze.
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}
	if body.Content == "" {
		renderError(w, errors.NewInvalidRequest("content is required"))
		return
	}

	analysis := h.analyzer.Analyze(r.Context(), body.Content)
	renderJSON(w, http.StatusOK, map[string]any{"analysis": analysis})
}

// maybeAutoAnalyze distills a session into an inspiration once its
// transcript reaches the configured turn count. The trigger is
// deterministic and fires once: sessions that already link an inspiration
// are skipped. Trouble here never surfaces to the chat caller.
func (h *Handlers) maybeAutoAnalyze(ctx context.Context, sessionID string) {
	threshold := h.cfg.AutoAnalyzeThreshold
	if threshold <= 0 {
		return
	}

	// Count before hydrating: most chat turns are below the threshold.
	count, err := db.CountSessionMessages(ctx, h.db, sessionID)
	if err != nil {
		log.Printf("web: auto-analyze session %s: %v", sessionID, err)
		return
	}
	if count < threshold {
		return
	}

	session, err := db.GetSession(ctx, h.db, sessionID)
	if err != nil {
		log.Printf("web: auto-analyze session %s: %v", sessionID, err)
		return
	}
	if session.InspirationID != "" {
		return
	}

	turns := make([]chat.Turn, len(session.Messages))
	for i, m := range session.Messages {
		turns[i] = chat.Turn{Role: m.Role, Content: m.Content}
	}

	analysis := h.analyzer.Analyze(ctx, chat.Transcript(turns))
	categories := make([]string, len(analysis.Categories))
	for i, c := range analysis.Categories {
		categories[i] = string(c)
	}

	insp, err := ops.SaveInspiration(ctx, h.db, ops.SaveInspirationInput{
		Title:      analysis.Title,
		Content:    chat.Transcript(turns),
		Summary:    analysis.Summary,
		Categories: categories,
		Tags:       analysis.Tags,
	})
	if err != nil {
		log.Printf("web: auto-analyze session %s: save: %v", sessionID, err)
		return
	}
	if err := db.LinkInspiration(ctx, h.db, sessionID, insp.ID, time.Now().Unix()); err != nil {
		log.Printf("web: auto-analyze session %s: link: %v", sessionID, err)
	}
}
