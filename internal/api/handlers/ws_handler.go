package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yoockh/intervue/internal/services"
	"github.com/yoockh/intervue/internal/turn"
	"github.com/yoockh/intervue/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 120 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// EventSource streams raw event payloads for one interview.
type EventSource interface {
	Subscribe(ctx context.Context, interviewID string) (<-chan string, func())
}

type WSHandler struct {
	interviews services.InterviewService
	turns      services.TurnService
	events     EventSource
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
}

func NewWSHandler(interviews services.InterviewService, turns services.TurnService, events EventSource, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		interviews: interviews,
		turns:      turns,
		events:     events,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		pingPeriod: wsPingPeriod,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := map[string]struct{}{}
	for _, o := range allowed {
		set[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

type wsClientMsg struct {
	Type        string `json:"type"` // answer|skip|start|audio_answer
	Text        string `json:"text"`
	AudioBase64 string `json:"audio_base64"`
	Language    string `json:"language"`
}

type wsTurnMsg struct {
	Type       string     `json:"type"`
	Reply      turn.Reply `json:"reply"`
	Transcript string     `json:"transcript,omitempty"`
}

type wsErrorMsg struct {
	Type    string     `json:"type"`
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(websocket.PingMessage, nil)
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.writeText(b)
}

func (w *wsConn) writeErr(err error) error {
	e := apiErrorOf(err)
	return w.writeJSON(wsErrorMsg{Type: "error", Code: e.Code, Message: e.Message})
}

func (h *WSHandler) InterviewWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	interviewID := c.Param("id")
	// ownership check before the upgrade so failures get a normal HTTP error
	if _, err := h.interviews.Get(c.Request.Context(), interviewID, userID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	var feed <-chan string
	if h.events != nil {
		ch, stop := h.events.Subscribe(ctx, interviewID)
		defer stop()
		feed = ch
	}

	// reader: client messages -> turn service
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeErr(utils.E(utils.CodeInvalidArgument, "WSHandler", "invalid json", err))
				continue
			}
			h.handleClientMsg(ctx, wc, interviewID, userID, msg)
		}
	}()

	// writer: published events and keepalive pings -> client
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case payload, ok := <-feed:
			if !ok {
				feed = nil
				continue
			}
			if werr := wc.writeText([]byte(payload)); werr != nil {
				return
			}
		case <-ticker.C:
			if werr := wc.ping(); werr != nil {
				return
			}
		}
	}
}

func (h *WSHandler) handleClientMsg(ctx context.Context, wc *wsConn, interviewID, userID string, msg wsClientMsg) {
	const op = "WSHandler.message"

	var (
		answer turn.Answer
		err    error
	)
	switch msg.Type {
	case "answer":
		answer, err = turn.ParseAnswer(msg.Text)
	case "skip":
		answer = turn.Skip()
	case "start":
		answer = turn.Start()
	case "audio_answer":
		raw := msg.AudioBase64
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:] // strip data:...;base64,
		}
		audio, derr := base64.StdEncoding.DecodeString(raw)
		if derr != nil || len(audio) == 0 {
			_ = wc.writeErr(utils.E(utils.CodeInvalidArgument, op, "invalid audio_base64", derr))
			return
		}
		reply, text, serr := h.turns.SubmitAudio(ctx, interviewID, userID, audio, msg.Language)
		if serr != nil {
			_ = wc.writeErr(serr)
			return
		}
		_ = wc.writeJSON(wsTurnMsg{Type: "turn_result", Reply: reply, Transcript: text})
		return
	default:
		_ = wc.writeErr(utils.E(utils.CodeInvalidArgument, op, "unknown message type", nil))
		return
	}
	if err != nil {
		_ = wc.writeErr(utils.E(utils.CodeInvalidArgument, op, "answer is required", err))
		return
	}

	reply, err := h.turns.Submit(ctx, interviewID, userID, answer)
	if err != nil {
		_ = wc.writeErr(err)
		return
	}
	_ = wc.writeJSON(wsTurnMsg{Type: "turn_result", Reply: reply})
}
