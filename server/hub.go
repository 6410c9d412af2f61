package server

import (
	"context"
	"encoding/json"
	"net/http"

	"airflow/model"
	"airflow/service"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Hub serves one websocket connection. Requests are handled in arrival order
// and handleResponse is the only writer on conn.
type Hub struct {
	svc  *service.Service
	conn *websocket.Conn
	// request
	msg chan model.Msg
	// response
	out  chan model.Msg
	done chan struct{}
}

func NewHub(svc *service.Service, conn *websocket.Conn) *Hub {
	return &Hub{
		svc:  svc,
		conn: conn,
		msg:  make(chan model.Msg, 10),
		out:  make(chan model.Msg, 10),
		done: make(chan struct{}),
	}
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket 升级失败")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(s.svc, conn)
	go hub.handleRequest(ctx)
	go hub.handleResponse()
	defer close(hub.done)

	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("websocket 读取结束")
			}
			return
		}
		select {
		case hub.msg <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleResponse() {
	for {
		select {
		case reply := <-h.out:
			if err := h.conn.WriteJSON(&reply); err != nil {
				log.WithError(err).Warn("websocket 写入失败")
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) handleRequest(ctx context.Context) {
	for {
		select {
		case msg := <-h.msg:
			h.reply(h.dispatch(ctx, msg))
		case <-h.done:
			return
		}
	}
}

func (h *Hub) reply(m model.Msg) {
	select {
	case h.out <- m:
	case <-h.done:
	}
}

func (h *Hub) dispatch(ctx context.Context, msg model.Msg) model.Msg {
	switch msg.Type {
	case model.MsgSimulate:
		var req model.LayoutRequest
		if err := json.Unmarshal([]byte(msg.Content), &req); err != nil {
			return errorMsg(model.Wrap(model.CodeInvalidConfiguration, err, "invalid simulate request"))
		}
		ev, err := h.svc.Evaluate(ctx, req)
		if err != nil {
			return errorMsg(err)
		}
		return contentMsg(model.MsgResult, ev)
	case model.MsgCatalog:
		return contentMsg(model.MsgCatalog, map[string]interface{}{
			"fans":         h.svc.Catalog().Fans(),
			"applications": h.svc.Catalog().Applications(),
		})
	default:
		return errorMsg(model.InvalidConfiguration("no such message type %q", msg.Type))
	}
}

func contentMsg(typ string, v interface{}) model.Msg {
	data, err := json.Marshal(v)
	if err != nil {
		return errorMsg(model.Wrap(model.CodeInternal, err, "encode %s", typ))
	}
	return model.Msg{Type: typ, Content: string(data)}
}

func errorMsg(err error) model.Msg {
	data, _ := json.Marshal(errorBody{Code: model.CodeOf(err), Message: err.Error()})
	return model.Msg{Type: model.MsgError, Content: string(data)}
}
