package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"islebuild.ai/internal/geom"
	"islebuild.ai/internal/protocol"
	"islebuild.ai/internal/sim/buildable"
	"islebuild.ai/internal/sim/world"
)

const worldTimeout = 5 * time.Second

type Server struct {
	world     *world.World
	log       *log.Logger
	validator *protocol.Validator
	welcome   protocol.WelcomeMsg

	upgrader websocket.Upgrader
}

// NewServer snapshots the world's static layout for WELCOME, so it must be
// called before the world starts running.
func NewServer(w *world.World, logger *log.Logger, tuningDigest string) (*Server, error) {
	v, err := protocol.NewValidator()
	if err != nil {
		return nil, err
	}
	s := &Server{
		world:     w,
		log:       logger,
		validator: v,
		welcome:   welcomeFor(w, tuningDigest),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s, nil
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID := s.handshake(conn)
		if sessionID == "" {
			return
		}
		s.log.Printf("session %s connected from %s", sessionID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		out := make(chan []byte, 16)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			resp := s.handle(ctx, msg)
			if resp == nil {
				continue
			}
			b, err := json.Marshal(resp)
			if err != nil {
				s.log.Printf("session %s: marshal: %v", sessionID, err)
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		s.log.Printf("session %s closed", sessionID)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return ""
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return ""
	}
	if err := s.validator.Validate(protocol.TypeHello, msg); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad HELLO"), time.Now().Add(time.Second))
		return ""
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return ""
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return ""
	}

	welcome := s.welcome
	welcome.SessionID = uuid.NewString()
	if err := writeJSON(conn, welcome); err != nil {
		return ""
	}
	if name := strings.TrimSpace(hello.ClientName); name != "" {
		s.log.Printf("session %s: client %q", welcome.SessionID, name)
	}
	return welcome.SessionID
}

// handle serves one post-handshake message; nil means nothing to send.
func (s *Server) handle(ctx context.Context, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return errorMsg("", protocol.ErrProtoBadRequest, "invalid json")
	}
	switch base.Type {
	case protocol.TypePreview, protocol.TypeBuild:
	default:
		return errorMsg("", protocol.ErrProtoBadRequest, "unexpected message type "+base.Type)
	}
	if base.ProtocolVersion != protocol.Version {
		return errorMsg("", protocol.ErrProtoVersion, "protocol_version must be "+protocol.Version)
	}
	if err := s.validator.Validate(base.Type, msg); err != nil {
		return errorMsg("", protocol.ErrProtoBadRequest, err.Error())
	}
	var g protocol.PreviewMsg
	if err := json.Unmarshal(msg, &g); err != nil {
		return errorMsg("", protocol.ErrProtoBadRequest, err.Error())
	}
	p1 := geom.Vec2{X: g.P1[0], Y: g.P1[1]}
	p2 := geom.Vec2{X: g.P2[0], Y: g.P2[1]}

	if base.Type == protocol.TypePreview {
		respCh := make(chan world.PreviewResponse, 1)
		req := world.PreviewRequest{Building: g.Building, P1: p1, P2: p2, Rotation: g.Rotation, Resp: respCh}
		if !send(ctx, s.world.Preview(), req) {
			return errorMsg(g.ReqID, protocol.ErrWorldBusy, "world busy")
		}
		resp, ok := await(ctx, respCh)
		if !ok {
			return errorMsg(g.ReqID, protocol.ErrWorldBusy, "world busy")
		}
		if resp.Err != nil {
			return errorFor(g.ReqID, resp.Err)
		}
		return protocol.BuildListMsg{
			Type:            protocol.TypeBuildList,
			ProtocolVersion: protocol.Version,
			ReqID:           g.ReqID,
			Building:        resp.Building,
			Results:         placements(resp.Results),
		}
	}

	respCh := make(chan world.BuildResponse, 1)
	req := world.BuildRequest{Building: g.Building, P1: p1, P2: p2, Rotation: g.Rotation, Resp: respCh}
	if !send(ctx, s.world.Build(), req) {
		return errorMsg(g.ReqID, protocol.ErrWorldBusy, "world busy")
	}
	resp, ok := await(ctx, respCh)
	if !ok {
		return errorMsg(g.ReqID, protocol.ErrWorldBusy, "world busy")
	}
	if resp.Err != nil {
		return errorFor(g.ReqID, resp.Err)
	}
	return buildResult(g.ReqID, resp)
}

func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	t := time.NewTimer(worldTimeout)
	defer t.Stop()
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
	case <-t.C:
	}
	return false
}

func await[T any](ctx context.Context, ch <-chan T) (T, bool) {
	t := time.NewTimer(worldTimeout)
	defer t.Stop()
	select {
	case v := <-ch:
		return v, true
	case <-ctx.Done():
	case <-t.C:
	}
	var zero T
	return zero, false
}

func errorFor(reqID string, err error) protocol.ErrorMsg {
	switch {
	case errors.Is(err, world.ErrUnknownBuilding):
		return errorMsg(reqID, protocol.ErrUnknownBuilding, err.Error())
	case errors.Is(err, world.ErrGestureTooLarge):
		return errorMsg(reqID, protocol.ErrGestureTooLarge, err.Error())
	case errors.Is(err, buildable.ErrInvalid):
		return errorMsg(reqID, protocol.ErrInvalidTarget, err.Error())
	default:
		return errorMsg(reqID, protocol.ErrInternal, err.Error())
	}
}

func errorMsg(reqID, code, message string) protocol.ErrorMsg {
	if !protocol.IsKnownCode(code) {
		code = protocol.ErrInternal
	}
	return protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Code:            code,
		Message:         message,
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
