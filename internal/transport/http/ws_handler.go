package http

import (
	"context"
	"fmt"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gossips-social/gossips-hub/internal/auth"
	"github.com/gossips-social/gossips-hub/internal/hub"
	"github.com/gossips-social/gossips-hub/internal/proto"
)

// WSHandler is the session gateway: it authenticates the handshake,
// upgrades the connection and bridges it to a hub.Session.
type WSHandler struct {
	hub  *hub.Hub
	auth *auth.Service
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(h *hub.Hub, authService *auth.Service, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: h, auth: authService, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()
	fmt.Println("DEBUG ServeHTTP start")

	// The bearer token is required before the upgrade; an invalid
	// credential never gets a socket.
	fmt.Println("DEBUG before auth")
	claims, err := h.authenticate(r)
	fmt.Println("DEBUG after auth", err)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws handshake rejected")
		stdhttp.Error(w, "invalid token", stdhttp.StatusUnauthorized)
		return
	}

	fmt.Println("DEBUG before accept")
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	fmt.Println("DEBUG accepted")

	session := hub.NewSession(uuid.NewString(), claims.UserID)
	h.hub.Attach(session)
	// Deregistration is tied to this handler returning, which the
	// transport guarantees on any close, clean or abrupt.
	defer h.hub.Detach(session)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// authenticate extracts the bearer credential from the handshake. The
// token rides either the Authorization header or a token query param
// (browser WebSocket clients cannot set headers).
func (h *WSHandler) authenticate(r *stdhttp.Request) (*auth.Claims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}
	if token == "" {
		return nil, errors.New("missing token")
	}
	return h.auth.ValidateToken(token)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *hub.Session) error {
	// This loop is the only writer of session.Commands; closing it here
	// stops the hub-side pump.
	defer close(session.Commands)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			fmt.Println("DEBUG read err:", err)
			return err
		}
		fmt.Println("DEBUG got inbound:", inbound.Type)

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			h.log.Debug().
				Str("session_id", session.ID).
				Str("type", inbound.Type).
				Str("code", protoErr.Code).
				Msg("rejected inbound frame")
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}
		if cmd != nil {
			fmt.Println("DEBUG pushing cmd:", cmd.Kind)
			session.Commands <- cmd
			fmt.Println("DEBUG pushed cmd")
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *hub.Session) error {
	for {
		select {
		case event := <-session.Events:
			fmt.Println("DEBUG writeLoop event:", event.Kind)
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", session.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
