// internal/handlers/session_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/patience/internal/game"
	"github.com/jason-s-yu/patience/internal/middleware"
	"github.com/jason-s-yu/patience/internal/session"
	"github.com/sirupsen/logrus"
)

const sessionSubprotocol = "patience"

// SessionMessage is a client request on the session socket.
type SessionMessage struct {
	Type string    `json:"type"`
	Row  *game.Row `json:"row,omitempty"`
	From *game.Row `json:"from,omitempty"`
	To   *game.Row `json:"to,omitempty"`
}

// SnapshotMessage carries the table after new_game or an accepted move.
type SnapshotMessage struct {
	Type string `json:"type"`
	session.Snapshot
}

// ErrorMessage reports a rejected request. Code is stable, Message is for humans.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorCodes = []struct {
	err  error
	code string
}{
	{game.ErrDealFromDeckWithInsufficientCards, "deal_insufficient_cards"},
	{game.ErrDealWithSameSuitOnTable, "deal_same_suit"},
	{game.ErrEliminateEmptyRow, "eliminate_empty_row"},
	{game.ErrEliminateNoGreaterCard, "eliminate_no_greater_card"},
	{game.ErrPlaceFromSingleCardRow, "place_single_card_row"},
	{game.ErrPlaceToNonEmptyRow, "place_non_empty_row"},
	{game.ErrRowOutOfRange, "row_out_of_range"},
	{game.ErrHistoryEnded, "game_ended"},
	{session.ErrNoGame, "no_game"},
}

// errorCode maps a move error to the code sent to clients.
func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}

// SessionWSHandler upgrades to a WebSocket speaking the "patience" subprotocol. Each
// connection owns one session.Controller; its game is archived when the connection
// closes or the client quits.
func SessionWSHandler(logger *logrus.Logger, store *session.Store, archiver session.Archiver, opts ...session.Option) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The cookie has to be set before the upgrade response is written.
		playerID, err := EnsurePlayer(w, r)
		if err != nil {
			logger.WithError(err).Warn("could not identify player")
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{sessionSubprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != sessionSubprotocol {
			logger.Warnf("Client %s connected with invalid subprotocol: %q", r.RemoteAddr, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'patience' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctrl := session.NewController(archiver, logger, append([]session.Option{session.WithPlayer(playerID)}, opts...)...)
		store.Add(ctrl)
		defer store.Remove(ctrl)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readErr := readSessionMessages(ctx, c, ctrl, logger)

		// The request context may already be done; archiving still has to happen.
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dropCancel()
		if err := ctrl.Drop(dropCtx); err != nil {
			logger.WithError(err).WithField("player", playerID).Error("failed to archive session on disconnect")
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readSessionMessages serves requests until the client disconnects or quits. The
// returned error is nil for a normal close.
func readSessionMessages(ctx context.Context, c *websocket.Conn, ctrl *session.Controller, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			sendWsError(ctx, c, logger, "bad_request", "Only text messages are supported.")
			continue
		}

		var msg SessionMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWsError(ctx, c, logger, "bad_request", "Invalid JSON format.")
			continue
		}

		switch msg.Type {
		case "new_game":
			sendSnapshot(ctx, c, logger, ctrl.NewGame(ctx))
		case "deal":
			respond(ctx, c, logger, ctrl.Deal)
		case "eliminate":
			if msg.Row == nil {
				sendWsError(ctx, c, logger, "bad_request", "eliminate requires row.")
				continue
			}
			respond(ctx, c, logger, func() (session.Snapshot, error) { return ctrl.Eliminate(*msg.Row) })
		case "place":
			if msg.From == nil || msg.To == nil {
				sendWsError(ctx, c, logger, "bad_request", "place requires from and to.")
				continue
			}
			respond(ctx, c, logger, func() (session.Snapshot, error) { return ctrl.Place(*msg.From, *msg.To) })
		case "quit":
			if err := ctrl.Drop(ctx); err != nil {
				logger.WithError(err).Error("failed to archive session on quit")
				sendWsError(ctx, c, logger, "internal", "Session could not be archived.")
				continue
			}
			c.Close(websocket.StatusNormalClosure, "quit")
			return nil
		case "ping":
			sendWsMessage(ctx, c, logger, map[string]string{"type": "pong"})
		default:
			sendWsError(ctx, c, logger, "bad_request", "Unknown message type: "+msg.Type)
		}
	}
}

func respond(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, move func() (session.Snapshot, error)) {
	snap, err := move()
	if err != nil {
		sendWsError(ctx, c, logger, errorCode(err), err.Error())
		return
	}
	sendSnapshot(ctx, c, logger, snap)
}

func sendSnapshot(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, snap session.Snapshot) {
	sendWsMessage(ctx, c, logger, SnapshotMessage{Type: "snapshot", Snapshot: snap})
}

// sendWsMessage marshals a message and sends it to the WebSocket client.
func sendWsMessage(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, message interface{}) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.Write(writeCtx, websocket.MessageText, msgBytes); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !strings.Contains(err.Error(), "context deadline exceeded") {
			logger.Warnf("Error writing WebSocket message: %v (Status: %d)", err, status)
		}
		// The read loop notices the closed connection.
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, code, message string) {
	sendWsMessage(ctx, c, logger, ErrorMessage{Type: "error", Code: code, Message: message})
}
