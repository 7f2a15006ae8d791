package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/constants"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/dtos"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/services"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

// Clients never send anything meaningful; reads only drive pongs and close.
const presenceReadLimit = 512

type PresenceController struct {
	presence services.PresenceService
	upgrader websocket.Upgrader
}

func NewPresenceController(presence services.PresenceService, cfg *config.Config) *PresenceController {
	return &PresenceController{
		presence: presence,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg),
		},
	}
}

// ListOnline => GET /api/presence
func (c *PresenceController) ListOnline(w http.ResponseWriter, r *http.Request) {
	users, err := c.presence.Online(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if users == nil {
		users = []dtos.OnlineUser{}
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}

// Connect => GET /api/presence/ws
func (c *PresenceController) Connect(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	logger := utils.Logger.WithField("handler", "PresenceWS").WithField("user_id", actor.User.ID)

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := context.WithoutCancel(r.Context())
	sub, err := c.presence.Join(ctx, actor.User)
	if err != nil {
		logger.WithError(err).Error("presence join failed")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "presence unavailable"),
			time.Now().Add(constants.PresenceWriteWait))
		return
	}
	defer c.presence.Leave(ctx, sub)

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, sub, done)
}

// readPump discards client frames and closes done when the peer goes away
// or stops answering pings.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(presenceReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(constants.PresencePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(constants.PresencePongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on conn.
func writePump(conn *websocket.Conn, sub *services.PresenceSubscriber, done <-chan struct{}) {
	ticker := time.NewTicker(constants.PresencePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case ev := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(constants.PresenceWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(constants.PresenceWriteWait)); err != nil {
				return
			}
		}
	}
}

// originChecker admits the front end origin, plus any localhost origin when
// high security is off.
func originChecker(cfg *config.Config) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || strings.EqualFold(origin, cfg.AppUrl) {
			return true
		}
		if !cfg.Flag_CORSHighSecurity {
			return strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1")
		}
		return false
	}
}
