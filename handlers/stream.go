package handlers

import (
	"immigration_crm_go/events"
	"immigration_crm_go/middleware"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

func (a *API) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     a.checkOrigin,
	}
}

// checkOrigin accepts non-browser clients, same-host pages and the configured app URL
func (a *API) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if app, err := url.Parse(a.Config.AppURL); err == nil && strings.EqualFold(u.Host, app.Host) {
		return true
	}
	return false
}

// NotificationStream pushes the current user's notifications over a websocket.
// Each session holds at most one stream; a new one replaces the old.
func (a *API) NotificationStream(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	session := middleware.GetCurrentSession(c)

	conn, err := a.upgrader().Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response
		return nil
	}
	defer conn.Close()

	sessionID := ""
	if session != nil {
		sessionID = session.ID
	}
	sub := a.Bus.Subscribe(events.UserTopic(user.ID), sessionID)
	defer sub.Close()

	log := a.Log.WithFields(logrus.Fields{"user_id": user.ID, "session_id": sessionID})
	log.Debug("Notification stream opened")

	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				// replaced by a newer stream of the same session
				conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced"))
				log.Debug("Notification stream replaced")
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				log.WithError(err).Debug("Notification stream write failed")
				return nil
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-done:
			log.Debug("Notification stream closed by client")
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
// done is closed once the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
