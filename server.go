package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// SetupRoutes configures HTTP routes
func SetupRoutes(engine *Engine, hub *Hub, auth *Auth, cfg ServerConfig, log *zap.SugaredLogger) *http.ServeMux {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	mux := http.NewServeMux()

	// Spectator WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debugw("upgrade error", "err", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip, r.URL.Query().Get("enc"))
		hub.Register(client.Observer)

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		if auth == nil {
			writeJSON(w, http.StatusNotFound, ErrorMsg{Msg: "auth disabled"})
			return
		}
		var req AuthRequest
		if err := readJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorMsg{Msg: "invalid request"})
			return
		}
		token, err := auth.Login(req.Password, extractIP(r))
		switch {
		case errors.Is(err, ErrRateLimited):
			writeJSON(w, http.StatusTooManyRequests, ErrorMsg{Msg: err.Error()})
		case err != nil:
			writeJSON(w, http.StatusUnauthorized, ErrorMsg{Msg: err.Error()})
		default:
			writeJSON(w, http.StatusOK, AuthResponse{Token: token})
		}
	})

	mux.HandleFunc("POST /spawn", auth.Require(func(w http.ResponseWriter, r *http.Request) {
		var req SpawnRequest
		if err := readJSON(r, &req); err != nil || strings.TrimSpace(req.Agent) == "" {
			writeJSON(w, http.StatusBadRequest, ErrorMsg{Msg: "agent is required"})
			return
		}
		id, err := engine.SpawnPlayer(r.Context(), strings.TrimSpace(req.Agent))
		switch {
		case errors.Is(err, ErrArenaFull), errors.Is(err, ErrShuttingDown):
			writeJSON(w, http.StatusServiceUnavailable, ErrorMsg{Msg: err.Error()})
		case err != nil:
			writeJSON(w, http.StatusBadGateway, ErrorMsg{Msg: err.Error()})
		default:
			writeJSON(w, http.StatusOK, SpawnResponse{ID: id})
		}
	}))

	mux.HandleFunc("GET /players", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, engine.Snapshot())
	})

	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		m := engine.Metrics.Snapshot()
		m["tick"] = engine.Tick()
		m["players"] = engine.PlayerCount()
		m["projectiles"] = engine.ProjectileCount()
		m["observers"] = hub.ClientCount()
		m["connections"] = hub.TotalConns()
		writeJSON(w, http.StatusOK, m)
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "tick": engine.Tick()})
	})

	mux.HandleFunc("GET /qr", handleQR(cfg.PublicURL))

	return mux
}

// ServeAgents accepts raw TCP agents on ln until ctx is cancelled. Each
// connection becomes a player named after its remote address.
func ServeAgents(ctx context.Context, ln net.Listener, engine *Engine, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warnw("agent accept failed", "err", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		id, err := engine.AddAgent(conn.RemoteAddr().String(), conn)
		if err != nil {
			log.Warnw("rejecting agent", "addr", conn.RemoteAddr().String(), "err", err)
			conn.Close()
			continue
		}
		log.Debugw("tcp agent attached", "player", id, "addr", conn.RemoteAddr().String())
	}
}
