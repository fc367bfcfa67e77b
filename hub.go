package main

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sendBufSize = 16

// Observer is one registered outbound channel of the broadcast sink.
type Observer struct {
	ID   string
	Enc  string // EncJSON or EncMsgpack
	send chan []byte
}

// NewObserver creates an observer with a fresh connection ID
func NewObserver(enc string) *Observer {
	if enc != EncMsgpack {
		enc = EncJSON
	}
	return &Observer{
		ID:   uuid.NewString(),
		Enc:  enc,
		send: make(chan []byte, sendBufSize),
	}
}

// Frames returns the channel the observer's writer drains.
func (o *Observer) Frames() <-chan []byte {
	return o.send
}

// enqueue never blocks; a slow or closed observer just misses the frame.
func (o *Observer) enqueue(frame []byte) {
	defer func() { recover() }()
	select {
	case o.send <- frame:
	default:
	}
}

// Hub is the broadcast sink: a registry of observers plus connection limits
// for the spectator endpoint.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Observer
	log     *zap.SugaredLogger
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu        sync.Mutex
	ipConns       map[string]int
	totalConns    int
	maxConnsPerIP int
	maxTotalConns int
}

// NewHub creates a new Hub
func NewHub(cfg ServerConfig, log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{
		clients:       make(map[string]*Observer),
		log:           log,
		ipConns:       make(map[string]int),
		maxConnsPerIP: cfg.MaxConnsPerIP,
		maxTotalConns: cfg.MaxTotalConns,
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.maxTotalConns > 0 && h.totalConns >= h.maxTotalConns {
		return false
	}
	if h.maxConnsPerIP > 0 && h.ipConns[ip] >= h.maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Register adds an observer to the broadcast set.
func (h *Hub) Register(o *Observer) {
	h.mu.Lock()
	h.clients[o.ID] = o
	h.mu.Unlock()
	h.log.Debugw("observer registered", "id", o.ID, "enc", o.Enc)
}

// Unregister removes an observer and closes its channel. Safe to call twice.
func (h *Hub) Unregister(o *Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[o.ID]; ok {
		delete(h.clients, o.ID)
		close(o.send)
		h.log.Debugw("observer unregistered", "id", o.ID)
	}
}

// Broadcast encodes states once per encoding in use and enqueues the same
// bytes to every observer of that encoding.
func (h *Hub) Broadcast(states []PlayerState) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	frames := make(map[string][]byte, 2)
	for _, o := range h.clients {
		frame, ok := frames[o.Enc]
		if !ok {
			var err error
			frame, err = EncodeSnapshot(states, o.Enc)
			if err != nil {
				h.log.Errorw("encoding snapshot", "enc", o.Enc, "err", err)
				frame = nil
			}
			frames[o.Enc] = frame
		}
		if frame == nil {
			continue
		}
		o.enqueue(frame)
	}
}

// ClientCount returns the number of registered observers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
