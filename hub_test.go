package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func recv(t *testing.T, o *Observer) []byte {
	t.Helper()
	select {
	case f, ok := <-o.Frames():
		if !ok {
			t.Fatalf("observer %s closed", o.ID)
		}
		return f
	default:
		t.Fatalf("observer %s got nothing", o.ID)
		return nil
	}
}

func TestBroadcastIdenticalFrames(t *testing.T) {
	hub := NewHub(DefaultConfig().Server, nil)
	o1, o2 := NewObserver(EncJSON), NewObserver("")
	hub.Register(o1)
	hub.Register(o2)

	states := []PlayerState{{Name: "A", Health: 92, Energy: 50}, {Name: "B", Health: 0, Energy: 10}}
	hub.Broadcast(states)

	f1, f2 := recv(t, o1), recv(t, o2)
	if !bytes.Equal(f1, f2) {
		t.Errorf("observers got different frames:\n%s\n%s", f1, f2)
	}
	var got []PlayerState
	if err := json.Unmarshal(f1, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0].Name != "A" || got[1].Health != 0 {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestBroadcastMsgpack(t *testing.T) {
	hub := NewHub(DefaultConfig().Server, nil)
	o := NewObserver(EncMsgpack)
	hub.Register(o)

	hub.Broadcast([]PlayerState{{Name: "A", Health: 100}})

	var got []PlayerState
	if err := msgpack.Unmarshal(recv(t, o), &got); err != nil {
		t.Fatalf("msgpack unmarshal: %v", err)
	}
	if len(got) != 1 || got[0].Name != "A" {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestUnregisteredObserverSkipped(t *testing.T) {
	hub := NewHub(DefaultConfig().Server, nil)
	gone, stay := NewObserver(EncJSON), NewObserver(EncJSON)
	hub.Register(gone)
	hub.Register(stay)
	hub.Unregister(gone)
	hub.Unregister(gone)

	hub.Broadcast([]PlayerState{{Name: "A"}})

	if _, ok := <-gone.Frames(); ok {
		t.Error("unregistered observer received a frame")
	}
	recv(t, stay)
	if hub.ClientCount() != 1 {
		t.Errorf("client count = %d, want 1", hub.ClientCount())
	}
}

func TestSlowObserverDoesNotBlock(t *testing.T) {
	hub := NewHub(DefaultConfig().Server, nil)
	slow := NewObserver(EncJSON)
	hub.Register(slow)

	for i := 0; i < sendBufSize*2; i++ {
		hub.Broadcast([]PlayerState{{Name: "A"}})
	}
	if n := len(slow.Frames()); n != sendBufSize {
		t.Errorf("queued %d frames, want %d", n, sendBufSize)
	}
}

func TestConnectionLimits(t *testing.T) {
	hub := NewHub(ServerConfig{MaxConnsPerIP: 2, MaxTotalConns: 3}, nil)

	hub.TrackConnect("1.1.1.1")
	hub.TrackConnect("1.1.1.1")
	if hub.CanAccept("1.1.1.1") {
		t.Error("per-IP limit not enforced")
	}
	if !hub.CanAccept("2.2.2.2") {
		t.Error("other IP should be accepted")
	}
	hub.TrackConnect("2.2.2.2")
	if hub.CanAccept("3.3.3.3") {
		t.Error("total limit not enforced")
	}
	hub.TrackDisconnect("1.1.1.1")
	if !hub.CanAccept("1.1.1.1") {
		t.Error("slot should free after disconnect")
	}
	if hub.TotalConns() != 2 {
		t.Errorf("total = %d, want 2", hub.TotalConns())
	}
}
