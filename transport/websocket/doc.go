// Package websocket streams search frames to browsers.
//
// A central Hub owns every connection. Clients subscribe to one session when
// they connect and receive only that session's messages. Each client gets a
// read goroutine, which keeps the pong deadline fresh, and a write goroutine
// that drains its send queue. A client whose queue is full is dropped.
//
// Message Protocol:
//
// Every message is one JSON object per WebSocket frame:
//
//	{"session_id": "ab12cd34", "event": "frame", "frame": {...}}
//	{"session_id": "ab12cd34", "event": "play_stopped", "data": {...}}
//
// Incoming client messages are ignored.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	frame, _ := searchService.GetFrame(ctx, id)
//	hub.ServeWS(w, r, id, frame)
//	hub.BroadcastFrame(id, *frame)
//
// Concurrency:
//
// All hub state is confined to the Run goroutine; Broadcast*, ClientCount and
// ServeWS talk to it through channels and are safe to call from anywhere.
package websocket
