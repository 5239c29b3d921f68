// Package broadcast fans server-sent events out to connected HTTP clients.
//
// A Hub owns the client set and runs a single event loop; Handler serves a
// text/event-stream response for one client; Component ties the hub's loop
// to the application lifecycle. NoticeNotifier pushes connection notices to
// browsers so they can render them without polling.
//
//	hub := broadcast.NewComponent("/notices/stream")
//	engine.GET("/notices/stream", broadcast.Handler(hub.Hub(), broadcast.TopicNotices))
package broadcast
