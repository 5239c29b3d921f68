// Package channel keeps one shared server-push connection per endpoint and
// multiplexes named event subscriptions over it.
//
// A Manager owns at most one live Channel. Shared returns the channel for a
// URL, replacing the current one when the URL differs. Subscriptions are kept
// in registration order and replayed onto every new connection, so they
// survive reconnects. Transport errors trigger a bounded number of reconnect
// attempts with a fixed delay; once the bound is reached the channel fails,
// the user is notified once and the channel releases itself.
//
//	mgr, _ := channel.NewManager(provider, board, channel.Config{})
//	ch := mgr.Shared("https://api.example.com/events")
//	ch.Subscribe("update", func(payload string) { ... })
//	defer ch.Close()
package channel
