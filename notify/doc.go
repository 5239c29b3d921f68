// Package notify surfaces terminal stream failures to the user.
//
// A Board keeps notices for a limited time (10 seconds by default) so a UI can
// render them outside its normal chrome and let the user dismiss them early.
// RegisterRoutes exposes the board over HTTP:
//
//	GET    /notices       active notices, oldest first
//	DELETE /notices/:id   dismiss a notice
package notify
