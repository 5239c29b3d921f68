// Package component defines lifecycle interfaces for the long-lived parts of a
// streamkit application and a registry that starts them in order and stops
// them in reverse.
package component
