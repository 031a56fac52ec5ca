// Package natsbus forwards application events to a NATS subject. The
// Publisher implements events.EventHandler so it can be registered on the
// in-memory emitter like any other handler.
package natsbus
