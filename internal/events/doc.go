// Package events decouples components that record facts from those that
// consume them. Services emit an Event through an EventEmitter; handlers
// such as the NATS publisher receive every emitted event.
package events
