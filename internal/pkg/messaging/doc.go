// Package messaging publishes and consumes events over a broker chosen at
// startup. Business code depends only on Publisher and Consumer.
//
// Delivery is at-least-once: a handler returning an error leaves the message
// for redelivery where the broker supports it, so handlers must tolerate
// duplicates.
package messaging
