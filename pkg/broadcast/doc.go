// Package broadcast fans messages out to subscribers of a topic.
//
// The in-memory implementation drops messages for subscribers whose buffer
// is full instead of blocking the publisher. Live conversation threads use
// it with the conversation id as topic.
package broadcast
