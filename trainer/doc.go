// Package trainer drives many independent, possibly resumed training instances through one
// shared epoch structured data stream. A bounded batch of tasks is trained one epoch per step,
// diverged tasks are dropped and finished ones are handed to a completion pusher.
package trainer
