// Package util provides small helpers shared by the state machine and the stores.
package util
