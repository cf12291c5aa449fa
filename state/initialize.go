package state

import (
	"time"
)

// newLocalEnv creates a new LocalEnv with nothing but the start time set,
// the rest is filled in by the command line front end.
func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}
