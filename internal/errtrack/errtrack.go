// Package errtrack implements a sticky first-error cell shared by the
// reader and writer state machines.
package errtrack

// Recorder keeps the first error it is given. Later errors are dropped.
// The zero value is ready to use. A Recorder is not safe for concurrent
// use; it follows the single-threaded ownership of its reader or writer.
type Recorder struct {
	err error
}

// Set stores err if no error has been recorded yet. Passing nil is a no-op.
func (recorder *Recorder) Set(err error) {
	if recorder.err == nil && err != nil {
		recorder.err = err
	}
}

// Ok reports whether no error has been recorded.
func (recorder *Recorder) Ok() bool {
	return recorder.err == nil
}

// Err returns the recorded error, or nil.
func (recorder *Recorder) Err() error {
	return recorder.err
}
