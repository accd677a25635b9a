package sphaira

import "fmt"

// ErrUnknownCmd is a transport failure: the incoming command header's
// cmd_id was neither Exit nor FileRange.
type ErrUnknownCmd struct {
	CmdID uint32
}

func (e *ErrUnknownCmd) Error() string {
	return fmt.Sprintf("sphaira: unknown cmd_id %d", e.CmdID)
}

// rangeError is the recoverable half of the FileRange taxonomy: bad
// UTF-8 names, files missing from the listing, and I/O failures on an
// already-opened file. The session loop logs these and moves on to the
// next command rather than terminating.
type rangeError struct {
	reason string
}

func (e *rangeError) Error() string {
	return "sphaira: " + e.reason
}

func badFileName(err error) *rangeError {
	return &rangeError{reason: "bad file name: " + err.Error()}
}

func fileNotListed(name string) *rangeError {
	return &rangeError{reason: "not in listing: " + name}
}

func fileIOError(err error) *rangeError {
	return &rangeError{reason: "file I/O: " + err.Error()}
}
