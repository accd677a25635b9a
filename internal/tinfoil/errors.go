package tinfoil

import "fmt"

// QueryError is the recoverable half of the Tinfoil error taxonomy: it
// never terminates a session, it is serialized into a JSON status
// response and the ping-pong loop continues. Transport failures (bad
// magic, unknown cmd, non-UTF-8 command body) are plain errors instead
// and do terminate the session — see protocol.go.
type QueryError struct {
	Kind    string
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("tinfoil: %s: %s", e.Kind, e.Message)
}

func unsupportedCmd(query string) *QueryError {
	return &QueryError{Kind: "UnsupportedCmd", Message: "malformed query: " + query}
}

func unsupportedEndpoint(endpoint string) *QueryError {
	return &QueryError{Kind: "UnsupportedEndpoint", Message: "unsupported endpoint: " + endpoint}
}

func noIDInfoQuery() *QueryError {
	return &QueryError{Kind: "NoIdInfoQuery", Message: "info query missing title id"}
}

func gameNotFound(id string) *QueryError {
	return &QueryError{Kind: "GameNotFound", Message: "no game with id " + id}
}

func badRange(start, end uint64) *QueryError {
	return &QueryError{Kind: "BadRange", Message: "bad download range"}
}

func fileRead(err error) *QueryError {
	return &QueryError{Kind: "FileRead", Message: err.Error()}
}

// statusResponse is the JSON shape written back for a QueryError.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
