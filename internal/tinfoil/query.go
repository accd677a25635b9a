package tinfoil

import (
	"strconv"
	"strings"
)

// parsedQuery is the result of splitting a Tinfoil query string of the
// shape "/api/req_type/query...".
type parsedQuery struct {
	endpoint string
	reqType  string
	rest     string
}

// parseQuery splits raw into its endpoint, request type, and remaining
// query, requiring the leading '/' the protocol's HTTP heritage left
// behind (the split's first token must be empty).
func parseQuery(raw string) (parsedQuery, *QueryError) {
	parts := strings.SplitN(raw, "/", 4)
	if len(parts) < 3 || parts[0] != "" {
		return parsedQuery{}, unsupportedCmd(raw)
	}

	rest := ""
	if len(parts) == 4 {
		rest = parts[3]
	}
	return parsedQuery{
		endpoint: parts[1],
		reqType:  strings.TrimSuffix(parts[2], "?"),
		rest:     rest,
	}, nil
}

// firstSegment returns the portion of s before the next '/', or all of
// s if it contains none.
func firstSegment(s string) string {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[:i]
	}
	return s
}

// parseDownloadArgs splits a download query's rest into a title ID and
// optional start/end range bounds. A missing start or end defaults to
// 0 and size respectively, per the caller supplying size.
func parseDownloadArgs(rest string, size uint64) (id string, start, end uint64, qerr *QueryError) {
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", 0, 0, noIDInfoQuery()
	}
	id = parts[0]
	start, end = 0, size

	if len(parts) > 1 && parts[1] != "" {
		v, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return "", 0, 0, badRange(0, size)
		}
		start = v
	}
	if len(parts) > 2 && parts[2] != "" {
		v, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			return "", 0, 0, badRange(start, size)
		}
		end = v
	}
	return id, start, end, nil
}
