package nodegate

// Status codes actually produced by the dispatch core. The full registry of
// HTTP status codes belongs to the framing layer; nodegate only needs the
// ones it can itself decide to send.
const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusInternalServerError = 500
	StatusServiceUnavailable  = 503
)

var statusReasons = map[int]string{
	StatusOK:                  "OK",
	StatusBadRequest:          "Bad Request",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusInternalServerError: "Internal Server Error",
	StatusServiceUnavailable:  "Service Unavailable",
}

// reasonPhrase returns the reason phrase for status, or "Unknown" if the
// dispatch core never produces that status itself.
func reasonPhrase(status int) string {
	if reason, ok := statusReasons[status]; ok {
		return reason
	}
	return "Unknown"
}
