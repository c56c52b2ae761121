package response

// Business codes reuse HTTP semantics; the transport status is always 200.
const (
	CodeOK            = 0
	CodeBadRequest    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeConflict      = 409
	CodeUnprocessable = 422
	CodeTooMany       = 429
	CodeServerError   = 500
	CodeTimeout       = 504
)

// CodeMsgMap holds the default msg for each code.
var CodeMsgMap = map[int]string{
	CodeOK:            "OK",
	CodeBadRequest:    "Bad Request",
	CodeUnauthorized:  "Unauthorized",
	CodeForbidden:     "Forbidden",
	CodeNotFound:      "Not Found",
	CodeConflict:      "Conflict",
	CodeUnprocessable: "Unprocessable Entity",
	CodeTooMany:       "Too Many Requests",
	CodeServerError:   "Internal Server Error",
	CodeTimeout:       "Timeout",
}
