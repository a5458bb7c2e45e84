package response

// 业务码直接沿用 HTTP 语义；成功统一为 0
const (
	CodeOK                 = 0
	CodeBadRequest         = 400
	CodeUnauthorized       = 401
	CodeNotFound           = 404
	CodeRequestTooLarge    = 413
	CodeUnprocessable      = 422
	CodeServerError        = 500
	CodeServiceUnavailable = 503
	CodeGatewayTimeout     = 504
)

// CodeMsgMap 用于集中管理 code - msg
var CodeMsgMap = map[int]string{
	CodeOK:                 "OK",
	CodeBadRequest:         "Bad Request",
	CodeUnauthorized:       "Unauthorized",
	CodeNotFound:           "Not Found",
	CodeRequestTooLarge:    "Request Entity Too Large",
	CodeUnprocessable:      "Unprocessable Entity",
	CodeServerError:        "Internal Server Error",
	CodeServiceUnavailable: "Service Unavailable",
	CodeGatewayTimeout:     "Gateway Timeout",
}
