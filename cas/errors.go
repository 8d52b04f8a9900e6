package cas

import "github.com/kochabx/sso/errors"

// 校验失败码
const (
	CodeInvalidRequest           = "INVALID_REQUEST"
	CodeInvalidTicketSpec        = "INVALID_TICKET_SPEC"
	CodeUnauthorizedServiceProxy = "UNAUTHORIZED_SERVICE_PROXY"
	CodeInvalidProxyCallback     = "INVALID_PROXY_CALLBACK"
	CodeInvalidTicket            = "INVALID_TICKET"
	CodeInvalidService           = "INVALID_SERVICE"
	CodeInternalError            = "INTERNAL_ERROR"
)

var (
	ErrInvalidRequest           = errors.BadRequest(CodeInvalidRequest, "invalid request")
	ErrInvalidTicketSpec        = errors.BadRequest(CodeInvalidTicketSpec, "ticket does not satisfy validation specification")
	ErrUnauthorizedServiceProxy = errors.BadRequest(CodeUnauthorizedServiceProxy, "service is not authorized to perform proxy authentication")
	ErrInvalidProxyCallback     = errors.BadRequest(CodeInvalidProxyCallback, "proxy callback is invalid")
	ErrInvalidTicket            = errors.BadRequest(CodeInvalidTicket, "ticket not recognized")
	ErrInvalidService           = errors.BadRequest(CodeInvalidService, "service is invalid")
	ErrInternal                 = errors.Internal(CodeInternalError, "internal error")
)
