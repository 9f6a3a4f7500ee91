package errs

// 错误码分段：
// 10xx 通用；11xx 认证（连接级，致命）；12xx 事件封包；13xx 房间准入；14xx 转发
const (
	UnknownCode = 500

	ArgsCode           = 1001
	InternalCode       = 1002
	RecordNotFoundCode = 1003

	NoCredentialCode      = 1101
	InvalidCredentialCode = 1102
	UnknownIdentityCode   = 1103
	TokenExpiredCode      = 1104

	MalformedEventCode = 1201

	BoardNotFoundCode = 1301
	AccessDeniedCode  = 1302

	RelayFailureCode = 1401
)

var (
	ErrArgs           = NewCodeError(ArgsCode, "invalid args")
	ErrInternal       = NewCodeError(InternalCode, "internal error")
	ErrRecordNotFound = NewCodeError(RecordNotFoundCode, "record not found")

	// 连接级错误：认证失败必须断开连接
	ErrNoCredential      = NewCodeError(NoCredentialCode, "no credential supplied")
	ErrInvalidCredential = NewCodeError(InvalidCredentialCode, "credential invalid or expired")
	ErrUnknownIdentity   = NewCodeError(UnknownIdentityCode, "token subject does not exist")
	ErrTokenExpired      = NewCodeError(TokenExpiredCode, "token expired")

	// 事件级错误：只拒绝当前事件，连接保持
	ErrMalformedEvent = NewCodeError(MalformedEventCode, "malformed event envelope")

	ErrBoardNotFound = NewCodeError(BoardNotFoundCode, "whiteboard not found")
	ErrAccessDenied  = NewCodeError(AccessDeniedCode, "access to whiteboard denied")

	ErrRelayFailure = NewCodeError(RelayFailureCode, "relay to room failed")
)
