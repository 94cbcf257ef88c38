package constant

const (
	ContextKeyRequestID = "requestid"
)
