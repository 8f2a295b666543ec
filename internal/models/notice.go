package models

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the toast shown to the user after an action settles.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

func Success(message string) *Notice {
	return &Notice{Kind: NoticeSuccess, Message: message}
}

func Failure(message string) *Notice {
	return &Notice{Kind: NoticeError, Message: message}
}
