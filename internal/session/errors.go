package session

import "errors"

var (
	ErrEmptyMessage       = errors.New("message content is empty")
	ErrSendFailed         = errors.New("message send failed")
	ErrSubscriptionFailed = errors.New("live subscription failed")
	ErrClosed             = errors.New("session is closed")
	ErrAlreadyOpen        = errors.New("session is already open")

	// ErrEchoLost возвращает Appender, когда запись удалась,
	// но живой повтор до подписчиков не дошел
	ErrEchoLost = errors.New("message stored, live delivery unavailable")
)
