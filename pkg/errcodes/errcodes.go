package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	InvalidPaging       failure.ErrorCode = "InvalidPaging"

	DealNotFound      failure.ErrorCode = "DealNotFound"
	InvalidDealBatch  failure.ErrorCode = "InvalidDealBatch"  // пустой или битый батч от скрейпера
	InvalidSource     failure.ErrorCode = "InvalidSource"     // источник не указан
	InvalidCategory   failure.ErrorCode = "InvalidCategory"   // пустая категория в пути
	InvalidFeedPolicy failure.ErrorCode = "InvalidFeedPolicy" // квоты не прошли валидацию
	RefreshInProgress failure.ErrorCode = "RefreshInProgress" // пересчёт уже идёт
	LockNotHeld       failure.ErrorCode = "LockNotHeld"
	NotifyUnavailable failure.ErrorCode = "NotifyUnavailable" // circuit breaker открыт
)
