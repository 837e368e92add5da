package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-tether/binding"
)

const (
	TetherErrorSevered            = binding.ErrorCodeSevered
	TetherErrorInvalidRedeem      = binding.ErrorCodeInvalidRedeem
	TetherErrorBadUsage           = binding.ErrorCodeBadUsage
	TetherErrorCapabilityNotFound = "TETHER_CAPABILITY_NOT_FOUND"
	TetherErrorBindingNotFound    = "TETHER_BINDING_NOT_FOUND"
	TetherErrorInternal           = "TETHER_INTERNAL_ERROR"
)

func tetherErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureTetherErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "severed"):
		return newTetherError(err.Error(), goerrors.CategoryConflict, TetherErrorSevered)
	case strings.Contains(msg, "redeem"):
		return newTetherError(err.Error(), goerrors.CategoryBadInput, TetherErrorInvalidRedeem)
	case strings.Contains(msg, "capability") && strings.Contains(msg, "not registered"):
		return newTetherError(err.Error(), goerrors.CategoryNotFound, TetherErrorCapabilityNotFound)
	case strings.Contains(msg, "binding") && strings.Contains(msg, "not registered"):
		return newTetherError(err.Error(), goerrors.CategoryNotFound, TetherErrorBindingNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "already"):
		return newTetherError(err.Error(), goerrors.CategoryBadInput, TetherErrorBadUsage)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureTetherErrorEnvelope(mapped)
}

func badUsageError(format string, args ...any) *goerrors.Error {
	return newTetherError(fmt.Sprintf(format, args...), goerrors.CategoryBadInput, TetherErrorBadUsage)
}

func severedError(format string, args ...any) *goerrors.Error {
	return newTetherError(fmt.Sprintf(format, args...), goerrors.CategoryConflict, TetherErrorSevered)
}

func invalidRedeemError(format string, args ...any) *goerrors.Error {
	return newTetherError(fmt.Sprintf(format, args...), goerrors.CategoryBadInput, TetherErrorInvalidRedeem)
}

func capabilityNotFoundError(format string, args ...any) *goerrors.Error {
	return newTetherError(fmt.Sprintf(format, args...), goerrors.CategoryNotFound, TetherErrorCapabilityNotFound)
}

func bindingNotFoundError(format string, args ...any) *goerrors.Error {
	return newTetherError(fmt.Sprintf(format, args...), goerrors.CategoryNotFound, TetherErrorBindingNotFound)
}

func newTetherError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureTetherErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureTetherErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = tetherHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTetherTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTetherTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return TetherErrorBadUsage
	case goerrors.CategoryNotFound:
		return TetherErrorBindingNotFound
	case goerrors.CategoryConflict:
		return TetherErrorSevered
	default:
		return TetherErrorInternal
	}
}

func tetherHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
