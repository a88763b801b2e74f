package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// httpStatus maps a core error onto a status code and a message safe to
// show to the client.
func httpStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrPermission):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, port.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	}
	return http.StatusInternalServerError, "internal error"
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrPermission):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, port.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return status.Error(codes.Internal, "internal error")
}
