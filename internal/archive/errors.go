package archive

import (
	"context"
	"errors"
	"net/http"

	miniogo "github.com/minio/minio-go/v7"

	"github.com/koustreak/DatLas/internal/errs"
)

// mapError translates a MinIO SDK error into a *errs.Error, mirroring the
// mapError pattern in the catalog drivers.
func mapError(msg string, err error) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.SubsystemArchive, errs.ErrKindTimeout, msg, err)
	}

	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return errs.Wrap(errs.SubsystemArchive, errs.ErrKindNotFound, msg, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return errs.Wrap(errs.SubsystemArchive, errs.ErrKindPermissionDenied, msg, err)
		case http.StatusBadRequest:
			return errs.Wrap(errs.SubsystemArchive, errs.ErrKindInvalidInput, msg, err)
		}

		switch resp.Code {
		case "NoSuchBucket", "NoSuchKey":
			return errs.Wrap(errs.SubsystemArchive, errs.ErrKindNotFound, msg, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errs.Wrap(errs.SubsystemArchive, errs.ErrKindPermissionDenied, msg, err)
		case "RequestTimeout", "SlowDown":
			return errs.Wrap(errs.SubsystemArchive, errs.ErrKindTimeout, msg, err)
		}
	}

	return errs.Wrap(errs.SubsystemArchive, errs.ErrKindConnectionFailed, msg, err)
}
