package controllers

import (
	"net/http"

	"github.com/DenysVerbitskyi/verba-store/api/responses"
	mediasvc "github.com/DenysVerbitskyi/verba-store/internal/media"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
)

const uploadFormField = "image"

// AdminUploadImage stores one product image from a multipart form and
// returns the path to persist on the product.
func AdminUploadImage(svc *mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		file, header, err := r.FormFile(uploadFormField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image file is required"))
			return
		}
		defer file.Close()

		stored, err := svc.Store(r.Context(), mediasvc.UploadInput{
			FileName:  header.Filename,
			MimeType:  header.Header.Get("Content-Type"),
			SizeBytes: header.Size,
			Content:   file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, stored)
	}
}
