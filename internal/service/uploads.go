package service

import (
	"errors"
	"io"
	"os"

	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
	"github.com/noah-isme/eduboost-api/pkg/storage"
)

type fileStore interface {
	SaveUpload(dir string, r io.Reader, policy storage.UploadPolicy) (*storage.StoredFile, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// Attachment is an opened stored file ready to be streamed to a client.
type Attachment struct {
	File     *os.File
	Filename string
}

func storeUpload(store fileStore, dir string, r io.Reader, policy storage.UploadPolicy) (*storage.StoredFile, error) {
	if store == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "file storage unavailable")
	}
	file, err := store.SaveUpload(dir, r, policy)
	switch {
	case err == nil:
		return file, nil
	case errors.Is(err, storage.ErrUnsupportedType):
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMediaType, "only PDF files are accepted")
	case errors.Is(err, storage.ErrTooLarge):
		return nil, appErrors.ErrFileTooLarge
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
}
