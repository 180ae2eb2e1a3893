package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLen is how much of an upload is buffered for content detection.
const sniffLen = 3072

var (
	// ErrTooLarge is returned when an upload exceeds UploadPolicy.MaxBytes.
	ErrTooLarge = errors.New("storage: upload exceeds size limit")
	// ErrUnsupportedType is returned when the sniffed content type is not allowed.
	ErrUnsupportedType = errors.New("storage: unsupported content type")
)

// UploadPolicy restricts what SaveUpload accepts.
type UploadPolicy struct {
	MaxBytes     int64
	AllowedMIMEs []string
}

// StoredFile describes a persisted upload.
type StoredFile struct {
	Path string
	Size int64
	MIME string
}

// SaveUpload sniffs the content of r, rejects disallowed types and oversized bodies, and
// stores it under dir with a generated name. The declared client content type is ignored.
func (s *LocalStorage) SaveUpload(dir string, r io.Reader, policy UploadPolicy) (*StoredFile, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, ErrUnsupportedType
	}

	detected := mimetype.Detect(head)
	if len(policy.AllowedMIMEs) > 0 && !mimetype.EqualsAny(detected.String(), policy.AllowedMIMEs...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	if policy.MaxBytes > 0 {
		body = io.LimitReader(body, policy.MaxBytes+1)
	}

	name := path.Join(dir, uuid.NewString()+detected.Extension())
	written, err := s.SaveStream(name, body)
	if err != nil {
		_ = s.Delete(name)
		return nil, err
	}
	if policy.MaxBytes > 0 && written > policy.MaxBytes {
		_ = s.Delete(name)
		return nil, ErrTooLarge
	}
	return &StoredFile{Path: name, Size: written, MIME: detected.String()}, nil
}
