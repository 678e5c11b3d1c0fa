package models

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileError_MatchesKindAndCause(t *testing.T) {
	err := NewFileError("/in/a.png", "upload", ErrTransport, fs.ErrPermission)

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.NotErrorIs(t, err, ErrOCR)
	assert.Equal(t, "/in/a.png: upload: transport error: permission denied", err.Error())

	var fe *FileError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, "upload", fe.Stage)
}

func TestNewFileError_KeepsExistingFileError(t *testing.T) {
	inner := NewFileError("/in/a.pdf", "ocr", ErrOCR, errors.New("exit status 2"))

	err := NewFileError("/in/a.pdf", "upload", ErrTransport, inner)

	assert.Same(t, inner, err)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestKindError(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	wrapped := Wrap(ErrAuthentication, cause, "credential check failed")
	assert.ErrorIs(t, wrapped, ErrAuthentication)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "authentication error: credential check failed: dial tcp: refused", wrapped.Error())

	formatted := Errorf(ErrConfiguration, "missing %s", "TAGTOG_USERNAME")
	assert.ErrorIs(t, formatted, ErrConfiguration)
	assert.Equal(t, "configuration error: missing TAGTOG_USERNAME", formatted.Error())

	assert.NoError(t, Wrap(ErrOCR, nil, "ignored"))
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "pdf", SourcePDF.String())
	assert.Equal(t, "image", SourceImage.String())
	assert.Equal(t, "unsupported", SourceUnsupported.String())
}
