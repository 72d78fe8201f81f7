// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"mime"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/maheshrc27/tweet-scheduler/internal/repository"
	"github.com/stretchr/testify/require"
)

// NewSQLiteDB opens a migrated in-memory database closed at test end.
func NewSQLiteDB(t testing.TB) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := repository.Open(ctx, repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = repository.RunMigrations(ctx, db, repository.DriverSQLite)
	require.NoError(t, err)
	return db
}

type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// MultipartBody encodes fields and files as multipart/form-data and returns
// the body with its content type.
func MultipartBody(t testing.TB, fields map[string]string, files ...File) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+f.Field+`"; filename="`+f.Name+`"`)
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// FileHeaders builds the headers a multipart upload of files would produce,
// in the order given.
func FileHeaders(t testing.TB, files ...File) []*multipart.FileHeader {
	t.Helper()

	body, contentType := MultipartBody(t, nil, files...)
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	var headers []*multipart.FileHeader
	seen := map[string]bool{}
	for _, f := range files {
		if seen[f.Field] {
			continue
		}
		seen[f.Field] = true
		headers = append(headers, form.File[f.Field]...)
	}
	return headers
}

var (
	// PNG is the smallest header filetype recognises as image/png.
	PNG = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}
	// JPEG is recognised as image/jpeg.
	JPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 0x4A, 0x46, 0x49, 0x46, 0}
)
