package internal

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FormFile is a file part of a multipart form.
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// FormData is an ordered multipart form, the Go side of a browser FormData.
type FormData struct {
	fields [][2]string
	files  []FormFile
}

// NewFormData returns an empty form.
func NewFormData() *FormData {
	return &FormData{}
}

// Set appends a text field. Repeated names are sent repeatedly.
func (f *FormData) Set(name, value string) *FormData {
	f.fields = append(f.fields, [2]string{name, value})
	return f
}

// Get returns the first value of name.
func (f *FormData) Get(name string) string {
	for _, kv := range f.fields {
		if kv[0] == name {
			return kv[1]
		}
	}
	return ""
}

// AddFile appends a file part read from r.
func (f *FormData) AddFile(field, filename string, r io.Reader) *FormData {
	f.files = append(f.files, FormFile{Field: field, Filename: filename, Content: r})
	return f
}

// AddFilePath appends the file at path. The file is read when the form is encoded.
func (f *FormData) AddFilePath(field, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	f.AddFile(field, filepath.Base(path), bytes.NewReader(data))
	return nil
}

// Encode renders the form and returns its body and content type.
func (f *FormData) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", errors.Wrapf(err, "failed to write field %s", kv[0])
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, "", errors.Wrapf(err, "failed to create part %s", file.Field)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", errors.Wrapf(err, "failed to write part %s", file.Field)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "failed to finish form")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// Request builds dispatcher options carrying the form.
func (f *FormData) Request(method string) (RequestOptions, error) {
	body, contentType, err := f.Encode()
	if err != nil {
		return RequestOptions{}, err
	}
	return RequestOptions{Method: method, Body: body, ContentType: contentType}, nil
}
