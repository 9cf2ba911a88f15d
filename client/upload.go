package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/gaborage/go-fetch/httperr"
)

// DefaultUploadField is the multipart field name bare files are coerced
// under.
const DefaultUploadField = "file"

// FormData is a ready multipart payload: plain fields plus file parts.
type FormData struct {
	Fields map[string]string
	Files  []FilePart
}

// FilePart is one file entry in a multipart payload.
type FilePart struct {
	// FieldName is the multipart field. Empty defaults to "file".
	FieldName string
	// FileName is the name reported to the server.
	FileName string
	// ContentType overrides sniffing. Empty means sniff from content.
	ContentType string
	// Content is the file payload.
	Content []byte
}

// Upload sends data as a multipart POST. data is either a ready
// *FormData, a file path, an io.Reader, or raw bytes; bare payloads
// are coerced into a single file part under the conventional field
// name. The request runs through the normal POST pipeline, so the
// transport policy sees the progress callbacks and picks the buffered
// dispatcher when byte-level accounting was asked for.
func (c *restClient) Upload(ctx context.Context, path string, data any, opts *UploadOptions) (*Response, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}

	form, err := coerceFormData(data, opts)
	if err != nil {
		return nil, err
	}
	body, contentType, err := encodeMultipart(form)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(opts.Headers)+1)
	for key, value := range opts.Headers {
		headers[key] = value
	}
	headers[contentTypeHeader] = contentType

	return c.Do(ctx, nethttp.MethodPost, &Request{
		Path:    path,
		Headers: headers,
		Body:    body,
		Upload:  opts.Progress,
	})
}

// coerceFormData normalizes the accepted payload shapes onto FormData.
func coerceFormData(data any, opts *UploadOptions) (*FormData, error) {
	switch v := data.(type) {
	case *FormData:
		if v == nil {
			return nil, httperr.NewValidationError("upload data cannot be nil", "data")
		}
		return v, nil
	case FormData:
		return &v, nil
	case string:
		content, err := os.ReadFile(v)
		if err != nil {
			return nil, httperr.NewValidationError("failed to read upload file: "+err.Error(), "data")
		}
		name := opts.FileName
		if name == "" {
			name = filepath.Base(v)
		}
		return singleFileForm(opts.FieldName, name, content), nil
	case io.Reader:
		content, err := io.ReadAll(v)
		if err != nil {
			return nil, httperr.NewValidationError("failed to read upload stream: "+err.Error(), "data")
		}
		return singleFileForm(opts.FieldName, opts.FileName, content), nil
	case []byte:
		return singleFileForm(opts.FieldName, opts.FileName, v), nil
	case nil:
		return nil, httperr.NewValidationError("upload data cannot be nil", "data")
	default:
		return nil, httperr.NewValidationError("unsupported upload data type", "data")
	}
}

func singleFileForm(field, name string, content []byte) *FormData {
	if name == "" {
		name = DefaultUploadField
	}
	return &FormData{Files: []FilePart{{FieldName: field, FileName: name, Content: content}}}
}

// encodeMultipart renders the form into a multipart/form-data body.
// File part content types are sniffed when not supplied.
func encodeMultipart(form *FormData) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range form.Fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", httperr.NewValidationError("failed to encode form field: "+err.Error(), name)
		}
	}

	for _, file := range form.Files {
		field := file.FieldName
		if field == "" {
			field = DefaultUploadField
		}
		name := file.FileName
		if name == "" {
			name = field
		}
		contentType := file.ContentType
		if contentType == "" {
			contentType = mimetype.Detect(file.Content).String()
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			`form-data; name="`+escapeQuotes(field)+`"; filename="`+escapeQuotes(name)+`"`)
		header.Set(contentTypeHeader, contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", httperr.NewValidationError("failed to encode file part: "+err.Error(), field)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", httperr.NewValidationError("failed to write file part: "+err.Error(), field)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", httperr.NewValidationError("failed to finalize multipart body: "+err.Error(), "data")
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
