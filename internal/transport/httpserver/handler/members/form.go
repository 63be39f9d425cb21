package members

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"welfare-app-go/internal/domain/member"
	"welfare-app-go/internal/storage"
	"welfare-app-go/internal/transport/httpserver/handler/common"
)

const multipartMemory = 32 << 20

var (
	errBadBody      = errors.New("invalid request body")
	errBodyTooLarge = errors.New("request body too large")
)

var fileFields = []string{member.FieldPassportPhoto, member.FieldCertificates}

// readForm accepts multipart/form-data or a JSON object and returns the
// transport neutral form used by the member service.
func readForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (member.Form, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		return readMultipart(r)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return member.Form{}, bodyError(err)
		}
		return formFromValues(r.PostForm), nil
	default:
		return readJSONForm(r)
	}
}

func readMultipart(r *http.Request) (member.Form, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return member.Form{}, bodyError(err)
	}
	form := formFromValues(r.MultipartForm.Value)

	for _, field := range fileFields {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		file, err := readFile(headers[0])
		if err != nil {
			return member.Form{}, fmt.Errorf("read %s: %w", field, err)
		}
		form.Files[field] = file
	}
	return form, nil
}

func formFromValues(values map[string][]string) member.Form {
	form := newForm()
	for key, list := range values {
		if len(list) == 0 {
			continue
		}
		if isNested(key) {
			form.Nested[key] = list[0]
			continue
		}
		form.Fields[key] = list[0]
	}
	return form
}

func readFile(header *multipart.FileHeader) (storage.File, error) {
	src, err := header.Open()
	if err != nil {
		return storage.File{}, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return storage.File{}, err
	}
	return storage.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readJSONForm(r *http.Request) (member.Form, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return member.Form{}, bodyError(err)
	}
	form := newForm()
	if len(bytes.TrimSpace(body)) == 0 {
		return form, nil
	}

	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return member.Form{}, errBadBody
	}

	for key, value := range payload {
		if isNested(key) {
			form.Nested[key] = value
			continue
		}
		if text, ok := scalarText(value); ok {
			form.Fields[key] = text
		}
	}
	return form, nil
}

func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

func isNested(key string) bool {
	for _, name := range member.NestedFields {
		if key == name {
			return true
		}
	}
	return false
}

func newForm() member.Form {
	return member.Form{
		Fields: map[string]string{},
		Nested: map[string]any{},
		Files:  map[string]storage.File{},
	}
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errBodyTooLarge
	}
	return errBadBody
}

// decodeBody decodes an optional JSON body; an empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	if err := common.DecodeJSON(r, dst); err != nil && !errors.Is(err, io.EOF) {
		return bodyError(err)
	}
	return nil
}
