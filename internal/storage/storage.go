package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidImage      = errors.New("invalid image")
)

// PhotoSize is the edge length of stored passport photos.
const PhotoSize = 500

var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// File is an uploaded document held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Object identifies a stored file. Key is the provider id kept next to the URL.
type Object struct {
	URL string
	Key string
}

type Store interface {
	Put(ctx context.Context, key, contentType string, body []byte) (Object, error)
}

type Uploader struct {
	store   Store
	newName func() string
}

func NewUploader(store Store) *Uploader {
	return &Uploader{store: store, newName: uuid.NewString}
}

// UploadPhoto crops the image to a centred square, scales it to PhotoSize and stores it as JPEG.
func (u *Uploader) UploadPhoto(ctx context.Context, folder string, file File) (Object, error) {
	data, err := CropFill(file.Data, PhotoSize, PhotoSize)
	if err != nil {
		return Object{}, err
	}
	return u.store.Put(ctx, path.Join(folder, u.newName()+".jpg"), "image/jpeg", data)
}

// CheckDocument reports ErrUnsupportedFormat unless name has a pdf, png, jpg
// or jpeg extension.
func CheckDocument(name string) error {
	_, err := documentType(name)
	return err
}

func documentType(name string) (string, error) {
	contentType, ok := documentTypes[strings.ToLower(path.Ext(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	return contentType, nil
}

// UploadDocument stores pdf, png, jpg and jpeg files unchanged.
func (u *Uploader) UploadDocument(ctx context.Context, folder string, file File) (Object, error) {
	contentType, err := documentType(file.Name)
	if err != nil {
		return Object{}, err
	}
	ext := strings.ToLower(path.Ext(file.Name))
	return u.store.Put(ctx, path.Join(folder, u.newName()+ext), contentType, file.Data)
}
