package domain

import "strings"

// Image описывает изображение работы, которое хранится в S3
type Image struct {
	Bucket    string
	ObjectKey string
}

func NewImage(bucket string, objectKey string) *Image {
	return &Image{
		Bucket:    bucket,
		ObjectKey: objectKey,
	}
}

// IsExternalURL сообщает, что ссылка уже абсолютная и не требует подписи.
func IsExternalURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:")
}
