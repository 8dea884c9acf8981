package infrastructure

import "strings"

// ObjectKeyFromRef приводит ссылку на изображение из каталога к ключу объекта в бакете.
// Допускаются формы "key", "/key" и "bucket/key".
func ObjectKeyFromRef(bucket, ref string) string {
	key := strings.TrimLeft(strings.TrimSpace(ref), "/")
	if bucket != "" {
		key = strings.TrimPrefix(key, bucket+"/")
	}

	return key
}
