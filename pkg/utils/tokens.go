package utils

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const stateTokenLength = 32

// GenerateStateToken returns an unguessable URL-safe value for the OAuth
// state parameter.
func GenerateStateToken() (string, error) {
	return gonanoid.New(stateTokenLength)
}

// GenerateObjectKey builds a storage key such as "media/V1StGXR8_Z5jdHi6B-myT.jpg".
func GenerateObjectKey(prefix, ext string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.TrimSuffix(prefix, "/") + "/" + id + ext, nil
}
