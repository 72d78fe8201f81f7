package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateNonce returns a 32 character alphanumeric one-time value for
// request signing.
func GenerateNonce() (string, error) {
	return gonanoid.Generate(alphanumeric, 32)
}

// GenerateFileName returns a random name for a stored media file.
func GenerateFileName(extension string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	if extension == "" {
		return id, nil
	}
	return id + "." + extension, nil
}
