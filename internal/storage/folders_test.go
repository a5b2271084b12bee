package storage

import (
	"testing"

	"alcyxob/upload-service/internal/config"

	"github.com/stretchr/testify/assert"
)

func configWithDriver(driver string) config.S3Config {
	return config.S3Config{Driver: driver, BucketName: "bucket"}
}

func TestFolders_Resolve(t *testing.T) {
	folders := NewFolders(map[string]string{"user_file": "/user-files/", "empty": "  "})

	assert.Equal(t, "user-files", folders.Resolve("user_file"))
	assert.Equal(t, "user-files", folders.Resolve("user file"))
	assert.Equal(t, "user-files", folders.Resolve("  User File "))
	assert.Equal(t, "", folders.Resolve("avatar"))
	assert.Equal(t, "", folders.Resolve("empty"))
	assert.Equal(t, "", folders.Resolve(""))
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "user-files/x.png", ObjectKey("user-files", "x.png"))
	assert.Equal(t, "", ObjectKey("", "x.png"))
	assert.Equal(t, "", ObjectKey("user-files", " "))
}
