package upload

import (
	"io"
	"strings"
	"time"

	"alcyxob/upload-service/internal/storage"
)

var fixedNow = time.Unix(1700000000, 0)

func fixedClock() time.Time { return fixedNow }

func memFile(name, content string) File {
	return File{
		Filename:    name,
		ContentType: "application/octet-stream",
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func files(names ...string) []File {
	out := make([]File, len(names))
	for i, n := range names {
		out[i] = memFile(n, "content of "+n)
	}
	return out
}

func testFolders() storage.Folders {
	return storage.NewFolders(map[string]string{storage.CategoryUserFile: "user-files"})
}

// scenarioSubmission is {"images": [a.jpg, b.jpg], "docs[contracts]": [c.pdf]}.
func scenarioSubmission() Submission {
	return Submission{
		{Name: "images", Files: files("a.jpg", "b.jpg")},
		{Name: "docs[contracts]", Files: files("c.pdf")},
	}
}
