// Package upload implements the multi-file upload pipeline: it normalizes a
// submission into a deduplicated file list plus a name map mirroring the
// caller's field layout, validates it, fans the uploads out to object
// storage over a bounded worker pool and folds the assigned names back in.
package upload

import (
	"io"
	"mime/multipart"
	"sort"
)

// File is one uploaded part. The content stream belongs to the request;
// the pipeline opens it for the duration of a single put and closes it.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Field is a form field and the files submitted under it. A name of the form
// outer[inner] places the files in a nested group.
type Field struct {
	Name  string
	Files []File
}

// Submission is the raw field -> files input, in submission order.
type Submission []Field

// FromMultipart converts a parsed multipart form. Form files arrive as a map,
// so fields are ordered by name to keep deduplication deterministic. Parts
// sent with an empty filename are parsed as plain values by mime/multipart
// and are therefore not part of the submission.
func FromMultipart(form *multipart.Form) Submission {
	if form == nil || len(form.File) == 0 {
		return nil
	}

	names := make([]string, 0, len(form.File))
	for name := range form.File {
		names = append(names, name)
	}
	sort.Strings(names)

	sub := make(Submission, 0, len(names))
	for _, name := range names {
		headers := form.File[name]
		files := make([]File, 0, len(headers))
		for _, fh := range headers {
			fh := fh
			files = append(files, File{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Open:        func() (io.ReadCloser, error) { return fh.Open() },
			})
		}
		sub = append(sub, Field{Name: name, Files: files})
	}
	return sub
}
