package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		sub  Submission
		want []string
	}{
		{
			name: "empty submission",
			sub:  nil,
			want: []string{MsgNoUploadGroups},
		},
		{
			name: "valid",
			sub:  scenarioSubmission(),
			want: nil,
		},
		{
			name: "blank filenames name only offending groups",
			sub: Submission{
				{Name: "images", Files: files("a.jpg", "")},
				{Name: "docs[contracts]", Files: files("c.pdf")},
				{Name: "docs[invoices]", Files: files(" ", "")},
				{Name: "music", Files: files("song.mp3")},
			},
			want: []string{"please select files to upload for images, docs[invoices]"},
		},
		{
			name: "shape conflict",
			sub: Submission{
				{Name: "photos[avatar]", Files: files("a.png")},
				{Name: "photos", Files: files("b.png")},
			},
			want: []string{"conflicting upload group shape for photos"},
		},
		{
			name: "blank and conflict together",
			sub: Submission{
				{Name: "photos", Files: files("")},
				{Name: "photos[avatar]", Files: files("b.png")},
				{Name: "photos[cover]", Files: files("c.png")},
			},
			want: []string{
				"please select files to upload for photos",
				"conflicting upload group shape for photos",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, _ := Normalize(tt.sub)
			assert.Equal(t, tt.want, Validate(names))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Messages: []string{"one", "two"}}
	assert.Equal(t, "invalid upload: one; two", err.Error())
}
