package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFromSignedURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rawURL  string
		bucket  string
		want    string
		wantErr bool
	}{
		{
			name:   "bucket-prefixed path with signature query",
			rawURL: "https://storage.example.com/documents/uploads/2025/notes.pdf?X-Amz-Signature=abc123&X-Amz-Expires=900",
			bucket: "documents",
			want:   "uploads/2025/notes.pdf",
		},
		{
			name:   "virtual-hosted style without bucket in path",
			rawURL: "https://documents.storage.example.com/uploads/notes.pdf",
			bucket: "documents",
			want:   "uploads/notes.pdf",
		},
		{
			name:   "bucket name recurring inside the object path survives",
			rawURL: "https://storage.example.com/documents/documents/inner.pdf",
			bucket: "documents",
			want:   "documents/inner.pdf",
		},
		{
			name:    "no object path",
			rawURL:  "https://storage.example.com/documents/",
			bucket:  "documents",
			wantErr: true,
		},
		{
			name:    "unparseable URL",
			rawURL:  "://not-a-url",
			bucket:  "documents",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := PathFromSignedURL(tc.rawURL, tc.bucket)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
