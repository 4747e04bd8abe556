package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Artifact is one persisted binary output with a durable URL. Artifacts are
// never mutated after creation; deletion belongs to the out-of-band
// retention job.
type Artifact struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

// ArtifactStore persists image outputs to object storage under a namespaced,
// timestamped path. The destination is any afs-addressable URL (file://,
// s3://, ...; cloud schemes register via afsc blank imports in cmd).
type ArtifactStore struct {
	fs      afs.Service
	baseURL string // storage destination, e.g. "s3://bucket/outputs"
	public  string // public URL prefix substituted for baseURL in results
}

// NewArtifactStore creates a store uploading under baseURL. When public is
// non-empty, returned artifact URLs swap the storage prefix for it.
func NewArtifactStore(baseURL, public string) *ArtifactStore {
	return &ArtifactStore{
		fs:      afs.New(),
		baseURL: strings.TrimRight(baseURL, "/"),
		public:  strings.TrimRight(public, "/"),
	}
}

// Put uploads one image and returns its durable URL. Object names are
// namespaced and collision-free: mplx/{uuid}-{unixnano}.{ext}.
func (s *ArtifactStore) Put(ctx context.Context, img Image) (Artifact, error) {
	format := img.Format
	if format == "" {
		format = "png"
	}
	name := fmt.Sprintf("mplx/%s-%d.%s", uuid.New().String(), time.Now().UnixNano(), format)
	dest := url.Join(s.baseURL, name)

	if err := s.fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewReader(img.Data)); err != nil {
		return Artifact{}, fmt.Errorf("artifact upload failed: %w", err)
	}

	result := dest
	if s.public != "" {
		result = s.public + "/" + name
	}
	return Artifact{Format: format, URL: result}, nil
}
