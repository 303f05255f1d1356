package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/harjot20022001/bug-tracker/config"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSClient keeps attachment content in a Cloud Storage bucket. Objects are
// written once under a unique key, so writes are conditional on the object
// not existing yet.
type GCSClient struct {
	client    *storage.Client
	bucket    string
	prefix    string
	location  string
	projectID string
}

func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return newGCSClient(client, cfg), nil
}

func newGCSClient(client *storage.Client, cfg config.GCSConfig) *GCSClient {
	prefix := strings.TrimLeft(strings.TrimSpace(cfg.Prefix), "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &GCSClient{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    prefix,
		location:  cfg.Location,
		projectID: cfg.ProjectID,
	}
}

// EnsureBucket creates the bucket when missing. New buckets are private with
// uniform access and public access prevention enforced.
func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	if err == nil || !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create bucket")
	}
	return g.client.Bucket(g.bucket).Create(ctx, g.projectID, g.bucketAttrs())
}

func (g *GCSClient) bucketAttrs() *storage.BucketAttrs {
	return &storage.BucketAttrs{
		Location:                 g.location,
		UniformBucketLevelAccess: storage.UniformBucketLevelAccess{Enabled: true},
		PublicAccessPrevention:   storage.PublicAccessPreventionEnforced,
		Labels:                   map[string]string{"app": "bug-tracker"},
	}
}

// Put streams an attachment into the bucket. A short read against size
// aborts the upload so no truncated object is left behind.
func (g *GCSClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	object := g.object(key).If(storage.Conditions{DoesNotExist: true})
	writer := object.NewWriter(ctx)
	applyAttachmentAttrs(writer, size, contentType)

	written, err := io.Copy(writer, r)
	if err == nil && size >= 0 && written != size {
		err = fmt.Errorf("gcs: short upload for %s: wrote %d of %d bytes", key, written, size)
	}
	if err != nil {
		cancel()
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func applyAttachmentAttrs(writer *storage.Writer, size int64, contentType string) {
	writer.ContentType = strings.TrimSpace(contentType)
	if writer.ContentType == "" {
		writer.ContentType = "application/octet-stream"
	}
	writer.ContentDisposition = "attachment"
	writer.CacheControl = "private, max-age=0"
	if size >= 0 && size < googleapi.DefaultUploadChunkSize {
		// single request upload
		writer.ChunkSize = 0
	}
}

// Get opens an attachment for reading.
func (g *GCSClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := g.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	return reader, err
}

func (g *GCSClient) Delete(ctx context.Context, key string) error {
	err := g.object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCSClient) Bucket() string {
	return g.bucket
}

func (g *GCSClient) Close() error {
	return g.client.Close()
}

func (g *GCSClient) object(key string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(g.objectName(key))
}

func (g *GCSClient) objectName(key string) string {
	return g.prefix + strings.TrimLeft(key, "/")
}
