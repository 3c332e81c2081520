package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSBackend stores the document as an object in a Google Cloud Storage
// bucket. The object generation is the version token: reads report the
// generation they observed and writes are made conditional on it with
// IfGenerationMatch, so a stale writer fails with a precondition error
// instead of clobbering newer state.
type GCSBackend struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCSBackend creates a backend against the named bucket. An empty
// credentialsFile falls back to application default credentials.
func NewGCSBackend(ctx context.Context, bucket, credentialsFile string) (*GCSBackend, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	return &GCSBackend{
		client: client,
		bucket: client.Bucket(bucket),
	}, nil
}

// Close releases the underlying client.
func (b *GCSBackend) Close() error {
	return b.client.Close()
}

// Get implements Backend.
func (b *GCSBackend) Get(ctx context.Context, path string) ([]byte, VersionToken, error) {
	reader, err := b.bucket.Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", &BackendUnavailableError{Op: "get", Err: err}
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", &BackendUnavailableError{Op: "get", Err: err}
	}
	return data, generationToken(reader.Attrs.Generation), nil
}

// Put implements Backend.
func (b *GCSBackend) Put(ctx context.Context, path string, data []byte, token VersionToken) (VersionToken, error) {
	generation, err := strconv.ParseInt(string(token), 10, 64)
	if err != nil {
		return "", &BackendUnavailableError{Op: "put", Err: fmt.Errorf("token %q is not a GCS generation", token)}
	}

	obj := b.bucket.Object(path).If(storage.Conditions{GenerationMatch: generation})
	return b.write(ctx, obj, data, "put", ErrVersionConflict)
}

// Create implements Backend.
func (b *GCSBackend) Create(ctx context.Context, path string, data []byte) (VersionToken, error) {
	obj := b.bucket.Object(path).If(storage.Conditions{DoesNotExist: true})
	return b.write(ctx, obj, data, "create", ErrAlreadyExists)
}

// write streams data through a conditional writer. GCS reports a failed
// precondition (stale generation, or the object appearing under a
// DoesNotExist condition) as HTTP 412 when the writer closes.
func (b *GCSBackend) write(ctx context.Context, obj *storage.ObjectHandle, data []byte, op string, preconditionErr error) (VersionToken, error) {
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return "", &BackendUnavailableError{Op: op, Err: err}
	}
	if err := writer.Close(); err != nil {
		if isGCSPreconditionFailed(err) {
			return "", preconditionErr
		}
		return "", &BackendUnavailableError{Op: op, Err: err}
	}
	return generationToken(writer.Attrs().Generation), nil
}

func generationToken(generation int64) VersionToken {
	return VersionToken(strconv.FormatInt(generation, 10))
}

func isGCSPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
