// Package objstore wraps the object-store client used for raw content
// files. Object keys mirror the hierarchy path of the content they
// belong to.
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
	"github.com/studyvault/studyvault-backend/internal/platform/envutil"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

type Client struct {
	Minio         *minio.Client
	Bucket        string
	publicBaseURL string
	log           *logger.Logger
}

func NewFromEnv(log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("objstore: logger required")
	}

	endpoint := envutil.Str("MINIO_ENDPOINT", "localhost:9000")
	accessKey := strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY"))
	secretKey := strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY"))
	bucket := envutil.Str("MINIO_BUCKET", "studyvault")
	useSSL := envutil.Bool("MINIO_USE_SSL", false)

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("objstore: init client: %w", err)
	}

	ctx := context.Background()
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("objstore: check bucket: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("objstore: make bucket %q: %w", bucket, err)
		}
	}

	publicBase := strings.TrimSpace(os.Getenv("MINIO_PUBLIC_BASE_URL"))
	if publicBase == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}

	return &Client{
		Minio:         cli,
		Bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBase, "/"),
		log:           log.With("client", "ObjStore"),
	}, nil
}

// CleanPath normalizes a caller-supplied object path. Backslashes and
// parent-directory segments are rejected outright rather than resolved.
func CleanPath(p string) (string, error) {
	if strings.Contains(p, "\\") {
		return "", apierr.Validation("path must not contain backslashes")
	}
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "", apierr.Validation("path is required")
	}
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", apierr.Validation("path must not contain parent segments")
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return "", apierr.Validation("path is required")
	}
	return strings.Join(out, "/"), nil
}

// Put writes an object and returns its public URL.
func (c *Client) Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := c.Minio.PutObject(ctx, c.Bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("objstore: put %q: %w", objectName, err)
	}
	return c.PublicURL(objectName), nil
}

// EnsureFolder writes the zero-byte trailing-slash marker convention
// for an empty prefix.
func (c *Client) EnsureFolder(ctx context.Context, prefix string) error {
	marker := strings.TrimRight(prefix, "/") + "/"
	_, err := c.Minio.PutObject(ctx, c.Bucket, marker, bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("objstore: ensure folder %q: %w", prefix, err)
	}
	return nil
}

func (c *Client) Stat(ctx context.Context, objectName string) (minio.ObjectInfo, error) {
	return c.Minio.StatObject(ctx, c.Bucket, objectName, minio.StatObjectOptions{})
}

// Exists reports whether the exact object key is present.
func (c *Client) Exists(ctx context.Context, objectName string) (bool, error) {
	_, err := c.Stat(ctx, objectName)
	if err == nil {
		return true, nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
		return false, nil
	}
	return false, err
}

func (c *Client) Remove(ctx context.Context, objectName string) error {
	return c.Minio.RemoveObject(ctx, c.Bucket, objectName, minio.RemoveObjectOptions{})
}

// List returns the object keys under a prefix.
func (c *Client) List(ctx context.Context, prefix string, recursive bool) ([]minio.ObjectInfo, error) {
	var out []minio.ObjectInfo
	for obj := range c.Minio.ListObjects(ctx, c.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("objstore: list %q: %w", prefix, obj.Err)
		}
		out = append(out, obj)
	}
	return out, nil
}

// PrefixHasAnything reports whether at least one object lives under
// the prefix.
func (c *Client) PrefixHasAnything(ctx context.Context, prefix string) (bool, error) {
	prefix = strings.TrimRight(prefix, "/") + "/"
	for obj := range c.Minio.ListObjects(ctx, c.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
		MaxKeys:   1,
	}) {
		if obj.Err != nil {
			return false, obj.Err
		}
		return true, nil
	}
	return false, nil
}

// RemovePrefix deletes every object under a prefix and returns the
// number removed.
func (c *Client) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	prefix = strings.TrimRight(prefix, "/") + "/"
	objs, err := c.List(ctx, prefix, true)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, obj := range objs {
		if err := c.Remove(ctx, obj.Key); err != nil {
			return removed, fmt.Errorf("objstore: remove %q: %w", obj.Key, err)
		}
		removed++
	}
	return removed, nil
}

// Copy server-side copies a single object.
func (c *Client) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := c.Minio.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: c.Bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: c.Bucket, Object: srcKey},
	)
	if err != nil {
		return fmt.Errorf("objstore: copy %q -> %q: %w", srcKey, dstKey, err)
	}
	return nil
}

// PublicURL builds the browser-reachable URL for an object key.
func (c *Client) PublicURL(objectName string) string {
	parts := strings.Split(objectName, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.publicBaseURL + "/" + strings.Join(parts, "/")
}
