package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kjk/asistentepa/atomicfile"
	"github.com/kjk/asistentepa/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Remote stores snapshots in an S3-compatible bucket
type Remote struct {
	Client *minio.Client
	Bucket string
	prefix string
}

func checkRemoteConfig(c *config.Remote) error {
	if c == nil {
		return errors.New("must provide remote config")
	}
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return errors.New("must provide endpoint, bucket, access and secret in remote config")
	}
	return nil
}

// NewRemote connects to the bucket described by c. The bucket must exist.
func NewRemote(ctx context.Context, c *config.Remote) (*Remote, error) {
	if err := checkRemoteConfig(c); err != nil {
		return nil, err
	}
	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &Remote{
		Client: mc,
		Bucket: c.Bucket,
		prefix: c.Prefix,
	}, nil
}

// RemotePath returns object name for name, with configured prefix
func (r *Remote) RemotePath(name string) string {
	return path.Join(r.prefix, strings.TrimPrefix(name, "/"))
}

func contentTypeFor(remotePath string) string {
	switch CompressionForPath(remotePath) {
	case Gzip:
		return "application/gzip"
	case Zstd:
		return "application/zstd"
	case Brotli:
		return "application/x-brotli"
	}
	return "text/csv"
}

// Upload uploads local file as remotePath (relative to prefix)
func (r *Remote) Upload(ctx context.Context, remotePath string, localPath string) (minio.UploadInfo, error) {
	opts := minio.PutObjectOptions{
		ContentType: contentTypeFor(remotePath),
	}
	return r.Client.FPutObject(ctx, r.Bucket, r.RemotePath(remotePath), localPath, opts)
}

// Download saves remotePath (relative to prefix) as localPath.
// localPath is only replaced after the whole object was read.
func (r *Remote) Download(ctx context.Context, remotePath string, localPath string) error {
	obj, err := r.Client.GetObject(ctx, r.Bucket, r.RemotePath(remotePath), minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()

	err = os.MkdirAll(filepath.Dir(localPath), 0755)
	if err != nil {
		return err
	}
	f, err := atomicfile.New(localPath)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	_, err = io.Copy(f, obj)
	if err != nil {
		return err
	}
	return f.Close()
}
