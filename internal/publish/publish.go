// Package publish uploads a finished site tree to S3.
package publish

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"

	apperrors "github.com/luxequeer/deployer/pkg/errors"
	"github.com/luxequeer/deployer/pkg/logger"
	"github.com/luxequeer/deployer/pkg/utils"
)

// ChecksumMetadataKey is the object metadata entry holding the hex SHA-256 of the body.
const ChecksumMetadataKey = "sha256"

// PutObjectAPI is the slice of the S3 client the publisher needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher copies every file of a site tree into a bucket under a key prefix.
type Publisher struct {
	api    PutObjectAPI
	bucket string
	prefix string
}

// New loads the default AWS credential chain and targets bucket in region.
func New(ctx context.Context, region, bucket, prefix string) (*Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "load aws config")
	}
	return NewWithAPI(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewWithAPI builds a publisher around an existing client.
func NewWithAPI(api PutObjectAPI, bucket, prefix string) *Publisher {
	return &Publisher{api: api, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Location is the s3:// URL of the published tree.
func (p *Publisher) Location() string {
	if p.prefix == "" {
		return "s3://" + p.bucket + "/"
	}
	return "s3://" + p.bucket + "/" + p.prefix + "/"
}

// ObjectKey maps a site path to its key.
func ObjectKey(prefix, name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Publish uploads every regular file of site, calling onObject after each upload.
// It stops at the first failure.
func (p *Publisher) Publish(ctx context.Context, site billy.Filesystem, onObject func(key string)) (int, error) {
	files, err := ListFiles(site, "")
	if err != nil {
		return 0, err
	}

	n := 0
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		data, err := util.ReadFile(site, name)
		if err != nil {
			return n, apperrors.Wrap(err, apperrors.CodeInternal, "read "+name)
		}

		key := ObjectKey(p.prefix, name)
		_, err = p.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(ContentType(name, data)),
			Metadata:    map[string]string{ChecksumMetadataKey: utils.HexSHA256(data)},
		})
		if err != nil {
			return n, apperrors.Wrap(err, apperrors.CodeUnavailable, "upload "+key).
				WithMeta("bucket", p.bucket)
		}

		logger.L().Debug("published object", zap.String("bucket", p.bucket), zap.String("key", key))
		n++
		if onObject != nil {
			onObject(key)
		}
	}
	return n, nil
}

// ListFiles returns every regular file under dir, depth first, in name order.
func ListFiles(fs billy.Filesystem, dir string) ([]string, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "list "+dir)
	}

	var out []string
	for _, e := range entries {
		name := path.Join(dir, e.Name())
		if e.IsDir() {
			sub, err := ListFiles(fs, name)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if e.Mode().IsRegular() {
			out = append(out, name)
		}
	}
	return out, nil
}

var extensionTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".json": "application/json",
	".md":   "text/markdown; charset=utf-8",
	".svg":  "image/svg+xml",
}

// ContentType picks the object content type from the extension, sniffing the bytes
// for anything unknown.
func ContentType(name string, data []byte) string {
	if ct, ok := extensionTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return mimetype.Detect(data).String()
}
