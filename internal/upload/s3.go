package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Config locates the bucket and root folder.
type S3Config struct {
	Bucket string
	Folder string
	Region string
}

// S3Store keeps mirrored files in an S3 bucket. A folder is a key prefix under the root
// folder, and the remote id of a file is its object key.
type S3Store struct {
	client s3API
	bucket string
	root   string
	logger *zap.Logger
}

// NewS3Store loads AWS configuration from the default credential chain and checks that
// credentials can be resolved.
func NewS3Store(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, &RemoteError{Kind: KindRemoteAuth, Op: "configure", Err: errors.New("bucket is required")}
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &RemoteError{Kind: KindRemoteAuth, Op: "load aws config", Err: err}
	}
	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return nil, &RemoteError{Kind: KindRemoteAuth, Op: "resolve credentials", Err: err}
	}

	return newS3Store(s3.NewFromConfig(awsCfg), cfg, logger), nil
}

func newS3Store(client s3API, cfg S3Config, logger *zap.Logger) *S3Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		root:   strings.Trim(cfg.Folder, "/"),
		logger: logger.Named("s3"),
	}
}

// EnsureFolderPath returns the key prefix for the folder. S3 has no directories so nothing
// is created.
func (s *S3Store) EnsureFolderPath(_ context.Context, year, month, gender, division string) (Folder, error) {
	for _, part := range []string{year, month, gender, division} {
		if part == "" || strings.Contains(part, "/") {
			return Folder{}, &RemoteError{Kind: KindRemoteIO, Op: "ensure folder", Err: fmt.Errorf("invalid folder component %q", part)}
		}
	}
	prefix := path.Join(s.root, year, month, gender, division) + "/"
	return Folder{ID: prefix, Path: prefix}, nil
}

// UploadOrUpdate writes the local file under the folder's prefix, replacing any existing
// object of the same name.
func (s *S3Store) UploadOrUpdate(ctx context.Context, localPath string, folder Folder) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", &RemoteError{Kind: KindRemoteIO, Op: "open " + localPath, Err: err}
	}
	defer f.Close()

	key := folder.Path + filepath.Base(localPath)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", classify("put "+key, err)
	}
	s.logger.Debug("uploaded object", zap.String("bucket", s.bucket), zap.String("key", key))
	return key, nil
}

// FileExists reports whether an object named name exists in the folder.
func (s *S3Store) FileExists(ctx context.Context, name string, folder Folder) (string, bool, error) {
	key := folder.Path + name
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return key, true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return "", false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
		return "", false, nil
	}
	return "", false, classify("head "+key, err)
}

func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken", "Forbidden":
			return &RemoteError{Kind: KindRemoteAuth, Op: op, Err: err}
		}
	}
	return &RemoteError{Kind: KindRemoteIO, Op: op, Err: err}
}
