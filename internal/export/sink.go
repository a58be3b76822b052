package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Sink opens named objects inside a folder of an export destination.
type Sink interface {
	Create(ctx context.Context, folder, name string) (io.WriteCloser, error)
}

// FileSink writes exports below a local directory.
type FileSink struct {
	root string
}

// NewFileSink creates a sink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{root: dir}
}

// Create implements Sink. The folder is created when missing.
func (s *FileSink) Create(ctx context.Context, folder, name string) (io.WriteCloser, error) {
	if err := validName(folder, name); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create folder %s: %v", ErrExternal, dir, err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %v", ErrExternal, name, err)
	}
	return f, nil
}

// Uploader is the subset of the S3 upload manager used by S3Sink.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink streams exports to an S3 bucket under an optional key prefix.
type S3Sink struct {
	bucket   string
	prefix   string
	uploader Uploader
	logger   *slog.Logger
}

// NewS3Sink creates a sink using the default AWS credential chain.
func NewS3Sink(ctx context.Context, bucket, prefix, region string) (*S3Sink, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3SinkWithUploader(bucket, prefix, manager.NewUploader(s3.NewFromConfig(cfg))), nil
}

// NewS3SinkWithUploader creates a sink around an existing uploader.
func NewS3SinkWithUploader(bucket, prefix string, uploader Uploader) *S3Sink {
	return &S3Sink{
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		uploader: uploader,
		logger:   slog.Default(),
	}
}

// WithLogger sets a custom logger for the sink
func (s *S3Sink) WithLogger(logger *slog.Logger) *S3Sink {
	s.logger = logger
	return s
}

// Key returns the object key for name inside folder.
func (s *S3Sink) Key(folder, name string) string {
	return path.Join(s.prefix, folder, name)
}

// Create implements Sink. Bytes are streamed to the upload as they are
// written; Close waits for the upload to finish and reports its error.
func (s *S3Sink) Create(ctx context.Context, folder, name string) (io.WriteCloser, error) {
	if err := validName(folder, name); err != nil {
		return nil, err
	}

	key := s.Key(folder, name)
	pr, pw := io.Pipe()
	done := make(chan error, 1)

	go func() {
		_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        pr,
			ContentType: aws.String("text/csv"),
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "S3 upload failed",
				slog.String("bucket", s.bucket),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		pr.CloseWithError(err)
		done <- err
	}()

	return &uploadWriter{pw: pw, done: done, key: key}, nil
}

type uploadWriter struct {
	pw   *io.PipeWriter
	done chan error
	key  string
}

func (w *uploadWriter) Write(p []byte) (int, error) {
	n, err := w.pw.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: upload of %s: %v", ErrExternal, w.key, err)
	}
	return n, nil
}

func (w *uploadWriter) Close() error {
	w.pw.Close()
	if err := <-w.done; err != nil {
		return fmt.Errorf("%w: upload of %s: %v", ErrExternal, w.key, err)
	}
	return nil
}

func validName(folder, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty export name", ErrExternal)
	}
	for _, part := range []string{folder, name} {
		if strings.Contains(part, "..") {
			return fmt.Errorf("%w: invalid path element %q", ErrExternal, part)
		}
	}
	return nil
}
