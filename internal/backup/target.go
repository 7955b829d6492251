package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
	"github.com/studio-b12/gowebdav"
)

// Entry is a stored backup.
type Entry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Target stores backup archives by name.
type Target interface {
	Name() string
	Upload(ctx context.Context, name string, data []byte) error
	Download(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]Entry, error)
}

type WebDAVConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Dir      string `mapstructure:"dir"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// WebDAVTarget keeps backups in a WebDAV collection.
type WebDAVTarget struct {
	client *gowebdav.Client
	dir    string
}

func NewWebDAV(cfg WebDAVConfig) (*WebDAVTarget, error) {
	if cfg.URL == "" {
		return nil, errors.New("webdav url not configured")
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "/"
	}
	return &WebDAVTarget{client: gowebdav.NewClient(cfg.URL, cfg.User, cfg.Password), dir: dir}, nil
}

func (t *WebDAVTarget) Name() string { return "webdav" }

func (t *WebDAVTarget) Upload(ctx context.Context, name string, data []byte) error {
	if err := t.client.MkdirAll(t.dir, 0755); err != nil {
		return fmt.Errorf("webdav mkdir failed: %w", err)
	}
	if err := t.client.Write(path.Join(t.dir, name), data, 0644); err != nil {
		return fmt.Errorf("webdav upload failed: %w", err)
	}
	return nil
}

func (t *WebDAVTarget) Download(ctx context.Context, name string) ([]byte, error) {
	data, err := t.client.Read(path.Join(t.dir, name))
	if err != nil {
		return nil, fmt.Errorf("webdav download failed: %w", err)
	}
	return data, nil
}

func (t *WebDAVTarget) List(ctx context.Context) ([]Entry, error) {
	infos, err := t.client.ReadDir(t.dir)
	if err != nil {
		return nil, fmt.Errorf("webdav list failed: %w", err)
	}
	return entries(infos), nil
}

// S3Target keeps backups in an S3 compatible bucket.
type S3Target struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3(ctx context.Context, cfg S3Config) (*S3Target, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("s3 configuration incomplete")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})
	return &S3Target{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (t *S3Target) Name() string { return "s3" }

func (t *S3Target) key(name string) string {
	if t.prefix == "" {
		return name
	}
	return t.prefix + "/" + name
}

func (t *S3Target) Upload(ctx context.Context, name string, data []byte) error {
	_, err := t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.key(name)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}

func (t *S3Target) Download(ctx context.Context, name string) ([]byte, error) {
	out, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.key(name)),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 download failed: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (t *S3Target) List(ctx context.Context) ([]Entry, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(t.bucket)}
	if t.prefix != "" {
		input.Prefix = aws.String(t.prefix + "/")
	}

	var out []Entry
	pages := s3.NewListObjectsV2Paginator(t.client, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list failed: %w", err)
		}
		for _, obj := range page.Contents {
			out = append(out, Entry{
				Name:    path.Base(aws.ToString(obj.Key)),
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}

// DirTarget keeps backups in a directory of an afero filesystem.
type DirTarget struct {
	fs  afero.Fs
	dir string
}

func NewDir(fs afero.Fs, dir string) *DirTarget {
	return &DirTarget{fs: fs, dir: dir}
}

func (t *DirTarget) Name() string { return "dir" }

func (t *DirTarget) Upload(ctx context.Context, name string, data []byte) error {
	if err := t.fs.MkdirAll(t.dir, 0755); err != nil {
		return err
	}
	return afero.WriteFile(t.fs, path.Join(t.dir, name), data, 0644)
}

func (t *DirTarget) Download(ctx context.Context, name string) ([]byte, error) {
	return afero.ReadFile(t.fs, path.Join(t.dir, name))
}

func (t *DirTarget) List(ctx context.Context) ([]Entry, error) {
	infos, err := afero.ReadDir(t.fs, t.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entries(infos), nil
}

func entries(infos []os.FileInfo) []Entry {
	out := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		out = append(out, Entry{Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out
}
