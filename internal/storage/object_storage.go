package storage

import (
	"context"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"adminctl/internal/types"
)

type objectStorage struct {
	client *minio.Client
	region string
	bucket string
}

func NewObjectStorage(cred types.StorageCredentials) (Storage, error) {
	mn, err := minio.New(cred.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cred.AccessKeyID, cred.SecretKey, ""),
		Secure: cred.Secure,
		Region: cred.Region,
	})
	if err != nil {
		return nil, err
	}

	bucket := cred.Bucket
	if bucket == "" {
		bucket = "backups"
	}
	return &objectStorage{
		region: cred.Region,
		client: mn,
		bucket: bucket,
	}, nil
}

func (s objectStorage) Save(ctx context.Context, location string, file types.File) error {
	if err := s.makeBucket(ctx); err != nil {
		return err
	}

	// the size comes from the dump file stat so minio can pick the part size
	_, err := s.client.PutObject(ctx, s.bucket, location, file.Content, file.Stat.Size, minio.PutObjectOptions{
		ContentType: file.GetContentType(),
	})
	return err
}

func (s objectStorage) Get(ctx context.Context, location string) (*types.File, error) {
	r, err := s.client.GetObject(ctx, s.bucket, location, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}

	stat, err := r.Stat()
	if err != nil {
		_ = r.Close()
		return nil, err
	}

	return &types.File{
		Content: r,
		Stat:    types.FileStat{Size: stat.Size, Name: stat.Key, ModTime: stat.LastModified, ContentType: stat.ContentType},
	}, nil
}

func (s objectStorage) List(ctx context.Context, prefix string) ([]types.FileStat, error) {
	var result []types.FileStat
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		result = append(result, types.FileStat{Name: obj.Key, Size: obj.Size, ModTime: obj.LastModified})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ModTime.After(result[j].ModTime)
	})
	return result, nil
}

func (s objectStorage) makeBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{
		Region: s.region,
	})
}

func (s objectStorage) Ping(ctx context.Context) error {
	_, err := s.client.ListBuckets(ctx)
	return err
}

func (s objectStorage) Type() Type {
	return TypeS3
}
