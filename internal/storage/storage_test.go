package storage

import (
	"context"
	"testing"

	"github.com/jjudge-oj/usersapi/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Disabled(t *testing.T) {
	s, err := Open(context.Background(), config.Config{})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestOpen_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "unknown backend",
			cfg:  config.Config{Storage: config.StorageConfig{Backend: "ftp"}},
			want: `unknown storage backend "ftp"`,
		},
		{
			name: "minio without credentials",
			cfg: config.Config{
				Storage: config.StorageConfig{Backend: "minio"},
				Minio:   config.MinioConfig{Endpoint: "localhost:9000", Bucket: "users"},
			},
			want: "minio access key and secret key are required",
		},
		{
			name: "gcs without bucket",
			cfg:  config.Config{Storage: config.StorageConfig{Backend: "gcs"}},
			want: "gcs bucket is required",
		},
		{
			name: "s3 without bucket",
			cfg:  config.Config{Storage: config.StorageConfig{Backend: "s3"}},
			want: "s3 bucket is required",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Open(context.Background(), tc.cfg)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}
