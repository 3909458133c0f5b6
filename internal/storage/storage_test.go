package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reactgram/internal/apperror"
)

func TestCheckImageName(t *testing.T) {
	tests := []struct {
		name    string
		wantExt string
		wantErr bool
	}{
		{"cat.png", ".png", false},
		{"CAT.PNG", ".png", false},
		{"dog.jpg", ".jpg", false},
		{"dog.JPG", ".jpg", false},
		{"dog.jpeg", "", true},
		{"clip.gif", "", true},
		{"noextension", "", true},
		{"evil.png.exe", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := CheckImageName(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperror.ErrValidation)
				assert.Equal(t, "please send only png or jpg", err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

// =========================================================================
// DISK
// =========================================================================

func TestDiskStore_Save(t *testing.T) {
	root := t.TempDir()
	d, err := NewDiskStore(root)
	require.NoError(t, err)

	fixed := time.UnixMilli(1700000000000)
	d.now = func() time.Time { return fixed }

	ref, err := d.Save(context.Background(), FolderPhotos, "beach.PNG", "image/png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, "1700000000000.png", ref)

	data, err := os.ReadFile(filepath.Join(root, FolderPhotos, ref))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	// Same millisecond: next free name, first file untouched.
	ref2, err := d.Save(context.Background(), FolderPhotos, "other.png", "", strings.NewReader("more"))
	require.NoError(t, err)
	assert.Equal(t, "1700000000001.png", ref2)

	data, _ = os.ReadFile(filepath.Join(root, FolderPhotos, ref))
	assert.Equal(t, "pixels", string(data))
}

func TestDiskStore_Rejects(t *testing.T) {
	d, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = d.Save(context.Background(), FolderUsers, "avatar.gif", "image/gif", strings.NewReader("x"))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = d.Save(context.Background(), "../etc", "a.png", "", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestDiskStore_CreatesFolders(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewDiskStore(root)
	require.NoError(t, err)

	for _, folder := range []string{FolderUsers, FolderPhotos} {
		info, err := os.Stat(filepath.Join(root, folder))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

// =========================================================================
// S3
// =========================================================================

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Save(t *testing.T) {
	fake := &fakePutter{}
	store := newS3Store(fake, "reactgram", "https://cdn.example.com/")

	ref, err := store.Save(context.Background(), FolderUsers, "me.jpg", "", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	key := aws.ToString(fake.in.Key)
	assert.True(t, strings.HasPrefix(key, "users/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
	assert.Equal(t, "reactgram", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(fake.in.ContentType))
	assert.Equal(t, "jpeg-bytes", fake.body)
	assert.Equal(t, "https://cdn.example.com/"+key, ref)
}

func TestS3Store_NoPublicURLReturnsKey(t *testing.T) {
	fake := &fakePutter{}
	store := newS3Store(fake, "b", "")

	ref, err := store.Save(context.Background(), FolderPhotos, "p.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, aws.ToString(fake.in.Key), ref)
}

func TestS3Store_Errors(t *testing.T) {
	fake := &fakePutter{err: errors.New("bucket gone")}
	store := newS3Store(fake, "b", "")

	_, err := store.Save(context.Background(), FolderPhotos, "p.png", "", strings.NewReader("x"))
	assert.ErrorContains(t, err, "bucket gone")

	_, err = store.Save(context.Background(), FolderPhotos, "p.bmp", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
