package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"calibops-data/internal/domain"
	"calibops-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBlobStore 内存版 BlobStore
type fakeBlobStore struct {
	blobs   map[string][]byte
	saveErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (f *fakeBlobStore) Save(path string, r io.Reader) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.blobs[path] = data
	return int64(len(data)), nil
}

func (f *fakeBlobStore) Open(path string) (io.ReadCloser, error) {
	data, ok := f.blobs[path]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Remove(path string) error {
	delete(f.blobs, path)
	return nil
}

func (f *fakeBlobStore) Exists(path string) bool {
	_, ok := f.blobs[path]
	return ok
}

func uploadReq() UploadFirmwareRequest {
	return UploadFirmwareRequest{
		Name:        "glucose-fw",
		Version:     "1.2.0",
		Type:        domain.FirmwareTypeDevice,
		SubType:     "express",
		Description: "minor fixes",
		CreatedDate: "2025-03-10",
		FileName:    "glucose-fw.bin",
		File:        strings.NewReader("binary-payload"),
	}
}

func TestFirmwareUpload(t *testing.T) {
	repo := &fakeFirmwareRepo{}
	blobs := newFakeBlobStore()
	svc := NewFirmwareService(repo, blobs, zap.NewNop())

	fw, err := svc.Upload(context.Background(), uploadReq())
	require.NoError(t, err)

	assert.NotEmpty(t, fw.ID)
	assert.Equal(t, "1.2.0", fw.Version)
	assert.Equal(t, domain.Version{Major: 1, Minor: 2}, fw.VersionParsed)
	assert.Equal(t, int64(len("binary-payload")), fw.FileSize)
	assert.True(t, blobs.Exists(fw.FilePath))
	assert.Equal(t, "firmware/device/glucose-fw_1.2.0.bin", fw.FilePath)
}

func TestFirmwareUploadValidation(t *testing.T) {
	repo := &fakeFirmwareRepo{}
	svc := NewFirmwareService(repo, newFakeBlobStore(), zap.NewNop())
	ctx := context.Background()

	mutate := []struct {
		name string
		fn   func(*UploadFirmwareRequest)
	}{
		{"missing name", func(r *UploadFirmwareRequest) { r.Name = "" }},
		{"missing version", func(r *UploadFirmwareRequest) { r.Version = "" }},
		{"missing file", func(r *UploadFirmwareRequest) { r.File = nil }},
		{"bad type", func(r *UploadFirmwareRequest) { r.Type = "toaster" }},
		{"bad subType for type", func(r *UploadFirmwareRequest) { r.SubType = "test-strips" }},
		{"malformed version", func(r *UploadFirmwareRequest) { r.Version = "1.2" }},
		{"bad created date", func(r *UploadFirmwareRequest) { r.CreatedDate = "not-a-date" }},
		{"created date before 1971", func(r *UploadFirmwareRequest) { r.CreatedDate = "1969-12-31" }},
	}
	for _, c := range mutate {
		t.Run(c.name, func(t *testing.T) {
			req := uploadReq()
			c.fn(&req)
			_, err := svc.Upload(ctx, req)
			require.Error(t, err)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestFirmwareUploadDuplicate(t *testing.T) {
	repo := &fakeFirmwareRepo{}
	svc := NewFirmwareService(repo, newFakeBlobStore(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Upload(ctx, uploadReq())
	require.NoError(t, err)

	req := uploadReq()
	req.File = strings.NewReader("other-payload")
	_, err = svc.Upload(ctx, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrDuplicate))
}

func TestFirmwareDownloadAndDelete(t *testing.T) {
	repo := &fakeFirmwareRepo{}
	blobs := newFakeBlobStore()
	svc := NewFirmwareService(repo, blobs, zap.NewNop())
	ctx := context.Background()

	fw, err := svc.Upload(ctx, uploadReq())
	require.NoError(t, err)

	got, rc, err := svc.Download(ctx, fw.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "binary-payload", string(data))
	assert.Equal(t, "glucose-fw_1.2.0.bin", DownloadFileName(got))

	require.NoError(t, svc.Delete(ctx, fw.ID))
	assert.False(t, blobs.Exists(fw.FilePath))
	_, err = svc.Get(ctx, fw.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFirmwareDownloadMissing(t *testing.T) {
	repo := &fakeFirmwareRepo{}
	svc := NewFirmwareService(repo, newFakeBlobStore(), zap.NewNop())

	_, _, err := svc.Download(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
