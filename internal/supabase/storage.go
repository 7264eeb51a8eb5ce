package supabase

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := supabaseURL
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// UploadPageArtifact stores a generated page artifact under
// projects/{project_id}/pages/{page_id}/{kind}/{uuid}.png and returns its
// public URL. Keys are unique per upload so a regeneration never clobbers
// the artifact an approved URL points at.
func (s *StorageClient) UploadPageArtifact(projectID, pageID uuid.UUID, kind string, data []byte) (string, error) {
	path := fmt.Sprintf("projects/%s/pages/%s/%s/%s.png", projectID, pageID, kind, uuid.New())
	return s.upload(path, data, "image/png")
}

// UploadCharacterArtifact stores a generated character artifact under
// projects/{project_id}/characters/{character_id}/{kind}/{uuid}.png.
func (s *StorageClient) UploadCharacterArtifact(projectID, characterID uuid.UUID, kind string, data []byte) (string, error) {
	path := fmt.Sprintf("projects/%s/characters/%s/%s/%s.png", projectID, characterID, kind, uuid.New())
	return s.upload(path, data, "image/png")
}

func (s *StorageClient) upload(storagePath string, data []byte, contentType string) (string, error) {
	upsert := true
	err := s.RetryWithBackoff(func() error {
		_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
			ContentType: &contentType,
			Upsert:      &upsert,
		})
		return err
	}, 3)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return s.PublicURL(storagePath), nil
}

// RetryWithBackoff executes a function with exponential backoff retry logic.
// Uploads are idempotent (upsert by unique key), so transient storage
// failures are retried here; generation calls are never retried
// automatically.
func (s *StorageClient) RetryWithBackoff(fn func() error, maxRetries int) error {
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < len(backoffs) {
			time.Sleep(backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func (s *StorageClient) PublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath)
}

func (s *StorageClient) DownloadFile(storagePath string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	return data, nil
}

// DeleteProjectFiles removes everything stored for a project.
func (s *StorageClient) DeleteProjectFiles(projectID uuid.UUID) error {
	prefix := fmt.Sprintf("projects/%s/", projectID)

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) > 0 {
		filePaths := make([]string, len(files))
		for i, file := range files {
			filePaths[i] = file.Name
		}
		_, err = s.client.RemoveFile(s.bucket, filePaths)
		if err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
	}

	return nil
}

// ObjectPath extracts the in-bucket path from a public URL produced by this
// client. Returns false when the URL does not belong to this bucket.
func (s *StorageClient) ObjectPath(publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, s.bucket)
	if len(publicURL) <= len(prefix) || publicURL[:len(prefix)] != prefix {
		return "", false
	}
	return publicURL[len(prefix):], true
}
