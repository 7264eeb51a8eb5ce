package services

import (
	"archive/zip"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"

	"storybook-backend/internal/apperrors"
	"storybook-backend/internal/models"
)

// ArtifactDownloader fetches stored artifact bytes by their in-bucket path.
type ArtifactDownloader interface {
	DownloadFile(storagePath string) ([]byte, error)
	ObjectPath(publicURL string) (string, bool)
}

// BundleStore is the slice of the database client the bundle service needs.
type BundleStore interface {
	GetProject(projectID uuid.UUID) (*models.Project, error)
	ListPages(projectID uuid.UUID) ([]models.Page, error)
	ListCharacters(projectID uuid.UUID) ([]models.Character, error)
}

// BundleService streams a project's approved artifacts as a ZIP archive.
type BundleService struct {
	store      BundleStore
	downloader ArtifactDownloader
}

func NewBundleService(store BundleStore, downloader ArtifactDownloader) *BundleService {
	return &BundleService{store: store, downloader: downloader}
}

// WriteBundle writes the archive to w: one entry per page illustration and
// sketch plus the character images, named by page number and character name.
// Entities without artifacts are skipped; a missing object logs and skips
// rather than aborting the whole download.
func (s *BundleService) WriteBundle(projectID uuid.UUID, w io.Writer) error {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return err
	}
	pages, err := s.store.ListPages(projectID)
	if err != nil {
		return err
	}
	characters, err := s.store.ListCharacters(projectID)
	if err != nil {
		return err
	}

	type entry struct {
		name string
		url  string
	}
	var entries []entry
	for _, p := range pages {
		if p.IllustrationURL.Valid && p.IllustrationURL.String != "" {
			entries = append(entries, entry{fmt.Sprintf("pages/page_%02d_illustration.png", p.PageNumber), p.IllustrationURL.String})
		}
		if p.SketchURL.Valid && p.SketchURL.String != "" {
			entries = append(entries, entry{fmt.Sprintf("pages/page_%02d_sketch.png", p.PageNumber), p.SketchURL.String})
		}
	}
	for _, c := range characters {
		if c.ImageURL.Valid && c.ImageURL.String != "" {
			entries = append(entries, entry{fmt.Sprintf("characters/%s.png", sanitizeEntryName(c.Name)), c.ImageURL.String})
		}
	}

	// Decide emptiness before the first byte reaches w; once the archive
	// starts streaming there is no clean way to signal an error.
	if len(entries) == 0 {
		return apperrors.NewValidationError("project",
			fmt.Sprintf("project %q has no artifacts to download", project.BookTitle))
	}

	archive := zip.NewWriter(w)
	for _, e := range entries {
		s.addEntry(archive, e.name, e.url)
	}
	return archive.Close()
}

func (s *BundleService) addEntry(archive *zip.Writer, name, publicURL string) bool {
	path, ok := s.downloader.ObjectPath(publicURL)
	if !ok {
		log.Printf("skipping bundle entry %s: url outside bucket", name)
		return false
	}
	data, err := s.downloader.DownloadFile(path)
	if err != nil {
		log.Printf("skipping bundle entry %s: %v", name, err)
		return false
	}
	entry, err := archive.Create(name)
	if err != nil {
		log.Printf("skipping bundle entry %s: %v", name, err)
		return false
	}
	if _, err := entry.Write(data); err != nil {
		log.Printf("failed writing bundle entry %s: %v", name, err)
		return false
	}
	return true
}

// sanitizeEntryName keeps archive entry names filesystem-safe.
func sanitizeEntryName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "character"
	}
	return string(out)
}
