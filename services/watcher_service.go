package services

import (
	"context"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DropFolderWatcher watches a local directory and runs every supported file placed
// there through the normal upload path. It exists for admin convenience: dropping a
// document into the folder is equivalent to uploading it through the API.
type DropFolderWatcher struct {
	files *FileService

	mu       sync.Mutex
	uploaded map[string]string // drop path -> storage path
}

// NewDropFolderWatcher creates a watcher bound to the file service.
func NewDropFolderWatcher(files *FileService) *DropFolderWatcher {
	return &DropFolderWatcher{
		files:    files,
		uploaded: make(map[string]string),
	}
}

// Watch blocks until ctx is cancelled, ingesting files as they appear in dirPath.
func (w *DropFolderWatcher) Watch(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSupportedDropFile(event.Name) {
					continue
				}

				// Editors often write via temp-file-and-rename, so Create and
				// Write are handled the same way.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: File created/modified: %s. Ingesting...", event.Name)
					w.ingestDropFile(ctx, event.Name)
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					log.Printf("WATCHER: File removed/renamed: %s. Removing upload...", event.Name)
					w.removeDropFile(ctx, event.Name)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching drop folder: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

func (w *DropFolderWatcher) ingestDropFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("WATCHER WARN: Could not read %s: %v", path, err)
		return
	}

	// A rewrite replaces the previous upload rather than stacking a second copy.
	w.removeDropFile(ctx, path)

	name := filepath.Base(path)
	resp := w.files.Upload(ctx, name, dropFileContentType(path), nil, data)
	if !resp.Success {
		log.Printf("WATCHER ERROR: Failed to ingest %s: %s", path, resp.Message)
		return
	}

	w.mu.Lock()
	w.uploaded[path] = resp.Path
	w.mu.Unlock()
	log.Printf("WATCHER: %s -> %s (%s)", path, resp.Path, resp.Message)
}

func (w *DropFolderWatcher) removeDropFile(ctx context.Context, path string) {
	w.mu.Lock()
	storagePath, ok := w.uploaded[path]
	delete(w.uploaded, path)
	w.mu.Unlock()
	if !ok {
		return
	}
	result := w.files.Delete(ctx, storagePath)
	if !result.Complete() {
		log.Printf("WATCHER WARN: Partial delete for %s: %v", storagePath, result.Errors)
	}
}

func isSupportedDropFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".html", ".pdf", ".docx":
		return true
	default:
		return false
	}
}

func dropFileContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md":
		return "text/markdown"
	case ".docx":
		return mimeDocx
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
