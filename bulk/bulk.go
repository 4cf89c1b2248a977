// Package bulk transfers whole directory trees between the local filesystem
// and the cloud, driving the per-file transfer core underneath.
package bulk

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bitrise-io/go-utils/pathutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/docker/go-units"

	fspkg "github.com/egnyte/egnyte-go/fs"
)

// Options filter which entries a tree transfer touches. Patterns are
// doublestar globs matched against slash-separated paths relative to the
// tree root; an empty include list matches everything.
type Options struct {
	IncludePatterns []string
	ExcludePatterns []string
}

func (o Options) excluded(relPath string) (bool, error) {
	for _, pattern := range o.ExcludePatterns {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			return false, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func (o Options) matches(relPath string) (bool, error) {
	if excluded, err := o.excluded(relPath); err != nil || excluded {
		return false, err
	}
	if len(o.IncludePatterns) == 0 {
		return true, nil
	}
	for _, pattern := range o.IncludePatterns {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			return false, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// Upload walks localDir and uploads every matching file below it into the
// given cloud folder, creating cloud folders as needed.
func Upload(ctx context.Context, root *fspkg.Folder, localDir string, opts Options, logger log.Logger) error {
	if err := root.Create(ctx, true); err != nil {
		return fmt.Errorf("create root folder %s: %w", root.Path(), err)
	}

	return filepath.WalkDir(localDir, func(entryPath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(localDir, entryPath)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if entry.IsDir() {
			// Excludes prune whole subtrees; includes only select files.
			excluded, err := opts.excluded(relPath)
			if err != nil {
				return err
			}
			if excluded {
				return filepath.SkipDir
			}
			return root.Folder(relPath).Create(ctx, true)
		}

		matched, err := opts.matches(relPath)
		if err != nil {
			return err
		}
		if !matched {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		file, err := os.Open(entryPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", entryPath, err)
		}
		defer func() {
			if err := file.Close(); err != nil {
				logger.Warnf("close %s: %s", entryPath, err)
			}
		}()

		logger.Debugf("Uploading %s (%s)", relPath, units.HumanSize(float64(info.Size())))
		if err := root.File(relPath).Upload(ctx, file, info.Size()); err != nil {
			return fmt.Errorf("upload %s: %w", relPath, err)
		}
		return nil
	})
}

// Download mirrors the matching content of a cloud folder into localDir.
// When localDir is empty, a fresh temporary directory is used. The directory
// written to is returned.
func Download(ctx context.Context, root *fspkg.Folder, localDir string, opts Options, logger log.Logger) (string, error) {
	if localDir == "" {
		tmpDir, err := pathutil.NormalizedOSTempDirPath("egnyte-download")
		if err != nil {
			return "", fmt.Errorf("create download directory: %w", err)
		}
		localDir = tmpDir
	}
	if err := downloadTree(ctx, root, localDir, "", opts, logger); err != nil {
		return "", err
	}
	return localDir, nil
}

func downloadTree(ctx context.Context, folder *fspkg.Folder, localDir, relDir string, opts Options, logger log.Logger) error {
	listing, err := folder.List(ctx)
	if err != nil {
		return fmt.Errorf("list %s: %w", folder.Path(), err)
	}

	if err := os.MkdirAll(filepath.Join(localDir, filepath.FromSlash(relDir)), 0o755); err != nil {
		return err
	}

	for _, file := range listing.Files {
		relPath := path.Join(relDir, path.Base(file.Path()))
		matched, err := opts.matches(relPath)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}
		if err := downloadFile(ctx, file, filepath.Join(localDir, filepath.FromSlash(relPath)), logger); err != nil {
			return err
		}
	}

	for _, child := range listing.Folders {
		childRel := path.Join(relDir, path.Base(child.Path()))
		if err := downloadTree(ctx, child, localDir, childRel, opts, logger); err != nil {
			return err
		}
	}
	return nil
}

func downloadFile(ctx context.Context, file *fspkg.File, dest string, logger log.Logger) error {
	stream, err := file.Download(ctx)
	if err != nil {
		return fmt.Errorf("download %s: %w", file.Path(), err)
	}

	out, err := os.Create(dest)
	if err != nil {
		// The stream was never handed to WriteTo, release it here.
		if closeErr := stream.Close(); closeErr != nil {
			logger.Warnf("close download stream: %s", closeErr)
		}
		return fmt.Errorf("create %s: %w", dest, err)
	}

	written, err := stream.WriteTo(out)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}

	logger.Debugf("Downloaded %s (%s)", file.Path(), units.HumanSize(float64(written)))
	return nil
}
