// Package discovery locates module roots in a source tree and lists the
// library and test sources of each module.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/depinfer/pkg/project"
	"github.com/Sumatoshi-tech/depinfer/pkg/sourcefact"
)

// Sentinel errors.
var (
	// ErrMissingModuleRoot is returned when the tree root does not exist or cannot be read.
	ErrMissingModuleRoot = errors.New("missing module root")
	// ErrUnreadableDir is returned for a directory below the root that cannot
	// be listed. Naming it in Layout.SkipDirs leaves it out of the walk.
	ErrUnreadableDir = errors.New("unreadable directory")
)

// enryLanguages maps linguist language names to source languages.
var enryLanguages = map[string]sourcefact.Language{
	"Java":            sourcefact.LangJava,
	"Kotlin":          sourcefact.LangKotlin,
	"Protocol Buffer": sourcefact.LangProto,
}

// Layout describes where modules and their sources live.
type Layout struct {
	// ManifestFiles are the marker file names that make a directory a module
	// root. The first one present is the module's manifest.
	ManifestFiles []string
	MainDirs      []string
	TestDirs      []string
	// SkipDirs are directory base names never descended into.
	SkipDirs  []string
	Languages []sourcefact.Language
}

// DefaultLayout returns the conventional Gradle layout.
func DefaultLayout() Layout {
	return Layout{
		ManifestFiles: []string{"build.gradle"},
		MainDirs:      []string{"src/main"},
		TestDirs:      []string{"src/test"},
		SkipDirs:      []string{".git", ".gradle", ".idea", "build", "out", "node_modules"},
		Languages:     []sourcefact.Language{sourcefact.LangJava, sourcefact.LangKotlin, sourcefact.LangProto},
	}
}

// Classify returns the source language of a file name, or false when the
// file is not a recognized source.
func Classify(name string) (sourcefact.Language, bool) {
	lang, ok := enryLanguages[enry.GetLanguage(filepath.Base(name), nil)]

	return lang, ok
}

// Discover walks root and returns one descriptor per module root, sorted by
// module id. Every directory holding a manifest file is a module root,
// including root itself.
func Discover(root string, layout Layout) ([]project.Descriptor, error) {
	info, statErr := os.Stat(root)
	if statErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingModuleRoot, statErr)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMissingModuleRoot, root)
	}

	_, readErr := os.ReadDir(root)
	if readErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingModuleRoot, readErr)
	}

	var descriptors []project.Descriptor

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		skip, err := shouldSkip(entry, err, layout)
		if skip || err != nil {
			return err
		}

		if !entry.IsDir() {
			return nil
		}

		manifest := findManifest(path, layout.ManifestFiles)
		if manifest == "" {
			return nil
		}

		descriptor, err := describe(root, path, manifest, layout)
		if err != nil {
			return err
		}

		descriptors = append(descriptors, descriptor)

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	slices.SortFunc(descriptors, func(a, b project.Descriptor) int {
		return strings.Compare(a.ID, b.ID)
	})

	return descriptors, nil
}

// shouldSkip decides whether a walk entry is ignored. Skip dirs are pruned
// and entries that vanished during the walk are ignored. An unreadable
// directory fails the walk.
func shouldSkip(entry fs.DirEntry, walkErr error, layout Layout) (bool, error) {
	if walkErr != nil {
		switch {
		case errors.Is(walkErr, fs.ErrNotExist):
			if entry != nil && entry.IsDir() {
				return true, filepath.SkipDir
			}

			return true, nil
		case errors.Is(walkErr, fs.ErrPermission):
			return true, fmt.Errorf("%w: %w", ErrUnreadableDir, walkErr)
		default:
			return true, walkErr
		}
	}

	if entry.IsDir() && slices.Contains(layout.SkipDirs, entry.Name()) {
		return true, filepath.SkipDir
	}

	return false, nil
}

func findManifest(dir string, names []string) string {
	for _, name := range names {
		candidate := filepath.Join(dir, name)

		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}

	return ""
}

func describe(root, dir, manifest string, layout Layout) (project.Descriptor, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return project.Descriptor{}, fmt.Errorf("relative path of %s: %w", dir, err)
	}

	rel = filepath.ToSlash(rel)

	descriptor := project.Descriptor{
		ID:           project.ModuleID(rel),
		RelativePath: rel,
		Dir:          dir,
		Manifest:     manifest,
	}

	for _, sourceDir := range layout.MainDirs {
		files, listErr := listSources(filepath.Join(dir, filepath.FromSlash(sourceDir)), sourcefact.OriginLibrary, layout)
		if listErr != nil {
			return project.Descriptor{}, listErr
		}

		descriptor.Files = append(descriptor.Files, files...)
	}

	for _, sourceDir := range layout.TestDirs {
		files, listErr := listSources(filepath.Join(dir, filepath.FromSlash(sourceDir)), sourcefact.OriginTest, layout)
		if listErr != nil {
			return project.Descriptor{}, listErr
		}

		descriptor.Files = append(descriptor.Files, files...)
	}

	slices.SortFunc(descriptor.Files, func(a, b project.SourceFile) int {
		return strings.Compare(a.Path, b.Path)
	})

	return descriptor, nil
}

// listSources returns the recognized sources below dir. A missing dir holds
// no sources. Schema files only count as library sources.
func listSources(dir string, origin sourcefact.Origin, layout Layout) ([]project.SourceFile, error) {
	info, statErr := os.Stat(dir)
	if errors.Is(statErr, fs.ErrPermission) {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableDir, statErr)
	}

	if statErr != nil || !info.IsDir() {
		return nil, nil
	}

	var files []project.SourceFile

	walkErr := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		skip, err := shouldSkip(entry, err, layout)
		if skip || err != nil || entry.IsDir() {
			return err
		}

		lang, ok := Classify(path)
		if !ok || !slices.Contains(layout.Languages, lang) {
			return nil
		}

		if origin == sourcefact.OriginTest && lang.Kind() == sourcefact.KindSchema {
			return nil
		}

		files = append(files, project.SourceFile{Path: path, Origin: origin, Language: lang})

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("list sources in %s: %w", dir, walkErr)
	}

	return files, nil
}
