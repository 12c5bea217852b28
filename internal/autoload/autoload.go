// Package autoload resolves fully-qualified class names to file paths using
// Composer's autoload manifests. It parses composer.json and
// vendor/composer/installed.json directly, so the language server has no
// runtime dependency on a PHP interpreter being on PATH.
package autoload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Map is the resolved autoload configuration for a workspace: the merged
// PSR-4/PSR-0 prefix tables from the root package and every installed
// dependency, plus the set of files a classmap entry says to scan.
// Classmap is keyed by FQN but starts empty — composer.json only ever names
// directories or files to scan, never the class names inside them, so the
// workspace scanner populates Classmap once it has parsed ClassmapFiles and
// knows which FQN each one declares (see internal/workspace).
type Map struct {
	PSR4          map[string][]string
	PSR0          map[string][]string
	Classmap      map[string]string
	ClassmapFiles []string
	Files         []string
	root          string
}

func newMap(root string) Map {
	return Map{
		PSR4:     make(map[string][]string),
		PSR0:     make(map[string][]string),
		Classmap: make(map[string]string),
		root:     root,
	}
}

// RegisterClassmapEntry records that fqcn was found declared in path. The
// workspace scanner calls this after parsing each file under ClassmapFiles.
func (m *Map) RegisterClassmapEntry(fqcn, path string) {
	m.Classmap[strings.TrimPrefix(fqcn, "\\")] = path
}

// composerJSON mirrors the subset of composer.json's schema relevant to
// autoloading.
type composerJSON struct {
	Autoload composerAutoload `json:"autoload"`
}

type composerAutoload struct {
	PSR4     map[string]jsonStringOrSlice `json:"psr-4"`
	PSR0     map[string]jsonStringOrSlice `json:"psr-0"`
	Classmap []string                     `json:"classmap"`
	Files    []string                     `json:"files"`
}

// jsonStringOrSlice accepts Composer's "one path or an array of paths"
// autoload value shape.
type jsonStringOrSlice []string

func (s *jsonStringOrSlice) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*s = []string{single}
		}
		return nil
	}
	var multi []string
	if err := json.Unmarshal(data, &multi); err != nil {
		return err
	}
	*s = multi
	return nil
}

// installedJSON mirrors vendor/composer/installed.json, which Composer 2.x
// writes with a top-level "packages" array (Composer 1.x wrote a bare
// array; both are tolerated via installedPackages below).
type installedJSON struct {
	Packages []installedPackage `json:"packages"`
}

type installedPackage struct {
	Name        string           `json:"name"`
	Autoload    composerAutoload `json:"autoload"`
	InstallPath string           `json:"install-path"`
	TargetDir   string           `json:"target-dir"`
}

// Load reads composer.json and vendor/composer/installed.json under root
// and returns the merged autoload map. A missing composer.json is not an
// error: plenty of workspaces opened by the server are plain script
// collections with no Composer manifest, and the resolver then simply
// falls back to the stub corpus and open-document FQNs.
func Load(root string) (Map, error) {
	m := newMap(root)

	rootManifest := filepath.Join(root, "composer.json")
	if data, err := os.ReadFile(rootManifest); err == nil {
		var cj composerJSON
		if err := json.Unmarshal(data, &cj); err != nil {
			return m, fmt.Errorf("autoload: parse %s: %w", rootManifest, err)
		}
		if err := m.mergeAutoload(root, cj.Autoload); err != nil {
			return m, err
		}
	} else if !os.IsNotExist(err) {
		return m, fmt.Errorf("autoload: read %s: %w", rootManifest, err)
	}

	installedPath := filepath.Join(root, "vendor", "composer", "installed.json")
	if data, err := os.ReadFile(installedPath); err == nil {
		pkgs, err := parseInstalledPackages(data)
		if err != nil {
			return m, fmt.Errorf("autoload: parse %s: %w", installedPath, err)
		}
		for _, pkg := range pkgs {
			pkgRoot := pkg.InstallPath
			if pkgRoot == "" {
				pkgRoot = filepath.Join("vendor", strings.ReplaceAll(pkg.Name, "/", string(filepath.Separator)))
			}
			if !filepath.IsAbs(pkgRoot) {
				pkgRoot = filepath.Join(filepath.Dir(installedPath), pkgRoot)
			}
			if err := m.mergeAutoload(pkgRoot, pkg.Autoload); err != nil {
				return m, err
			}
		}
	} else if !os.IsNotExist(err) {
		return m, fmt.Errorf("autoload: read %s: %w", installedPath, err)
	}

	return m, nil
}

// parseInstalledPackages tolerates both the Composer 2.x object shape
// ({"packages": [...]}) and the legacy bare-array shape.
func parseInstalledPackages(data []byte) ([]installedPackage, error) {
	var obj installedJSON
	if err := json.Unmarshal(data, &obj); err == nil && obj.Packages != nil {
		return obj.Packages, nil
	}
	var bare []installedPackage
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

func (m *Map) mergeAutoload(baseDir string, a composerAutoload) error {
	for prefix, paths := range a.PSR4 {
		prefix = normalizeNamespacePrefix(prefix)
		for _, p := range paths {
			m.PSR4[prefix] = append(m.PSR4[prefix], joinUnderBase(baseDir, p))
		}
	}
	for prefix, paths := range a.PSR0 {
		prefix = normalizeNamespacePrefix(prefix)
		for _, p := range paths {
			m.PSR0[prefix] = append(m.PSR0[prefix], joinUnderBase(baseDir, p))
		}
	}
	for _, f := range a.Files {
		m.Files = append(m.Files, joinUnderBase(baseDir, f))
	}
	for _, dir := range a.Classmap {
		if err := m.expandClassmapDir(joinUnderBase(baseDir, dir)); err != nil {
			return err
		}
	}
	return nil
}

func normalizeNamespacePrefix(p string) string {
	return strings.Trim(p, "\\")
}

func joinUnderBase(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// expandClassmapDir globs every .php file under dir (or records dir itself
// if it names a single file) into ClassmapFiles for the workspace scanner
// to parse and register.
func (m *Map) expandClassmapDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("autoload: stat %s: %w", path, err)
	}
	if !info.IsDir() {
		m.ClassmapFiles = append(m.ClassmapFiles, path)
		return nil
	}
	matches, err := doublestar.Glob(os.DirFS(path), "**/*.php")
	if err != nil {
		return fmt.Errorf("autoload: glob %s: %w", path, err)
	}
	sort.Strings(matches)
	for _, rel := range matches {
		m.ClassmapFiles = append(m.ClassmapFiles, filepath.Join(path, rel))
	}
	return nil
}

// Resolve maps a fully-qualified class name (no leading backslash) to a
// candidate file path, preferring an explicit classmap entry over PSR-4
// longest-prefix matching, exactly as Composer's own ClassLoader does.
func (m Map) Resolve(fqcn string) (string, bool) {
	fqcn = strings.TrimPrefix(fqcn, "\\")
	if path, ok := m.Classmap[fqcn]; ok {
		return path, true
	}

	if path, ok := resolvePSR4(fqcn, m.PSR4); ok {
		return path, true
	}
	if path, ok := resolvePSR0(fqcn, m.PSR0); ok {
		return path, true
	}
	return "", false
}

func resolvePSR4(fqcn string, table map[string][]string) (string, bool) {
	var bestPrefix string
	var bestPaths []string
	for prefix, paths := range table {
		if prefix == "" {
			if len(bestPrefix) == 0 {
				bestPrefix, bestPaths = prefix, paths
			}
			continue
		}
		if fqcn == prefix || strings.HasPrefix(fqcn, prefix+"\\") {
			if len(prefix) > len(bestPrefix) {
				bestPrefix, bestPaths = prefix, paths
			}
		}
	}
	if bestPaths == nil {
		return "", false
	}
	rel := strings.TrimPrefix(fqcn, bestPrefix)
	rel = strings.TrimPrefix(rel, "\\")
	relPath := strings.ReplaceAll(rel, "\\", string(filepath.Separator)) + ".php"
	for _, base := range bestPaths {
		cand := filepath.Join(base, relPath)
		if info, err := os.Stat(cand); err == nil && !info.IsDir() {
			return cand, true
		}
	}
	return "", false
}

func resolvePSR0(fqcn string, table map[string][]string) (string, bool) {
	for prefix, paths := range table {
		if prefix != "" && !strings.HasPrefix(fqcn, prefix) {
			continue
		}
		relPath := strings.ReplaceAll(fqcn, "\\", string(filepath.Separator))
		if idx := strings.LastIndex(relPath, string(filepath.Separator)); idx >= 0 {
			relPath = relPath[:idx+1] + strings.ReplaceAll(relPath[idx+1:], "_", string(filepath.Separator))
		} else {
			relPath = strings.ReplaceAll(relPath, "_", string(filepath.Separator))
		}
		relPath += ".php"
		for _, base := range paths {
			cand := filepath.Join(base, relPath)
			if info, err := os.Stat(cand); err == nil && !info.IsDir() {
				return cand, true
			}
		}
	}
	return "", false
}
