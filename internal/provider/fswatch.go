package provider

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// gitDirFiles are the entries directly under the git dir whose changes
// indicate a head, index or ref update.
var gitDirFiles = map[string]bool{
	"HEAD":        true,
	"ORIG_HEAD":   true,
	"FETCH_HEAD":  true,
	"MERGE_HEAD":  true,
	"index":       true,
	"packed-refs": true,
}

// treeWatch watches a working tree recursively plus the parts of its git dir
// that move on commit, push, pull and fetch. fsnotify does not recurse, so
// every directory is added explicitly and new ones are picked up on create.
type treeWatch struct {
	watcher  *fsnotify.Watcher
	root     string
	gitDir   string
	ignore   func(string) bool
	onChange func()
	logger   *logrus.Entry

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

func newTreeWatch(root, gitDir string, ignore func(string) bool, onChange func(), logger *logrus.Entry) (*treeWatch, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if ignore == nil {
		ignore = func(string) bool { return false }
	}
	w := &treeWatch{
		watcher:  fsw,
		root:     root,
		gitDir:   filepath.Clean(gitDir),
		ignore:   ignore,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(w.gitDir); err != nil {
		fsw.Close()
		return nil, err
	}
	// Ref directories may not exist yet (no remotes, no branches)
	for _, dir := range []string{"refs/heads", "refs/remotes"} {
		_ = w.addRefs(filepath.Join(w.gitDir, dir))
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *treeWatch) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil // Skip directories we can't read
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" || filepath.Clean(p) == w.gitDir {
			return fs.SkipDir
		}
		if p != w.root && w.ignore(p) {
			return fs.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			w.logger.WithError(err).Debugf("cannot watch %s", p)
		}
		return nil
	})
}

func (w *treeWatch) addRefs(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(p)
		}
		return nil
	})
}

func (w *treeWatch) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.handle(ev) {
				continue
			}
			// Collapse whatever else is already queued into this change
			w.drain()
			w.onChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("file watch error")
		}
	}
}

func (w *treeWatch) drain() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		default:
			return
		}
	}
}

// handle registers newly created directories and reports whether the event
// is worth a status refresh.
func (w *treeWatch) handle(ev fsnotify.Event) bool {
	name := filepath.Clean(ev.Name)
	if strings.HasSuffix(name, ".lock") {
		return false
	}

	if rel, ok := w.relToGitDir(name); ok {
		if ev.Has(fsnotify.Create) && strings.HasPrefix(rel, "refs"+string(filepath.Separator)) {
			if info, err := os.Stat(name); err == nil && info.IsDir() {
				_ = w.addRefs(name)
			}
		}
		return gitDirFiles[rel] || strings.HasPrefix(rel, "refs"+string(filepath.Separator))
	}

	if w.ignore(name) {
		return false
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			_ = w.addTree(name)
		}
	}
	return true
}

func (w *treeWatch) relToGitDir(name string) (string, bool) {
	rel, err := filepath.Rel(w.gitDir, name)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func (w *treeWatch) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.watcher.Close()
		w.wg.Wait()
	})
	return w.closeErr
}
