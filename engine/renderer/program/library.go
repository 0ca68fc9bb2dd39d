package program

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/fsnotify/fsnotify"
)

// ErrNoSource is returned when a program has neither an on-disk nor an embedded source.
var ErrNoSource = errors.New("program source not found")

// library is the implementation of the Library interface.
type library struct {
	backend   backend.Backend
	lang      shader.Language
	shaderDir string
	onReload  func(old *Program)

	programs map[string]*Program
	order    []string

	// dirty is written by the watcher goroutine.
	mu    sync.Mutex
	dirty map[string]bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Library loads programs by name and keeps them current with their sources.
// Everything except MarkDirty and Dirty must be called from the render thread.
type Library interface {
	// Load compiles a program, or recompiles it if already loaded. The source is read from the
	// shader directory when the file exists there and from the embedded assets otherwise.
	// A compile failure is logged with the driver diagnostic and the program is kept with an
	// invalid handle, unless a previous valid handle exists, in which case that one stays active.
	//
	// Parameters:
	//   - name: the program name
	//
	// Returns:
	//   - *Program: the program, never nil unless the source could not be found
	//   - error: error if the source is missing or the compile failed
	Load(name string) (*Program, error)

	// LoadAll loads every program the renderer uses. Compile failures are logged and do not stop
	// the remaining loads.
	//
	// Returns:
	//   - error: the first missing-source or pre-processing error
	LoadAll() error

	// Get returns a loaded program, or nil.
	Get(name string) *Program

	// Programs returns the loaded programs in load order.
	Programs() []*Program

	// Language returns the shading language sources are loaded in.
	Language() shader.Language

	// MarkDirty flags a program for recompilation by the next ReloadDirty. Safe for concurrent use.
	MarkDirty(name string)

	// Dirty returns the names of the programs flagged for recompilation, sorted. Safe for concurrent use.
	Dirty() []string

	// CheckTimestamps compares each disk-backed program's file modification time, and those of
	// the includes it expanded, against the time recorded at load and flags the newer ones dirty.
	//
	// Returns:
	//   - int: the number of programs flagged
	CheckTimestamps() int

	// ReloadDirty recompiles every dirty program. When a program gets a new handle the reload
	// callback receives the old program before its handle is destroyed.
	//
	// Returns:
	//   - []string: the names of the programs that were recompiled successfully
	ReloadDirty() []string

	// Watch starts a filesystem watcher on the shader directory that flags programs dirty when
	// their source or one of their includes changes. It is a no-op without a shader directory.
	// Include dependencies are taken from the programs loaded so far, so call it after LoadAll.
	//
	// Returns:
	//   - error: error if the watcher could not be created
	Watch() error

	// Close stops the watcher and destroys every program.
	Close() error
}

var _ Library = &library{}

// NewLibrary creates a program Library over a backend. The language defaults to GLSL for the
// OpenGL backend and WGSL for WebGPU.
//
// Parameters:
//   - b: the backend programs are compiled on
//   - options: functional options
//
// Returns:
//   - Library: the library
func NewLibrary(b backend.Backend, options ...LibraryBuilderOption) Library {
	l := &library{
		backend:  b,
		lang:     shader.LanguageGLSL,
		programs: make(map[string]*Program),
		dirty:    make(map[string]bool),
	}
	if b.Type() == backend.BackendTypeWGPU {
		l.lang = shader.LanguageWGSL
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *library) Language() shader.Language {
	return l.lang
}

func (l *library) Get(name string) *Program {
	return l.programs[name]
}

func (l *library) Programs() []*Program {
	out := make([]*Program, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.programs[name])
	}
	return out
}

func (l *library) LoadAll() error {
	for _, def := range shader.Programs() {
		if _, err := l.Load(def.Name); err != nil && !errors.Is(err, backend.ErrProgramCompile) {
			return err
		}
	}
	return nil
}

func (l *library) Load(name string) (*Program, error) {
	src, path, modified, err := l.readSource(name)
	if err != nil {
		return nil, err
	}

	pp := shader.NewPreProcessor(l.lang, shader.WithSourceFS(l.sourceFS()))
	processed, err := pp.Process(src)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", name, err)
	}
	modified = l.newestInclude(modified, pp.Includes())

	def, _ := shader.Lookup(name)
	info, err := l.backend.CreateProgram(backend.ProgramDescriptor{
		Name:          name,
		Source:        processed,
		UniformBlocks: def.UniformBlocks,
		Samplers:      def.Samplers,
	})

	prev, loaded := l.programs[name]
	if err != nil {
		common.Logger().Error("program compile failed", "program", name, "path", path, "error", err)
		if !loaded {
			l.programs[name] = &Program{Name: name, Path: path, LastModified: modified, Includes: pp.Includes()}
			l.order = append(l.order, name)
			return l.programs[name], err
		}
		// a later edit must still be able to trigger a retry
		prev.LastModified = modified
		return prev, err
	}

	p := &Program{
		Handle:       info.Handle,
		Name:         name,
		Path:         path,
		LastModified: modified,
		Includes:     slices.Clone(pp.Includes()),
		Attributes:   info.Attributes,
		Uniforms:     info.Uniforms,
	}
	if loaded {
		if prev.Valid() {
			if l.onReload != nil {
				l.onReload(prev)
			}
			l.backend.DestroyProgram(prev.Handle)
		}
		// callers hold on to *Program, so the reload happens in place
		*prev = *p
		p = prev
	} else {
		l.programs[name] = p
		l.order = append(l.order, name)
	}

	common.Logger().Info("program loaded", "program", name, "path", path, "attributes", len(p.Attributes), "uniforms", len(p.Uniforms))
	return p, nil
}

// readSource returns the raw program source with its path and modification time.
// Embedded sources have an empty path and a zero time.
//
// Parameters:
//   - name: the program name
//
// Returns:
//   - string: the source
//   - string: the file path, empty for embedded sources
//   - time.Time: the modification time
//   - error: error wrapping ErrNoSource when no source exists
func (l *library) readSource(name string) (string, string, time.Time, error) {
	if l.shaderDir != "" {
		path := filepath.Join(l.shaderDir, filepath.FromSlash(shader.SourcePath(l.lang, name)))
		if b, err := os.ReadFile(path); err == nil {
			info, statErr := os.Stat(path)
			if statErr != nil {
				return "", "", time.Time{}, statErr
			}
			return string(b), path, info.ModTime(), nil
		}
	}

	src, err := shader.EmbeddedSource(l.lang, name)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("%w: %s: %w", ErrNoSource, name, err)
	}
	return src, "", time.Time{}, nil
}

// newestInclude returns the later of modified and the modification times of the includes found
// in the shader directory.
func (l *library) newestInclude(modified time.Time, includes []string) time.Time {
	if l.shaderDir == "" {
		return modified
	}
	for _, inc := range includes {
		info, err := os.Stat(filepath.Join(l.shaderDir, filepath.FromSlash(shader.IncludePath(l.lang, inc))))
		if err == nil && info.ModTime().After(modified) {
			modified = info.ModTime()
		}
	}
	return modified
}

// sourceFS returns the root includes are resolved against: the shader directory layered over
// the embedded assets.
func (l *library) sourceFS() fs.FS {
	if l.shaderDir == "" {
		return shader.Assets()
	}
	return overlayFS{primary: os.DirFS(l.shaderDir), fallback: shader.Assets()}
}

func (l *library) MarkDirty(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirty[name] = true
}

func (l *library) Dirty() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.dirty))
	for name := range l.dirty {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (l *library) CheckTimestamps() int {
	if l.shaderDir == "" {
		return 0
	}

	n := 0
	for _, name := range l.order {
		p := l.programs[name]
		if l.changedSince(p) {
			l.MarkDirty(name)
			n++
		}
	}
	return n
}

// changedSince reports whether the program's source or any of its includes on disk is newer than
// the program's recorded load time. A source that appeared on disk since an embedded load counts.
func (l *library) changedSince(p *Program) bool {
	paths := []string{filepath.Join(l.shaderDir, filepath.FromSlash(shader.SourcePath(l.lang, p.Name)))}
	for _, inc := range p.Includes {
		paths = append(paths, filepath.Join(l.shaderDir, filepath.FromSlash(shader.IncludePath(l.lang, inc))))
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(p.LastModified) {
			return true
		}
	}
	return false
}

// takeDirty swaps the dirty set for an empty one under a single lock, so marks made
// while a reload runs land in the next round.
func (l *library) takeDirty() []string {
	l.mu.Lock()
	taken := l.dirty
	l.dirty = make(map[string]bool)
	l.mu.Unlock()

	names := make([]string, 0, len(taken))
	for name := range taken {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (l *library) ReloadDirty() []string {
	names := l.takeDirty()
	if len(names) == 0 {
		return nil
	}

	var reloaded []string
	for _, name := range names {
		if _, err := l.Load(name); err != nil {
			continue
		}
		reloaded = append(reloaded, name)
	}
	return reloaded
}

func (l *library) Watch() error {
	if l.shaderDir == "" || l.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("shader watcher: %w", err)
	}
	for _, dir := range []string{
		filepath.Join(l.shaderDir, l.lang.String()),
		filepath.Join(l.shaderDir, "include", l.lang.String()),
	} {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	l.watcher = w
	l.done = make(chan struct{})
	go l.watch(w, l.done, l.includeUsers())
	common.Logger().Info("watching shader directory", "dir", l.shaderDir)
	return nil
}

// includeUsers snapshots which programs expanded each include, so the watcher goroutine never
// reads the program table.
func (l *library) includeUsers() map[string][]string {
	users := make(map[string][]string)
	for _, name := range l.order {
		for _, inc := range l.programs[name].Includes {
			users[inc] = append(users[inc], name)
		}
	}
	return users
}

// watch forwards watcher events into the dirty set until done is closed.
func (l *library) watch(w *fsnotify.Watcher, done chan struct{}, users map[string][]string) {
	ext := l.lang.Extension()
	for {
		select {
		case <-done:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			base := filepath.Base(event.Name)
			if filepath.Ext(base) != ext {
				continue
			}
			name := strings.TrimSuffix(base, ext)

			if filepath.Base(filepath.Dir(event.Name)) == l.lang.String() && filepath.Base(filepath.Dir(filepath.Dir(event.Name))) == "include" {
				for _, prog := range users[name] {
					l.MarkDirty(prog)
				}
				continue
			}
			if _, ok := shader.Lookup(name); ok {
				l.MarkDirty(name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("shader watcher error", "error", err)
		}
	}
}

func (l *library) Close() error {
	var err error
	if l.watcher != nil {
		close(l.done)
		err = l.watcher.Close()
		l.watcher = nil
	}
	for _, name := range l.order {
		if p := l.programs[name]; p.Valid() {
			l.backend.DestroyProgram(p.Handle)
			p.Handle = backend.InvalidProgram
		}
	}
	return err
}

// overlayFS opens files from primary and falls back to fallback when primary lacks them.
type overlayFS struct {
	primary  fs.FS
	fallback fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil {
		return f, nil
	}
	return o.fallback.Open(name)
}
