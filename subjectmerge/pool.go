package subjectmerge

import (
	"path"
	"strings"
	"sync"
)

// DefaultSubjectExt is appended to extension-less IDs when resolving files.
const DefaultSubjectExt = ".txt"

// File is one uploaded subject file.
type File struct {
	Name string
	Data []byte
}

// Text returns the decoded file contents.
func (f File) Text() string {
	return DecodeText(f.Data)
}

// Pool indexes uploaded files by exact and extension-stripped name.
type Pool struct {
	mu     sync.RWMutex
	files  []File
	byName map[string]int
}

// NewPool builds a pool from files in upload order.
func NewPool(files []File) *Pool {
	p := &Pool{}
	p.Replace(files)
	return p
}

// Replace swaps the stored files atomically. Exact names are registered
// before stripped aliases, and the first upload wins among equal names.
func (p *Pool) Replace(files []File) {
	stored := make([]File, len(files))
	copy(stored, files)
	byName := make(map[string]int, len(stored)*2)
	for i, f := range stored {
		if _, ok := byName[f.Name]; !ok {
			byName[f.Name] = i
		}
	}
	for i, f := range stored {
		base := StripExt(f.Name)
		if _, ok := byName[base]; !ok {
			byName[base] = i
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files = stored
	p.byName = byName
}

// Files returns the stored files in upload order.
func (p *Pool) Files() []File {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]File, len(p.files))
	copy(out, p.files)
	return out
}

// Len returns the number of stored files.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.files)
}

// Resolve finds the file for a subject ID by trying the ID itself, the ID
// without its extension, and the stripped ID with ".txt" appended.
func (p *Pool) Resolve(id string) (File, bool) {
	if p == nil {
		return File{}, false
	}
	base := StripExt(id)
	candidates := []string{id, base, base + DefaultSubjectExt}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, name := range candidates {
		if idx, ok := p.byName[name]; ok {
			return p.files[idx], true
		}
	}
	return File{}, false
}

// StripExt removes a trailing extension from the final element of name.
// Dot files and names ending in a dot are left untouched.
func StripExt(name string) string {
	elem := name
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		elem = name[i+1:]
	}
	ext := path.Ext(elem)
	if ext == "" || ext == "." || ext == elem {
		return name
	}
	return strings.TrimSuffix(name, ext)
}
