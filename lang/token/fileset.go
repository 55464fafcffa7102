package token

// A FileSet collects the Files registered for one compilation run (one per
// input source passed to the CLI, or a single synthetic file for sources
// compiled in-process via Compile). It exists mainly so lang/diag and
// lang/errors have a single place to go from a (*File) back to a name
// when printing, mirroring the split the teacher's own scanner/parser keep
// between a FileSet and the individual File it resolves a Pos against.
type FileSet struct {
	files []*File
}

// NewFileSet returns an empty FileSet.
func NewFileSet() *FileSet { return &FileSet{} }

// AddFile registers a new file and returns it.
func (s *FileSet) AddFile(name string, src []byte) *File {
	f := NewFile(name, src)
	s.files = append(s.files, f)
	return f
}

// Files returns the files registered so far, in registration order.
func (s *FileSet) Files() []*File { return s.files }
