package loader

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

const (
	// BuiltinPrefix and BuiltinSuffix select the builtin scripts.
	BuiltinPrefix = "cosem-"
	BuiltinSuffix = ".xml"
)

//go:embed scripts/*.xml
var scriptFS embed.FS

// Builtin loads the scripts shipped with the tool.
func Builtin() (*Catalog, error) {
	sub, err := fs.Sub(scriptFS, "scripts")
	if err != nil {
		return nil, err
	}
	return LoadBuiltin(sub)
}

// LoadBuiltin parses every script in the root of fsys whose name matches
// the builtin prefix and suffix. Any failure aborts the load: no partial
// catalog is returned.
func LoadBuiltin(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, &LoadError{File: ".", Message: "failed to read scripts", Cause: err}
	}

	cat := &Catalog{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, BuiltinPrefix) || !strings.HasSuffix(name, BuiltinSuffix) {
			continue
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, &LoadError{File: name, Message: "failed to read file", Cause: err}
		}
		def, err := ParseDefinition(strings.TrimSuffix(name, BuiltinSuffix), data)
		if err != nil {
			var le *LoadError
			if errors.As(err, &le) {
				le.File = name
				return nil, le
			}
			return nil, &LoadError{File: name, Message: err.Error()}
		}
		cat.Definitions = append(cat.Definitions, def)
	}
	return cat, nil
}

// ParseDefinition parses a builtin script. The class it targets is taken
// from the first request carrying a descriptor.
func ParseDefinition(name string, data []byte) (*TestDefinition, error) {
	actions, err := pdu.ParseScript(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{Message: "failed to parse script", Cause: err}
	}

	for _, a := range actions {
		if !a.IsRequest() {
			continue
		}
		d, ok, _ := a.Descriptor()
		if ok {
			return &TestDefinition{Name: name, ClassID: d.ClassID, Actions: actions}, nil
		}
	}
	return nil, &LoadError{Message: "script has no request with a descriptor"}
}

// LoadScriptFile loads one external script.
func LoadScriptFile(file string) (*ExternalScript, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &LoadError{File: file, Message: "failed to read file", Cause: err}
	}
	actions, err := pdu.ParseScript(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{File: file, Message: "failed to parse script", Cause: err}
	}
	if len(actions) == 0 {
		return nil, &LoadError{File: file, Message: "script has no actions"}
	}
	return &ExternalScript{Name: filepath.Base(file), Path: file, Actions: actions}, nil
}

// externalFiles lists the *.xml files directly inside dir. An empty or
// missing directory yields no files.
func externalFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &LoadError{File: dir, Message: "failed to read directory", Cause: err}
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(path.Ext(entry.Name())) != ".xml" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LoadExternal loads the scripts in dir. Files that fail to load are
// reported in errs and skipped; the others are still returned.
func LoadExternal(dir string) (scripts []*ExternalScript, errs []error) {
	files, err := externalFiles(dir)
	if err != nil {
		return nil, []error{err}
	}
	for _, f := range files {
		s, err := LoadScriptFile(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scripts = append(scripts, s)
	}
	return scripts, errs
}

// ValidateExternal loads every script in dir and fails if any of them
// does not load.
func ValidateExternal(dir string) (int, error) {
	scripts, errs := LoadExternal(dir)
	if len(errs) > 0 {
		return len(scripts), fmt.Errorf("%d external scripts failed to load: %w", len(errs), errors.Join(errs...))
	}
	return len(scripts), nil
}
