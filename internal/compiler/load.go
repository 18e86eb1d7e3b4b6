package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/ripple/internal/model"
)

// CompileString compiles every model declared in src.
func CompileString(src string) ([]*model.Definition, error) {
	ctx := cuecontext.New()
	return compileAll(ctx.CompileString(src, cue.Filename("models.cue")))
}

// LoadFile compiles every model declared in one CUE file.
func LoadFile(path string) ([]*model.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	ctx := cuecontext.New()
	return compileAll(ctx.CompileBytes(data, cue.Filename(path)))
}

// LoadDir loads the CUE package in dir and compiles its models.
func LoadDir(dir string) ([]*model.Definition, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("models directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	files, err := FindCUEFiles(absDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .cue files in %s", dir)
	}

	insts := load.Instances([]string{"."}, &load.Config{Dir: absDir})
	if len(insts) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	if insts[0].Err != nil {
		return nil, site{}.cueError(insts[0].Err)
	}

	ctx := cuecontext.New()
	return compileAll(ctx.BuildInstance(insts[0]))
}

// FindCUEFiles lists the .cue files under dir.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".cue") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}
