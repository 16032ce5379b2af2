package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecodeclub/ekit/set"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Getwd walks up from the working directory until it finds the module root (the dir holding go.mod).
// go test runs inside the package directory, so relative asset paths need this.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

// StringSet passes ID memberships around.
type StringSet = set.Set[string]

func NewStringSet(items ...string) StringSet {
	s := set.NewMapSet[string](len(items))
	for _, it := range items {
		s.Add(it)
	}
	return s
}
