package runner

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const localRef = "HEAD"

// LocalVariant always detects and is evaluated last.
func LocalVariant() Variant {
	return LocalVariantWith(CurrentRepo, time.Now)
}

// LocalVariantWith builds the local variant with an injectable repository lookup and clock.
func LocalVariantWith(repo func() string, now func() time.Time) Variant {
	return Variant{
		Kind:     KindLocal,
		Detect:   func(LookupFunc) bool { return true },
		CatchAll: true,
		New: func(LookupFunc) (*Runner, error) {
			return &Runner{
				Name:  KindLocal,
				Repo:  NormalizeName(repo()),
				RunID: strconv.FormatInt(now().Unix(), 10),
				Ref:   localRef,
			}, nil
		},
	}
}

// CurrentRepo names the repository containing the working directory: the directory
// holding the nearest .git upward, or the working directory itself outside git.
func CurrentRepo() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return filepath.Base(dir)
		}
		if filepath.Dir(dir) == dir {
			return filepath.Base(wd)
		}
	}
}
