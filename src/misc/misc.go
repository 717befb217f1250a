// contains some misc helper functions etc. for galah
package misc

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/will-rowe/galah/src/logger"
)

// ErrNoGenomes is returned when genome discovery comes up empty
var ErrNoGenomes = errors.New("no genome FASTA files found")

// ErrorCheck is a function to throw error to the log and exit the program
func ErrorCheck(msg error) {
	if msg != nil {
		logger.Fatal("terminated", zap.Error(msg))
	}
}

// CheckRequiredFlags is a function to check for required flags before running galah
func CheckRequiredFlags(flags *pflag.FlagSet) error {
	requiredError := false
	flagName := ""

	flags.VisitAll(func(flag *pflag.Flag) {
		requiredAnnotation := flag.Annotations[cobra.BashCompOneRequiredFlag]
		if len(requiredAnnotation) == 0 {
			return
		}
		flagRequired := requiredAnnotation[0] == "true"
		if flagRequired && !flag.Changed {
			requiredError = true
			flagName = flag.Name
		}
	})

	if requiredError {
		return errors.New("Required flag `" + flagName + "` has not been set")
	}

	return nil
}

// PrepareLogFile makes sure the directory for a log file exists
func PrepareLogFile(logFile string) error {
	dir := filepath.Dir(logFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("can't create specified directory for log: %v", dir)
		}
	}
	return nil
}

// CheckDir is a function to check that a directory exists
func CheckDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("no directory specified")
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %v", dir)
		}
		return fmt.Errorf("can't access a directory (check permissions): %v", dir)
	}
	return nil
}

// CheckFile is a function to check that a file can be read
func CheckFile(file string) error {
	if _, err := os.Stat(file); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %v", file)
		}
		return fmt.Errorf("can't access file (check permissions): %v", file)
	}
	return nil
}

// CollectGenomeFiles returns the files in dir that end with the given extension, sorted by name.
// Entries that don't match are logged and skipped; an empty result is an error.
func CollectGenomeFiles(dir, extension string) ([]string, error) {
	if err := CheckDir(dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, dir)
	}
	extension = strings.TrimPrefix(extension, ".")
	genomes := []string{}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			logger.Info("not using directory entry as a genome FASTA file", zap.String("entry", path))
			continue
		}
		if strings.TrimPrefix(filepath.Ext(entry.Name()), ".") != extension {
			logger.Info("not using directory entry as a genome FASTA file, wrong extension", zap.String("entry", path), zap.String("extension", extension))
			continue
		}
		genomes = append(genomes, path)
	}
	if len(genomes) == 0 {
		return nil, errors.Wrapf(ErrNoGenomes, "%v (extension %q)", dir, extension)
	}
	return genomes, nil
}

// SetProcessors caps the requested number of processors to what is available and sets GOMAXPROCS
func SetProcessors(proc int) int {
	if proc <= 0 || proc > runtime.NumCPU() {
		proc = runtime.NumCPU()
	}
	runtime.GOMAXPROCS(proc)
	return proc
}

// PrintMemUsage outputs the current, total and OS memory being used. As well as the number
// of garage collection cycles completed.
// lifted from: https://golangcode.com/print-the-current-memory-usage/
func PrintMemUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	// For info on each, see: https://golang.org/pkg/runtime/#MemStats
	return fmt.Sprintf("[ Heap Allocations: %vMb, OS Memory: %vMb, Num. GC cycles: %v ]", bToMb(m.HeapAlloc), bToMb(m.Sys), m.NumGC)
}

// bToMb converts bytes to megabytes
func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
