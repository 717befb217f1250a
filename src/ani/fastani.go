// Package ani wraps FastANI, which galah uses as its exact ANI oracle.
package ani

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultExecutable is looked up on the PATH when no FastANI binary is given
const DefaultExecutable = "fastANI"

// DefaultFragmentLength is FastANI's own default
const DefaultFragmentLength = 3000

// FastANI runs the fastANI binary for a single query/reference pair at a time
type FastANI struct {
	Executable     string
	FragmentLength int
	TmpDir         string
}

// NewFastANI checks the executable can be found and returns the oracle
func NewFastANI(executable string, fragmentLength int) (*FastANI, error) {
	if executable == "" {
		executable = DefaultExecutable
	}
	path, err := exec.LookPath(executable)
	if err != nil {
		return nil, errors.Wrapf(err, "could not find FastANI executable %q", executable)
	}
	if fragmentLength <= 0 {
		fragmentLength = DefaultFragmentLength
	}
	return &FastANI{Executable: path, FragmentLength: fragmentLength, TmpDir: os.TempDir()}, nil
}

// ANI returns FastANI's identity (%) for the pair. FastANI reports nothing for distant pairs
// (roughly < 80% ANI) and these are returned as 0.
func (FastANI *FastANI) ANI(a, b string) (float64, error) {
	if a == b {
		return 100.0, nil
	}
	outFile := filepath.Join(FastANI.TmpDir, "galah-fastani-"+uuid.New().String()+".tsv")
	defer os.Remove(outFile)

	cmd := exec.Command(FastANI.Executable,
		"-q", a,
		"-r", b,
		"-o", outFile,
		"--fragLen", strconv.Itoa(FastANI.FragmentLength),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, errors.Wrapf(err, "failed to execute %s on %v and %v: %s", filepath.Base(FastANI.Executable), a, b, strings.TrimSpace(stderr.String()))
	}

	fh, err := os.Open(outFile)
	if err != nil {
		return 0, errors.Wrap(err, "FastANI did not write an output file")
	}
	defer fh.Close()
	ani, err := parseOutput(fh)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse FastANI output for %v and %v", a, b)
	}
	return ani, nil
}

// parseOutput reads the ANI column from the first line of FastANI's tabular output
func parseOutput(r io.Reader) (float64, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return 0, errors.Errorf("unexpected FastANI line: %q", line)
		}
		return strconv.ParseFloat(fields[2], 64)
	}
	return 0, scanner.Err()
}
