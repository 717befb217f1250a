// Copyright © 2017 Will Rowe <will.rowe@stfc.ac.uk>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/will-rowe/galah/src/logger"
	"github.com/will-rowe/galah/src/minhash"
	"github.com/will-rowe/galah/src/misc"
	"github.com/will-rowe/galah/src/quality"
)

// genomeInput holds the flags used to find the genome FASTA files
type genomeInput struct {
	files     *[]string
	directory *string
	extension *string
}

// addGenomeFlags registers the genome input flags with a command
func addGenomeFlags(cmd *cobra.Command) *genomeInput {
	return &genomeInput{
		files:     cmd.Flags().StringSliceP("genome-fasta-files", "f", []string{}, "genome FASTA files to use (comma separated, or give the flag more than once)"),
		directory: cmd.Flags().String("genome-fasta-directory", "", "use every genome FASTA file in this directory"),
		extension: cmd.Flags().StringP("genome-fasta-extension", "x", "fna", "file extension of the genomes in --genome-fasta-directory"),
	}
}

// collect returns the genome paths from the flags
func (gi *genomeInput) collect() ([]string, error) {
	switch {
	case len(*gi.files) != 0 && *gi.directory != "":
		return nil, errors.New("--genome-fasta-files and --genome-fasta-directory can't be used together")
	case len(*gi.files) != 0:
		for _, file := range *gi.files {
			if err := misc.CheckFile(file); err != nil {
				return nil, err
			}
		}
		return *gi.files, nil
	case *gi.directory != "":
		return misc.CollectGenomeFiles(*gi.directory, *gi.extension)
	}
	return nil, errors.New("no genomes given, use --genome-fasta-files or --genome-fasta-directory")
}

// checkSketchParams rejects k-mer lengths the rolling hash can't handle and empty sketches
func checkSketchParams(kmerSize, numHashes int) error {
	if kmerSize < 1 || kmerSize > minhash.MaxKmerSize {
		return errors.Errorf("--kmer-length must be between 1 and %d, got %d", minhash.MaxKmerSize, kmerSize)
	}
	if numHashes < 1 {
		return errors.Errorf("--num-hashes must be positive, got %d", numHashes)
	}
	return nil
}

// readCheckMTable reads the CheckM tab table and logs its size
func readCheckMTable(path string) (*quality.CheckMTable, error) {
	logger.Info("reading CheckM tab table...")
	table, err := quality.ReadCheckMTabTable(path)
	if err != nil {
		return nil, err
	}
	logger.Info("\tread genome qualities", zap.Int("genomes", table.Len()))
	return table, nil
}

// openOutput returns STDOUT when no file is given
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	fh, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create output file %v", path)
	}
	return fh, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
