// Package reporting writes the galah results: genome clusters, pairwise distance tables (as TSV or
// SQLite) and an ANI histogram.
package reporting

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/will-rowe/galah/src/pipeline"
)

// DistanceHeader is the first line of a distance table
var DistanceHeader = []string{"genome1", "genome2", "ani", "completeness1", "contamination1", "completeness2", "contamination2"}

// WriteClusters prints one line per cluster member as representative<TAB>member, with the
// representative paired with itself first
func WriteClusters(w io.Writer, genomes []string, clusters [][]int) error {
	bw := bufio.NewWriter(w)
	for _, cluster := range clusters {
		if len(cluster) == 0 {
			continue
		}
		rep := genomes[cluster[0]]
		for _, member := range cluster {
			if _, err := fmt.Fprintf(bw, "%s\t%s\n", rep, genomes[member]); err != nil {
				return errors.Wrap(err, "could not write clusters")
			}
		}
	}
	return errors.Wrap(bw.Flush(), "could not write clusters")
}

// DistanceTSV writes distance records as a tab separated table
type DistanceTSV struct {
	w *bufio.Writer
}

// NewDistanceTSV returns a DistanceTSV that has already written the header
func NewDistanceTSV(w io.Writer) (*DistanceTSV, error) {
	tsv := &DistanceTSV{w: bufio.NewWriter(w)}
	for i, col := range DistanceHeader {
		sep := "\t"
		if i == len(DistanceHeader)-1 {
			sep = "\n"
		}
		if _, err := tsv.w.WriteString(col + sep); err != nil {
			return nil, errors.Wrap(err, "could not write distance header")
		}
	}
	return tsv, nil
}

// Add writes a single record
func (DistanceTSV *DistanceTSV) Add(r pipeline.DistanceRecord) error {
	_, err := fmt.Fprintf(DistanceTSV.w, "%s\t%s\t%.3f\t%g\t%g\t%g\t%g\n",
		r.GenomeA, r.GenomeB, r.ANI,
		r.QualityA.Completeness, r.QualityA.Contamination,
		r.QualityB.Completeness, r.QualityB.Contamination)
	return errors.Wrap(err, "could not write distance")
}

// Flush writes any buffered records
func (DistanceTSV *DistanceTSV) Flush() error {
	return errors.Wrap(DistanceTSV.w.Flush(), "could not write distances")
}
