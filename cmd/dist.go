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
	"fmt"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/will-rowe/galah/src/logger"
	"github.com/will-rowe/galah/src/misc"
	"github.com/will-rowe/galah/src/pipeline"
	"github.com/will-rowe/galah/src/quality"
	"github.com/will-rowe/galah/src/reporting"
	"github.com/will-rowe/galah/src/version"
)

// the command line arguments
var (
	distCheckM    *string      // CheckM tab table
	distNumHashes *int         // MinHash sketch size
	distKmerSize  *int         // MinHash k-mer length
	distOutput    *string      // where to write the distance table
	sqlitePath    *string      // optional SQLite copy of the distances
	plotPath      *string      // optional ANI histogram
	distGenomes   *genomeInput // the genome FASTA files
)

// the dist command (used by cobra)
var distCmd = &cobra.Command{
	Use:   "dist",
	Short: "Print the MinHash ANI between every pair of genomes, along with their qualities",
	Long:  `Print the MinHash ANI between every pair of genomes, along with their qualities`,
	Run: func(cmd *cobra.Command, args []string) {
		runDist()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	distCheckM = distCmd.Flags().String("checkm-tab-table", "", "output of CheckM lineage_wf with --tab_table - required")
	distNumHashes = distCmd.Flags().Int("num-hashes", 1000, "number of hashes in each MinHash sketch")
	distKmerSize = distCmd.Flags().Int("kmer-length", 21, "k-mer length used for MinHash sketching")
	distOutput = distCmd.Flags().StringP("output", "o", "", "write the distances to this file instead of STDOUT")
	sqlitePath = distCmd.Flags().String("sqlite", "", "also store the distances in this SQLite database")
	plotPath = distCmd.Flags().String("plot", "", "plot a histogram of the distances to this file (.png, .svg or .pdf)")
	distGenomes = addGenomeFlags(distCmd)
	distCmd.MarkFlagRequired("checkm-tab-table")
	RootCmd.AddCommand(distCmd)
}

//  a function to check user supplied parameters
func distParamCheck() (*pipeline.Info, error) {
	if err := misc.CheckFile(*distCheckM); err != nil {
		return nil, err
	}
	if err := checkSketchParams(*distKmerSize, *distNumHashes); err != nil {
		return nil, err
	}
	info := &pipeline.Info{
		Version:    version.GetVersion(),
		NumProc:    *proc,
		Profiling:  *profiling,
		KmerSize:   *distKmerSize,
		SketchSize: *distNumHashes,
		Dist: pipeline.DistCmd{
			SQLite: *sqlitePath,
			Plot:   *plotPath,
		},
	}
	info.AttachPool(pool)
	return info, nil
}

/*
  The main function for the dist command
*/
func runDist() {
	// set up profiling
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}
	defer logger.Sync()

	// check the supplied files and then log some stuff
	logger.Info("checking parameters...")
	info, err := distParamCheck()
	misc.ErrorCheck(err)
	genomes, err := distGenomes.collect()
	misc.ErrorCheck(err)
	logger.Info(fmt.Sprintf("\tprocessors: %d", info.NumProc))
	logger.Info(fmt.Sprintf("\tnumber of genomes: %d", len(genomes)))
	logger.Info(fmt.Sprintf("\tk-mer length: %d", info.KmerSize))
	logger.Info(fmt.Sprintf("\tnumber of hashes: %d", info.SketchSize))

	// every genome needs a quality
	table, err := readCheckMTable(*distCheckM)
	misc.ErrorCheck(err)
	qualities, err := quality.Resolve(genomes, table)
	misc.ErrorCheck(err)
	logger.Info(fmt.Sprintf("Linked %d genomes to their CheckM quality", len(qualities)))

	// set up the outputs
	out, err := openOutput(*distOutput)
	misc.ErrorCheck(err)
	tsv, err := reporting.NewDistanceTSV(out)
	misc.ErrorCheck(err)
	sinks := []func(pipeline.DistanceRecord) error{tsv.Add}
	var db *reporting.DistanceDB
	if info.Dist.SQLite != "" {
		db, err = reporting.OpenDistanceDB(info.Dist.SQLite)
		misc.ErrorCheck(err)
		sinks = append(sinks, db.Add)
	}
	var hist *reporting.ANIHistogram
	if info.Dist.Plot != "" {
		hist = reporting.NewANIHistogram()
		sinks = append(sinks, hist.Add)
	}

	logger.Info("printing distances...")
	err = pipeline.ReportDistances(info, genomes, qualities, func(r pipeline.DistanceRecord) error {
		for _, sink := range sinks {
			if err := sink(r); err != nil {
				return err
			}
		}
		return nil
	})
	misc.ErrorCheck(err)
	logger.Debug(misc.PrintMemUsage())
	misc.ErrorCheck(tsv.Flush())
	misc.ErrorCheck(out.Close())
	if db != nil {
		misc.ErrorCheck(db.Close())
		logger.Info(fmt.Sprintf("\tstored %d distances in %v", db.Count(), info.Dist.SQLite))
	}
	if hist != nil && hist.Len() != 0 {
		misc.ErrorCheck(hist.Save(info.Dist.Plot))
		logger.Info(fmt.Sprintf("\tplotted distances to %v", info.Dist.Plot))
	}
	logger.Info("Finished")
}
