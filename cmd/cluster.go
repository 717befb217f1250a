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

	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/will-rowe/galah/src/ani"
	"github.com/will-rowe/galah/src/cluster"
	"github.com/will-rowe/galah/src/config"
	"github.com/will-rowe/galah/src/logger"
	"github.com/will-rowe/galah/src/misc"
	"github.com/will-rowe/galah/src/pipeline"
	"github.com/will-rowe/galah/src/quality"
	"github.com/will-rowe/galah/src/reporting"
	"github.com/will-rowe/galah/src/version"
)

// the command line arguments
var (
	aniThreshold     *float64     // ANI needed to join a cluster
	clusterCheckM    *string      // CheckM tab table
	minCompleteness  *float64     // quality filter
	maxContamination *float64     // quality filter
	qualityFormula   *string      // composite score used for ranking
	clusterNumHashes *int         // MinHash sketch size
	clusterKmerSize  *int         // MinHash k-mer length
	preThreshold     *float64     // MinHash ANI needed before FastANI is run
	method           *string      // minhash or minhash+fastani
	fastaniPath      *string      // FastANI executable
	fragmentLength   *int         // FastANI --fragLen
	clusterOutput    *string      // where to write the clusters
	clusterGenomes   *genomeInput // the genome FASTA files
)

// the cluster command (used by cobra)
var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster genomes by ANI, choosing the best quality genome as each representative",
	Long:  `Cluster genomes by ANI, choosing the best quality genome as each representative`,
	Run: func(cmd *cobra.Command, args []string) {
		runCluster(cmd)
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	aniThreshold = clusterCmd.Flags().Float64("ani", 0, "ANI (%) needed to join a cluster, e.g. 95 - required (flag or config)")
	clusterCheckM = clusterCmd.Flags().String("checkm-tab-table", "", "output of CheckM lineage_wf with --tab_table")
	minCompleteness = clusterCmd.Flags().Float64("min-completeness", 0, "ignore genomes with less completeness than this (%), needs --checkm-tab-table")
	maxContamination = clusterCmd.Flags().Float64("max-contamination", 0, "ignore genomes with more contamination than this (%), needs --checkm-tab-table")
	qualityFormula = clusterCmd.Flags().String("quality-formula", quality.DefaultFormula, "formula used to rank genomes (completeness-5contamination or completeness-4contamination)")
	clusterNumHashes = clusterCmd.Flags().Int("num-hashes", 1000, "number of hashes in each MinHash sketch")
	clusterKmerSize = clusterCmd.Flags().Int("kmer-length", 21, "k-mer length used for MinHash sketching")
	preThreshold = clusterCmd.Flags().Float64("minhash-prethreshold", 90, "MinHash ANI (%) needed before FastANI is run")
	method = clusterCmd.Flags().String("method", cluster.MinHashFastANIName, "ANI calculation: minhash+fastani or minhash")
	fastaniPath = clusterCmd.Flags().String("fastani-path", ani.DefaultExecutable, "FastANI executable (or set "+config.FastANIEnv+")")
	fragmentLength = clusterCmd.Flags().Int("fragment-length", ani.DefaultFragmentLength, "FastANI fragment length")
	clusterOutput = clusterCmd.Flags().StringP("output", "o", "", "write the clusters to this file instead of STDOUT")
	clusterGenomes = addGenomeFlags(clusterCmd)
	RootCmd.AddCommand(clusterCmd)
}

//  a function to check user supplied parameters
func clusterParamCheck(cmd *cobra.Command) (*pipeline.Info, error) {
	if *aniThreshold <= 0 || *aniThreshold > 100 {
		return nil, errors.Errorf("--ani must be given and be in (0, 100], got %v", *aniThreshold)
	}
	m, err := cluster.ParseMethod(*method)
	if err != nil {
		return nil, err
	}
	if _, err := quality.GetFormula(*qualityFormula); err != nil {
		return nil, err
	}
	useFilter := cmd.Flags().Changed("min-completeness") || cmd.Flags().Changed("max-contamination")
	if useFilter && *clusterCheckM == "" {
		return nil, errors.New("--min-completeness and --max-contamination need --checkm-tab-table")
	}
	thresholds := quality.DefaultThresholds()
	thresholds.MinCompleteness = *minCompleteness
	if cmd.Flags().Changed("max-contamination") {
		thresholds.MaxContamination = *maxContamination
	}
	if *clusterCheckM != "" {
		if err := misc.CheckFile(*clusterCheckM); err != nil {
			return nil, err
		}
	}
	if err := checkSketchParams(*clusterKmerSize, *clusterNumHashes); err != nil {
		return nil, err
	}
	info := &pipeline.Info{
		Version:    version.GetVersion(),
		NumProc:    *proc,
		Profiling:  *profiling,
		KmerSize:   *clusterKmerSize,
		SketchSize: *clusterNumHashes,
		Cluster: pipeline.ClusterCmd{
			ANI:              *aniThreshold,
			PreThreshold:     *preThreshold,
			Method:           m,
			QualityFormula:   *qualityFormula,
			Thresholds:       thresholds,
			FastANI:          config.FastANIPath(cmd.Flags(), cfg, ani.DefaultExecutable),
			FragmentLength:   *fragmentLength,
			UseQualityFilter: useFilter,
		},
	}
	info.AttachPool(pool)
	if err := info.ClusterParams().Validate(); err != nil {
		return nil, err
	}
	return info, nil
}

/*
  The main function for the cluster command
*/
func runCluster(cmd *cobra.Command) {
	// set up profiling
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}
	defer logger.Sync()

	// check the supplied files and then log some stuff
	logger.Info("checking parameters...")
	info, err := clusterParamCheck(cmd)
	misc.ErrorCheck(err)
	genomes, err := clusterGenomes.collect()
	misc.ErrorCheck(err)
	logger.Info(fmt.Sprintf("\tprocessors: %d", info.NumProc))
	logger.Info(fmt.Sprintf("\tnumber of genomes: %d", len(genomes)))
	logger.Info(fmt.Sprintf("\tANI threshold: %v", info.Cluster.ANI))
	logger.Info(fmt.Sprintf("\tmethod: %v", info.Cluster.Method))
	logger.Info(fmt.Sprintf("\tk-mer length: %d", info.KmerSize))
	logger.Info(fmt.Sprintf("\tnumber of hashes: %d", info.SketchSize))

	// the quality table is optional
	var table quality.Lookup
	if *clusterCheckM != "" {
		checkm, err := readCheckMTable(*clusterCheckM)
		misc.ErrorCheck(err)
		table = checkm
	}

	// FastANI is only needed for the two-stage method
	var oracle cluster.Oracle
	if info.Cluster.Method == cluster.MinHashFastANI {
		logger.Info(fmt.Sprintf("\tMinHash prethreshold: %v", info.Cluster.PreThreshold))
		fastani, err := ani.NewFastANI(info.Cluster.FastANI, info.Cluster.FragmentLength)
		misc.ErrorCheck(err)
		logger.Info(fmt.Sprintf("\tFastANI: %v", fastani.Executable))
		oracle = fastani
	}

	clusters, err := pipeline.Dereplicate(info, genomes, table, oracle)
	misc.ErrorCheck(err)
	logger.Debug(misc.PrintMemUsage())
	logger.Info(fmt.Sprintf("Found %d genome clusters", len(clusters)))

	out, err := openOutput(*clusterOutput)
	misc.ErrorCheck(err)
	misc.ErrorCheck(reporting.WriteClusters(out, genomes, clusters))
	misc.ErrorCheck(out.Close())
	logger.Info("Finished printing genome clusters")
}
