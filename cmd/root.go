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
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/will-rowe/galah/src/config"
	"github.com/will-rowe/galah/src/logger"
	"github.com/will-rowe/galah/src/misc"
	"github.com/will-rowe/galah/src/version"
	"github.com/will-rowe/galah/src/workers"
)

// the command line arguments
var (
	proc       *int    // number of processors to use
	profiling  *bool   // create profile for go pprof
	verbose    *bool   // log debug messages
	quiet      *bool   // only log errors
	logFile    *string // also write the log to this file
	configFile *string // TOML file with flag defaults
)

// set up by the root command before any subcommand runs
var (
	cfg  *config.Config
	pool *workers.Pool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "galah",
	Short: "more scalable dereplication for metagenome assembled genomes",
	Long: `
#####################################################################################
		galah: dereplication of metagenome assembled genomes
#####################################################################################

 galah clusters genomes (e.g. MAGs) at a chosen average nucleotide identity (ANI)
 and picks the highest quality genome of each cluster as its representative.

 Genomes are ranked by their CheckM completeness and contamination, and then
 greedily clustered: MinHash sketches give a fast ANI estimate that is used
 either directly or to decide when FastANI needs to be run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

/*
  A function to add all child commands to the root command and sets flags appropriately
*/
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

/*
  A function to initalise the command line arguments
*/
func init() {
	proc = RootCmd.PersistentFlags().IntP("processors", "p", 1, "number of processors to use")
	profiling = RootCmd.PersistentFlags().Bool("profiling", false, "create the files needed to profile galah using the go tool pprof")
	verbose = RootCmd.PersistentFlags().BoolP("verbose", "v", false, "print extra debugging information")
	quiet = RootCmd.PersistentFlags().BoolP("quiet", "q", false, "only print errors")
	logFile = RootCmd.PersistentFlags().String("logFile", "", "also write the log to this file")
	configFile = RootCmd.PersistentFlags().String("config", "", "TOML file giving defaults for the command line flags")
}

// setup starts the logger, reads the config and creates the worker pool for a subcommand
func setup(cmd *cobra.Command) error {
	logPaths := []string{}
	if *logFile != "" {
		if err := misc.PrepareLogFile(*logFile); err != nil {
			return err
		}
		logPaths = append(logPaths, *logFile)
	}
	if err := logger.InitLogger(logger.Level(*verbose, *quiet), logPaths...); err != nil {
		return errors.Wrap(err, "could not start logging")
	}
	logger.Info(fmt.Sprintf("this is galah (version %s)", version.GetVersion()))
	logger.Info(fmt.Sprintf("starting the %s subcommand", cmd.Name()))

	// .env and config file defaults, command line flags always win
	if config.LoadEnv() {
		logger.Debug("loaded .env file")
	}
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			return err
		}
		if err := cfg.Apply(cmd.Flags()); err != nil {
			return err
		}
		logger.Info("read config file", zap.String("config", *configFile))
	}

	// one pool for the whole run
	*proc = misc.SetProcessors(*proc)
	var err error
	pool, err = workers.Init(*proc)
	return err
}
