package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"nyiyui.ca/hato/kidou/edit"
	"nyiyui.ca/hato/kidou/trackset"
)

var index string
var resave bool

func main() {
	level := zap.LevelFlag("log-level", zap.WarnLevel, "set log level")
	flag.StringVar(&index, "index", "traintracks.xml", "path to track index")
	flag.BoolVar(&resave, "resave", false, "write every track back to its file")
	flag.Parse()
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(*level)
	dev, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(dev)
	defer zap.S().Sync()

	err = main2()
	if err != nil {
		for _, err := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func main2() error {
	ts, err := trackset.Load(index)
	if err != nil {
		return err
	}
	s := edit.New(ts, nil)
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFILE\tSEGMENTS\tPOINTS\tSTATIONS\tSWITCHES")
	for _, sum := range s.Tracks() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			sum.Name, sum.Path, sum.Segments, sum.Points,
			strings.Join(sum.Stations, ","), strings.Join(sum.Switches, ","))
	}
	err = w.Flush()
	if err != nil {
		return err
	}
	if !resave {
		return nil
	}
	return s.Save()
}
