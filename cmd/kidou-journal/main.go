package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"nyiyui.ca/hato/kidou/journal"
)

var dbPath string
var trackName string
var asJSON bool

func main() {
	level := zap.LevelFlag("log-level", zap.WarnLevel, "set log level")
	flag.StringVar(&dbPath, "db-path", "./journal.db", "path to journal database")
	flag.StringVar(&trackName, "track", "", "only list changes to this track")
	flag.BoolVar(&asJSON, "json", false, "print entries as JSON lines")
	flag.Parse()
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(*level)
	dev, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(dev)
	defer zap.S().Sync()

	if _, err := os.Stat(dbPath); err != nil {
		zap.S().Fatalf("journal %s: %s", dbPath, err)
	}
	err = main2()
	if err != nil {
		zap.S().Fatal(err)
	}
}

func main2() error {
	j, err := journal.Open(dbPath)
	if err != nil {
		return err
	}
	defer j.Close()
	return list(os.Stdout, j)
}

func list(w io.Writer, j *journal.Journal) error {
	es, err := j.List(trackName)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, e := range es {
		if asJSON {
			err = enc.Encode(e)
			if err != nil {
				return err
			}
			continue
		}
		_, err = fmt.Fprintf(w, "%d\t%s\t%s\n", e.Seq, e.Change.At.Format("2006-01-02 15:04:05"), e.Change)
		if err != nil {
			return err
		}
	}
	return nil
}
