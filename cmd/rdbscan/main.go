// Command rdbscan decodes an RDB file and renders its record stream as
// JSON or CSV, adapting the teacher's boot.Boot/command.Watch pair: a
// flag-parsed entry point with a colored usage banner, here driving
// rdbscan.Decoder instead of the teacher's blocking rdb.ParseRdb.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/kelpwave/rdbscan/config"
	"github.com/kelpwave/rdbscan/rdbscan"
	"github.com/kelpwave/rdbscan/sink"
)

const (
	app     = "rdbscan"
	version = "0.1.0"
	logo    = `
  _____ ___  _____ _____ _____ __  __
 |  __ \|  \/  |  ___/  ___|  \/  |
 | |__) | \  / | |_  \ ` + "`" + `--.| .  . |
 |  _  /| |\/| |  _|  ` + "`" + `--. | |\/| |
 | | \ \| |  | | |___/\__/ / |  | |
 \_|  \_\_|  |_\____/\____/\_|  |_/
`
)

func main() {
	var (
		rdbFile    = flag.String("rdb", "", "<rdb-file-name>. For example: ./dump.rdb")
		outType    = flag.String("type", "json", "output type: json|csv")
		outFile    = flag.String("o", "", "output file (default: stdout)")
		configPath = flag.String("config", "", "optional YAML config file (chunk_size)")
		verbose    = flag.Bool("v", false, "log progress at info level")
	)
	flag.Usage = usage
	flag.Parse()

	log := logrus.StandardLogger()
	if *verbose {
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	if *rdbFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("rdbscan: config load failed: %v", err))
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := run(*rdbFile, sink.Format(*outType), *outFile, cfg, log); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("rdbscan: %v", err))
		os.Exit(1)
	}
}

func run(rdbPath string, format sink.Format, outPath string, cfg config.Config, log *logrus.Logger) error {
	f, err := os.Open(rdbPath)
	if err != nil {
		return err
	}
	defer f.Close()

	out := os.Stdout
	if outPath != "" {
		w, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer w.Close()
		out = w
	}

	s := sink.New(format, out)
	d := rdbscan.New(f, cfg, rdbscan.WithLogger(log))

	var count int
	for {
		rec, err := d.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if err := s.Write(rec); err != nil {
			return err
		}
		count++
	}
	log.WithField("records", count).Info("decode complete")
	return s.Flush()
}

func usage() {
	fmt.Fprintf(os.Stderr, "%s\n%s %s\n\n", logo, color.GreenString(app), color.YellowString(version))
	fmt.Fprintln(os.Stderr, "Decode a Redis RDB file into a JSON or CSV record stream.")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}
