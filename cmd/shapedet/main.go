// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"maps"
	"os"
	"slices"

	"github.com/ezrec/shapedet/detector"
	"github.com/ezrec/shapedet/engine"
	"github.com/ezrec/shapedet/feed"
	"github.com/ezrec/shapedet/internal"
	"github.com/ezrec/shapedet/rom"
	"github.com/ezrec/shapedet/translate"
)

// loadRom reads the weight tables from a directory or a bundle.
func loadRom(dir string, bundle string, verbose bool) (tables *rom.Rom, err error) {
	switch {
	case len(bundle) != 0:
		var inf *os.File
		inf, err = os.Open(bundle)
		if err != nil {
			return
		}
		defer inf.Close()
		tables, err = rom.ReadBundle(inf)
	case len(dir) != 0:
		ld := &rom.Loader{Verbose: verbose}
		tables, err = ld.Load(os.DirFS(dir))
	default:
		if verbose {
			log.Printf("shapedet: no weights given, using zero tables")
		}
		tables = rom.Zero()
	}

	return
}

// endOfTape is true when a request failed before any pixel arrived.
func endOfTape(err error) bool {
	var req *detector.ErrRequest
	return errors.Is(err, detector.ErrIncomplete) &&
		errors.As(err, &req) && req.Tick == 1
}

func main() {
	var weights string
	var bundle string
	var save string
	var pattern int
	var script string
	var image string
	var hex string
	var gap int
	var count int
	var check bool
	var defines bool
	var verbose bool

	flag.StringVar(&weights, "w", "", "Directory of .hex/.coe weight tables")
	flag.StringVar(&bundle, "b", "", "Weight bundle file")
	flag.StringVar(&save, "B", "", "Save weights to bundle file, do not detect")
	flag.IntVar(&pattern, "p", int(feed.SELECT_CIRCLE), "Test pattern selector (0..3)")
	flag.StringVar(&script, "s", "", ".star custom pattern script")
	flag.StringVar(&image, "i", "", "PNG or JPEG image to classify")
	flag.StringVar(&hex, "x", "", "Hex pixel stream, '-' for stdin")
	flag.IntVar(&gap, "g", 0, "Insert an invalid sample every N pixels")
	flag.IntVar(&count, "n", 1, "Number of requests; 0 runs a hex stream to the end")
	flag.BoolVar(&check, "c", false, "Cross-check each result")
	flag.BoolVar(&defines, "d", false, "Print the defines, do not detect")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if verbose {
		log.Printf("shapedet: messages in %v", translate.Language())
	}

	tables, err := loadRom(weights, bundle, verbose)
	if err != nil {
		log.Fatalf("shapedet: %v", err)
	}

	if len(save) != 0 {
		ouf, err := os.Create(save)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		defer ouf.Close()
		err = rom.WriteBundle(ouf, tables)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		return
	}

	det := detector.NewDetector(tables)
	det.Verbose = verbose
	det.Check = check
	defer det.Close()

	if defines {
		table := internal.IterSeq2Collect(det.Defines())
		for _, key := range slices.Sorted(maps.Keys(table)) {
			fmt.Printf("%v=%v\n", key, table[key])
		}
		return
	}

	if count == 0 && len(hex) == 0 {
		count = 1
	}

	var src feed.Source
	switch {
	case len(hex) != 0:
		tape := &feed.Tape{Input: os.Stdin}
		if hex != "-" {
			inf, err := os.Open(hex)
			if err != nil {
				log.Fatalf("%v: %v", hex, err)
			}
			defer inf.Close()
			tape.Input = inf
		}
		src = tape
	case len(image) != 0:
		inf, err := os.Open(image)
		if err != nil {
			log.Fatalf("%v: %v", image, err)
		}
		defer inf.Close()
		img, err := feed.ImportImage(inf)
		if err != nil {
			log.Fatalf("%v: %v", image, err)
		}
		src = &feed.Frame{Image: img, Gap: gap}
	default:
		gen := &feed.Generator{Gap: gap}
		if len(script) != 0 {
			text, err := os.ReadFile(script)
			if err != nil {
				log.Fatalf("%v: %v", script, err)
			}
			sc := &feed.Script{Name: script, Source: string(text), Defines: det.Defines()}
			gen.Custom, err = sc.Render()
			if err != nil {
				log.Fatalf("%v: %v", script, err)
			}
		}
		src, err = gen.Select(feed.Selector(pattern))
		if err != nil {
			log.Fatalf("shapedet: -p %v: %v", pattern, err)
		}
	}

	for n := 0; count == 0 || n < count; n++ {
		var result engine.Result
		result, err = det.Detect(src)
		if count == 0 && endOfTape(err) {
			break
		}
		if err != nil {
			log.Fatalf("shapedet: request %d: %v", n, err)
		}
		fmt.Printf("%v %v\n", result.Class, result.Scores)
	}
}
