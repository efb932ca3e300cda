package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type clusterSpec struct {
	classes  int
	features int
	rows     int
	spread   float64
	seed     int64
}

func main() {
	var (
		outputPath = flag.String("output", "data/clusters.csv", "Output CSV path")
		classes    = flag.Int("classes", 3, "Number of classes")
		features   = flag.Int("features", 4, "Number of feature columns")
		rows       = flag.Int("rows", 50, "Rows per class")
		spread     = flag.Float64("spread", 1.0, "Standard deviation around each class centre")
		seed       = flag.Int64("seed", 1, "Random seed")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	spec := clusterSpec{classes: *classes, features: *features, rows: *rows, spread: *spread, seed: *seed}
	if err := spec.validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid generator settings")
	}

	file, err := os.Create(*outputPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *outputPath).Msg("Failed to create output file")
	}
	defer file.Close()

	if err := writeClusters(file, spec); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate dataset")
	}

	log.Info().
		Str("file", *outputPath).
		Int("classes", spec.classes).
		Int("rows", spec.classes*spec.rows).
		Msg("Sample dataset generated")
}

func (s clusterSpec) validate() error {
	if s.classes < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", s.classes)
	}
	if s.features < 1 {
		return fmt.Errorf("need at least 1 feature, got %d", s.features)
	}
	if s.rows < 1 {
		return fmt.Errorf("need at least 1 row per class, got %d", s.rows)
	}
	if s.spread < 0 {
		return fmt.Errorf("spread must be non-negative, got %f", s.spread)
	}
	return nil
}

// writeClusters writes one Gaussian blob per class. Centres sit on a grid far from the
// origin so every value stays positive and the multinomial model can use the data too.
func writeClusters(w io.Writer, s clusterSpec) error {
	rng := rand.New(rand.NewSource(s.seed))
	out := csv.NewWriter(w)

	header := make([]string, 0, s.features+1)
	for j := 0; j < s.features; j++ {
		header = append(header, fmt.Sprintf("f%d", j))
	}
	header = append(header, "label")
	if err := out.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, s.features+1)
	for r := 0; r < s.rows; r++ {
		for c := 0; c < s.classes; c++ {
			for j := 0; j < s.features; j++ {
				centre := 10.0 + 5.0*float64((c+j)%s.classes)
				v := centre + rng.NormFloat64()*s.spread
				if v < 0 {
					v = 0
				}
				record[j] = strconv.FormatFloat(v, 'f', 4, 64)
			}
			record[s.features] = fmt.Sprintf("class_%d", c)
			if err := out.Write(record); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	out.Flush()
	return out.Error()
}
