// Command predict loads a JSON model and prints the output for one input
// vector.
//
//	predict -model model.json -input 0,1
package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/FlavioCFOliveira/densenet/densenet"
)

func main() {
	modelFile := flag.String("model", "model.json", "model written by train or xor")
	input := flag.String("input", "", "comma separated input values")
	summary := flag.Bool("summary", false, "print the model architecture first")
	flag.Parse()

	log := logrus.New()

	network, err := densenet.LoadFile(*modelFile)
	if err != nil {
		log.WithError(err).WithField("file", *modelFile).Fatal("failed to load model")
	}
	if *summary {
		if err := network.Summary(log.Out); err != nil {
			log.WithError(err).Fatal("failed to write summary")
		}
	}

	vec, err := parseFloats(*input)
	if err != nil {
		log.WithError(err).Fatal("invalid -input")
	}
	out, err := network.Predict(vec)
	if err != nil {
		log.WithError(err).WithField("expected", network.InputSize()).Fatal("predict failed")
	}

	vals := make([]string, len(out))
	for i, v := range out {
		vals[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	fmt.Println(strings.Join(vals, ","))
}

func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty vector")
	}
	parts := strings.Split(s, ",")
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals, nil
}
