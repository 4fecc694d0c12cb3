package main

import (
	"flag"
	"math"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/FlavioCFOliveira/densenet/densenet"
)

func main() {
	epochs := flag.Int("epochs", 3000, "training epochs")
	seed := flag.Int64("seed", 42, "weight initialization seed")
	out := flag.String("out", "xor_network.json", "where to save the trained network")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := logrus.New()
	if *epochs < 1 {
		log.Fatal("-epochs must be positive")
	}
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	// 2 inputs -> 4 hidden -> 1 output. XOR is not linearly separable, so a
	// single-layer perceptron cannot learn it.
	network, err := densenet.New([]int{2, 4, 1}, densenet.Sigmoid, densenet.WithSeed(*seed))
	if err != nil {
		log.WithError(err).Fatal("failed to build network")
	}
	log.WithFields(logrus.Fields{
		"topology":  network.NodeCounts(),
		"optimizer": network.Updater().Name(),
		"lr":        network.Updater().LearningRate(),
	}).Info("training XOR")

	ds := &densenet.Dataset{
		Inputs:     [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		Targets:    [][]float64{{0}, {1}, {1}, {0}},
		InputSize:  2,
		OutputSize: 1,
	}

	progress := densenet.Logger(500)
	progress.Log = log
	history, err := network.Fit(ds, *epochs, progress)
	if err != nil {
		log.WithError(err).Fatal("training failed")
	}
	log.WithField("loss", history[len(history)-1]).Info("training complete")

	for i, in := range ds.Inputs {
		pred, err := network.Predict(in)
		if err != nil {
			log.WithError(err).Fatal("predict failed")
		}
		log.WithFields(logrus.Fields{
			"input":     in,
			"predicted": pred[0],
			"target":    ds.Targets[i][0],
		}).Info("result")
	}

	if err := network.Save(*out); err != nil {
		log.WithError(err).Fatal("failed to save network")
	}
	loaded, err := densenet.LoadFile(*out)
	if err != nil {
		log.WithError(err).Fatal("failed to load network")
	}
	log.WithField("file", *out).Info("network saved and reloaded")

	// Verify loaded network produces same predictions
	allMatch := true
	for _, in := range ds.Inputs {
		want, _ := network.Predict(in)
		got, err := loaded.Predict(in)
		if err != nil {
			log.WithError(err).Fatal("predict failed")
		}
		if math.Abs(want[0]-got[0]) > 1e-9 {
			allMatch = false
			log.WithFields(logrus.Fields{"input": in, "original": want[0], "loaded": got[0]}).Error("prediction mismatch")
		}
	}
	if !allMatch {
		os.Exit(1)
	}
	log.Info("loaded network matches the original")
}
