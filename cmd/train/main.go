// Command train fits a dense network to a CSV dataset and writes the model
// as JSON.
//
//	train -data iris.csv -labels 4 -topology 4,8,1 -out model.json
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/FlavioCFOliveira/densenet/densenet"
)

func main() {
	data := flag.String("data", "", "CSV file with one example per row")
	header := flag.Bool("header", false, "skip the first CSV row")
	labels := flag.String("labels", "", "comma separated target column indices")
	topology := flag.String("topology", "", "comma separated layer sizes, e.g. 4,8,1")
	activation := flag.String("activation", densenet.Sigmoid, "activation for every layer: "+strings.Join(densenet.Activations(), ", "))
	optimizer := flag.String("optimizer", densenet.Adam, "optimizer: sgd or adam")
	lr := flag.Float64("lr", 0.01, "learning rate")
	epochs := flag.Int("epochs", 1000, "training epochs")
	seed := flag.Int64("seed", 1, "random seed for initialization and shuffling")
	normalize := flag.Bool("normalize", false, "min-max normalize input features")
	split := flag.Float64("split", 1, "fraction of rows used for training; the rest is evaluated")
	patience := flag.Int("patience", 0, "stop after this many epochs without improvement (0 disables)")
	decay := flag.Float64("decay", 0, "multiply the learning rate by this factor every -decay-every epochs")
	decayEvery := flag.Int("decay-every", 100, "epochs between learning rate decays")
	logEvery := flag.Int("log-every", 100, "epochs between progress lines")
	history := flag.String("history", "", "write per-epoch loss to this CSV file")
	checkpoint := flag.String("checkpoint", "", "save the best model seen so far to this file")
	out := flag.String("out", "model.json", "output model file")
	flag.Parse()

	log := logrus.New()

	labelCols, err := parseInts(*labels)
	if err != nil {
		log.WithError(err).Fatal("invalid -labels")
	}
	layers, err := parseInts(*topology)
	if err != nil {
		log.WithError(err).Fatal("invalid -topology")
	}
	if *data == "" {
		log.Fatal("-data is required")
	}
	if *epochs < 1 {
		log.Fatal("-epochs must be positive")
	}

	ds, err := densenet.LoadCSV(*data, labelCols, *header)
	if err != nil {
		log.WithError(err).Fatal("failed to load dataset")
	}
	if *normalize {
		ds.Normalize()
	}
	ds.Shuffle(rand.New(rand.NewSource(*seed)))
	trainSet, testSet := ds.Split(*split)
	log.WithFields(logrus.Fields{
		"file":   *data,
		"rows":   ds.Len(),
		"train":  trainSet.Len(),
		"test":   testSet.Len(),
		"inputs": ds.InputSize,
		"labels": ds.OutputSize,
	}).Info("dataset loaded")

	network, err := densenet.New(layers, *activation, densenet.WithSeed(*seed))
	if err != nil {
		log.WithError(err).Fatal("failed to build network")
	}
	if network.InputSize() != ds.InputSize || network.OutputSize() != ds.OutputSize {
		log.WithFields(logrus.Fields{
			"topology": network.NodeCounts(),
			"inputs":   ds.InputSize,
			"labels":   ds.OutputSize,
		}).Fatal("topology does not match the dataset")
	}
	if err := network.SetOptimizer(*optimizer, *lr); err != nil {
		log.WithError(err).Fatal("invalid -optimizer")
	}

	progress := densenet.Logger(*logEvery)
	progress.Log = log
	callbacks := []densenet.Callback{progress}
	if *decay > 0 {
		callbacks = append(callbacks, densenet.SchedulerCallback(densenet.StepLR(network.Updater(), *decayEvery, *decay)))
	}
	if *patience > 0 {
		es := densenet.EarlyStopping(*patience, 0)
		es.Log = log
		callbacks = append(callbacks, es)
	}
	if *history != "" {
		csvLog := densenet.CSVLogger(*history, false)
		csvLog.Log = log
		callbacks = append(callbacks, csvLog)
	}
	if *checkpoint != "" {
		cp := densenet.ModelCheckpoint(*checkpoint)
		cp.Log = log
		callbacks = append(callbacks, cp)
	}

	losses, err := network.Fit(trainSet, *epochs, callbacks...)
	if err != nil {
		log.WithError(err).Fatal("training failed")
	}
	entry := log.WithFields(logrus.Fields{
		"epochs": len(losses),
		"loss":   losses[len(losses)-1],
	})
	if testSet.Len() > 0 {
		testLoss, err := network.Evaluate(testSet)
		if err != nil {
			log.WithError(err).Fatal("evaluation failed")
		}
		entry = entry.WithField("test_loss", testLoss)
	}
	entry.Info("training complete")

	if err := network.Save(*out); err != nil {
		log.WithError(err).Fatal("failed to save model")
	}
	log.WithField("file", *out).Info("model saved")
}

func parseInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty list")
	}
	parts := strings.Split(s, ",")
	vals := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals, nil
}
