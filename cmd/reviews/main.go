package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/tsawler/reviews"
)

const usage = `usage: reviews [-config path] <command> [args]

commands:
  train [-save path]        train on the configured data and save a checkpoint
  predict -model path TEXT  classify a single review
  predict-file -model path [-out file.csv] FILE
                            classify every review of a .csv or .txt file
  summary -model path       print the model summary, accuracy and loss
  checkpoints               list checkpoints recorded in the registry
`

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := reviews.NewLogger(os.Stderr, level)

	cfg, err := reviews.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sa, err := reviews.NewSentimentAnalyzer(cfg, reviews.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create analyzer: %v", err)
	}
	defer sa.Close()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "train":
		err = runTrain(sa, args)
	case "predict":
		err = runPredict(sa, args)
	case "predict-file":
		err = runPredictFile(sa, args)
	case "summary":
		err = runSummary(sa, args)
	case "checkpoints":
		err = runCheckpoints(sa)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		sa.Close()
		log.Fatalf("%s: %v", cmd, err)
	}
}

func runTrain(sa *reviews.SentimentAnalyzer, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	save := fs.String("save", "", "checkpoint path (default: next free models/my_model_N)")
	fs.Parse(args)

	path, metrics, err := sa.TrainModel(*save)
	if err != nil {
		return err
	}
	fmt.Printf("saved %s after %d epochs in %s\n", path, metrics.EpochsCompleted, metrics.TrainingTime)
	return sa.Details(os.Stdout)
}

func loadModel(sa *reviews.SentimentAnalyzer, name string, args []string) (*flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	model := fs.String("model", "", "checkpoint to load")
	fs.String("out", "", "write predictions to this CSV file (predict-file only)")
	fs.Parse(args)
	if *model == "" {
		return nil, fmt.Errorf("-model is required")
	}
	return fs, sa.LoadSavedModel(*model)
}

func runPredict(sa *reviews.SentimentAnalyzer, args []string) error {
	fs, err := loadModel(sa, "predict", args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("missing review text")
	}
	pred, err := sa.Predict(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("%.4f\t%s\n", pred.Probability, pred.Label())
	return nil
}

func runPredictFile(sa *reviews.SentimentAnalyzer, args []string) error {
	fs, err := loadModel(sa, "predict-file", args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("missing input file")
	}
	preds, err := sa.PredictFromFile(fs.Arg(0))
	if err != nil {
		return err
	}

	return writePredictions(fs.Lookup("out").Value.String(), preds)
}

// writePredictions writes preds as CSV to path, or to stdout when path is
// empty. The file's close error is returned.
func writePredictions(path string, preds []reviews.Prediction) error {
	if path == "" {
		return reviews.WritePredictionsCSV(os.Stdout, preds)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := reviews.WritePredictionsCSV(f, preds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runSummary(sa *reviews.SentimentAnalyzer, args []string) error {
	if _, err := loadModel(sa, "summary", args); err != nil {
		return err
	}
	return sa.Details(os.Stdout)
}

func runCheckpoints(sa *reviews.SentimentAnalyzer) error {
	cps, err := sa.Checkpoints()
	if err != nil {
		return err
	}
	if cps == nil {
		fmt.Println("no registry configured")
		return nil
	}
	for _, cp := range cps {
		fmt.Printf("%s\t%s\tloss=%.4f\taccuracy=%.4f\t%s\n",
			cp.Name, cp.Path, cp.Loss, cp.Accuracy, cp.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
