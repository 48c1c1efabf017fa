package reviews

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// SentimentAnalyzer ties the pipeline together: vocabulary, encoder, the
// trained model and its predictors.
type SentimentAnalyzer struct {
	config   Config
	training TrainingConfig
	logger   *slog.Logger
	device   DeviceInfo

	vocab    *Vocabulary
	encoder  *Encoder
	registry *Registry

	model     *Model
	predictor *Predictor
}

// AnalyzerOpt configures a SentimentAnalyzer.
type AnalyzerOpt func(*SentimentAnalyzer)

// WithLogger sets the logger used by every component of the analyzer.
func WithLogger(logger *slog.Logger) AnalyzerOpt {
	return func(sa *SentimentAnalyzer) {
		sa.logger = logger
	}
}

// WithTrainingConfig overrides the training hyperparameters. The network's
// vocabulary size and sequence length always follow the analyzer Config.
func WithTrainingConfig(tc TrainingConfig) AnalyzerOpt {
	return func(sa *SentimentAnalyzer) {
		sa.training = tc
	}
}

// WithModel installs an already trained or loaded model.
func WithModel(m *Model) AnalyzerOpt {
	return func(sa *SentimentAnalyzer) {
		sa.model = m
	}
}

// NewSentimentAnalyzer validates config, configures the device, loads the
// vocabulary and opens the checkpoint registry when one is configured.
func NewSentimentAnalyzer(config Config, opts ...AnalyzerOpt) (*SentimentAnalyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	sa := &SentimentAnalyzer{
		config:   config,
		training: DefaultTrainingConfig(),
	}
	for _, applyOpt := range opts {
		applyOpt(sa)
	}
	if sa.logger == nil {
		sa.logger = defaultLogger()
	}
	sa.training.Network.VocabSize = config.VocabSize
	sa.training.Network.SequenceLength = config.MaxLen
	sa.training.Logger = sa.logger

	sa.device = ConfigureDevice(config.Device, sa.logger)

	vocab, err := LoadVocabulary(config.WordIndexPath)
	if err != nil {
		return nil, err
	}
	sa.vocab = vocab
	sa.encoder = NewEncoderFromConfig(vocab, config)
	sa.logger.Info("vocabulary loaded", "path", config.WordIndexPath, "entries", vocab.Len())

	if config.RegistryPath != "" {
		sa.registry, err = OpenRegistry(config.RegistryPath)
		if err != nil {
			return nil, err
		}
	}

	if sa.model != nil {
		if err := sa.install(sa.model); err != nil {
			sa.Close()
			return nil, err
		}
	}
	return sa, nil
}

// Close releases the checkpoint registry, if open.
func (sa *SentimentAnalyzer) Close() error {
	if sa.registry == nil {
		return nil
	}
	return sa.registry.Close()
}

// Device returns the device chosen at construction.
func (sa *SentimentAnalyzer) Device() DeviceInfo {
	return sa.device
}

// Encoder returns the analyzer's encoder.
func (sa *SentimentAnalyzer) Encoder() *Encoder {
	return sa.encoder
}

// Model returns the current model, or nil before training or loading.
func (sa *SentimentAnalyzer) Model() *Model {
	return sa.model
}

// compatible checks that m accepts the sequences the encoder produces.
func (sa *SentimentAnalyzer) compatible(m *Model) error {
	c := m.Config()
	if c.SequenceLength != sa.encoder.MaxLen() {
		return fmt.Errorf("%w: sequence length %d, encoder pads to %d",
			ErrModelMismatch, c.SequenceLength, sa.encoder.MaxLen())
	}
	if c.VocabSize != sa.config.VocabSize {
		return fmt.Errorf("%w: vocabulary size %d, configured %d",
			ErrModelMismatch, c.VocabSize, sa.config.VocabSize)
	}
	return nil
}

func (sa *SentimentAnalyzer) install(m *Model) error {
	if err := sa.compatible(m); err != nil {
		return err
	}
	p, err := NewPredictor(m, sa.encoder, sa.config.Thresholds())
	if err != nil {
		return err
	}
	sa.model = m
	sa.predictor = p
	return nil
}

// TrainModel trains on the configured train file, validates on the test
// file and saves the model to saveAs, or to the next free checkpoint in the
// models directory when saveAs is empty. It returns the saved path.
func (sa *SentimentAnalyzer) TrainModel(saveAs string) (string, TrainingMetrics, error) {
	train, err := LoadLabeled(sa.config.TrainFilePath, sa.encoder)
	if err != nil {
		return "", TrainingMetrics{}, err
	}
	test, err := LoadLabeled(sa.config.TestFilePath, sa.encoder)
	if err != nil {
		return "", TrainingMetrics{}, err
	}

	model, metrics, err := NewTrainer(sa.training).Train(train, test)
	if err != nil {
		return "", metrics, err
	}

	path, err := SaveModel(model, sa.config.ModelsDir, saveAs)
	if err != nil {
		return "", metrics, err
	}
	sa.logger.Info("model saved", "path", path, "loss", model.Loss, "accuracy", model.Accuracy)

	if sa.registry != nil {
		_, err := sa.registry.Record(Checkpoint{
			Name:      model.Name,
			Path:      path,
			RunID:     model.RunID,
			Loss:      model.Loss,
			Accuracy:  model.Accuracy,
			CreatedAt: model.CreatedAt,
		})
		if err != nil {
			return path, metrics, err
		}
	}

	return path, metrics, sa.install(model)
}

// LoadSavedModel loads the model at path and re-evaluates it on the test
// file. Load failures are logged at FATAL and returned unchanged; a model
// whose input shape differs from the configuration is rejected the same way.
func (sa *SentimentAnalyzer) LoadSavedModel(path string) error {
	test, err := LoadLabeled(sa.config.TestFilePath, sa.encoder)
	if err != nil {
		return err
	}

	model, err := ModelFromDisk(path, sa.logger)
	if err != nil {
		return err
	}
	if err := sa.compatible(model); err != nil {
		logFatal(sa.logger, "failed to load model", "path", path, "err", err)
		return &ModelLoadError{Path: path, Err: err}
	}

	model.Loss, model.Accuracy, err = model.Evaluate(test)
	if err != nil {
		return err
	}
	sa.logger.Info("model loaded", "path", path, "loss", model.Loss, "accuracy", model.Accuracy)
	return sa.install(model)
}

// Predict classifies a single review.
func (sa *SentimentAnalyzer) Predict(review string) (Prediction, error) {
	if sa.predictor == nil {
		return Prediction{}, ErrNoModel
	}
	return sa.predictor.Predict(review)
}

// PredictSentences classifies every sentence of review separately.
func (sa *SentimentAnalyzer) PredictSentences(review string) ([]Prediction, error) {
	if sa.predictor == nil {
		return nil, ErrNoModel
	}
	return sa.predictor.PredictSentences(review)
}

// PredictFromFile classifies every review of a .csv or .txt file.
func (sa *SentimentAnalyzer) PredictFromFile(path string) ([]Prediction, error) {
	if sa.predictor == nil {
		return nil, ErrNoModel
	}
	return NewBatchPredictor(sa.predictor).PredictFile(path)
}

// Checkpoints lists the registry, or returns nil when no registry is configured.
func (sa *SentimentAnalyzer) Checkpoints() ([]Checkpoint, error) {
	if sa.registry == nil {
		return nil, nil
	}
	return sa.registry.List()
}

// Details prints the model summary with its accuracy and loss.
func (sa *SentimentAnalyzer) Details(w io.Writer) error {
	if sa.model == nil {
		return ErrNoModel
	}
	fmt.Fprintln(w, center("Summary", 66, '='))
	return sa.model.Summary(w)
}

func center(s string, width int, fill rune) string {
	if len(s) >= width {
		return s
	}
	total := width - len(s)
	// Odd padding puts the extra fill character on the right.
	left := total / 2
	return strings.Repeat(string(fill), left) + s + strings.Repeat(string(fill), total-left)
}
