package reviews

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
)

// TrainingConfig contains configuration for model training
type TrainingConfig struct {
	Network      NetworkConfig
	Epochs       int
	BatchSize    int
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	Seed         uint64
	Shuffle      bool

	Context          context.Context
	ProgressCallback func(EpochMetrics)
	Logger           *slog.Logger
}

// DefaultTrainingConfig returns 30 epochs of 512 example mini-batches with
// Adam at its usual settings.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Network:      DefaultNetworkConfig(),
		Epochs:       30,
		BatchSize:    512,
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
		Seed:         1,
		Shuffle:      true,
		Context:      context.Background(),
	}
}

// EpochMetrics reports one pass over the training set.
type EpochMetrics struct {
	Epoch              int
	Loss               float64
	Accuracy           float64
	ValidationLoss     float64
	ValidationAccuracy float64
}

// TrainingMetrics contains metrics from training
type TrainingMetrics struct {
	History         []EpochMetrics
	FinalLoss       float64 // held-out loss from the final evaluation pass
	FinalAccuracy   float64 // held-out accuracy from the final evaluation pass
	EpochsCompleted int
	TrainingTime    time.Duration
}

// Trainer fits the sentiment network
type Trainer struct {
	config TrainingConfig
}

// NewTrainer creates a new trainer with the given configuration
func NewTrainer(config TrainingConfig) *Trainer {
	if config.Context == nil {
		config.Context = context.Background()
	}
	if config.Logger == nil {
		config.Logger = defaultLogger()
	}
	return &Trainer{config: config}
}

// Train fits a new model on train, evaluating valid after every epoch. The
// validation pass only reports; it never changes weights. The final held-out
// loss and accuracy are stored on the returned model.
func (t *Trainer) Train(train, valid *Dataset) (*Model, TrainingMetrics, error) {
	startTime := time.Now()
	cfg := t.config
	log := cfg.Logger

	if train == nil || train.Len() == 0 {
		return nil, TrainingMetrics{}, fmt.Errorf("training data is empty")
	}
	if valid == nil || valid.Len() == 0 {
		return nil, TrainingMetrics{}, fmt.Errorf("validation data is empty")
	}
	if len(train.Labels) != train.Len() || len(valid.Labels) != valid.Len() {
		return nil, TrainingMetrics{}, fmt.Errorf("features and labels are not aligned")
	}
	if cfg.Epochs <= 0 || cfg.BatchSize <= 0 {
		return nil, TrainingMetrics{}, fmt.Errorf("epochs and batch size must be positive")
	}

	model, err := NewModel(cfg.Network, cfg.Seed)
	if err != nil {
		return nil, TrainingMetrics{}, err
	}
	model.RunID = uuid.New().String()
	if err := model.net.checkBatch(train.Features); err != nil {
		return nil, TrainingMetrics{}, fmt.Errorf("training data: %w", err)
	}
	if err := model.net.checkBatch(valid.Features); err != nil {
		return nil, TrainingMetrics{}, fmt.Errorf("validation data: %w", err)
	}

	params := model.net.params()
	opt := newAdam(cfg.LearningRate, cfg.Beta1, cfg.Beta2, cfg.Epsilon, params)
	rng := rand.New(rand.NewSource(cfg.Seed))

	log.Info("Training: starting",
		"run", model.RunID,
		"examples", train.Len(),
		"validation", valid.Len(),
		"epochs", cfg.Epochs,
		"batch_size", cfg.BatchSize)

	var metrics TrainingMetrics
	order := make([]int, train.Len())
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		// Check for cancellation
		select {
		case <-cfg.Context.Done():
			return nil, metrics, cfg.Context.Err()
		default:
		}

		if cfg.Shuffle {
			rng.Shuffle(len(order), func(i, j int) {
				order[i], order[j] = order[j], order[i]
			})
		}

		epochLoss := 0.0
		correct := 0
		for _, batch := range train.Subset(order).Batches(cfg.BatchSize) {
			act := model.net.forward(batch.Features)
			loss, hits := binaryCrossEntropy(act.out, batch.Labels)
			epochLoss += loss * float64(batch.Len())
			correct += hits

			grads := model.net.backward(act, batch.Labels)
			opt.step(params, grads.buffers())
		}

		em := EpochMetrics{
			Epoch:    epoch + 1,
			Loss:     epochLoss / float64(train.Len()),
			Accuracy: float64(correct) / float64(train.Len()),
		}
		em.ValidationLoss, em.ValidationAccuracy, err = model.Evaluate(valid)
		if err != nil {
			return nil, metrics, err
		}

		log.Info(fmt.Sprintf("Training: Epoch %d/%d", em.Epoch, cfg.Epochs),
			"loss", em.Loss,
			"accuracy", em.Accuracy,
			"val_loss", em.ValidationLoss,
			"val_accuracy", em.ValidationAccuracy)

		if cfg.ProgressCallback != nil {
			cfg.ProgressCallback(em)
		}
		metrics.History = append(metrics.History, em)
		metrics.EpochsCompleted = epoch + 1
	}

	model.Loss, model.Accuracy, err = model.Evaluate(valid)
	if err != nil {
		return nil, metrics, err
	}
	metrics.FinalLoss = model.Loss
	metrics.FinalAccuracy = model.Accuracy
	metrics.TrainingTime = time.Since(startTime)

	log.Info("Training: finished",
		"loss", model.Loss,
		"accuracy", model.Accuracy,
		"elapsed", metrics.TrainingTime)
	return model, metrics, nil
}
