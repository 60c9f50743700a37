package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"speech-eval-pipeline/internal/config"
	"speech-eval-pipeline/internal/dataset"
	"speech-eval-pipeline/internal/dict"
	"speech-eval-pipeline/internal/evalengine"
	"speech-eval-pipeline/internal/model"
	"speech-eval-pipeline/internal/objectstore"
)

var runFlags struct {
	am          string
	test        string
	dataDir     string
	tokens      string
	lexicon     string
	maxWord     int
	criterion   string
	separator   string
	blank       string
	maxLoad     int
	show        bool
	emissionDir string
	upload      bool
}

var runCmd = cobra.Command{
	Use:   "run",
	Short: "evaluate an acoustic model over a test set and serialize emissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluation()
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.am, "am", "", "acoustic model file")
	f.StringVar(&runFlags.test, "test", "", "dataset list file to evaluate")
	f.StringVar(&runFlags.dataDir, "datadir", ".", "directory feature files are resolved against")
	f.StringVar(&runFlags.tokens, "tokens", "", "token dictionary file")
	f.StringVar(&runFlags.lexicon, "lexicon", "", "optional word lexicon file")
	f.IntVar(&runFlags.maxWord, "maxword", 0, "cap on lexicon words loaded (0 = all)")
	f.StringVar(&runFlags.criterion, "criterion", config.CriterionCTC, "criterion family: ctc, asg or seq2seq")
	f.StringVar(&runFlags.separator, "sep", "|", "word separator token symbol")
	f.StringVar(&runFlags.blank, "blank", "#", "blank token symbol for ctc decoding (empty = none)")
	f.IntVar(&runFlags.maxLoad, "maxload", 0, "cap on utterances evaluated (0 = whole set)")
	f.BoolVar(&runFlags.show, "show", false, "print per-utterance diagnostics")
	f.StringVar(&runFlags.emissionDir, "emissiondir", ".", "directory the emission artifact is written to")
	f.BoolVar(&runFlags.upload, "upload", false, "upload the artifact to object storage (MINIO_* env)")
}

func runEvaluation() error {
	cfg := config.New()
	cfg.Test = runFlags.test
	cfg.DataDir = runFlags.dataDir
	cfg.Tokens = runFlags.tokens
	cfg.Lexicon = runFlags.lexicon
	cfg.MaxWord = runFlags.maxWord
	cfg.Criterion = runFlags.criterion
	cfg.WordSeparator = runFlags.separator
	cfg.MaxLoad = runFlags.maxLoad
	cfg.Show = runFlags.show
	cfg.EmissionDir = runFlags.emissionDir
	if runFlags.upload {
		cfg.StoreEndpoint = os.Getenv("MINIO_ENDPOINT")
		cfg.StoreAccessKey = os.Getenv("MINIO_ACCESS_KEY_ID")
		cfg.StoreSecretKey = os.Getenv("MINIO_SECRET_ACCESS_KEY")
		cfg.StoreBucket = os.Getenv("MINIO_BUCKET_NAME")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if runFlags.am == "" {
		return errors.New("an acoustic model file is required (--am)")
	}
	network, err := model.LoadNetworkFile(runFlags.am)
	if err != nil {
		return err
	}
	logrus.Infof("Loaded acoustic model %s: %d classes over %d-dim features",
		runFlags.am, network.Classes, network.Dim)

	tokens, err := dict.LoadDictionary(cfg.Tokens)
	if err != nil {
		return err
	}
	logrus.Infof("Number of classes (network): %d", tokens.IndexSize())

	var lexicon *dict.Lexicon
	if cfg.Lexicon != "" {
		lexicon, err = dict.LoadLexicon(cfg.Lexicon, cfg.MaxWord)
		if err != nil {
			return err
		}
		logrus.Infof("Number of words: %d", lexicon.Size())
	}

	criterion, err := buildCriterion(cfg, network, tokens)
	if err != nil {
		return err
	}

	evaluator, err := evalengine.New(cfg, network, criterion, tokens, lexicon)
	if err != nil {
		return err
	}

	ds, err := dataset.Open(cfg.Test, cfg.DataDir, tokens, cfg.WordSeparator)
	if err != nil {
		return err
	}
	defer ds.Close()

	ctx := context.Background()
	report, err := evaluator.Run(ctx, ds)
	if err != nil {
		return err
	}
	logrus.Infof("Done: %d utterances, WER %.2f%%, LER %.2f%% in %.1fs",
		report.Samples, report.WER, report.LER, report.Seconds)

	if runFlags.upload {
		store, err := objectstore.New(ctx, cfg)
		if err != nil {
			return err
		}
		object, err := store.UploadArtifact(ctx, cfg.RunID, report.ArtifactPath)
		if err != nil {
			return err
		}
		logrus.Infof("Artifact available as %s", object)
	}
	return nil
}

// buildCriterion assembles the local decoder for the configured criterion
// family. Seq2seq decoding happens outside this stage; it has no local
// Viterbi.
func buildCriterion(cfg *config.Config, network *model.LinearNetwork, tokens *dict.Dictionary) (model.Criterion, error) {
	switch cfg.Criterion {
	case config.CriterionCTC:
		blank := -1
		if runFlags.blank != "" {
			idx, ok := tokens.Index(runFlags.blank)
			if !ok {
				return nil, errors.Errorf("blank symbol %q not in token dictionary", runFlags.blank)
			}
			blank = idx
		}
		return model.NewGreedyCriterion(blank), nil
	case config.CriterionASG:
		if network.TransitionParams == nil {
			return nil, errors.New("asg criterion requires transition parameters in the model file")
		}
		return model.NewASGCriterion(network.TransitionParams, network.Classes), nil
	default:
		return nil, errors.Errorf("no local decoder for criterion %q", cfg.Criterion)
	}
}
