// Package evalengine drives the evaluation stage: it walks the test set,
// runs the network and criterion over each utterance, accumulates error-rate
// meters, collects emissions, and serializes the emission artifact for the
// decoding stage.
package evalengine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"speech-eval-pipeline/internal/config"
	"speech-eval-pipeline/internal/dataset"
	"speech-eval-pipeline/internal/dict"
	"speech-eval-pipeline/internal/emission"
	"speech-eval-pipeline/internal/meter"
	"speech-eval-pipeline/internal/model"
)

// Report summarizes a completed evaluation run.
type Report struct {
	LER          float64
	WER          float64
	Seconds      float64
	Samples      int
	ArtifactPath string
}

// Evaluator owns the per-run state: configuration, collaborators, meters and
// the emission collector. One evaluator runs one evaluation; it is not safe
// for concurrent use and processes utterances strictly in dataset order.
type Evaluator struct {
	cfg    *config.Config
	net    model.Network
	crit   model.Criterion
	tokens *dict.Dictionary
	// wordDict is non-nil only on the lexicon word-dictionary mapping path.
	wordDict *dict.Dictionary

	meters *meter.TestMeters
	set    *emission.Set

	log *logrus.Entry
	// out receives the per-utterance |T|/|P| diagnostic lines when Show is
	// enabled. Defaults to stdout.
	out io.Writer
}

// New wires an evaluator from validated configuration and collaborators. The
// lexicon is required exactly when the configuration selects the
// word-dictionary mapping path.
func New(cfg *config.Config, net model.Network, crit model.Criterion, tokens *dict.Dictionary, lex *dict.Lexicon) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if crit.Name() != cfg.Criterion {
		return nil, errors.Errorf("evalengine: configured criterion %q but got a %q criterion", cfg.Criterion, crit.Name())
	}
	if _, ok := tokens.Index(cfg.WordSeparator); !ok {
		return nil, errors.Errorf("evalengine: word separator %q not in token dictionary", cfg.WordSeparator)
	}

	ev := &Evaluator{
		cfg:    cfg,
		net:    net,
		crit:   crit,
		tokens: tokens,
		meters: meter.NewTestMeters(),
		set:    emission.NewSet(),
		log:    logrus.WithField("run", cfg.RunID),
		out:    os.Stdout,
	}
	if cfg.UseWordDictionary() {
		if lex == nil {
			return nil, errors.New("evalengine: config selects lexicon word mapping but no lexicon was loaded")
		}
		wd, err := lex.WordDictionary()
		if err != nil {
			return nil, err
		}
		ev.wordDict = wd
		ev.log.Infof("Word dictionary derived from lexicon: %d words", wd.IndexSize())
	}
	return ev, nil
}

// SetOutput redirects the per-utterance diagnostic lines, used by tests.
func (e *Evaluator) SetOutput(w io.Writer) {
	e.out = w
}

// Run evaluates the dataset. It stops at dataset exhaustion, at the
// configured MaxLoad cap, or at context cancellation; the cap and the
// cancellation are checked only between utterances, so an in-flight utterance
// always completes. On success the emission artifact has been written
// atomically; on any error no artifact is produced.
func (e *Evaluator) Run(ctx context.Context, ds *dataset.Dataset) (*Report, error) {
	e.log.Infof("Evaluating %s (criterion: %s)", e.cfg.Test, e.cfg.Criterion)
	e.meters.Timer.Resume()

	cnt := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "evalengine: run canceled")
		}
		if e.cfg.MaxLoad > 0 && cnt >= e.cfg.MaxLoad {
			e.log.Infof("Reached maxload %d, stopping early", e.cfg.MaxLoad)
			break
		}

		sample, err := ds.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := e.processSample(sample, cnt+1); err != nil {
			return nil, err
		}
		cnt++
	}

	if tc, ok := e.crit.(model.TransitionCriterion); ok {
		e.set.Transition = tc.Transition()
	}
	e.set.Config = e.cfg.Serialize()
	e.meters.Timer.Stop()

	report := &Report{
		LER:     e.meters.LER.Value()[0],
		WER:     e.meters.WER.Value()[0],
		Seconds: e.meters.Timer.Seconds(),
		Samples: cnt,
	}
	fmt.Fprintf(e.out, "---\n[total WER: %g%%, total LER: %g%%, time: %.3fs]\n",
		report.WER, report.LER, report.Seconds)

	artifact := filepath.Join(e.cfg.EmissionDir, CleanFilepath(e.cfg.Test)+".bin")
	if err := e.set.Save(artifact); err != nil {
		return nil, err
	}
	report.ArtifactPath = artifact
	if info, err := os.Stat(artifact); err == nil {
		e.log.Infof("Saved emission set (%d utterances, %s) to %s",
			e.set.Len(), humanize.Bytes(uint64(info.Size())), artifact)
	}
	return report, nil
}

// processSample runs one utterance through the pipeline: forward, decode,
// map, meter, collect.
func (e *Evaluator) processSample(sample *dataset.Sample, cnt int) error {
	rawEmission, err := e.net.Forward(sample.Input)
	if err != nil {
		return errors.Wrapf(err, "evalengine: forward pass for sample %q", sample.ID)
	}
	tokenPrediction, err := e.crit.ViterbiPath(rawEmission)
	if err != nil {
		return errors.Wrapf(err, "evalengine: viterbi decode for sample %q", sample.ID)
	}

	letterPrediction, err := dict.IndicesToSymbols(tokenPrediction, e.tokens)
	if err != nil {
		return errors.Wrapf(err, "evalengine: mapping prediction for sample %q", sample.ID)
	}
	letterTarget, err := dict.IndicesToSymbols(sample.TokenTargets, e.tokens)
	if err != nil {
		return errors.Wrapf(err, "evalengine: mapping target for sample %q", sample.ID)
	}

	e.meters.LER.Add(letterPrediction, letterTarget)

	// Prediction words always come from letter collapse; the reference side
	// takes the word-dictionary path when a lexicon is configured.
	wordPrediction := dict.LettersToWords(letterPrediction, e.cfg.WordSeparator)
	var wordTarget []string
	if e.wordDict != nil {
		wordTarget = dict.Normalize(sample.Words, e.wordDict)
	} else {
		wordTarget = dict.LettersToWords(letterTarget, e.cfg.WordSeparator)
	}
	e.meters.WER.Add(wordPrediction, wordTarget)

	if e.cfg.Show {
		e.meters.ResetSample()
		e.meters.SampleLER.Add(letterPrediction, letterTarget)
		e.meters.SampleWER.Add(wordPrediction, wordTarget)

		fmt.Fprintf(e.out, "|T|: %s\n", dict.SymbolsToString(letterTarget, e.cfg.WordSeparator))
		fmt.Fprintf(e.out, "|P|: %s\n", dict.SymbolsToString(letterPrediction, e.cfg.WordSeparator))
		fmt.Fprintf(e.out, "[sample: %s, WER: %g%%, LER: %g%%, total WER: %g%%, total LER: %g%%, processed: %d]\n",
			sample.ID,
			e.meters.SampleWER.Value()[0], e.meters.SampleLER.Value()[0],
			e.meters.WER.Value()[0], e.meters.LER.Value()[0],
			cnt)
	}

	return e.set.Append(emission.Record{
		Emission:    rawEmission.Scores,
		Classes:     rawEmission.Classes,
		Frames:      rawEmission.Frames,
		TokenTarget: sample.TokenTargets,
		WordTarget:  wordTarget,
		SampleID:    sample.ID,
	})
}

// CleanFilepath flattens a path into a single artifact file name: separators
// become '#', drive colons are dropped.
func CleanFilepath(path string) string {
	s := strings.ReplaceAll(path, ":", "")
	s = strings.ReplaceAll(s, "\\", "#")
	return strings.ReplaceAll(s, "/", "#")
}
