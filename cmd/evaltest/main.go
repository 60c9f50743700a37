// Command evaltest runs a trained acoustic model over a labeled test set,
// reports corpus error rates, and serializes the per-utterance emissions for
// the downstream decoding stage. It can also serve summaries of previously
// produced emission artifacts over HTTP.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var root = cobra.Command{
	Use:   "evaltest",
	Short: "acoustic model evaluation and emission serialization",
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	root.AddCommand(&runCmd, &serveCmd)
	if err := root.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
