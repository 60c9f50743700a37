package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"speech-eval-pipeline/internal/apigateway"
)

var serveFlags struct {
	emissionDir string
	port        int
}

var serveCmd = cobra.Command{
	Use:   "serve",
	Short: "serve emission artifact summaries over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		router := apigateway.SetupRouter(serveFlags.emissionDir)
		addr := fmt.Sprintf(":%d", serveFlags.port)
		logrus.Infof("Serving emission artifacts from %s on %s", serveFlags.emissionDir, addr)
		return router.Run(addr)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.emissionDir, "emissiondir", ".", "directory holding emission artifacts")
	f.IntVar(&serveFlags.port, "port", 8080, "listen port")
}
