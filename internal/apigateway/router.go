// Package apigateway exposes a read-only HTTP surface over the emission
// directory: enough for the decoding stage (or an operator) to discover run
// artifacts and inspect their summaries without parsing the binary format.
package apigateway

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"speech-eval-pipeline/internal/config"
	"speech-eval-pipeline/internal/emission"
)

// SetupRouter initializes the Gin router serving artifacts under emissionDir.
func SetupRouter(emissionDir string) *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	runs := router.Group("/runs")
	{
		runs.GET("", listRunsHandler(emissionDir))
		runs.GET("/:name", runSummaryHandler(emissionDir))
	}

	return router
}

// runInfo describes one artifact file in a listing.
type runInfo struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
}

func listRunsHandler(emissionDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := os.ReadDir(emissionDir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read emission directory"})
			return
		}
		runs := []runInfo{}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".bin") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			runs = append(runs, runInfo{Name: e.Name(), Bytes: info.Size()})
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
	}
}

// runSummary is the JSON view of one artifact's run-scope data.
type runSummary struct {
	Name          string `json:"name"`
	RunID         string `json:"run_id,omitempty"`
	Criterion     string `json:"criterion,omitempty"`
	Classes       int    `json:"classes"`
	Utterances    int    `json:"utterances"`
	TotalFrames   int    `json:"total_frames"`
	HasTransition bool   `json:"has_transition"`
	Config        string `json:"config"`
}

func runSummaryHandler(emissionDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		// Artifact names are flat files; anything path-like is rejected.
		if name != filepath.Base(name) || !strings.HasSuffix(name, ".bin") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact name"})
			return
		}
		set, err := emission.Load(filepath.Join(emissionDir, name))
		if err != nil {
			if os.IsNotExist(errors.Cause(err)) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no such run"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load artifact"})
			return
		}

		summary := runSummary{
			Name:          name,
			Classes:       set.Classes,
			Utterances:    set.Len(),
			HasTransition: len(set.Transition) > 0,
			Config:        set.Config,
		}
		for _, f := range set.FrameCounts {
			summary.TotalFrames += f
		}
		if cfg, err := config.Deserialize(set.Config); err == nil {
			summary.RunID = cfg.RunID
			summary.Criterion = cfg.Criterion
		}
		c.JSON(http.StatusOK, summary)
	}
}
