// Command seed fills a local data directory with a sample job and a scored
// candidate pool so the server has something to show on first run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hireloop/hireloop/internal/extract"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/sourcing"
	"github.com/hireloop/hireloop/internal/store/filestore"
)

const sampleDescription = `We're an early-stage startup building developer
infrastructure. We're looking for a Backend Engineer with 4+ years of
experience working with Go, Postgres and Kubernetes. Location: Sydney,
hybrid welcome.`

func main() {
	dataDir := flag.String("data", "data", "data directory for the flat-file store")
	flag.Parse()

	ctx := context.Background()

	files, err := filestore.New(*dataDir, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Store init error: %v\n", err)
		os.Exit(1)
	}

	job := &models.Job{
		ID:                uuid.NewString(),
		Title:             "Backend Engineer",
		Description:       sampleDescription,
		Company:           "Hireloop",
		Status:            models.JobStatusProcessedKeywords,
		ExtractedKeywords: extract.Heuristic(sampleDescription, "Backend Engineer"),
		ScoringRatios:     models.ScoringRatios{TechMatch: 0.5, OSSActivity: 0.3, StartupExperience: 0.2},
		CreatedAt:         time.Now().UTC(),
	}
	if err := files.CreateJob(ctx, job); err != nil {
		fmt.Fprintf(os.Stderr, "Seed job error: %v\n", err)
		os.Exit(1)
	}

	sourcer, err := sourcing.NewOrchestrator(nil, files, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sourcer init error: %v\n", err)
		os.Exit(1)
	}
	views, err := sourcer.SourceForJob(ctx, job, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Seed candidates error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded job %s with %d candidates in %s.\n", job.ID, len(views), *dataDir)
}
