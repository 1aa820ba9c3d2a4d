package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/netgraph-io/netgraph/internal/storage"
	"github.com/netgraph-io/netgraph/internal/util"
	"github.com/netgraph-io/netgraph/pkg/ai"
	"github.com/netgraph-io/netgraph/pkg/extract"
	"github.com/netgraph-io/netgraph/pkg/logger"
	"github.com/netgraph-io/netgraph/pkg/pipeline"
	graphstorage "github.com/netgraph-io/netgraph/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IngestMessage is the payload of an ingestion job. The corpus is either
// inline or referenced by an object key in the artifact bucket.
type IngestMessage struct {
	RunID    string `json:"run_id"`
	Corpus   string `json:"corpus,omitempty"`
	S3Key    string `json:"s3_key,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Reset    bool   `json:"reset"`
}

// ProcessIngestMessage runs one ingestion job from the queue.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.GraphAIClient,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(IngestMessage)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("invalid ingest message: %w", err)
	}

	corpus := data.Corpus
	if corpus == "" && data.S3Key != "" {
		if s3Client == nil {
			return fmt.Errorf("message references object %s but no object store is configured", data.S3Key)
		}
		raw, err := storage.GetFile(ctx, s3Client, data.S3Key)
		if err != nil {
			return err
		}
		corpus = string(raw)
	}
	if corpus == "" {
		return fmt.Errorf("ingest message carries no corpus")
	}

	st := graphstorage.NewGraphDBStorageWithConnection(conn)

	var extractor extract.Extractor
	switch data.Strategy {
	case "", "rules":
		extractor = extract.NewRuleExtractor()
	case "model":
		extractor = extract.NewModelExtractor(aiClient, util.GetEnv("AI_CHAT_EXTRACT_MODEL"))
	default:
		return fmt.Errorf("unknown extraction strategy: %s", data.Strategy)
	}

	p := pipeline.New(aiClient, st, extractor, pipeline.Options{
		Reset: data.Reset,
		Seed:  1,
	})
	if s3Client != nil {
		p.Artifacts = storage.NewS3ArtifactStore(s3Client)
	} else if dir := util.GetEnv("ARTIFACT_DIR"); dir != "" {
		p.Artifacts = storage.NewLocalArtifactStore(dir)
	}

	result, err := p.Run(ctx, data.RunID, corpus)
	if err != nil {
		return err
	}

	logger.Info("Ingestion job finished",
		"run_id", data.RunID,
		"entities", result.Entities,
		"relationships", result.Relationships,
		"reports", result.Reports,
	)
	return nil
}
