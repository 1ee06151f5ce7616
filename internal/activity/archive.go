package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/edvin/rollout/internal/model"
)

// ObjectPutter is the part of the S3 API the archive uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client creates a path-style S3 client with static credentials.
func NewS3Client(endpoint, region, accessKey, secretKey string) *s3.Client {
	return s3.New(s3.Options{
		BaseEndpoint: aws.String(endpoint),
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})
}

// Archive contains the activity that stores finished deployments in S3.
type Archive struct {
	s3          ObjectPutter
	bucket      string
	deployments DeploymentStore
	logger      zerolog.Logger
}

// NewArchive creates the archive activities. With an empty bucket archiving
// is disabled and ArchiveDeployment does nothing.
func NewArchive(client ObjectPutter, bucket string, deployments DeploymentStore, logger zerolog.Logger) *Archive {
	return &Archive{
		s3:          client,
		bucket:      bucket,
		deployments: deployments,
		logger:      logger.With().Str("component", "archive-activity").Logger(),
	}
}

// DeploymentArchive is the document written for a finished deployment.
type DeploymentArchive struct {
	Deployment model.Deployment `json:"deployment"`
	Logs       []model.LogEntry `json:"logs"`
	ArchivedAt time.Time        `json:"archived_at"`
}

const archiveLogPage = 500

// ArchiveDeployment writes the deployment record and its full log to the
// archive bucket, records the object as an artifact and returns its URI.
func (a *Archive) ArchiveDeployment(ctx context.Context, deploymentID string) (string, error) {
	if a.bucket == "" || a.s3 == nil {
		return "", nil
	}

	d, err := a.deployments.Get(ctx, deploymentID)
	if err != nil {
		return "", err
	}

	doc := DeploymentArchive{Deployment: *d, ArchivedAt: time.Now()}
	var after int64
	for {
		page, hasMore, err := a.deployments.ListLogs(ctx, deploymentID, after, archiveLogPage)
		if err != nil {
			return "", err
		}
		doc.Logs = append(doc.Logs, page...)
		if !hasMore || len(page) == 0 {
			break
		}
		after = page[len(page)-1].Seq
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal archive: %w", err)
	}

	key := fmt.Sprintf("deployments/%s/%s/%s.json", d.Environment, d.ConfigName, d.ID)
	_, err = a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put archive object %s: %w", key, err)
	}

	uri := fmt.Sprintf("s3://%s/%s", a.bucket, key)
	_, err = a.deployments.Update(ctx, deploymentID, func(d *model.Deployment) error {
		if !hasArtifact(d, model.ArtifactArchive, uri) {
			d.Artifacts = append(d.Artifacts, model.Artifact{
				Name:      "deployment-archive",
				Type:      model.ArtifactArchive,
				URI:       uri,
				CreatedAt: time.Now(),
			})
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	a.logger.Info().Str("deployment_id", deploymentID).Str("uri", uri).Int("log_entries", len(doc.Logs)).Msg("deployment archived")
	return uri, nil
}
