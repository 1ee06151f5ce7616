package activity

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/rollout/internal/model"
)

func TestCreatePreDeploySnapshot(t *testing.T) {
	a := NewBackup(&fakeBackups{}, zerolog.Nop())

	id, err := a.CreatePreDeploySnapshot(context.Background(), SnapshotParams{
		DeploymentID: "dep-1", ConfigName: "support-bot", Targets: []string{"intents"},
	})
	require.NoError(t, err)
	assert.Equal(t, "snap-1", id)
}

func TestCreatePreDeploySnapshot_Error(t *testing.T) {
	a := NewBackup(&fakeBackups{createErr: errors.New("quota exceeded")}, zerolog.Nop())

	_, err := a.CreatePreDeploySnapshot(context.Background(), SnapshotParams{DeploymentID: "dep-1"})
	assert.Error(t, err)
}

type fakeDispatcher struct {
	sent int
	err  error
}

func (f *fakeDispatcher) Dispatch(context.Context, []model.NotificationRule, model.NotificationEvent) (int, error) {
	return f.sent, f.err
}

func TestDispatchNotification_SwallowsErrors(t *testing.T) {
	a := NewNotifier(&fakeDispatcher{sent: 2, err: errors.New("slack down")}, zerolog.Nop())

	n, err := a.DispatchNotification(context.Background(), DispatchParams{
		Event: model.NotificationEvent{DeploymentID: "dep-1", Event: model.EventFailed},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

type fakeS3 struct {
	key  string
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key = *in.Key
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveDeployment(t *testing.T) {
	mem := newMemStore()
	mem.put(&model.Deployment{ID: "dep-1", ConfigName: "support-bot", Environment: model.EnvironmentStaging, Status: model.StatusCompleted})
	for i := 0; i < 3; i++ {
		require.NoError(t, mem.AppendLog(context.Background(), &model.LogEntry{DeploymentID: "dep-1", Message: "line"}))
	}
	s3c := &fakeS3{}
	a := NewArchive(s3c, "rollout-archive", mem, zerolog.Nop())

	uri, err := a.ArchiveDeployment(context.Background(), "dep-1")
	require.NoError(t, err)
	assert.Equal(t, "s3://rollout-archive/deployments/staging/support-bot/dep-1.json", uri)
	assert.Equal(t, "deployments/staging/support-bot/dep-1.json", s3c.key)
	assert.Contains(t, string(s3c.body), `"logs":[`)

	d, _ := mem.Get(context.Background(), "dep-1")
	require.Len(t, d.Artifacts, 1)
	assert.Equal(t, model.ArtifactArchive, d.Artifacts[0].Type)
	assert.Equal(t, uri, d.Artifacts[0].URI)
}

func TestArchiveDeployment_Disabled(t *testing.T) {
	a := NewArchive(nil, "", newMemStore(), zerolog.Nop())

	uri, err := a.ArchiveDeployment(context.Background(), "dep-1")
	require.NoError(t, err)
	assert.Empty(t, uri)
}

func TestArchiveDeployment_PutError(t *testing.T) {
	mem := newMemStore()
	mem.put(&model.Deployment{ID: "dep-1"})
	a := NewArchive(&fakeS3{err: errors.New("access denied")}, "b", mem, zerolog.Nop())

	_, err := a.ArchiveDeployment(context.Background(), "dep-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
