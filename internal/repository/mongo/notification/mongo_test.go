package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	notificationdomain "welfare-app-go/internal/domain/notification"
)

const jobsNS = "welfare.notification_jobs"

func jobDoc(id string, status notificationdomain.Status) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "kind", Value: "welcome"},
		{Key: "memberId", Value: "m1"},
		{Key: "category", Value: "doctor"},
		{Key: "envelopes", Value: bson.A{
			bson.D{{Key: "role", Value: "member"}, {Key: "to", Value: "grace@example.com"}, {Key: "subject", Value: "Welcome"}},
		}},
		{Key: "delivered", Value: bson.A{}},
		{Key: "status", Value: string(status)},
		{Key: "retryCount", Value: 0},
		{Key: "maxRetries", Value: 5},
	}
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(t, repo.Create(ctx, &notificationdomain.Job{ID: "j1", Status: notificationdomain.StatusPending}))
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, jobsNS, mtest.FirstBatch))

		_, err := repo.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, notificationdomain.ErrJobNotFound)
	})

	mt.Run("get", func(mt *mtest.T) {
		repo := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, jobsNS, mtest.FirstBatch, jobDoc("j1", notificationdomain.StatusFailed)))

		job, err := repo.GetByID(ctx, "j1")
		require.NoError(t, err)
		assert.Equal(t, notificationdomain.StatusFailed, job.Status)
		require.Len(t, job.Envelopes, 1)
		assert.Equal(t, notificationdomain.RoleMember, job.Envelopes[0].Role)
	})

	mt.Run("claim due", func(mt *mtest.T) {
		repo := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: jobDoc("j1", notificationdomain.StatusProcessing)},
		))

		jobs, err := repo.ClaimDue(ctx, time.Now().UTC(), 1)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "j1", jobs[0].ID)
		assert.Equal(t, notificationdomain.StatusProcessing, jobs[0].Status)
	})

	mt.Run("save missing", func(mt *mtest.T) {
		repo := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.Save(ctx, &notificationdomain.Job{ID: "gone"})
		assert.ErrorIs(t, err, notificationdomain.ErrJobNotFound)
	})

	mt.Run("reset stuck", func(mt *mtest.T) {
		repo := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 2},
			bson.E{Key: "nModified", Value: 2},
		))

		count, err := repo.ResetStuck(ctx, time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, jobsNS, mtest.FirstBatch,
			jobDoc("j2", notificationdomain.StatusFailed),
			jobDoc("j1", notificationdomain.StatusFailed),
		))

		jobs, err := repo.List(ctx, notificationdomain.ListFilter{Status: notificationdomain.StatusFailed, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, jobs, 2)
	})
}
