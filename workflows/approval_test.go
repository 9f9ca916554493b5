package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rangerwatch/ranger-report-api/databases/mocks"
	"github.com/rangerwatch/ranger-report-api/models"
)

type fakeNotifier struct {
	err      error
	emails   []string
	statuses []string
}

func (f *fakeNotifier) NotifyAccountStatus(_ context.Context, email, status string) error {
	f.emails = append(f.emails, email)
	f.statuses = append(f.statuses, status)
	return f.err
}

func pendingFixture() *models.PendingRanger {
	return &models.PendingRanger{
		ID:       primitive.NewObjectID(),
		RangerID: "R-101",
		Name:     "Dana Whitfield",
		Email:    "dana@example.com",
		Password: "$2a$10$abcdefghijklmnopqrstuv",
	}
}

func TestApproveMovesPendingRequestIntoActiveRegistry(t *testing.T) {
	pending := pendingFixture()

	pendingDB := mocks.NewPendingRangerDatabase(t)
	rangerDB := mocks.NewRangerDatabase(t)
	notifier := &fakeNotifier{}

	var inserted models.Ranger
	pendingDB.On("FindOne", mock.Anything, mock.Anything).Return(pending, nil)
	rangerDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Ranger")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.Ranger)
		}).
		Return(nil, nil)
	pendingDB.On("DeleteOne", mock.Anything, mock.Anything).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)

	a := NewApproval(rangerDB, pendingDB, nil, notifier)
	ranger, err := a.Approve(context.Background(), pending.ID)

	require.NoError(t, err)
	assert.Equal(t, "R-101", ranger.RangerID)
	assert.Equal(t, models.RangerActive, ranger.Status)
	assert.Equal(t, pending.Email, ranger.Email)
	assert.Equal(t, pending.Password, inserted.Password)
	assert.Equal(t, "", inserted.Phone)
	assert.Equal(t, []string{NotifyEnabled}, notifier.statuses)
	assert.Equal(t, []string{"dana@example.com"}, notifier.emails)
}

func TestApproveUnknownRequestReturnsNotFound(t *testing.T) {
	pendingDB := mocks.NewPendingRangerDatabase(t)
	pendingDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	a := NewApproval(mocks.NewRangerDatabase(t), pendingDB, nil, &fakeNotifier{})
	_, err := a.Approve(context.Background(), primitive.NewObjectID())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApprovePendingDeleteFailureIsPartial(t *testing.T) {
	pending := pendingFixture()

	pendingDB := mocks.NewPendingRangerDatabase(t)
	rangerDB := mocks.NewRangerDatabase(t)
	notifier := &fakeNotifier{}

	pendingDB.On("FindOne", mock.Anything, mock.Anything).Return(pending, nil)
	rangerDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Ranger")).Return(nil, nil)
	pendingDB.On("DeleteOne", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	a := NewApproval(rangerDB, pendingDB, nil, notifier)
	_, err := a.Approve(context.Background(), pending.ID)

	var partial *PartialFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "approve", partial.Workflow)
	assert.Equal(t, "R-101", partial.RangerID)
	assert.Equal(t, []string{"insert active ranger"}, partial.Completed)
	assert.Equal(t, "delete pending request", partial.Failed)
	assert.Empty(t, notifier.statuses, "no notification for a workflow that did not finish")
}

func TestApproveNotifierFailureDoesNotFailApproval(t *testing.T) {
	pending := pendingFixture()

	pendingDB := mocks.NewPendingRangerDatabase(t)
	rangerDB := mocks.NewRangerDatabase(t)

	pendingDB.On("FindOne", mock.Anything, mock.Anything).Return(pending, nil)
	rangerDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Ranger")).Return(nil, nil)
	pendingDB.On("DeleteOne", mock.Anything, mock.Anything).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)

	a := NewApproval(rangerDB, pendingDB, nil, &fakeNotifier{err: errors.New("smtp down")})
	_, err := a.Approve(context.Background(), pending.ID)

	assert.NoError(t, err)
}

func TestRejectDeletesPendingRequest(t *testing.T) {
	pendingDB := mocks.NewPendingRangerDatabase(t)
	pendingDB.On("DeleteOne", mock.Anything, mock.Anything).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)

	a := NewApproval(mocks.NewRangerDatabase(t), pendingDB, nil, &fakeNotifier{})
	assert.NoError(t, a.Reject(context.Background(), primitive.NewObjectID()))
}

func TestRejectOfAbsentRequestIsIdempotent(t *testing.T) {
	pendingDB := mocks.NewPendingRangerDatabase(t)
	pendingDB.On("DeleteOne", mock.Anything, mock.Anything).Return(&mongo.DeleteResult{DeletedCount: 0}, nil)

	a := NewApproval(mocks.NewRangerDatabase(t), pendingDB, nil, &fakeNotifier{})
	assert.NoError(t, a.Reject(context.Background(), primitive.NewObjectID()))
}

func TestDisableClearsAssignmentsAndReturnsRangerToPending(t *testing.T) {
	ranger := &models.Ranger{
		ID:       primitive.NewObjectID(),
		RangerID: "R-101",
		Name:     "Dana Whitfield",
		Email:    "dana@example.com",
		Password: "$2a$10$abcdefghijklmnopqrstuv",
		Status:   models.RangerActive,
	}

	rangerDB := mocks.NewRangerDatabase(t)
	pendingDB := mocks.NewPendingRangerDatabase(t)
	reportDB := mocks.NewReportDatabase(t)
	notifier := &fakeNotifier{}

	var reinserted models.PendingRanger
	rangerDB.On("FindOne", mock.Anything, mock.Anything).Return(ranger, nil)
	reportDB.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 2, ModifiedCount: 2}, nil)
	pendingDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.PendingRanger")).
		Run(func(args mock.Arguments) {
			reinserted = args.Get(1).(models.PendingRanger)
		}).
		Return(nil, nil)
	rangerDB.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)

	a := NewApproval(rangerDB, pendingDB, reportDB, notifier)
	require.NoError(t, a.Disable(context.Background(), "R-101"))

	// round trip: the pending row carries exactly what approval once consumed
	assert.Equal(t, ranger.RangerID, reinserted.RangerID)
	assert.Equal(t, ranger.Name, reinserted.Name)
	assert.Equal(t, ranger.Email, reinserted.Email)
	assert.Equal(t, ranger.Password, reinserted.Password)
	assert.Equal(t, []string{NotifyDisabled}, notifier.statuses)
}

func TestDisableUnknownRangerReturnsNotFound(t *testing.T) {
	rangerDB := mocks.NewRangerDatabase(t)
	rangerDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	a := NewApproval(rangerDB, mocks.NewPendingRangerDatabase(t), mocks.NewReportDatabase(t), &fakeNotifier{})
	assert.ErrorIs(t, a.Disable(context.Background(), "R-404"), ErrNotFound)
}

func TestDisableActiveDeleteFailureIsPartial(t *testing.T) {
	ranger := &models.Ranger{RangerID: "R-101", Email: "dana@example.com", Status: models.RangerActive}

	rangerDB := mocks.NewRangerDatabase(t)
	pendingDB := mocks.NewPendingRangerDatabase(t)
	reportDB := mocks.NewReportDatabase(t)
	notifier := &fakeNotifier{}

	rangerDB.On("FindOne", mock.Anything, mock.Anything).Return(ranger, nil)
	reportDB.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{}, nil)
	pendingDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.PendingRanger")).Return(nil, nil)
	rangerDB.On("DeleteOne", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	a := NewApproval(rangerDB, pendingDB, reportDB, notifier)
	err := a.Disable(context.Background(), "R-101")

	var partial *PartialFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "disable", partial.Workflow)
	assert.Equal(t, []string{"clear report assignments", "insert pending request"}, partial.Completed)
	assert.Equal(t, "delete active ranger", partial.Failed)
	assert.Empty(t, notifier.statuses)
}
