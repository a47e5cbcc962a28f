package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/intervue/internal/locks"
	"github.com/yoockh/intervue/internal/models"
	mongorepo "github.com/yoockh/intervue/internal/repositories/mongo"
	"github.com/yoockh/intervue/internal/utils"
)

// persistTimeout bounds writes that run detached from the request.
const persistTimeout = 10 * time.Second

func parseInterviewID(op, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, utils.E(utils.CodeInvalidArgument, op, "invalid interview id", err)
	}
	return oid, nil
}

// loadOwned fetches an interview and checks it belongs to userID.
func loadOwned(ctx context.Context, repo mongorepo.InterviewRepository, op string, id primitive.ObjectID, userID string) (*models.InterviewSession, error) {
	sess, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load interview", err)
	}
	if sess.OwnerID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return sess, nil
}

// persist commits a patch even when the caller has gone away, so a turn
// that already consumed a model call is never lost.
func persist(ctx context.Context, repo mongorepo.InterviewRepository, op string, id primitive.ObjectID, patch models.InterviewPatch) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := repo.Update(wctx, id, patch); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to save interview", err)
	}
	return nil
}

func acquire(ctx context.Context, l locks.Locker, op string, id primitive.ObjectID) (func(), error) {
	release, err := l.Acquire(ctx, locks.InterviewKey(id.Hex()))
	switch {
	case err == nil:
		return release, nil
	case errors.Is(err, locks.ErrNotAcquired):
		return nil, utils.E(utils.CodeConflict, op, "another request is updating this interview", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return nil, utils.E(utils.CodeTimeout, op, "timed out waiting for interview", err)
	default:
		return nil, utils.E(utils.CodeUnavailable, op, "lock service unavailable", err)
	}
}

func mapRepoErr(op string, err error) error {
	if errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeNotFound, op, "interview not found", err)
	}
	return utils.E(utils.CodeInternal, op, "failed to load interview", err)
}
