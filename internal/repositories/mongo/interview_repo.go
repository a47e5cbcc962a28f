package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/utils"
)

const InterviewsCollection = "interviews"

// InterviewRepository is the session store the interview core reads from
// and writes to. Update applies a patch as one atomic $set.
type InterviewRepository interface {
	Create(ctx context.Context, s *models.InterviewSession) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.InterviewSession, error)
	ListByOwner(ctx context.Context, ownerID string, limit int64) ([]models.InterviewSession, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.InterviewPatch) error
}

type interviewRepo struct {
	col *mongo.Collection
}

func NewInterviewRepo(db *mongo.Database) InterviewRepository {
	return &interviewRepo{col: db.Collection(InterviewsCollection)}
}

func (r *interviewRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	now := time.Now().UTC()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *interviewRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.InterviewSession, error) {
	var s models.InterviewSession
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *interviewRepo) ListByOwner(ctx context.Context, ownerID string, limit int64) ([]models.InterviewSession, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		// the list view never needs the conversation or the résumé
		SetProjection(bson.M{"context": 0, "role_meta.resume_text": 0, "analysis_raw": 0})

	cur, err := r.col.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.InterviewSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *interviewRepo) Update(ctx context.Context, id primitive.ObjectID, patch models.InterviewPatch) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": patchDoc(patch)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func patchDoc(p models.InterviewPatch) bson.M {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	set := bson.M{"updated_at": p.UpdatedAt}
	if p.Context != nil {
		set["context"] = p.Context
	}
	if p.Cursor != nil {
		set["cursor"] = *p.Cursor
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Transcript != nil {
		set["transcript"] = *p.Transcript
	}
	if p.MediaRef != nil {
		set["media_ref"] = *p.MediaRef
	}
	if p.CompletedAt != nil {
		set["completed_at"] = *p.CompletedAt
	}
	if p.Analysis != nil {
		set["analysis"] = p.Analysis
	}
	if p.AnalysisRaw != nil {
		set["analysis_raw"] = *p.AnalysisRaw
	}
	if p.AnalysisAt != nil {
		set["analysis_at"] = *p.AnalysisAt
	}
	return set
}
