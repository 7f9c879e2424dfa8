package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/next-connect/next-connect/internal/core/domain"
)

const messagesCollection = "messages"

type MessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{coll: db.Collection(messagesCollection)}
}

type mongoMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Text      string             `bson:"text"`
	CreatedAt int64              `bson:"created_at"`
}

// Latest returns the most recently created message.
func (r *MessageRepository) Latest(ctx context.Context) (*domain.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var mm mongoMessage
	if err := r.coll.FindOne(ctx, bson.M{}, opts).Decode(&mm); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}

	return toDomainMessage(mm), nil
}

// Create stores a new message and returns it with its assigned id.
func (r *MessageRepository) Create(ctx context.Context, text string) (*domain.Message, error) {
	doc := mongoMessage{
		Text:      text,
		CreatedAt: time.Now().UTC().Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}
	return toDomainMessage(doc), nil
}

// EnsureSeed inserts text when the collection is empty so the index page
// always has something to show.
func (r *MessageRepository) EnsureSeed(ctx context.Context, text string) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count messages: %w", err)
	}
	if n > 0 {
		return nil
	}
	_, err = r.Create(ctx, text)
	return err
}

func toDomainMessage(mm mongoMessage) *domain.Message {
	msg := &domain.Message{
		Text:      mm.Text,
		CreatedAt: unixToTime(mm.CreatedAt),
	}
	if !mm.ID.IsZero() {
		msg.ID = mm.ID.Hex()
	}
	return msg
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
