package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

const auditCollection = "impersonation_audit"

type MongoAuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuditEvent struct {
	ID           string    `bson:"_id"`
	Kind         string    `bson:"kind"`
	Subject      string    `bson:"subject,omitempty"`
	AdminID      string    `bson:"admin_id,omitempty"`
	TargetUserID string    `bson:"target_user_id,omitempty"`
	Outcome      string    `bson:"outcome"`
	Detail       string    `bson:"detail,omitempty"`
	IP           string    `bson:"ip,omitempty"`
	UserAgent    string    `bson:"user_agent,omitempty"`
	Fingerprint  string    `bson:"credential_fingerprint,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

// EnsureIndexes creates the lookup indexes used by admin audit screens.
func (r *MongoAuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "admin_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "subject", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

// Insert stores one event. Re-inserting the same event id is a no-op so a
// retried write cannot duplicate the trail.
func (r *MongoAuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	doc := mongoAuditEvent{
		ID:           event.ID,
		Kind:         string(event.Kind),
		Subject:      event.Subject,
		AdminID:      event.AdminID,
		TargetUserID: event.TargetUserID,
		Outcome:      event.Outcome,
		Detail:       event.Detail,
		IP:           event.IP,
		UserAgent:    event.UserAgent,
		Fingerprint:  event.Fingerprint,
		CreatedAt:    event.CreatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns the most recent events for a principal, newest first.
func (r *MongoAuditRepository) ListBySubject(ctx context.Context, subject string, limit int64) ([]domain.AuditEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cur, err := r.coll.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"subject": subject},
		bson.M{"admin_id": subject},
	}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAuditEvent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	events := make([]domain.AuditEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.AuditEvent{
			ID:           d.ID,
			Kind:         domain.AuditKind(d.Kind),
			Subject:      d.Subject,
			AdminID:      d.AdminID,
			TargetUserID: d.TargetUserID,
			Outcome:      d.Outcome,
			Detail:       d.Detail,
			IP:           d.IP,
			UserAgent:    d.UserAgent,
			Fingerprint:  d.Fingerprint,
			CreatedAt:    d.CreatedAt.UTC(),
		})
	}
	return events, nil
}
