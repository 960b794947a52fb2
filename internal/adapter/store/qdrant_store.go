package store

import (
	"context"
	"fmt"
	"time"

	"cibil-store/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantStore is the assistant's semantic answer cache.
type QdrantStore struct {
	client         *qdrant.Client
	collectionName string
	freshness      time.Duration
	log            *zap.Logger
}

func NewQdrantStore(client *qdrant.Client, collectionName string, freshness time.Duration, log *zap.Logger) *QdrantStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &QdrantStore{
		client:         client,
		collectionName: collectionName,
		freshness:      freshness,
		log:            log,
	}
}

func (s *QdrantStore) InitCollection(ctx context.Context, dim uint64) error {
	_, err := s.client.GetCollectionInfo(ctx, s.collectionName)
	if err != nil {
		st, ok := status.FromError(err)
		if !ok || st.Code() != codes.NotFound {
			return err
		}
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	}

	// Payload indexes for the per-user filter and the freshness range.
	indexes := []struct {
		field string
		typ   qdrant.FieldType
	}{
		{"user_id", qdrant.FieldType_FieldTypeKeyword},
		{"created_at", qdrant.FieldType_FieldTypeInteger},
	}
	for _, idx := range indexes {
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collectionName,
			FieldName:      idx.field,
			FieldType:      idx.typ.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			s.log.Warn("could not create payload index (may already exist)", zap.String("field", idx.field), zap.Error(err))
		}
	}

	return nil
}

// Search returns the closest fresh answer matching every filter, and the
// question it originally answered. A miss is nil, "", nil.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, threshold float32, filters map[string]string) (*entity.AIResponse, string, error) {
	var must []*qdrant.Condition
	for key, value := range filters {
		must = append(must, qdrant.NewMatch(key, value))
	}

	since := time.Now().Add(-s.freshness).Unix()
	must = append(must, &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key:   "created_at",
				Range: &qdrant.Range{Gte: qdrant.PtrOf(float64(since))},
			},
		},
	})

	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         &qdrant.Filter{Must: must},
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
		ScoreThreshold: &threshold,
	})
	if err != nil || len(res) == 0 {
		return nil, "", err
	}

	hit := res[0]
	payload := hit.Payload

	return &entity.AIResponse{
		Content: payload["content"].GetStringValue(),
		Model:   payload["model"].GetStringValue(),
		Cached:  true,
		Score:   hit.Score,
	}, payload["prompt"].GetStringValue(), nil
}

func (s *QdrantStore) Save(ctx context.Context, prompt string, resp *entity.AIResponse, vector []float32, metadata map[string]any) error {
	payload := map[string]any{
		"prompt":     prompt,
		"content":    resp.Content,
		"model":      resp.Model,
		"created_at": time.Now().Unix(),
	}
	for k, v := range metadata {
		payload[k] = v
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(uuid.NewString()),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(payload),
			},
		},
	})
	return err
}
