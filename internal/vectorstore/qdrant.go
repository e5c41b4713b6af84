package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"docurag-worker/internal/logger"
)

// QdrantStore is a gRPC client for Qdrant holding one connection per
// process. Collections are per user, cosine distance.
type QdrantStore struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	dims        int
}

// NewQdrantStore connects to Qdrant at addr (host:port, gRPC port). An
// API key, when set, is attached to every call as request metadata.
func NewQdrantStore(addr, apiKey string, dims int) (*QdrantStore, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if apiKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(apiKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	return &QdrantStore{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		dims:        dims,
	}, nil
}

func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// CollectionName derives the per-user collection name. Every
// non-alphanumeric rune in the user id is normalized to an underscore.
func CollectionName(userID string) string {
	var sb strings.Builder
	sb.WriteString("user_")
	for _, r := range userID {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// EnsureCollection creates the collection if it is absent. The create
// call itself is the existence check: a concurrent duplicate create is
// answered with AlreadyExists, which is treated as success, so two
// first-time ingestions for the same user cannot race each other.
func (s *QdrantStore) EnsureCollection(ctx context.Context, name string, dims int) error {
	_, err := s.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(dims),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists || strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	logger.Info("Created collection", "collection", name, "dimensions", dims)
	return nil
}

// Upsert writes a batch of points. Vector length is checked against the
// configured dimensionality here, at store time.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrantclient.PointStruct, 0, len(points))
	for _, p := range points {
		if len(p.Vector) != s.dims {
			return fmt.Errorf("vector dimension %d does not match collection dimension %d", len(p.Vector), s.dims)
		}
		qdrantPoints = append(qdrantPoints, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: p.ID},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: p.Vector},
				},
			},
			Payload: map[string]*qdrantclient.Value{
				"doc_id":      {Kind: &qdrantclient.Value_StringValue{StringValue: p.Payload.DocID}},
				"chunk_id":    {Kind: &qdrantclient.Value_StringValue{StringValue: p.Payload.ChunkID}},
				"content":     {Kind: &qdrantclient.Value_StringValue{StringValue: p.Payload.Content}},
				"page":        {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(p.Payload.Page)}},
				"chunk_index": {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(p.Payload.ChunkIndex)}},
			},
		})
	}

	wait := true
	_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         qdrantPoints,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points into %s: %w", len(points), collection, err)
	}
	return nil
}

// Search returns the nearest points by cosine similarity, filtered to
// the score threshold and, optionally, to a set of document ids.
func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, params SearchParams) ([]ScoredPoint, error) {
	threshold := float32(params.ScoreThreshold)
	req := &qdrantclient.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(params.TopK),
		ScoreThreshold: &threshold,
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	}

	if len(params.DocIDs) > 0 {
		req.Filter = &qdrantclient.Filter{
			Must: []*qdrantclient.Condition{
				{
					ConditionOneOf: &qdrantclient.Condition_Field{
						Field: &qdrantclient.FieldCondition{
							Key: "doc_id",
							Match: &qdrantclient.Match{
								MatchValue: &qdrantclient.Match_Keywords{
									Keywords: &qdrantclient.RepeatedStrings{Strings: params.DocIDs},
								},
							},
						},
					},
				},
			},
		}
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to search %s: %w", collection, err)
	}

	results := make([]ScoredPoint, 0, len(resp.Result))
	for _, hit := range resp.Result {
		results = append(results, ScoredPoint{
			Score:   float64(hit.GetScore()),
			Payload: payloadFromValues(hit.GetPayload()),
		})
	}
	return results, nil
}

func payloadFromValues(values map[string]*qdrantclient.Value) Payload {
	p := Payload{}
	if v, ok := values["doc_id"]; ok {
		p.DocID = v.GetStringValue()
	}
	if v, ok := values["chunk_id"]; ok {
		p.ChunkID = v.GetStringValue()
	}
	if v, ok := values["content"]; ok {
		p.Content = v.GetStringValue()
	}
	if v, ok := values["page"]; ok {
		p.Page = int(v.GetIntegerValue())
	}
	if v, ok := values["chunk_index"]; ok {
		p.ChunkIndex = int(v.GetIntegerValue())
	}
	return p
}

func isNotFound(err error) bool {
	if status.Code(err) == codes.NotFound {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "doesn't exist")
}

func (s *QdrantStore) Close() error {
	return s.conn.Close()
}
