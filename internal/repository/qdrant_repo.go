package repository

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/feastly/feastly/internal/domain"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Similarity convention: scores are Qdrant cosine similarities, so HIGHER
// always means MORE similar. Ranking sorts descending on this score and
// threshold queries use it as a minimum cutoff. Nothing in this repository or
// its callers works in raw inner-product distance terms.

// QdrantConnectionConfig holds configuration for the Qdrant connection.
type QdrantConnectionConfig struct {
	Host       string
	Port       int
	Collection string
	APIKey     string // Qdrant Cloud API Key (enables TLS automatically)
	UseTLS     bool   // Explicitly enable TLS without API Key
}

// apiKeyInterceptor creates a unary interceptor that adds API key to metadata
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// QdrantRepository is the ANN index over recipe embeddings. Each recipe is
// one point keyed by its numeric id; the moderation state travels in the
// point payload so listing queries can filter drafts inside the index.
type QdrantRepository struct {
	conn           *grpc.ClientConn
	pointsClient   pb.PointsClient
	collectClient  pb.CollectionsClient
	collectionName string
}

// NewQdrantRepository creates a new QdrantRepository.
// Supports both local Qdrant (insecure) and Qdrant Cloud (TLS + API Key).
func NewQdrantRepository(cfg *QdrantConnectionConfig) (*QdrantRepository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var opts []grpc.DialOption

	useTLS := cfg.UseTLS || cfg.APIKey != ""
	if useTLS {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS13,
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))

		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &QdrantRepository{
		conn:           conn,
		pointsClient:   pb.NewPointsClient(conn),
		collectClient:  pb.NewCollectionsClient(conn),
		collectionName: cfg.Collection,
	}, nil
}

// Close closes the gRPC connection.
func (r *QdrantRepository) Close() error {
	return r.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist and verifies
// the stored vector size matches the embedding dimensionality.
func (r *QdrantRepository) EnsureCollection(ctx context.Context) error {
	info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collectionName,
	})
	if err == nil {
		if size, ok := collectionVectorSize(info.GetResult()); ok {
			if size != uint64(domain.EmbeddingDim) {
				return fmt.Errorf("collection %s has vector size %d, expected %d", r.collectionName, size, domain.EmbeddingDim)
			}
		}
		return nil
	}

	_, err = r.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(domain.EmbeddingDim),
					Distance: pb.Distance_Cosine,
				},
			},
		},
		HnswConfig: &pb.HnswConfigDiff{
			M:                 optionalUint64(16),
			EfConstruct:       optionalUint64(128),
			FullScanThreshold: optionalUint64(10000),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

func optionalUint64(v uint64) *uint64 {
	return &v
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	if info == nil {
		return 0, false
	}

	config := info.GetConfig()
	if config == nil {
		return 0, false
	}

	params := config.GetParams()
	if params == nil {
		return 0, false
	}

	vectors := params.GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}

	if single := vectors.GetParams(); single != nil {
		if size := single.GetSize(); size > 0 {
			return size, true
		}
	}

	return 0, false
}

// Upsert writes a recipe's embedding and payload to the index.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: recipe id; doubles as the point id.
//   - vector: embedding to store.
//   - state: moderation state stored in the payload.
//   - authorID: owner stored in the payload.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *QdrantRepository) Upsert(ctx context.Context, id uint, vector []float32, state domain.ModerationState, authorID string) error {
	points := []*pb.PointStruct{
		{
			Id: numericPointID(id),
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{
						Data: vector,
					},
				},
			},
			Payload: map[string]*pb.Value{
				"state":     {Kind: &pb.Value_StringValue{StringValue: string(state)}},
				"author_id": {Kind: &pb.Value_StringValue{StringValue: authorID}},
			},
		},
	}

	_, err := r.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// SetState overwrites the moderation state in a point's payload without
// touching the stored vector.
func (r *QdrantRepository) SetState(ctx context.Context, id uint, state domain.ModerationState) error {
	_, err := r.pointsClient.SetPayload(ctx, &pb.SetPayloadPoints{
		CollectionName: r.collectionName,
		Payload: map[string]*pb.Value{
			"state": {Kind: &pb.Value_StringValue{StringValue: string(state)}},
		},
		PointsSelector: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{numericPointID(id)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set point payload: %w", err)
	}
	return nil
}

// Delete deletes a point by recipe id.
func (r *QdrantRepository) Delete(ctx context.Context, id uint) error {
	_, err := r.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collectionName,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{numericPointID(id)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}

	return nil
}

// RankedID is one ranked entry from the index.
type RankedID struct {
	ID    uint
	Score float32
}

// Rank returns approved recipe ids ordered by descending similarity to the
// query vector. The HNSW graph makes this a best-effort top-K, not an exact
// global sort. Ties have no defined secondary order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - vector: query embedding.
//   - limit: maximum number of ids to return.
//   - offset: number of ranked entries to skip.
// Returns:
//   - []RankedID: ranked ids with similarity scores.
//   - error: non-nil if the search fails.
func (r *QdrantRepository) Rank(ctx context.Context, vector []float32, limit, offset int) ([]RankedID, error) {
	off := uint64(offset)
	resp, err := r.pointsClient.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collectionName,
		Vector:         vector,
		Limit:          uint64(limit),
		Offset:         &off,
		Filter:         approvedFilter(nil),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	return rankedFromScored(resp.Result), nil
}

// Neighbors returns approved recipe ids whose similarity to the reference
// vector is at least minSimilarity, excluding one id (the seed). Membership
// is gated here; presentation order is the caller's concern.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - vector: reference embedding.
//   - minSimilarity: inclusive similarity cutoff.
//   - excludeID: recipe id removed from the candidate set.
//   - limit: cap on the candidate set size.
// Returns:
//   - []uint: ids passing the cutoff.
//   - error: non-nil if the search fails.
func (r *QdrantRepository) Neighbors(ctx context.Context, vector []float32, minSimilarity float32, excludeID uint, limit int) ([]uint, error) {
	resp, err := r.pointsClient.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collectionName,
		Vector:         vector,
		Limit:          uint64(limit),
		ScoreThreshold: &minSimilarity,
		Filter:         approvedFilter(&excludeID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	ids := make([]uint, 0, len(resp.Result))
	for _, scored := range resp.Result {
		ids = append(ids, uint(scored.Id.GetNum()))
	}
	return ids, nil
}

// approvedFilter restricts index queries to approved points, optionally
// excluding one point id.
func approvedFilter(excludeID *uint) *pb.Filter {
	filter := &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: "state",
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{Keyword: string(domain.StateApproved)},
						},
					},
				},
			},
		},
	}

	if excludeID != nil {
		filter.MustNot = []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_HasId{
					HasId: &pb.HasIdCondition{
						HasId: []*pb.PointId{numericPointID(*excludeID)},
					},
				},
			},
		}
	}

	return filter
}

func numericPointID(id uint) *pb.PointId {
	return &pb.PointId{
		PointIdOptions: &pb.PointId_Num{Num: uint64(id)},
	}
}

func rankedFromScored(scored []*pb.ScoredPoint) []RankedID {
	results := make([]RankedID, len(scored))
	for i, s := range scored {
		results[i] = RankedID{
			ID:    uint(s.Id.GetNum()),
			Score: s.Score,
		}
	}
	return results
}
