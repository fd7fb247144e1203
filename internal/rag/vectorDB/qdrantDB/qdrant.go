package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var once sync.Once

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQuadrantClient(ctx context.Context) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			quadrantInstance = res
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: quadrantInstance,
	}
}

func newClient() *qdrant.Client {
	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if collection == "" {
		return errors.New("empty collection name")
	}

	exists, err := db.QObj.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("%w: %v", cardModel.ErrVectorStore, err)
	}
	if exists {
		return nil
	}

	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", cardModel.ErrVectorStore, err)
	}
	return nil
}

// UpsertBatch writes with Wait so a completed call is visible to the next
// query. Record ids are deterministic upstream, which makes re-ingestion
// replace instead of accumulate.
func (db *ClientHolder) UpsertBatch(ctx context.Context, collection string, records []cardModel.VectorRecord) error {
	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		payload := make(map[string]any, len(rec.Metadata)+1)
		for k, v := range rec.Metadata {
			payload[k] = v
		}
		payload["text"] = rec.Text

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(rec.Id),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: upsert failed: %v", cardModel.ErrVectorStore, err)
	}
	return nil
}

func (db *ClientHolder) Query(ctx context.Context, collection string, vector []float32, k int, filter cardModel.Filter) ([]cardModel.SearchResult, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	if k <= 0 {
		k = 5
	}
	// fetch past k: qdrant resolves score ties at the limit boundary on
	// the server, the deterministic id tie-break has to happen here
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k + tieFetchMargin)),
		Filter:         toQdrantFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, fmt.Errorf("%w: %v", cardModel.ErrVectorStore, err)
	}

	results := make([]cardModel.SearchResult, 0, len(result))
	for _, hit := range result {
		metadata := make(map[string]any, len(hit.Payload))
		text := ""
		for key, value := range hit.Payload {
			if key == "text" {
				text = value.GetStringValue()
				continue
			}
			metadata[key] = valueToAny(value)
		}
		results = append(results, cardModel.SearchResult{
			Id:       pointIDString(hit.Id),
			Text:     text,
			Metadata: metadata,
			Score:    float64(hit.Score),
		})
	}

	return rankTopK(results, k), nil
}

// tieFetchMargin bounds how many records beyond k are pulled so ties
// straddling the cut line are broken by id here, not by the server.
const tieFetchMargin = 16

// rankTopK orders by descending score with ascending-id tie-break, then
// truncates to k. Matches the memory store's ordering exactly.
func rankTopK(results []cardModel.SearchResult, k int) []cardModel.SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Id < results[j].Id
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func (db *ClientHolder) Delete(ctx context.Context, collection string, filter cardModel.Filter) error {
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelectorFilter(toQdrantFilter(filter)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: delete failed: %v", cardModel.ErrVectorStore, err)
	}
	return nil
}

func (db *ClientHolder) CollectionDimension(ctx context.Context, collection string) (int, error) {
	info, err := db.QObj.GetCollectionInfo(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", cardModel.ErrVectorStore, err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return 0, fmt.Errorf("%w: collection %s has no vector params", cardModel.ErrVectorStore, collection)
	}
	return int(params.GetSize()), nil
}

func toQdrantFilter(filter cardModel.Filter) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	var must []*qdrant.Condition
	for key, want := range filter {
		switch v := want.(type) {
		case []string:
			must = append(must, qdrant.NewMatchKeywords(key, v...))
		case []any:
			keywords := make([]string, len(v))
			for i, item := range v {
				keywords[i] = fmt.Sprintf("%v", item)
			}
			must = append(must, qdrant.NewMatchKeywords(key, keywords...))
		case int:
			must = append(must, qdrant.NewMatchInt(key, int64(v)))
		case int64:
			must = append(must, qdrant.NewMatchInt(key, v))
		case bool:
			must = append(must, qdrant.NewMatchBool(key, v))
		default:
			must = append(must, qdrant.NewMatch(key, fmt.Sprintf("%v", v)))
		}
	}
	return &qdrant.Filter{Must: must}
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return v.String()
	}
}

func pointIDString(id *qdrant.PointId) string {
	if uid := id.GetUuid(); uid != "" {
		return uid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}
