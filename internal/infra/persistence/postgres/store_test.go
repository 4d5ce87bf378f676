package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/LouYuanbo1/mapsagent/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 集成测试,需要本地Postgres
// 通过TEST_DB_URI指定连接串,未设置时整个文件跳过
func testClient(t *testing.T) *Client {
	t.Helper()
	uri := os.Getenv("TEST_DB_URI")
	if uri == "" {
		t.Skip("未设置TEST_DB_URI,跳过数据库集成测试")
	}
	cfg := &config.Config{}
	cfg.Postgres.URI = uri

	client, err := InitClient(cfg)
	if err != nil {
		t.Skipf("数据库不可达,跳过: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.EnsureSchema(context.Background()))
	return client
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestUpsertPlacesIdempotent(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	placeID := fmt.Sprintf("0xtest:%d", time.Now().UnixNano())
	place := &model.Place{
		PlaceID:     placeID,
		Name:        "Testcafe",
		Address:     "Teststraße 1",
		Latitude:    52.5,
		Longitude:   13.4,
		Rating:      floatPtr(4.5),
		ReviewCount: intPtr(100),
		Categories:  []string{"Cafe"},
		SourceQuery: "cafes",
	}

	n, err := client.UpsertPlaces(ctx, []*model.Place{place})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 同key再次写入是更新而非报错
	place.Name = "Testcafe (renamed)"
	place.Rating = floatPtr(4.7)
	n, err = client.UpsertPlaces(ctx, []*model.Place{place})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUpsertPlacesSkipsMissingID(t *testing.T) {
	client := testClient(t)

	n, err := client.UpsertPlaces(context.Background(), []*model.Place{
		{PlaceID: "", Name: "nameless"},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestHistoryLastWriteWins(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	source := fmt.Sprintf("test-source-%d", time.Now().UnixNano())
	first := &model.HistoryEntry{
		Source:    source,
		SearchKey: source,
		Requested: 10,
		Returned:  3,
		Dropped:   1,
		Status:    model.StatusPartial,
		RunAt:     time.Now().UTC(),
	}
	require.NoError(t, client.UpsertHistory(ctx, first))

	second := *first
	second.Returned = 10
	second.Dropped = 0
	second.Status = model.StatusSuccess
	second.RunAt = time.Now().UTC()
	require.NoError(t, client.UpsertHistory(ctx, &second))

	entries, err := client.History(ctx, source)
	assert.NoError(t, err)
	if assert.Len(t, entries, 1) {
		assert.Equal(t, model.StatusSuccess, entries[0].Status)
		assert.Equal(t, 10, entries[0].Returned)
	}
}

func TestUpsertHistoryRequiresSource(t *testing.T) {
	client := testClient(t)
	err := client.UpsertHistory(context.Background(), &model.HistoryEntry{Source: "  "})
	assert.Error(t, err)
}
