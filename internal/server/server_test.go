package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/DatLas/internal/catalog"
	"github.com/koustreak/DatLas/internal/graph/memory"
	"github.com/koustreak/DatLas/internal/kg"
	"github.com/koustreak/DatLas/internal/logger"
)

type fakeReader struct{}

func (fakeReader) ListTables(context.Context, string) ([]catalog.TableRow, error) {
	return []catalog.TableRow{
		{Owner: "SALES", Name: "CUSTOMERS"},
		{Owner: "SALES", Name: "ORDERS"},
	}, nil
}

func (fakeReader) ListColumns(_ context.Context, table, _ string) ([]catalog.ColumnRow, error) {
	switch table {
	case "CUSTOMERS":
		return []catalog.ColumnRow{
			{Name: "ID", DataType: "NUMBER", Position: 1},
			{Name: "NAME", DataType: "VARCHAR2", Position: 2},
		}, nil
	default:
		return []catalog.ColumnRow{
			{Name: "ORDER_ID", DataType: "NUMBER", Position: 1},
			{Name: "CUSTOMER_ID", DataType: "NUMBER", Position: 2},
		}, nil
	}
}

func (fakeReader) ListPrimaryKeys(context.Context, string) ([]catalog.PrimaryKeyRow, error) {
	return []catalog.PrimaryKeyRow{
		{Constraint: "PK_CUSTOMERS", Table: "CUSTOMERS", Column: "ID"},
	}, nil
}

func (fakeReader) ListForeignKeys(context.Context, string) ([]catalog.ForeignKeyRow, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *kg.Engine) {
	t.Helper()
	store := memory.New()
	engine := kg.NewEngine(fakeReader{}, store, nil, kg.Config{
		DefaultDatabase:    "sales",
		DatabaseType:       "oracle",
		MultiDatabase:      true,
		InferenceEnabled:   true,
		InferenceThreshold: 0.7,
	}, logger.Nop())

	ts := httptest.NewServer(New(engine, store, logger.Nop()).Router())
	t.Cleanup(ts.Close)
	return ts, engine
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	return resp.StatusCode
}

func TestHandleIntrospect_Accepted(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/introspect-schema?database_name=sales&schema_name=SALES", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "started", body["status"])
	assert.Equal(t, "sales", body["database_name"])
	assert.Equal(t, "SALES", body["schema_name"])
}

func TestHandleSearch(t *testing.T) {
	ts, engine := newTestServer(t)
	_, err := engine.IntrospectAndStore(context.Background(), "sales", "")
	require.NoError(t, err)

	var body struct {
		Query   string            `json:"query"`
		Count   int               `json:"count"`
		Results []kg.SearchResult `json:"results"`
	}
	status := getJSON(t, ts.URL+"/schema/search?query=customer+orders&database_name=sales", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "customer orders", body.Query)
	assert.Equal(t, len(body.Results), body.Count)
	require.NotEmpty(t, body.Results)
}

func TestHandleSearch_BadThreshold(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name      string
		threshold string
	}{
		{name: "not a number", threshold: "high"},
		{name: "negative", threshold: "-0.1"},
		{name: "above one", threshold: "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			status := getJSON(t, ts.URL+"/schema/search?query=x&similarity_threshold="+tt.threshold, &body)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestHandleSearch_ThresholdNarrowsResults(t *testing.T) {
	ts, engine := newTestServer(t)
	_, err := engine.IntrospectAndStore(context.Background(), "sales", "")
	require.NoError(t, err)

	var body struct {
		Count   int               `json:"count"`
		Results []kg.SearchResult `json:"results"`
	}
	status := getJSON(t, ts.URL+"/schema/search?query=customer+orders&database_name=sales", &body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, body.Count)

	// At 0.99 only the exact ORDERS match survives.
	status = getJSON(t, ts.URL+"/schema/search?query=customer+orders&database_name=sales&similarity_threshold=0.99", &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "ORDERS", body.Results[0].TableName)
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]any
	status := getJSON(t, ts.URL+"/schema/search", &body)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandleContext(t *testing.T) {
	ts, engine := newTestServer(t)
	_, err := engine.IntrospectAndStore(context.Background(), "sales", "")
	require.NoError(t, err)

	var body kg.SchemaContext
	status := getJSON(t, ts.URL+"/schema/context?table_names=customers,+orders&database_name=sales", &body)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, body.Tables, 2)
	require.Len(t, body.Relationships, 1)
	assert.Equal(t, "ORDERS", body.Relationships[0].FromTable)
	assert.Equal(t, "CUSTOMERS", body.Relationships[0].ToTable)
}

func TestHandleContext_NoTables(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]any
	status := getJSON(t, ts.URL+"/schema/context", &body)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandleInferred(t *testing.T) {
	ts, engine := newTestServer(t)
	_, err := engine.IntrospectAndStore(context.Background(), "sales", "")
	require.NoError(t, err)

	var body kg.InferredReport
	status := getJSON(t, ts.URL+"/schema/inferred-relationships?database_name=sales", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, body.Statistics.TotalInferred)
	require.Len(t, body.Relationships, 1)
	assert.Equal(t, "CUSTOMER_ID", body.Relationships[0].SourceColumn)
}

func TestHandleHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]any
	status := getJSON(t, ts.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}
