package kg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchFixture() []TableColumns {
	return []TableColumns{
		{
			Table: "CUSTOMERS",
			Columns: []ColumnData{
				{Name: "ID"},
				{Name: "CUSTOMER_NAME"},
				{Name: "EMAIL"},
			},
		},
		{
			Table: "ORDERS",
			Columns: []ColumnData{
				{Name: "ORDER_ID"},
				{Name: "CUSTOMER_ID"},
			},
		},
		{
			Table: "WAREHOUSES",
			Columns: []ColumnData{
				{Name: "LOCATION"},
			},
		},
	}
}

func TestSearchTables_ExactName(t *testing.T) {
	results := searchTables(searchFixture(), "customers", 0.6)
	require.NotEmpty(t, results)
	assert.Equal(t, "CUSTOMERS", results[0].TableName)
	assert.InDelta(t, 1.0, results[0].TableScore, 1e-9)
}

func TestSearchTables_SortedByScoreDescending(t *testing.T) {
	results := searchTables(searchFixture(), "customer order", 0.6)
	require.GreaterOrEqual(t, len(results), 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].TableScore, results[i].TableScore)
	}
}

func TestSearchTables_IrrelevantExcluded(t *testing.T) {
	results := searchTables(searchFixture(), "customer", 0.6)
	for _, r := range results {
		assert.NotEqual(t, "WAREHOUSES", r.TableName)
	}
}

func TestSearchTables_ColumnMatchIncludesTable(t *testing.T) {
	// ORDERS itself scores low against "customer", but its CUSTOMER_ID
	// column clears the threshold, so the table still appears.
	results := searchTables(searchFixture(), "customer", 0.6)

	var orders *SearchResult
	for i := range results {
		if results[i].TableName == "ORDERS" {
			orders = &results[i]
		}
	}
	require.NotNil(t, orders)
	assert.Less(t, orders.TableScore, 0.6)
	require.NotEmpty(t, orders.Columns)
	assert.Equal(t, "CUSTOMER_ID", orders.Columns[0].Name)
}

func TestSearchTables_AddingTermsWidensResults(t *testing.T) {
	narrow := searchTables(searchFixture(), "customer", 0.6)
	wide := searchTables(searchFixture(), "customer warehouse", 0.6)

	assert.GreaterOrEqual(t, len(wide), len(narrow))
	included := make(map[string]bool)
	for _, r := range wide {
		included[r.TableName] = true
	}
	for _, r := range narrow {
		assert.True(t, included[r.TableName], "table %s dropped by wider query", r.TableName)
	}
}

func TestSearchTables_RaisingThresholdNeverWidensResults(t *testing.T) {
	loose := searchTables(searchFixture(), "customer order", 0.5)
	strict := searchTables(searchFixture(), "customer order", 0.9)

	assert.LessOrEqual(t, len(strict), len(loose))
	included := make(map[string]bool)
	for _, r := range loose {
		included[r.TableName] = true
	}
	for _, r := range strict {
		assert.True(t, included[r.TableName], "table %s appeared only at the higher threshold", r.TableName)
	}
}

func TestSearchTables_EmptyQuery(t *testing.T) {
	assert.Nil(t, searchTables(searchFixture(), "   ", 0.6))
}

func TestSearchTables_ThresholdOne(t *testing.T) {
	results := searchTables(searchFixture(), "orders", 1.0)
	require.Len(t, results, 1)
	assert.Equal(t, "ORDERS", results[0].TableName)
}
