package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyUnmarshalJSON(t *testing.T) {
	t.Run("bare string lands in BaseID", func(t *testing.T) {
		var k Key
		require.NoError(t, json.Unmarshal([]byte(`"ri_001"`), &k))
		assert.Equal(t, "ri_001", k.BaseID)
		assert.Empty(t, k.ProjectID)
	})

	t.Run("structured form", func(t *testing.T) {
		var k Key
		require.NoError(t, json.Unmarshal([]byte(`{"project_id":"p1","base_id":"b1"}`), &k))
		assert.Equal(t, "p1", k.ProjectID)
		assert.Equal(t, "b1", k.BaseID)
	})
}

func TestKeyRecordID(t *testing.T) {
	assert.Equal(t, "p1_b1", Key{ProjectID: "p1", BaseID: "b1"}.RecordID())
	assert.Equal(t, "b1", Key{BaseID: "b1"}.RecordID())
}

func TestApplyDefaults(t *testing.T) {
	t.Run("raw indicator", func(t *testing.T) {
		v := Variable{Name: "Daily Sales", Formula: "leftover"}
		v.ApplyDefaults(RoleRawIndicator, "p1")

		assert.NotEmpty(t, v.ID.BaseID)
		assert.Equal(t, "p1", v.ID.ProjectID)
		assert.Equal(t, "daily_sales", v.VarName)
		assert.Empty(t, v.Formula)
		assert.Equal(t, "text", v.Type)
		assert.Equal(t, DefaultImpactWeight, v.ImpactWeight)
	})

	t.Run("decision variable gets placeholder formula", func(t *testing.T) {
		v := Variable{Name: "Net Income"}
		v.ApplyDefaults(RoleDecisionVariable, "p1")

		assert.Equal(t, PlaceholderFormula, v.Formula)
		assert.Equal(t, "float", v.Type)
	})
}

func TestNormalizeVarName(t *testing.T) {
	assert.Equal(t, "avg_daily_customers", NormalizeVarName(" Avg Daily-Customers "))
	assert.Equal(t, "net_income", NormalizeVarName("Net. Income"))
}

func TestUniqueVarName(t *testing.T) {
	taken := map[string]bool{"rent": true, "rent_2": true}
	assert.Equal(t, "rent_3", UniqueVarName("rent", taken))
	assert.Equal(t, "utilities", UniqueVarName("utilities", taken))
}

func TestTitleFromVarName(t *testing.T) {
	assert.Equal(t, "Operating Days", TitleFromVarName("operating_days"))
}
