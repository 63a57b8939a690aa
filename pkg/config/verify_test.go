package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{name: "defaults", modify: func(c *Config) {}},
		{name: "geo mode and bucket", modify: func(c *Config) { c.Query.Mode, c.Storage.Type = ModeGeo, StorageBucket }},
		{name: "bad mode", modify: func(c *Config) { c.Query.Mode = "latest" }, errMsg: `query.mode: "latest" is not one of`},
		{name: "bad storage", modify: func(c *Config) { c.Storage.Type = "ftp" }, errMsg: `storage.type: "ftp" is not one of`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := VerifyAgainstEmbeddedSchema(cfg)
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema()
	require.NotNil(t, schema)

	data, err := json.Marshal(schema)
	require.NoError(t, err)

	schemaStr := string(data)
	assert.Contains(t, schemaStr, "QueryConfig")
	assert.Contains(t, schemaStr, "relay_key")
	assert.Contains(t, schemaStr, "min_text_length")

	// generated and embedded schemas describe the same sections
	var generated, embedded struct {
		Defs map[string]json.RawMessage `json:"$defs"`
	}
	require.NoError(t, json.Unmarshal(data, &generated))
	require.NoError(t, json.Unmarshal([]byte(embeddedSchema), &embedded))
	for name := range embedded.Defs {
		assert.Contains(t, generated.Defs, name)
	}
}
