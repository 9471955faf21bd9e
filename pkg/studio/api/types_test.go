package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

func TestPrimaryRequestDecodesTypedParams(t *testing.T) {
	payload := []byte(`{"toolKind":"ad_creative","params":{"category":"3","variantCount":5}}`)

	var req PrimaryRequest
	require.NoError(t, json.Unmarshal(payload, &req))

	assert.Equal(t, tools.KindAdCreative, req.ToolKind)
	params, ok := req.Params.(tools.AdCreativeParams)
	require.True(t, ok)
	assert.Equal(t, "3", params.Category)
	assert.Equal(t, 5, params.VariantCount)
}

func TestPrimaryRequestRoundTrip(t *testing.T) {
	orig := PrimaryRequest{
		ToolKind: tools.KindScriptHook,
		Params:   tools.ScriptHookParams{Topic: "desk stretches", DurationSeconds: 30},
	}

	data, err := json.Marshal(&orig)
	require.NoError(t, err)

	var decoded PrimaryRequest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)
}

func TestPrimaryRequestRejectsMismatchedKind(t *testing.T) {
	payload := []byte(`{"toolKind":"video_editor","params":{"category":"3"}}`)

	var req PrimaryRequest
	err := json.Unmarshal(payload, &req)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestPrimaryResultSetEchoesParams(t *testing.T) {
	payload := []byte(`{
		"toolKind": "ad_creative",
		"variants": [{"id":"var_1","text":"angle one"},{"id":"var_2","text":"angle two"}],
		"count": 2,
		"params": {"category":"3"}
	}`)

	var rs PrimaryResultSet
	require.NoError(t, json.Unmarshal(payload, &rs))

	assert.Len(t, rs.Variants, 2)
	assert.Equal(t, 2, rs.Count)
	params, ok := rs.Params.(tools.AdCreativeParams)
	require.True(t, ok)
	assert.Equal(t, "3", params.Category)
}

func TestSecondaryResultSetDecodesAssetsByKind(t *testing.T) {
	payload := []byte(`{
		"toolKind": "style_clone",
		"assets": [{"id":"as_1","post":"shipped it","hashtags":["launch"]}]
	}`)

	var rs SecondaryResultSet
	require.NoError(t, json.Unmarshal(payload, &rs))

	require.Len(t, rs.Assets, 1)
	post, ok := rs.Assets[0].(tools.StyleCloneAsset)
	require.True(t, ok)
	assert.Equal(t, "shipped it", post.Post)
}

func TestSecondaryRequestRoundTrip(t *testing.T) {
	orig := SecondaryRequest{
		ToolKind:           tools.KindAdCreative,
		SelectedPrimaryIDs: []string{"var_1", "var_3"},
		Params:             tools.AdCreativeParams{Category: "3"},
	}

	data, err := json.Marshal(&orig)
	require.NoError(t, err)

	var decoded SecondaryRequest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)
}

func TestPersistRequestRoundTrip(t *testing.T) {
	orig := PersistRequest{
		ToolKind: tools.KindScriptHook,
		Assets: []tools.Asset{
			tools.ScriptHookAsset{ID: "as_1", Hook: "wait for it", Script: "body", Outro: "follow"},
		},
	}

	data, err := json.Marshal(&orig)
	require.NoError(t, err)

	var decoded PersistRequest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)
}
