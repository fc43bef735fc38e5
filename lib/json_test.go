package lib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFastMarshalKeepsQueryCharacters(t *testing.T) {
	data, err := FastMarshal(map[string]interface{}{
		"where": "{3.EX.'a&b'}",
		"from":  "bqx7xre7s",
	})
	require.NoError(t, err)
	require.Equal(t, `{"from":"bqx7xre7s","where":"{3.EX.'a&b'}"}`, string(data))
}

func TestFastUnmarshal(t *testing.T) {
	var v struct {
		Token string `json:"temporaryAuthorization"`
	}
	require.NoError(t, FastUnmarshal([]byte(`{"temporaryAuthorization":"abc"}`), &v))
	require.Equal(t, "abc", v.Token)
	require.Error(t, FastUnmarshal([]byte(`{`), &v))
}
