package meta

import (
	stdjson "encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapJSONPreservesDocumentOrder(t *testing.T) {
	input := `{"zeta":1,"alpha":{"b":[1,2,{"c":null}],"a":"x"},"mid":true}`

	m := NewMap()
	require.NoError(t, m.UnmarshalJSON([]byte(input)))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())

	out, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
	assert.Equal(t, input, string(out))
}

func TestFromAnyRawMessageKeepsOrder(t *testing.T) {
	v, err := FromAny(stdjson.RawMessage(`{"visible":{"visible":true},"audio":1}`))
	require.NoError(t, err)

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"visible", "audio"}, m.Keys())
}

func TestValueJSONScalars(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), "null"},
		{"bool", Bool(true), "true"},
		{"integer", Number(3), "3"},
		{"fraction", Number(0.25), "0.25"},
		{"string", String(`quote"d`), `"quote\"d"`},
		{"empty list", List(), "[]"},
		{"empty map", Object(nil), "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.v.MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))

			var back Value
			require.NoError(t, back.UnmarshalJSON(out))
			assert.True(t, tt.v.Equal(back), "round trip of %s", tt.want)
		})
	}
}

func TestMapUnmarshalRejectsNonObject(t *testing.T) {
	m := NewMap()
	assert.Error(t, m.UnmarshalJSON([]byte(`[1,2]`)))
}

func TestMarshalRejectsNonFinite(t *testing.T) {
	_, err := Number(math.Inf(1)).MarshalJSON()
	assert.Error(t, err)

	_, err = FromAny(math.NaN())
	assert.Error(t, err)
}
