package gltfio

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/midgard-avatar/pkg/meta"
)

func TestDecode_Version(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid", `{"asset":{"version":"2.0"}}`, nil},
		{"version 1", `{"asset":{"version":"1.0"}}`, ErrUnsupportedVersion},
		{"missing asset", `{}`, ErrUnsupportedVersion},
		{"malformed", `{"asset":`, ErrInvalidDocument},
		{"zero length buffer", `{"asset":{"version":"2.0"},"buffers":[{"byteLength":0}]}`, ErrInvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func testDoc() *gltf.Document {
	doc := &gltf.Document{Asset: gltf.Asset{Version: Version}}
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 2, 3}, {-1, 0, 5}})
	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{{Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos}}}}}
	doc.Nodes = []*gltf.Node{{Name: "Scene", Mesh: gltf.Index(0)}}
	return doc
}

func TestEncode_RoundTrip(t *testing.T) {
	for _, binary := range []bool{false, true} {
		data, err := Encode(testDoc(), binary, "")
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if IsGLB(data) != binary {
			t.Errorf("binary=%v: expected IsGLB %v", binary, binary)
		}

		back, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		got, err := Positions(back, 0)
		if err != nil {
			t.Fatalf("Positions: %v", err)
		}
		if len(got) != 3 || got[1] != [3]float32{1, 2, 3} {
			t.Errorf("binary=%v: expected positions to survive, got %v", binary, got)
		}
		acr := back.Accessors[0]
		if acr.Min[0] != -1 || acr.Max[2] != 5 {
			t.Errorf("binary=%v: expected bounds, got %v %v", binary, acr.Min, acr.Max)
		}
	}
}

func TestEncode_TextEmbedsBuffer(t *testing.T) {
	data, err := Encode(testDoc(), false, "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Contains(data, []byte(`"uri":"data:application/octet-stream;base64,`)) {
		t.Errorf("expected an embedded buffer, got %s", data)
	}
}

func TestEncode_Indent(t *testing.T) {
	for _, binary := range []bool{false, true} {
		data, err := Encode(testDoc(), binary, "  ")
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		indented := bytes.Contains(data, []byte("\n  \"asset\""))
		if indented == binary {
			t.Errorf("binary=%v: expected indented JSON only in text mode", binary)
		}
	}
}

func TestEncode_Stable(t *testing.T) {
	hubs := meta.NewMap()
	hubs.Set("visible", meta.Bool(true))
	hubs.Set("audio", meta.String("loud"))
	doc := testDoc()
	doc.Nodes[0].Extensions = gltf.Extensions{
		"MOZ_hubs_components":    meta.Object(hubs),
		"KHR_materials_variants": map[string]any{"b": 1, "a": 2},
	}

	first, err := Encode(doc, true, "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := Encode(doc, true, "")
		if !bytes.Equal(first, again) {
			t.Fatalf("expected identical output on run %d", i)
		}
	}

	want := `"extensions":{"KHR_materials_variants":{"a":2,"b":1},"MOZ_hubs_components":{"visible":true,"audio":"loud"}}`
	if !bytes.Contains(first, []byte(want)) {
		t.Errorf("expected %s in %s", want, first)
	}

	back, err := Decode(first)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	raw, ok := back.Nodes[0].Extensions["MOZ_hubs_components"].(json.RawMessage)
	if !ok {
		t.Fatalf("expected raw extension JSON, got %T", back.Nodes[0].Extensions["MOZ_hubs_components"])
	}
	v, err := meta.FromAny(raw)
	if err != nil {
		t.Fatalf("FromAny: %v", err)
	}
	if m, _ := v.AsMap(); !m.Equal(hubs) {
		t.Errorf("expected extensions to survive round trip, got %s", raw)
	}
}

func TestIsGLB(t *testing.T) {
	tests := []struct {
		data []byte
		want bool
	}{
		{[]byte("glTF\x02\x00\x00\x00"), true},
		{[]byte("glT"), false},
		{[]byte(`{"asset":{}}`), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsGLB(tt.data); got != tt.want {
			t.Errorf("IsGLB(%q): expected %v, got %v", tt.data, tt.want, got)
		}
	}
}
