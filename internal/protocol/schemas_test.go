package protocol_test

import (
	"encoding/json"
	"testing"

	"islebuild.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("compile schemas: %v", err)
	}

	validate := func(typ, raw string) {
		t.Helper()
		if err := v.Validate(typ, []byte(raw)); err != nil {
			t.Fatalf("validate %s: %v", typ, err)
		}
	}

	validate(protocol.TypeHello, `{"type":"HELLO","protocol_version":"1.0","client_name":"bot1"}`)
	validate(protocol.TypePreview, `{
	  "type":"PREVIEW",
	  "protocol_version":"1.0",
	  "req_id":"R1",
	  "building":"ROAD",
	  "p1":[1.4,2],
	  "p2":[6,2.5]
	}`)
	validate(protocol.TypeBuild, `{
	  "type":"BUILD",
	  "protocol_version":"1.0",
	  "req_id":"R2",
	  "building":"HOUSE",
	  "p1":[0,0],
	  "p2":[3,3],
	  "rotation":90
	}`)
	validate(protocol.TypeBuildList, `{
	  "type":"BUILD_LIST",
	  "protocol_version":"1.0",
	  "req_id":"R1",
	  "building":"ROAD",
	  "results":[
	    {"anchor":[1,2],"buildable":true,"island":"I0","settlement":"S0","action":"b","rotation":45},
	    {"anchor":[2,2],"buildable":false,"island":"I0","action":"bd","rotation":45}
	  ]
	}`)
	validate(protocol.TypeBuildResult, `{
	  "type":"BUILD_RESULT",
	  "protocol_version":"1.0",
	  "req_id":"R2",
	  "building":"HOUSE",
	  "results":[{"anchor":[0,0],"buildable":true,"tear":["B000001"],"rotation":90}],
	  "placed":[{"id":"B000002","building":"HOUSE","anchor":[0,0],"rotation":90}],
	  "torn":["B000001"],
	  "skipped":[]
	}`)
	validate(protocol.TypeError, `{"type":"ERROR","protocol_version":"1.0","code":"E_INVALID_TARGET","message":"nope"}`)
}

func TestSchemas_MarshalledMessagesValidate(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("compile schemas: %v", err)
	}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "3f1c",
		WorldID:         "archipelago",
		Seed:            1337,
		Catalogs: protocol.CatalogDigests{
			Buildings:     protocol.DigestRef{Digest: "deadbeef", Count: 9},
			GroundPalette: protocol.DigestRef{Digest: "deadbeef", Count: 5},
			GroundDefs:    "deadbeef",
		},
		Buildings: []protocol.BuildingRef{{ID: "ROAD", Size: [2]int{1, 1}, Shape: "line"}},
		Islands:   []protocol.IslandRef{{ID: "I0", Bounds: [4]int{-24, -24, 24, 24}}},
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := v.Validate(protocol.TypeWelcome, b); err != nil {
		t.Fatalf("validate welcome: %v", err)
	}

	empty := protocol.BuildListMsg{Type: protocol.TypeBuildList, ProtocolVersion: protocol.Version, ReqID: "R", Building: "HOUSE"}
	b, _ = json.Marshal(empty)
	if err := v.Validate(protocol.TypeBuildList, b); err != nil {
		t.Fatalf("validate empty build list: %v", err)
	}
}

func TestSchemas_RejectMalformed(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("compile schemas: %v", err)
	}
	cases := []struct {
		typ string
		raw string
	}{
		{protocol.TypePreview, `{"type":"PREVIEW","protocol_version":"1.0","req_id":"R","building":"ROAD","p1":[1],"p2":[2,2]}`},
		{protocol.TypePreview, `{"type":"PREVIEW","protocol_version":"1.0","req_id":"R","p1":[1,1],"p2":[2,2]}`},
		{protocol.TypePreview, `{"type":"BUILD","protocol_version":"1.0","req_id":"R","building":"ROAD","p1":[1,1],"p2":[2,2]}`},
		{protocol.TypeBuild, `{"type":"BUILD","protocol_version":"1.0","req_id":"R","building":"ROAD","p1":["a",1],"p2":[2,2]}`},
		{protocol.TypeBuild, `{"type":"BUILD","protocol_version":"1.0","req_id":"R","building":"ROAD","p1":[1,1],"p2":[2,2],"rotation":1.5}`},
		{protocol.TypeHello, `{"type":"HELLO"}`},
		{protocol.TypeError, `{"type":"ERROR","protocol_version":"1.0","code":"bad"}`},
	}
	for i, tc := range cases {
		if err := v.Validate(tc.typ, []byte(tc.raw)); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if err := v.Validate("UNKNOWN", []byte(`{}`)); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
