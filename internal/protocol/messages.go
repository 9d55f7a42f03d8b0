package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	WorldID         string         `json:"world_id"`
	Seed            int64          `json:"seed"`
	Catalogs        CatalogDigests `json:"catalogs"`
	GroundDigest    string         `json:"ground_digest"`
	Buildings       []BuildingRef  `json:"buildings"`
	Islands         []IslandRef    `json:"islands"`
}

type CatalogDigests struct {
	Buildings     DigestRef `json:"buildings"`
	GroundPalette DigestRef `json:"ground_palette"`
	GroundDefs    string    `json:"ground_defs_digest"`
	TuningDigest  string    `json:"tuning_digest,omitempty"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

type BuildingRef struct {
	ID    string `json:"id"`
	Size  [2]int `json:"size"`
	Shape string `json:"shape"`
}

type IslandRef struct {
	ID          string   `json:"id"`
	Bounds      [4]int   `json:"bounds"` // left, top, right, bottom (inclusive)
	Settlements []string `json:"settlements"`
}

// PREVIEW (client -> server): a pointer gesture from P1 to P2 in grid space.
type PreviewMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ReqID           string     `json:"req_id"`
	Building        string     `json:"building"`
	P1              [2]float64 `json:"p1"`
	P2              [2]float64 `json:"p2"`
	Rotation        *int       `json:"rotation,omitempty"`
}

// BUILD (client -> server) has the same shape as PREVIEW; the server
// recomputes the build list and applies it.
type BuildMsg PreviewMsg

type Placement struct {
	Anchor     [2]int   `json:"anchor"`
	Buildable  bool     `json:"buildable"`
	Island     string   `json:"island,omitempty"`
	Settlement string   `json:"settlement,omitempty"`
	Tear       []string `json:"tear,omitempty"`
	Action     string   `json:"action,omitempty"`
	Building   string   `json:"building,omitempty"`
	Rotation   int      `json:"rotation"`
}

// BUILD_LIST (server -> client)
type BuildListMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ReqID           string      `json:"req_id"`
	Building        string      `json:"building"`
	Results         []Placement `json:"results"`
}

type PlacedRef struct {
	ID       string `json:"id"`
	Type     string `json:"building"`
	Anchor   [2]int `json:"anchor"`
	Rotation int    `json:"rotation"`
	Action   string `json:"action,omitempty"`
}

// BUILD_RESULT (server -> client)
type BuildResultMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ReqID           string      `json:"req_id"`
	Building        string      `json:"building"`
	Results         []Placement `json:"results"`
	Placed          []PlacedRef `json:"placed"`
	Torn            []string    `json:"torn"`
	Skipped         [][2]int    `json:"skipped"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
