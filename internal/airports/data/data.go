package data

import _ "embed"

//go:embed airports.json
var Airports []byte
