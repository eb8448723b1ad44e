package events

// ConnectionStartInfo accompanies ConnectionStart: the source endpoint of a
// connection being drawn.
type ConnectionStartInfo struct {
	OutputID    string `json:"output_id"`
	OutputClass string `json:"output_class"`
}

// ConnectionInfo accompanies ConnectionCreated, ConnectionSelected and
// ConnectionRemoved. The field names match the persisted wire contract.
type ConnectionInfo struct {
	OutputID    string `json:"output_id"`
	InputID     string `json:"input_id"`
	OutputClass string `json:"output_class"`
	InputClass  string `json:"input_class"`
}

// TranslateInfo accompanies Translate: the new canvas pan offset.
type TranslateInfo struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
