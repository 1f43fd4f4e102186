package addon

// Manifest is the static addon descriptor the host polls.
type Manifest struct {
	ID          string   `json:"id"`
	Version     string   `json:"version"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Resources   []string `json:"resources"`
	Types       []string `json:"types"`
	Catalogs    []string `json:"catalogs"`
	Behavior    Behavior `json:"behaviorHints"`
}

type Behavior struct {
	Configurable bool `json:"configurable"`
}

var manifest = Manifest{
	ID:          "org.dualsub.addon",
	Version:     "1.0.0",
	Name:        "Dual Subtitles",
	Description: "Merged dual-language subtitles from upstream catalogs",
	Resources:   []string{"subtitles"},
	Types:       []string{"movie", "series"},
	Catalogs:    []string{},
	Behavior:    Behavior{Configurable: true},
}
