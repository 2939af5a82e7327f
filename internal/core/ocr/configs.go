package ocr

// RecognizerConfig is one engine configuration: a hypothesis about layout and language.
type RecognizerConfig struct {
	Name        string
	Languages   string // tesseract syntax, e.g. "por" or "por+eng"
	PageSegMode int    // --psm
	EngineMode  int    // --oem: 1 LSTM, 2 legacy+LSTM, 3 default
	Whitelist   string // optional tessedit_char_whitelist
}

// DefaultConfigs is the fixed sweep order: cheap, common layouts first.
var DefaultConfigs = []RecognizerConfig{
	{Name: "PORTUGUES_PADRAO", Languages: "por", PageSegMode: 1, EngineMode: 3},
	{Name: "AUTO_DETECT", Languages: "por", PageSegMode: 3, EngineMode: 1},
	{Name: "BLOCO_UNICO", Languages: "por", PageSegMode: 6, EngineMode: 3},
	{Name: "MULTI_IDIOMA", Languages: "por+eng", PageSegMode: 1, EngineMode: 2},
	{Name: "TEXTO_DENSO", Languages: "por", PageSegMode: 2, EngineMode: 3},
	{Name: "LINHA_UNICA", Languages: "por", PageSegMode: 7, EngineMode: 2},
}

// ResolutionPreset is a first-page rasterization target.
type ResolutionPreset struct {
	Name   string
	DPI    int
	Width  int
	Height int
}

var (
	PresetHigh   = ResolutionPreset{Name: "high", DPI: 300, Width: 2480, Height: 3508}
	PresetMedium = ResolutionPreset{Name: "med", DPI: 150, Width: 1240, Height: 1754}
	// A4 at screen resolution, for documents whose high-res render is unreadable.
	PresetLow = ResolutionPreset{Name: "low", DPI: 72, Width: 595, Height: 842}
)
