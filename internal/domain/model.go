package domain

// AIModel describes one model offered by the configured LLM backend.
// Prices are USD per one million tokens.
type AIModel struct {
	ID              string
	Name            string
	Description     string
	PromptPrice     float64
	CompletionPrice float64
	ContextLength   int
	Capabilities    ModelCapabilities
}

// ModelCapabilities lists the input kinds a model accepts besides text.
type ModelCapabilities struct {
	Vision bool
	Files  bool
}

// TotalPrice is the combined prompt and completion price.
func (m *AIModel) TotalPrice() float64 {
	return m.PromptPrice + m.CompletionPrice
}

func (m *AIModel) IsFree() bool {
	return m.TotalPrice() == 0
}
