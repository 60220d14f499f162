package reagent

// Model identifiers for the providers the models package resolves. Kept here
// so experiments can reference models without magic strings.

// OpenAI. https://platform.openai.com/docs/models/
const (
	ModelOpenAIGPT4o     = "gpt-4o"
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
	ModelOpenAIGPT41     = "gpt-4.1"
	ModelOpenAIGPT41Mini = "gpt-4.1-mini"
	ModelOpenAIO4Mini    = "o4-mini"
)

// DeepSeek. https://api-docs.deepseek.com/
const (
	ModelDeepSeekChat     = "deepseek-chat"     // non-thinking mode
	ModelDeepSeekReasoner = "deepseek-reasoner" // thinking mode
	ModelDeepSeekV32      = "deepseek-ai/DeepSeek-V3.2"
)

// Qwen (served via SiliconFlow/ModelScope OpenAI-compatible endpoints).
const (
	ModelQwen3_32B  = "Qwen/Qwen3-32B"
	ModelQwen25_72B = "Qwen/Qwen2.5-72B-Instruct"
)

// Ollama local models.
const (
	ModelOllamaLlama33 = "llama3.3"
	ModelOllamaQwen3   = "qwen3"
)
