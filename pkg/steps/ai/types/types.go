package types

// ApiType selects the provider variant a chat client talks to.
type ApiType string

const (
	// ApiTypeLocal is an OpenAI-compatible server without authentication
	// (LM Studio, llama.cpp server, vLLM...).
	ApiTypeLocal     ApiType = "local"
	ApiTypeOpenAI    ApiType = "openai"
	ApiTypeAnthropic ApiType = "anthropic"
	ApiTypeOllama    ApiType = "ollama"
	ApiTypeGemini    ApiType = "gemini"
	// ApiTypeEcho answers with the user's own message, offline.
	ApiTypeEcho ApiType = "echo"
)

var KnownApiTypes = []ApiType{
	ApiTypeLocal,
	ApiTypeOpenAI,
	ApiTypeAnthropic,
	ApiTypeOllama,
	ApiTypeGemini,
	ApiTypeEcho,
}

func (a ApiType) IsKnown() bool {
	for _, k := range KnownApiTypes {
		if a == k {
			return true
		}
	}
	return false
}

// IsLocal reports whether the provider usually runs on the user's machine.
func (a ApiType) IsLocal() bool {
	return a == ApiTypeLocal || a == ApiTypeOllama
}
