package model

// LLM describes a chat model exposed by the proxy.
type LLM struct {
	ModelID      string     `json:"modelId"`
	ModelName    string     `json:"modelName"`
	Provider     string     `json:"provider"`
	HostedID     string     `json:"hostedId"`
	PlatformLink string     `json:"platformLink"`
	ImageInput   bool       `json:"imageInput"`
	Pricing      LLMPricing `json:"pricing"`
}

type LLMPricing struct {
	Currency   string  `json:"currency"`
	Unit       string  `json:"unit"`
	InputCost  float64 `json:"inputCost"`
	OutputCost float64 `json:"outputCost"`
}

// ChatModels lists the models the chat proxy can serve.
var ChatModels = []LLM{
	{
		ModelID:      "flowise",
		ModelName:    "Flowise Model",
		Provider:     "flowise",
		HostedID:     "flowise",
		PlatformLink: "https://docs.flowiseai.com/",
		ImageInput:   false,
		Pricing: LLMPricing{
			Currency:   "USD",
			Unit:       "1M tokens",
			InputCost:  0.1,
			OutputCost: 0.1,
		},
	},
}
