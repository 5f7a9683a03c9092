package models

// Settings is the process-wide user configuration persisted by the storage
// manager. Stored values are merged over DefaultSettings on every read.
type Settings struct {
	BackendURL        string `json:"backendUrl" yaml:"backend_url" validate:"required,url"`
	LocalLLMURL       string `json:"localLLMUrl" yaml:"local_llm_url" validate:"required,url"`
	LocalModel        string `json:"localModel" yaml:"local_model" validate:"required"`
	UseLocalLLM       bool   `json:"useLocalLLM" yaml:"use_local_llm"`
	LocalLLMThreshold int    `json:"localLLMThreshold" yaml:"local_llm_threshold" validate:"gte=0"`
	Theme             string `json:"theme" yaml:"theme" validate:"oneof=light dark system"`
	MaxHistoryLength  int    `json:"maxHistoryLength" yaml:"max_history_length" validate:"gte=1"`
	AutoSummarize     bool   `json:"autoSummarize" yaml:"auto_summarize"`
}

// DefaultSettings returns the values applied at install time.
func DefaultSettings() Settings {
	return Settings{
		BackendURL:        "http://localhost:8000",
		LocalLLMURL:       "http://localhost:1234",
		LocalModel:        "local-model",
		UseLocalLLM:       true,
		LocalLLMThreshold: 4000,
		Theme:             "system",
		MaxHistoryLength:  50,
		AutoSummarize:     false,
	}
}

// SettingsPatch carries a partial update; nil fields are left untouched.
type SettingsPatch struct {
	BackendURL        *string `json:"backendUrl,omitempty" yaml:"backend_url,omitempty"`
	LocalLLMURL       *string `json:"localLLMUrl,omitempty" yaml:"local_llm_url,omitempty"`
	LocalModel        *string `json:"localModel,omitempty" yaml:"local_model,omitempty"`
	UseLocalLLM       *bool   `json:"useLocalLLM,omitempty" yaml:"use_local_llm,omitempty"`
	LocalLLMThreshold *int    `json:"localLLMThreshold,omitempty" yaml:"local_llm_threshold,omitempty"`
	Theme             *string `json:"theme,omitempty" yaml:"theme,omitempty"`
	MaxHistoryLength  *int    `json:"maxHistoryLength,omitempty" yaml:"max_history_length,omitempty"`
	AutoSummarize     *bool   `json:"autoSummarize,omitempty" yaml:"auto_summarize,omitempty"`
}

// Apply returns s with every non-nil field of p copied over.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.BackendURL != nil {
		s.BackendURL = *p.BackendURL
	}
	if p.LocalLLMURL != nil {
		s.LocalLLMURL = *p.LocalLLMURL
	}
	if p.LocalModel != nil {
		s.LocalModel = *p.LocalModel
	}
	if p.UseLocalLLM != nil {
		s.UseLocalLLM = *p.UseLocalLLM
	}
	if p.LocalLLMThreshold != nil {
		s.LocalLLMThreshold = *p.LocalLLMThreshold
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.MaxHistoryLength != nil {
		s.MaxHistoryLength = *p.MaxHistoryLength
	}
	if p.AutoSummarize != nil {
		s.AutoSummarize = *p.AutoSummarize
	}
	return s
}
