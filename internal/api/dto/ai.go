package dto

type GenerateRequest struct {
	Context string `json:"context"`
	Type    string `json:"type"`
}

func (r GenerateRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Context == "" {
		errors["context"] = "Context is required"
	}
	return errors
}

type GenerateResponse struct {
	Content string `json:"content"`
}
