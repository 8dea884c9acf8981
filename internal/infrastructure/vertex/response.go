package vertex

import (
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/goccy/go-json"
)

// extractor пытается достать вектор из тела ответа одной известной формы.
// Несовпадение структуры — это false, а не ошибка.
type extractor struct {
	name    string
	extract func(body []byte) ([]float32, bool)
}

// extractors перебираются по порядку, побеждает первое совпадение.
var extractors = []extractor{
	{name: "data[0].embedding", extract: extractData},
	{name: "embeddings[0].values", extract: extractEmbeddings},
	{name: "predictions[0]", extract: extractPredictions},
	{name: "[0]", extract: extractTopLevelArray},
}

// ParseEmbedding нормализует ответ провайдера в плоский вектор.
// Если ни одна форма не подошла, возвращается e.ErrUnrecognizedResponse.
func ParseEmbedding(body []byte) ([]float32, error) {
	for _, ex := range extractors {
		if vec, ok := ex.extract(body); ok {
			return vec, nil
		}
	}

	return nil, e.ErrUnrecognizedResponse
}

// {"data":[{"embedding":[...]}]}
func extractData(body []byte) ([]float32, bool) {
	var resp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Data) == 0 {
		return nil, false
	}

	return nonEmpty(resp.Data[0].Embedding)
}

// {"embeddings":[{"values":[...]}]}
func extractEmbeddings(body []byte) ([]float32, bool) {
	var resp struct {
		Embeddings []struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Embeddings) == 0 {
		return nil, false
	}

	return nonEmpty(resp.Embeddings[0].Values)
}

// {"predictions":[[...]]} или {"predictions":[{"embeddings":{"values":[...]}}]}
func extractPredictions(body []byte) ([]float32, bool) {
	var resp struct {
		Predictions []json.RawMessage `json:"predictions"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Predictions) == 0 {
		return nil, false
	}

	first := resp.Predictions[0]

	var flat []float32
	if err := json.Unmarshal(first, &flat); err == nil {
		return nonEmpty(flat)
	}

	var nested struct {
		Embeddings struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	}
	if err := json.Unmarshal(first, &nested); err != nil {
		return nil, false
	}

	return nonEmpty(nested.Embeddings.Values)
}

// [[...], ...]
func extractTopLevelArray(body []byte) ([]float32, bool) {
	var resp []json.RawMessage
	if err := json.Unmarshal(body, &resp); err != nil || len(resp) == 0 {
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(resp[0], &vec); err != nil {
		return nil, false
	}

	return nonEmpty(vec)
}

func nonEmpty(vec []float32) ([]float32, bool) {
	return vec, len(vec) > 0
}
