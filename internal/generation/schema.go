package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/providers/llm"
)

var (
	errEmptyPayload      = errors.New("empty payload")
	errBlankSubjectLines = errors.New("suggestedSubjectLines has no usable entry")
	errBlankHero         = errors.New("hero headline and ctaText must not be blank")
)

// nonBlank is a string schema that rejects whitespace-only values.
var nonBlank = map[string]any{"type": "string", "pattern": `\S`}

var (
	intentSchema      = mustCompile("intent", intentSchemaDoc())
	heroSchema        = mustCompile("hero", heroSchemaDoc)
	productCopySchema = mustCompile("product-copy", productCopySchemaDoc)
)

func mustCompile(name string, doc string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://campaigns.schemas.local/%s.schema.json", name)
	if err := c.AddResource(url, strings.NewReader(doc)); err != nil {
		panic(fmt.Sprintf("generation: load %s schema: %v", name, err))
	}
	schema, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("generation: compile %s schema: %v", name, err))
	}
	return schema
}

func intentSchemaDoc() string {
	doc := map[string]any{
		"type": "object",
		"required": []string{
			"campaignType", "primaryAction", "targetAudience", "urgency", "keyProducts",
			"tone", "suggestedSubjectLines", "previewText", "estimatedSections",
		},
		"properties": map[string]any{
			"campaignType":   map[string]any{"enum": domain.CampaignTypes},
			"primaryAction":  nonBlank,
			"targetAudience": map[string]any{"type": "string"},
			"urgency":        map[string]any{"enum": domain.Urgencies},
			"keyProducts":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"tone":           map[string]any{"enum": domain.Tones},
			"suggestedSubjectLines": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    nonBlank,
			},
			"previewText":       map[string]any{"type": "string"},
			"estimatedSections": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

const heroSchemaDoc = `{
  "type": "object",
  "required": ["headline", "subheadline", "ctaText"],
  "properties": {
    "headline": {"type": "string", "pattern": "\\S"},
    "subheadline": {"type": "string"},
    "ctaText": {"type": "string", "pattern": "\\S"},
    "ctaLink": {"type": "string"},
    "suggestedImageDescription": {"type": "string"}
  }
}`

const productCopySchemaDoc = `{
  "type": "object",
  "required": ["products"],
  "properties": {
    "products": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "description"],
        "properties": {
          "name": {"type": "string"},
          "description": {"type": "string", "pattern": "\\S"},
          "ctaText": {"type": "string"}
        }
      }
    }
  }
}`

// decodeStructured turns a model answer into T after checking it against
// schema. Any failure means the answer is unusable.
func decodeStructured[T any](schema *jsonschema.Schema, raw string) (T, error) {
	var zero T
	fragment := llm.ExtractJSON(raw)
	if fragment == "" {
		return zero, errEmptyPayload
	}
	var generic any
	if err := json.Unmarshal([]byte(fragment), &generic); err != nil {
		return zero, fmt.Errorf("parse json: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return zero, fmt.Errorf("response shape: %w", err)
	}
	var out T
	if err := json.Unmarshal([]byte(fragment), &out); err != nil {
		return zero, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}
