package tools

// Descriptor summarizes a tool kind for display surfaces: the CLI tool
// table and the MCP tool listing both render from it.
type Descriptor struct {
	Kind     Kind     `json:"kind"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Required []string `json:"requiredParams"`
	Optional []string `json:"optionalParams,omitempty"`
}

var descriptors = map[Kind]Descriptor{
	KindAdCreative: {
		Kind:     KindAdCreative,
		Title:    "Ad Creative",
		Summary:  "Generate ad angles for a product, then expand picks into complete ads with headline, body, visual brief and CTA.",
		Required: []string{"category"},
		Optional: []string{"productName", "description", "platform", "callToAction", "tone", "variantCount"},
	},
	KindScriptHook: {
		Kind:     KindScriptHook,
		Title:    "Script Hook",
		Summary:  "Generate opening hooks for a short-form video topic, then expand picks into full hook/script/outro scripts.",
		Required: []string{"topic"},
		Optional: []string{"platform", "tone", "durationSeconds", "variantCount"},
	},
	KindStyleClone: {
		Kind:     KindStyleClone,
		Title:    "Style Clone",
		Summary:  "Generate post angles in the voice of your sample texts, then expand picks into ready-to-publish posts.",
		Required: []string{"sampleTexts", "topic"},
		Optional: []string{"platform", "variantCount"},
	},
}

// Describe returns the descriptor for a kind.
func Describe(kind Kind) (Descriptor, bool) {
	d, ok := descriptors[kind]
	return d, ok
}

// Descriptors returns every tool descriptor in Kinds order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for _, kind := range Kinds() {
		out = append(out, descriptors[kind])
	}
	return out
}
