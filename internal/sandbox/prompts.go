package sandbox

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// Prompt construction and response parsing shared by the SDK-backed
// providers. Both providers ask for bare JSON so responses decode
// straight into the wire types; the parsers still tolerate markdown
// fencing and, for variants, fall back to line splitting when the
// model ignores the format instruction.

func variantsSystemPrompt(kind tools.Kind, count int) string {
	var role string
	switch kind {
	case tools.KindAdCreative:
		role = "You write short, punchy advertising angles. Each angle is one sentence a marketer could build an ad around."
	case tools.KindScriptHook:
		role = "You write opening hooks for short-form vertical video. Each hook is one spoken line that stops the scroll."
	case tools.KindStyleClone:
		role = "You draft social post openers in the voice of the writing samples provided. Each opener is one line that sounds like the same author."
	}
	return fmt.Sprintf(`%s

Return ONLY a JSON array of exactly %d strings. No markdown fencing, no numbering, no explanation.`, role, count)
}

func variantsUserPrompt(params tools.Params) string {
	var sb strings.Builder
	switch brief := params.(type) {
	case tools.AdCreativeParams:
		fmt.Fprintf(&sb, "Product category: %s\n", brief.Category)
		if brief.ProductName != "" {
			fmt.Fprintf(&sb, "Product name: %s\n", brief.ProductName)
		}
		if brief.Description != "" {
			fmt.Fprintf(&sb, "Product description: %s\n", brief.Description)
		}
		if brief.Platform != "" {
			fmt.Fprintf(&sb, "Platform: %s\n", brief.Platform)
		}
		if brief.CallToAction != "" {
			fmt.Fprintf(&sb, "Call to action: %s\n", brief.CallToAction)
		}
		if brief.Tone != "" {
			fmt.Fprintf(&sb, "Tone: %s\n", brief.Tone)
		}
	case tools.ScriptHookParams:
		fmt.Fprintf(&sb, "Video topic: %s\n", brief.Topic)
		if brief.Platform != "" {
			fmt.Fprintf(&sb, "Platform: %s\n", brief.Platform)
		}
		if brief.Tone != "" {
			fmt.Fprintf(&sb, "Tone: %s\n", brief.Tone)
		}
		if brief.DurationSeconds > 0 {
			fmt.Fprintf(&sb, "Target length: %d seconds\n", brief.DurationSeconds)
		}
	case tools.StyleCloneParams:
		sb.WriteString("Writing samples:\n")
		for i, sample := range brief.SampleTexts {
			if strings.TrimSpace(sample) == "" {
				continue
			}
			fmt.Fprintf(&sb, "--- sample %d ---\n%s\n", i+1, sample)
		}
		fmt.Fprintf(&sb, "\nNew post topic: %s\n", brief.Topic)
		if brief.Platform != "" {
			fmt.Fprintf(&sb, "Platform: %s\n", brief.Platform)
		}
	}
	return sb.String()
}

func assetsSystemPrompt(kind tools.Kind) string {
	var schema string
	switch kind {
	case tools.KindAdCreative:
		schema = `You expand selected advertising angles into complete ads. For each angle, return an object with these fields:
- "headline": the angle, polished into a headline
- "bodyText": 2-3 sentences of ad copy
- "visualBrief": one sentence describing the creative a designer should produce
- "callToAction": a short imperative button label`
	case tools.KindScriptHook:
		schema = `You expand selected hooks into complete short-form video scripts. For each hook, return an object with these fields:
- "hook": the opening line, polished
- "script": the full spoken script for the body of the video
- "outro": the closing line with a follow prompt`
	case tools.KindStyleClone:
		schema = `You expand selected openers into complete social posts in the sampled author's voice. For each opener, return an object with these fields:
- "post": the full post text
- "hashtags": an array of hashtag strings, or an empty array`
	}
	return schema + `

Return ONLY a JSON array with one object per input, in input order. No markdown fencing, no explanation.`
}

func assetsUserPrompt(params tools.Params, variants []tools.Variant) string {
	var sb strings.Builder
	sb.WriteString("Brief:\n")
	sb.WriteString(variantsUserPrompt(params))
	sb.WriteString("\nSelected directions to expand:\n")
	for i, v := range variants {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, v.Text)
	}
	return sb.String()
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) > 1 {
		text = lines[1]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// parseVariantTexts decodes a model response into variant texts: a JSON
// string array when the model followed instructions, otherwise one
// variant per non-empty line with list markers trimmed.
func parseVariantTexts(raw string, count int) ([]string, error) {
	text := stripFences(raw)

	var texts []string
	if err := json.Unmarshal([]byte(text), &texts); err != nil {
		texts = splitLines(text)
	}

	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("no usable variants in model response")
	}
	if len(cleaned) > count {
		cleaned = cleaned[:count]
	}
	return cleaned, nil
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		line = strings.Trim(line, `"`)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// parseAssets decodes a model response into typed assets. Unlike
// variants there is no line-split fallback; a response that does not
// decode as the kind's asset array is an error.
func parseAssets(kind tools.Kind, raw string, want int) ([]tools.Asset, error) {
	text := stripFences(raw)
	assets, err := tools.UnmarshalAssets(kind, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("parse model response as %s assets: %w", kind, err)
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("no assets in model response")
	}
	if len(assets) > want {
		assets = assets[:want]
	}
	return assets, nil
}
