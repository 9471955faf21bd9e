package sandbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/stoewer/go-strcase"

	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// TemplateProvider produces deterministic placeholder content from the
// brief alone. It is the default backend: no credentials, no network,
// and stable output, which keeps the sandbox usable offline and the
// integration tests reproducible.
type TemplateProvider struct{}

// NewTemplateProvider creates the deterministic content backend.
func NewTemplateProvider() *TemplateProvider {
	return &TemplateProvider{}
}

func (p *TemplateProvider) Name() string { return ProviderTemplate }

var adCreativeAngles = []string{
	"Meet %s: the %s upgrade you did not know you needed",
	"Why everyone is switching to %s for %s",
	"%s, built for people who take %s seriously",
	"Stop settling: %s raises the bar for %s",
	"The honest case for %s in your %s routine",
}

var scriptHookAngles = []string{
	"You have been doing %s wrong this whole time",
	"Nobody talks about this side of %s",
	"I tested %s for 30 days and here is what happened",
	"Three things I wish I knew before starting %s",
	"The %s mistake that costs beginners the most",
}

var styleCloneAngles = []string{
	"Hot take on %s",
	"A quiet truth about %s",
	"What a year of %s taught me",
	"Unpopular opinion about %s",
	"Field notes on %s",
}

func (p *TemplateProvider) Variants(ctx context.Context, params tools.Params, count int) ([]string, error) {
	var angles []string
	var subject, category string

	switch brief := params.(type) {
	case tools.AdCreativeParams:
		angles = adCreativeAngles
		subject = brief.ProductName
		if subject == "" {
			subject = brief.Category
		}
		category = brief.Category
	case tools.ScriptHookParams:
		angles = scriptHookAngles
		subject = brief.Topic
	case tools.StyleCloneParams:
		angles = styleCloneAngles
		subject = brief.Topic
	default:
		return nil, fmt.Errorf("unsupported params type %T", params)
	}

	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		angle := angles[i%len(angles)]
		var text string
		if strings.Count(angle, "%s") == 2 {
			text = fmt.Sprintf(angle, subject, category)
		} else {
			text = fmt.Sprintf(angle, subject)
		}
		// Once the angle list wraps, number the repeats so every
		// variant stays distinct.
		if round := i / len(angles); round > 0 {
			text = fmt.Sprintf("%s (take %d)", text, round+1)
		}
		out = append(out, text)
	}
	return out, nil
}

func (p *TemplateProvider) Assets(ctx context.Context, params tools.Params, variants []tools.Variant) ([]tools.Asset, error) {
	out := make([]tools.Asset, 0, len(variants))

	switch brief := params.(type) {
	case tools.AdCreativeParams:
		for _, v := range variants {
			out = append(out, p.adCreativeAsset(brief, v))
		}
	case tools.ScriptHookParams:
		for _, v := range variants {
			out = append(out, p.scriptHookAsset(brief, v))
		}
	case tools.StyleCloneParams:
		for _, v := range variants {
			out = append(out, p.styleCloneAsset(brief, v))
		}
	default:
		return nil, fmt.Errorf("unsupported params type %T", params)
	}
	return out, nil
}

func (p *TemplateProvider) adCreativeAsset(brief tools.AdCreativeParams, v tools.Variant) tools.AdCreativeAsset {
	subject := brief.ProductName
	if subject == "" {
		subject = brief.Category
	}
	cta := brief.CallToAction
	if cta == "" {
		cta = "Learn more"
	}
	body := fmt.Sprintf("%s is the %s choice that actually delivers.", subject, brief.Category)
	if brief.Description != "" {
		body = fmt.Sprintf("%s %s", body, brief.Description)
	}
	if brief.Tone != "" {
		body = fmt.Sprintf("%s Written in a %s voice for people who can tell the difference.", body, brief.Tone)
	}
	platform := brief.Platform
	if platform == "" {
		platform = "feed"
	}
	return tools.AdCreativeAsset{
		Headline:     v.Text,
		BodyText:     body,
		VisualBrief:  fmt.Sprintf("Product-forward %s shot of %s, bold caption overlay, high contrast.", platform, subject),
		CallToAction: cta,
	}
}

func (p *TemplateProvider) scriptHookAsset(brief tools.ScriptHookParams, v tools.Variant) tools.ScriptHookAsset {
	duration := brief.DurationSeconds
	if duration == 0 {
		duration = 30
	}
	script := fmt.Sprintf(
		"Open on the hook, hold two beats. Walk through %s in three quick cuts, one concrete example per cut, about %d seconds total.",
		brief.Topic, duration)
	if brief.Tone != "" {
		script = fmt.Sprintf("%s Keep the delivery %s throughout.", script, brief.Tone)
	}
	return tools.ScriptHookAsset{
		Hook:   v.Text,
		Script: script,
		Outro:  fmt.Sprintf("Follow for more on %s.", brief.Topic),
	}
}

func (p *TemplateProvider) styleCloneAsset(brief tools.StyleCloneParams, v tools.Variant) tools.StyleCloneAsset {
	post := fmt.Sprintf(
		"%s.\n\nI keep coming back to this because it holds up in practice, not just in theory. The longer I sit with %s, the clearer the pattern gets.",
		v.Text, brief.Topic)
	hashtags := []string{"#" + strcase.LowerCamelCase(brief.Topic)}
	if brief.Platform != "" {
		hashtags = append(hashtags, "#"+strcase.LowerCamelCase(brief.Platform))
	}
	return tools.StyleCloneAsset{
		Post:     post,
		Hashtags: hashtags,
	}
}
