// Package campaigns holds the authored campaign definitions. A definition is
// pure data; the delivery runner turns it into a campaign row on first use.
package campaigns

import "sort"

// Definition describes one campaign: templates in markdown with
// {firstName}-style placeholders.
type Definition struct {
	Name            string
	SubjectTemplate string
	BodyTemplate    string
	// Signature overrides DefaultSignature; empty means use the default.
	Signature string
}

const DefaultSignature = "Linton Ye<br/>Thinking aloud on [Twitter, aka X](https://x.com/lintonye)"

var registry = map[string]Definition{
	reengagement.Name: reengagement,
}

var reengagement = Definition{
	Name:            "Re-engagement",
	SubjectTemplate: "Reconnect",
	BodyTemplate: `Hi {firstName},

I'm not sure if you still remember me, but you subscribed to my mailing list about React courses a few years ago. Just wanted to check in and give you a quick update (sorry for being quiet for so long!).

I've since gone all in on AI and have been learning and experimenting like crazy. Two projects came out of it that I think are worth sharing with you.

The first one is Painboard, a tool that extracts customer pain points and other actionable insights from long-form feedback such as reviews, transcripts and support tickets. [https://usepainboard.com](https://usepainboard.com)

The second is Chattie, a "ChatGPT for your website" tool that lets you train and embed a GPT-powered chatbot with a customizable theme. [https://usechattie.com](https://usechattie.com)

Thanks for reading this far. How's your journey of learning React (and anything else)? I'd love to open up a conversation and see if I can help in any way.

_PS: In the spirit of building in public, I'll try to share every aspect of my journey. Stay tuned!_

Thanks, and have a great day!
`,
}

// ByName looks up a definition in the registry.
func ByName(name string) (Definition, bool) {
	def, ok := registry[name]
	return def, ok
}

// Names lists the registered campaign names in stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Body returns the body template with the signature appended, the form the
// campaign row is created with.
func (d Definition) Body() string {
	signature := d.Signature
	if signature == "" {
		signature = DefaultSignature
	}
	if signature == "" {
		return d.BodyTemplate
	}
	return d.BodyTemplate + "\n\n" + signature
}
