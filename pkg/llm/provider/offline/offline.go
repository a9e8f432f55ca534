// Package offline is a deterministic stand-in for a model provider. It needs
// no network and always answers, so the tree keeps growing when no provider
// is configured or the configured one is failing.
package offline

import (
	"context"
	"fmt"
	"strings"

	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/tree"
	"github.com/papercomputeco/arbor/pkg/utils"
)

// Model is reported as modelUsed on offline replies.
const Model = "offline"

const echoLen = 120

// Call answers with a fixed template built only from its input, so the same
// messages always produce the same reply.
func Call(_ context.Context, messages []llm.Message, _ llm.Options) (string, error) {
	prompt := strings.TrimSpace(llm.LastUserText(messages))

	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}

	var b strings.Builder
	b.WriteString("(offline) No model is reachable, so this is a placeholder reply.")
	if prompt != "" {
		fmt.Fprintf(&b, "\n\nYou asked: %q", utils.Truncate(prompt, echoLen))
	}
	fmt.Fprintf(&b, "\n\nContext carried: %d messages, about %d tokens.",
		len(messages), tree.TokensForChars(chars))

	return b.String(), nil
}
