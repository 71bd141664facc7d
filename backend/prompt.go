// File: backend/prompt.go
package backend

import (
	"fmt"
	"strings"
)

const promptSchema = `You program actors in a live system by emitting behavior descriptors.
Respond with a single JSON object and nothing else:
{
  "type": "<short kind, e.g. counter>",
  "description": "<one sentence>",
  "capabilities": ["spawn_child"|"net_request"|"log"|"get_context"|"get_registry"|"get_history"|"ai_transform"|"apply_transform"],
  "rules": [
    {"when": "<message op or *>",
     "actions": [{"do": "set|increment|append|merge|remove|clear",
                  "key": "<state key>", "value": <any>, "by": <number>, "from": "<message field>"}]}
  ]
}
Declare only the capabilities the behavior genuinely needs. Actions are pure
state edits; side effects are requested separately through capabilities.`

// BuildPrompt renders the generation prompt for one request. The repair
// retry embeds the validator's rejection reason so the backend can fix its
// previous answer instead of guessing again.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(promptSchema)
	b.WriteString("\n\n")

	if req.Context != "" {
		fmt.Fprintf(&b, "System context:\n%s\n\n", req.Context)
	}
	fmt.Fprintf(&b, "Target actor: %s\n", req.ActorID)
	fmt.Fprintf(&b, "Request: %s\n", req.Description)

	if req.RepairReason != "" {
		fmt.Fprintf(&b, "\nYour previous answer was rejected: %s\nProduce a corrected descriptor.\n", req.RepairReason)
	}
	return b.String()
}
