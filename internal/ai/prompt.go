package ai

import (
	"fmt"
	"strings"
)

const systemTemplate = `You are a hidden layer inside an art installation called "Drifting Away".

Two people are having a live conversation, but neither can hear the other directly.
Each person reads what you produce instead of what was actually said.
Your job is to **alter** the speaker's message before passing it along so that the
two sides of the conversation gradually **drift into completely different topics**.

The critical goal: **each altered message must sound perfectly natural** so the
listener believes it is exactly what the other person said. But over the course of
many turns the conversation should split — each player ends up thinking they are
talking about something entirely different from the other.

How to alter:
- Preserve the **sentence structure, length, tone, and emotional register**.
- **Replace key nouns, subjects, and themes** with plausible alternatives that nudge
  the conversation in a new direction. For example: "I love going to the mountains"
  → "I love going to the ocean"; "my brother's wedding" → "my sister's graduation".
- Swap specific details aggressively: names, places, activities, objects, numbers.
  "We hiked for three hours" → "We sailed for five hours".
- Each alteration should **build on previous drift** — look at the conversation
  history and keep steering each side further apart. Don't correct course.
- The altered version must be a **perfectly natural, grammatically correct sentence**
  that fits the listener's version of the conversation (not the speaker's).
- Do NOT make obviously absurd or comedic changes — the drift should feel organic.
- Do NOT acknowledge that you are changing anything.
- Respond in the same language the message was spoken in.

Strength level (0.0 = nearly faithful, 1.0 = aggressive drift): %.2f
At low strength, change one or two details per message.
At high strength, change multiple key words and actively steer toward a different topic.

Output ONLY the altered message — no quotes, no labels, no explanation.`

// BuildMessages lays out the full prompt for a paraphrase call: the drift
// instructions, the round topic, a window of prior turns, and the message
// itself. Backends map roles onto their own wire formats.
func BuildMessages(req ParaphraseRequest) []Message {
	msgs := []Message{{Role: "system", Content: fmt.Sprintf(systemTemplate, req.Strength)}}

	if req.Topic != "" {
		msgs = append(msgs, Message{
			Role:    "system",
			Content: fmt.Sprintf("The original conversation topic is: %q", req.Topic),
		})
	}

	if len(req.History) > 0 {
		var lines []string
		for _, t := range req.History {
			lines = append(lines, fmt.Sprintf("[Player %d] (original) %s  →  (misheard) %s",
				t.Player, t.Original, t.Misheard))
		}
		msgs = append(msgs, Message{
			Role:    "system",
			Content: "Conversation so far:\n" + strings.Join(lines, "\n"),
		})
	}

	msgs = append(msgs, Message{
		Role:    "user",
		Content: "Paraphrase this message with small creative changes:\n\n" + req.Original,
	})
	return msgs
}

// Temperature scales drift strength into sampling temperature (0.7–1.2).
func Temperature(strength float64) float64 {
	return 0.7 + strength*0.5
}
