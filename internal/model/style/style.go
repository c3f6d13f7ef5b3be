package style

// Style captures a narrative voice the generator can be asked to write in.
type Style struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tone        string   `json:"tone"`
	PromptHint  string   `json:"promptHint"`
	Keywords    []string `json:"keywords,omitempty"`
}

// DefaultID is the preset applied when a request names no style.
const DefaultID = "storyteller"

// Seed provides the built-in narrative styles.
func Seed() []Style {
	return []Style{
		{
			ID:          DefaultID,
			Name:        "Storyteller",
			Description: "Warm, continuous storytelling that treats every image as the next chapter of one tale.",
			Tone:        "warm, vivid, connective",
			PromptHint:  "Maintain a consistent tone throughout the story and make creative, meaningful connections between images.",
			Keywords:    []string{"continuity", "emotion", "detail"},
		},
		{
			ID:          "noir",
			Name:        "Noir",
			Description: "Moody detective fiction: long shadows, short sentences, everything a clue.",
			Tone:        "terse, atmospheric, suspicious",
			PromptHint:  "Narrate like a hard-boiled detective. Treat objects in the image as evidence and earlier chapters as unsolved leads.",
			Keywords:    []string{"mystery", "shadow", "city"},
		},
		{
			ID:          "fairy-tale",
			Name:        "Fairy Tale",
			Description: "Once-upon-a-time framing with gentle wonder and a moral undercurrent.",
			Tone:        "whimsical, gentle, timeless",
			PromptHint:  "Write as a classic fairy tale. Let ordinary things in the image carry a touch of magic and echo earlier chapters as recurring motifs.",
			Keywords:    []string{"wonder", "magic", "journey"},
		},
	}
}
