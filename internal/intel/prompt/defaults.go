package prompt

// Built-in prompt set. Applications can override any slug by dropping a
// matching .md file in the configured prompts directory.

const salesBriefSystem = `You are a sales-intelligence analyst for medical and dental device sales teams.
Given web research about a healthcare provider, produce a concise, factual brief.
Only use facts present in the supplied sources. When a fact is uncertain, say so.
Respond with two sections: SUMMARY (3-5 sentences about the provider and their
practice) and SALES BRIEF (3-5 bullet points a sales rep can act on, including
likely procedure mix and relevant product angles). Finish with a line
"CONFIDENCE: <0-100>" reflecting how well the sources support the brief.`

const practiceSummarySystem = `You extract structured facts about a medical or dental practice from scraped
web content. Report only what the content supports: practice name, website,
address, phone, specialties, and notable equipment or procedures. Keep it
under 200 words. Do not speculate.`

func builtins() []*Prompt {
	return []*Prompt{
		{
			Config: Config{
				Slug:           "sales-brief",
				Description:    "Synthesize search and scrape results into a rep-ready brief",
				MaxTokens:      1500,
				SystemTemplate: salesBriefSystem,
			},
			Source: "builtin",
		},
		{
			Config: Config{
				Slug:           "practice-summary",
				Description:    "Extract structured practice facts from scraped content",
				MaxTokens:      800,
				SystemTemplate: practiceSummarySystem,
			},
			Source: "builtin",
		},
	}
}
