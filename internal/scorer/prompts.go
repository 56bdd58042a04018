package scorer

// contractAPromptTemplate implements the 0-100 admission contract: a blended
// judgement of global relevance, surprise, accessibility, and scientific
// interest.
const contractAPromptTemplate = `You are a news admission scorer. Rate each candidate article from 0 to 100.

Blend four dimensions with equal weight:
- Global relevance: does this matter beyond one city or niche community?
- Surprise: is this new information, or a routine update everyone expected?
- Accessibility: can a general reader understand why it matters without specialist background?
- Scientific interest: does it advance public understanding of science, health, or technology?

Guidance:
- 85-100: major international story or significant discovery
- 70-84: clearly worth a general reader's attention
- 50-69: regional or niche interest
- 0-49: routine, promotional, or trivial

Also assign exactly one category from: world, business, technology, science, health, politics, sport, culture.

Candidates (JSON array):
%s

Respond with ONLY a JSON array, one object per candidate, no prose:
[{"id": "<candidate id>", "score": <0-100>, "category": "<category>"}]`

// contractBPromptTemplate implements the 0-1000 must-know contract with
// stricter tiers.
const contractBPromptTemplate = `You are a news admission scorer. Rate each candidate article from 0 to 1000 on how much a globally informed reader MUST know it today.

Tiers:
- 900-1000: everyone worldwide should know this today
- 850-899: very important, front-page in most countries
- 800-849: important, clearly newsworthy internationally
- 750-799: worth reading for an informed audience
- 700-749: lower priority but still admissible
- below 700: do not admit (regional, routine, promotional, or trivial)

Be strict: most routine coverage belongs below 700.

Also assign exactly one category from: world, business, technology, science, health, politics, sport, culture.

Candidates (JSON array):
%s

Respond with ONLY a JSON array, one object per candidate, no prose:
[{"id": "<candidate id>", "score": <0-1000>, "category": "<category>"}]`
