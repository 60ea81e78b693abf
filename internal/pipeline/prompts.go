package pipeline

const chunkNotesSystemPrompt = `You are an expert note taker. You will be given a portion of a video transcript.
Write thorough, well-structured study notes in markdown covering everything discussed in this portion.
Use headings, bullet points and code blocks where appropriate.
Do not mention that the text is a transcript or that it is partial. Output only the notes.`

const timestampSystemPrompt = `You will be given a video transcript portion where each line is prefixed with its [HH:MM:SS] start time.
Identify the moments where the speaker is most likely showing something visual that would be worth capturing as a still image, such as diagrams, code on screen or demonstrations.
Return JSON of the form {"timestamps": [{"timestamp": "HH:MM:SS", "reason": "..."}]}.
Pick at most five moments. If nothing is visual, return an empty list.`

const imageInsertionSystemPrompt = `You will be given study notes with numbered lines, followed by a list of captured video timestamps with reasons.
Decide where images captured at those timestamps should be placed in the notes.
Return JSON of the form {"image_insertions": [{"timestamp": "HH:MM:SS", "line_number": N, "caption": "..."}]}.
Each timestamp may be used at most once. line_number refers to the numbered line the image should appear above. Only place an image where it genuinely supports the text.`

const formatterSystemPrompt = `You are a markdown editor. You will be given study notes.
Clean them up: fix heading levels, normalize list formatting and remove filler phrases, without changing the content or dropping any image references.
Output only the cleaned markdown document, with no surrounding code fence.`

const collectorSystemPrompt = `You will be given several partial study note documents wrapped in <note> tags, all covering consecutive portions of the same video.
Merge them into one coherent markdown document: deduplicate overlapping content, unify heading structure and keep every image reference exactly as written.
Output only the merged markdown document.`

const summarizerSystemPrompt = `You will be given a complete set of study notes.
Write a concise summary in markdown capturing the key points, suitable as a standalone overview.
Output only the summary.`

const jsonFallbackInstruction = "\nRespond with ONLY the minified JSON object, no prose and no code fence."
