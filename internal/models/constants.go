package models

const (
	DefaultImageDirName = "extracted_images"
	ContextSeparator    = "\n---\n"
	ThinkTag            = `(?s)<think>.*?</think>`
)

var (
	ImageSummaryPrompt = `You are an assistant tasked with summarizing images for retrieval.
Describe the image in detail: its type (chart, table, diagram, photo, screenshot), every readable
label, number and caption, and what it conveys. The summary will be embedded and used to find the
image later, so be specific and do not add any preamble.`

	AnswerPromptTemplate = `Answer the question using only the context below. Cite sources as
(Source, Page). If images are attached, use them as additional context. If the answer is not in the
context, say that you do not know.

Context:
%s

Question: %s`
)
