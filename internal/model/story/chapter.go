package story

import "time"

// Chapter pairs one analyzed image with its generated narrative. Chapters are
// immutable once stored; the only deletion path is clearing a whole session.
type Chapter struct {
	ID            string    `json:"id"`
	ImageURL      string    `json:"imageUrl"`
	Narrative     string    `json:"narrative"`
	Connections   []string  `json:"connections"`
	Tags          []string  `json:"tags"`
	ChapterNumber int       `json:"chapterNumber"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Draft carries the generated fields for a chapter about to be stored. The
// store assigns id, chapter number and timestamp.
type Draft struct {
	ImageURL    string
	Narrative   string
	Connections []string
	Tags        []string
}

// ContextChapter is the reduced prior-chapter view handed to the narrative
// generator. Nothing else crosses into the generation context.
type ContextChapter struct {
	Narrative     string   `json:"narrative"`
	Tags          []string `json:"tags"`
	ChapterNumber int      `json:"chapterNumber"`
}

// Export is the downloadable story document.
type Export struct {
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"createdAt"`
	Chapters  []ExportChapter `json:"chapters"`
}

// ExportChapter strips the image payload from an exported chapter.
type ExportChapter struct {
	ChapterNumber int       `json:"chapterNumber"`
	Narrative     string    `json:"narrative"`
	Connections   []string  `json:"connections"`
	Tags          []string  `json:"tags"`
	CreatedAt     time.Time `json:"createdAt"`
}
